package storage

import (
	"context"
	"testing"
)

func TestOpen_DefaultsToMemory(t *testing.T) {
	b, err := Open(context.Background(), Config{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer b.Close()

	if b.Driver != DriverMemory {
		t.Fatalf("expected memory driver, got %q", b.Driver)
	}
	if b.Pets == nil || b.Cascade == nil || b.Records == nil || b.Medications == nil || b.Users == nil || b.Tokens == nil {
		t.Fatalf("bundle has nil repositories: %+v", b)
	}
}

func TestOpen_RequiresConnectionSettings(t *testing.T) {
	if _, err := Open(context.Background(), Config{Driver: DriverMongo}); err == nil {
		t.Fatalf("expected error without MONGO_URI")
	}
	if _, err := Open(context.Background(), Config{Driver: DriverPostgres}); err == nil {
		t.Fatalf("expected error without DB_DSN")
	}
	if _, err := Open(context.Background(), Config{Driver: "sqlite"}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
