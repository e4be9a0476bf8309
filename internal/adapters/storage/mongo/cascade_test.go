package mongo

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"pet-health-tracker/internal/domain/records"
	"pet-health-tracker/internal/ports/persistence"
)

func TestTransactionsUnsupported(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{mongo.CommandError{Code: 20, Message: "Transaction numbers are only allowed on a replica set member or mongos"}, true},
		{fmt.Errorf("wrapped: %w", mongo.CommandError{Code: 20}), true},
		{errors.New("This MongoDB deployment does not support retryable writes or sessions are not supported"), true},
		{mongo.CommandError{Code: 11000, Message: "E11000 duplicate key"}, false},
		{errors.New("connection refused"), false},
	}
	for _, c := range cases {
		if got := transactionsUnsupported(c.err); got != c.want {
			t.Errorf("transactionsUnsupported(%v) = %v, want %v", c.err, got, c.want)
		}
	}
}

func TestRecordDoc_RoundTrip(t *testing.T) {
	id := primitive.NewObjectID()
	at := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)

	doc, err := toRecordDoc(records.Record{
		ID:       id.Hex(),
		PetID:    "65a1b2c3d4e5f6a7b8c9d0e1",
		DateTime: at,
		Username: "alice",
		Fields:   map[string]any{"duration": "5 min", "inhalation": true, "pet_id": "ignored"},
	})
	if err != nil {
		t.Fatalf("to doc: %v", err)
	}
	if doc["pet_id"] != "65a1b2c3d4e5f6a7b8c9d0e1" {
		t.Fatalf("common keys must win over fields, got %v", doc["pet_id"])
	}

	// Así lo devuelve el driver al leer.
	read := bson.M{}
	for k, v := range doc {
		read[k] = v
	}
	read["date_time"] = primitive.NewDateTimeFromTime(at)
	read["count"] = int32(3)

	rec := recordFromDoc(read)
	if rec.ID != id.Hex() || !rec.DateTime.Equal(at) || rec.Username != "alice" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.Fields["inhalation"] != true || rec.Fields["count"] != float64(3) {
		t.Fatalf("unexpected fields %+v", rec.Fields)
	}
}

func TestOID_InvalidIsNotFound(t *testing.T) {
	if _, err := oid("nope"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
