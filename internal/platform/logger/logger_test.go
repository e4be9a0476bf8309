package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestLogger_TextFormat_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: Warn, Output: &buf})

	l.Info("ignored", nil)
	l.Warn("kept", map[string]any{"pet_id": "abc"})

	out := buf.String()
	if strings.Contains(out, "ignored") {
		t.Fatalf("info line should be filtered, got %q", out)
	}
	if !strings.Contains(out, "msg=kept") || !strings.Contains(out, "pet_id=abc") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestLogger_JSONFormat_WithMergesFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: Debug, Format: FormatJSON, App: "pet-health-tracker", Output: &buf})

	l.With(map[string]any{"request_id": "r-1"}).Error("boom", map[string]any{"err": errors.New("db down")})

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("invalid json line %q: %v", buf.String(), err)
	}
	if entry["app"] != "pet-health-tracker" || entry["request_id"] != "r-1" || entry["err"] != "db down" {
		t.Fatalf("unexpected entry %#v", entry)
	}
	if entry["level"] != "ERROR" {
		t.Fatalf("expected level ERROR, got %v", entry["level"])
	}
}

func TestFromContext_Fallback(t *testing.T) {
	fallback := Nop()
	if got := FromContext(context.Background(), fallback); got != fallback {
		t.Fatalf("expected fallback logger")
	}

	reqLogger := Nop().With(map[string]any{"request_id": "x"})
	ctx := WithContext(context.Background(), reqLogger)
	if got := FromContext(ctx, fallback); got != reqLogger {
		t.Fatalf("expected request logger from context")
	}
}
