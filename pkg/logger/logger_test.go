package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestLoggerEntryShape(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewLogger("order-service", Options{Level: "debug", Writer: &buf})

	log.WithRequestID("req-1").Action("order_created").Error("Failed to publish", errors.New("broker down"), "order_number", "ORD-1")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON entry, got %q: %v", buf.String(), err)
	}

	for _, key := range []string{"timestamp", "level", "service", "hostname", "action", "message", "request_id", "error"} {
		if _, ok := entry[key]; !ok {
			t.Fatalf("expected key %q in %v", key, entry)
		}
	}
	if entry["service"] != "order-service" {
		t.Fatalf("expected service order-service, got %v", entry["service"])
	}
	if entry["level"] != "ERROR" {
		t.Fatalf("expected level ERROR, got %v", entry["level"])
	}
	errEntry, ok := entry["error"].(map[string]any)
	if !ok || errEntry["msg"] != "broker down" {
		t.Fatalf("expected error.msg broker down, got %v", entry["error"])
	}
}

func TestLoggerLevelFilter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewLogger("svc", Options{Level: "info", Writer: &buf})
	log.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected debug to be filtered, got %q", buf.String())
	}
	log.Info("shown")
	if !strings.Contains(buf.String(), `"message":"shown"`) {
		t.Fatalf("expected info entry, got %q", buf.String())
	}
}

func TestFromCtx(t *testing.T) {
	t.Parallel()

	fallback := Nop()
	if FromCtx(context.Background(), fallback) != fallback {
		t.Fatalf("expected fallback logger")
	}
	scoped := Nop().WithRequestID("req-2")
	ctx := WithCtx(context.Background(), scoped)
	if FromCtx(ctx, fallback) != scoped {
		t.Fatalf("expected scoped logger from context")
	}
}
