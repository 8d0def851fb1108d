package connector

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerForwardsFields(t *testing.T) {
	core, observed := observer.New(zap.DebugLevel)
	logger := NewZapLogger(zap.New(core))

	logger.Info("chunk executed", String("trace_id", "abc"), Int("statements", 2))

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}

	entry := entries[0]
	if entry.Message != "chunk executed" {
		t.Errorf("unexpected message: %s", entry.Message)
	}

	fields := entry.ContextMap()
	if fields["trace_id"] != "abc" {
		t.Errorf("expected trace_id field, got %v", fields)
	}
	if fields["statements"] != int64(2) {
		t.Errorf("expected statements field, got %v", fields)
	}
}

func TestZapLoggerRedactsSensitiveFields(t *testing.T) {
	core, observed := observer.New(zap.DebugLevel)
	logger := NewZapLogger(zap.New(core))

	logger.Warn("auth retry", String("password", "hunter2"))

	fields := observed.All()[0].ContextMap()
	if fields["password"] != "[REDACTED]" {
		t.Errorf("expected password to be redacted, got %v", fields["password"])
	}
}

func TestZapLoggerWithFields(t *testing.T) {
	core, observed := observer.New(zap.DebugLevel)
	logger := NewZapLogger(zap.New(core)).WithFields(String("component", "connector"))

	logger.Error("chunk failed")

	fields := observed.All()[0].ContextMap()
	if fields["component"] != "connector" {
		t.Errorf("expected base field to be carried, got %v", fields)
	}
}
