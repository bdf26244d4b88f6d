package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func observed(opts ...Option) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return wrap(zap.New(core), opts...), logs
}

func TestRedactsContactDetails(t *testing.T) {
	l, logs := observed(WithHashSalt("pepper"))

	l.With("kind", "make-crm").Info("proposal generated",
		"client_email", "ops@acme.test",
		"client_phone", "+911234567890",
		"client", "Acme Ltd",
		"meta", map[string]interface{}{"email": "x@y.z", "rows": 2},
	)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["client_email"] != "[REDACTED]" || fields["client_phone"] != "[REDACTED]" {
		t.Errorf("contact details leaked: %v", fields)
	}
	client, _ := fields["client"].(string)
	if len(client) != len("hash:")+12 || client == "Acme Ltd" {
		t.Errorf("client should be hashed, got %q", client)
	}
	if fields["kind"] != "make-crm" {
		t.Errorf("With() fields lost: %v", fields)
	}
	meta, _ := fields["meta"].(map[string]interface{})
	if meta["email"] != "[REDACTED]" {
		t.Errorf("nested email leaked: %v", meta)
	}
}

func TestRedactionCanBeDisabled(t *testing.T) {
	l, logs := observed(WithRedaction(false))
	l.Warn("pdf skipped", "client_email", "ops@acme.test")
	if got := logs.All()[0].ContextMap()["client_email"]; got != "ops@acme.test" {
		t.Errorf("client_email = %v", got)
	}
}

func TestHashIsStable(t *testing.T) {
	a, _ := observed(WithHashSalt("s"))
	b, _ := observed(WithHashSalt("s"))
	if a.hashValue("Acme") != b.hashValue("Acme") {
		t.Error("hash differs for equal salt")
	}
	if a.hashValue("") != "" {
		t.Error("empty values should stay empty")
	}
}

func TestNewModes(t *testing.T) {
	for _, mode := range []string{"development", "production", "off"} {
		l, err := New(mode)
		if err != nil {
			t.Fatalf("New(%q) error = %v", mode, err)
		}
		l.Info("hello", "mode", mode)
	}

	off, _ := New("OFF")
	if off.SugaredLogger.Desugar().Core().Enabled(zap.ErrorLevel) {
		t.Error("off mode should discard everything")
	}
}
