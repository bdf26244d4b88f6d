package util

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewID(t *testing.T) {
	id := NewID("gen")
	if !strings.HasPrefix(id, "gen_") {
		t.Fatalf("NewID() = %q, want gen_ prefix", id)
	}
	if _, err := uuid.Parse(strings.TrimPrefix(id, "gen_")); err != nil {
		t.Errorf("suffix is not a uuid: %v", err)
	}
	if NewID("") == NewID("") {
		t.Error("ids should be unique")
	}
}

func TestShortID(t *testing.T) {
	id := ShortID()
	if len(id) != 8 {
		t.Fatalf("ShortID() = %q", id)
	}
	for _, r := range id {
		if !strings.ContainsRune("0123456789abcdef", r) {
			t.Errorf("ShortID() = %q contains %q", id, r)
		}
	}
}
