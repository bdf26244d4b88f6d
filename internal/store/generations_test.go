package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestClampLimit(t *testing.T) {
	cases := []struct {
		in, want int
	}{
		{0, defaultListLimit},
		{-3, defaultListLimit},
		{10, 10},
		{maxListLimit + 1, maxListLimit},
	}
	for _, tc := range cases {
		if got := clampLimit(tc.in); got != tc.want {
			t.Errorf("clampLimit(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestWarningsEncoding(t *testing.T) {
	encoded, err := encodeWarnings(nil)
	if err != nil {
		t.Fatalf("encodeWarnings(nil) error = %v", err)
	}
	if encoded != "[]" {
		t.Errorf("encodeWarnings(nil) = %q, want []", encoded)
	}

	encoded, err = encodeWarnings([]string{"phone number for India should start with +91"})
	if err != nil {
		t.Fatalf("encodeWarnings() error = %v", err)
	}
	decoded := decodeWarnings([]byte(encoded))
	if len(decoded) != 1 || !strings.HasPrefix(decoded[0], "phone number") {
		t.Errorf("decodeWarnings() = %v", decoded)
	}

	if got := decodeWarnings([]byte("not json")); got == nil || len(got) != 0 {
		t.Errorf("decodeWarnings(garbage) = %#v, want empty slice", got)
	}
}

func TestGenerationStorePostgres(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	db := openTestDB(t, ctx)
	if err := ApplyMigrations(ctx, db, filepath.Join("..", "..", "db", "migrations")); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	s := NewPostgresStore(db)
	base := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	for i, kind := range []string{"make-crm", "shopify-website", "make-crm"} {
		g := Generation{
			ID:           "gen_" + string(rune('a'+i)),
			Kind:         kind,
			ProposalName: kind,
			ClientName:   "Acme",
			Currency:     "INR",
			Total:        11000,
			Filename:     "x.docx",
			RemovedRows:  i,
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}
		if i == 2 {
			g.Warnings = []string{"pdf conversion is not enabled"}
		}
		if err := s.InsertGeneration(ctx, g); err != nil {
			t.Fatalf("InsertGeneration(%s) error = %v", g.ID, err)
		}
	}

	got, err := s.GetGeneration(ctx, "gen_c")
	if err != nil {
		t.Fatalf("GetGeneration() error = %v", err)
	}
	if got.Kind != "make-crm" || got.RemovedRows != 2 || len(got.Warnings) != 1 {
		t.Errorf("unexpected generation: %+v", got)
	}
	if !got.CreatedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("CreatedAt = %v", got.CreatedAt)
	}

	if _, err := s.GetGeneration(ctx, "gen_missing"); !errors.Is(err, ErrGenerationNotFound) {
		t.Errorf("expected ErrGenerationNotFound, got %v", err)
	}

	all, err := s.ListGenerations(ctx, GenerationFilter{})
	if err != nil {
		t.Fatalf("ListGenerations() error = %v", err)
	}
	if len(all) != 3 || all[0].ID != "gen_c" {
		t.Errorf("expected newest first, got %+v", all)
	}

	filtered, err := s.ListGenerations(ctx, GenerationFilter{Kind: "make-crm", Limit: 1})
	if err != nil {
		t.Fatalf("ListGenerations(filtered) error = %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != "gen_c" {
		t.Errorf("unexpected filtered list: %+v", filtered)
	}
}
