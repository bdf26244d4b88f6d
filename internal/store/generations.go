package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrGenerationNotFound = errors.New("generation not found")

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// PostgresStore is the generation audit log.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) InsertGeneration(ctx context.Context, g Generation) error {
	encodedWarnings, err := encodeWarnings(g.Warnings)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO generations (id, kind, proposal_name, client_name, client_country, currency, total, filename, docx_key, pdf_key, removed_rows, warnings, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12::jsonb, $13)
	`, g.ID, g.Kind, g.ProposalName, g.ClientName, g.ClientCountry, g.Currency, g.Total, g.Filename, g.DOCXKey, g.PDFKey, g.RemovedRows, encodedWarnings, g.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert generation: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetGeneration(ctx context.Context, id string) (Generation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, kind, proposal_name, client_name, client_country, currency, total, filename, docx_key, pdf_key, removed_rows, warnings, created_at
		FROM generations
		WHERE id=$1
	`, id)
	g, err := scanGeneration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Generation{}, ErrGenerationNotFound
	}
	if err != nil {
		return Generation{}, fmt.Errorf("get generation: %w", err)
	}
	return g, nil
}

// ListGenerations returns the newest generations first.
func (s *PostgresStore) ListGenerations(ctx context.Context, filter GenerationFilter) ([]Generation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, proposal_name, client_name, client_country, currency, total, filename, docx_key, pdf_key, removed_rows, warnings, created_at
		FROM generations
		WHERE ($1='' OR kind=$1)
		ORDER BY created_at DESC
		LIMIT $2
	`, strings.TrimSpace(filter.Kind), clampLimit(filter.Limit))
	if err != nil {
		return nil, fmt.Errorf("list generations: %w", err)
	}
	defer rows.Close()

	items := make([]Generation, 0)
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan generation: %w", err)
		}
		items = append(items, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate generations: %w", err)
	}
	return items, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGeneration(row scanner) (Generation, error) {
	var g Generation
	var warningsRaw []byte
	if err := row.Scan(
		&g.ID,
		&g.Kind,
		&g.ProposalName,
		&g.ClientName,
		&g.ClientCountry,
		&g.Currency,
		&g.Total,
		&g.Filename,
		&g.DOCXKey,
		&g.PDFKey,
		&g.RemovedRows,
		&warningsRaw,
		&g.CreatedAt,
	); err != nil {
		return Generation{}, err
	}
	g.Warnings = decodeWarnings(warningsRaw)
	return g, nil
}

func encodeWarnings(warnings []string) (string, error) {
	if warnings == nil {
		warnings = []string{}
	}
	encoded, err := json.Marshal(warnings)
	if err != nil {
		return "", fmt.Errorf("marshal generation warnings: %w", err)
	}
	return string(encoded), nil
}

func decodeWarnings(raw []byte) []string {
	out := []string{}
	_ = json.Unmarshal(raw, &out)
	return out
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	default:
		return limit
	}
}
