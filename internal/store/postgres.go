// Package store persists converted worksheet rows in PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/insightdelivered/budget-worksheet-converter/internal/models"
)

// DefaultTable receives rows when PostgresSink.Table is empty.
const DefaultTable = "worksheet_rows"

// PostgresSink writes rows with COPY, one transaction per document.
type PostgresSink struct {
	db    *sql.DB
	Table string
}

// NewPostgresSink wraps an open database handle.
func NewPostgresSink(db *sql.DB) *PostgresSink {
	return &PostgresSink{db: db, Table: DefaultTable}
}

// Open connects to databaseURL and verifies the connection.
func Open(ctx context.Context, databaseURL string) (*PostgresSink, error) {
	if databaseURL == "" {
		return nil, errors.New("database URL is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return NewPostgresSink(db), nil
}

// Close closes the underlying database handle.
func (s *PostgresSink) Close() error {
	return s.db.Close()
}

func (s *PostgresSink) table() string {
	if s.Table == "" {
		return DefaultTable
	}
	return s.Table
}

// copyColumns is the COPY column list: document id, row position, then the
// output columns.
func copyColumns() []string {
	return append([]string{"document_id", "row_index"}, models.Columns...)
}

// EnsureSchema creates the row table if it does not exist. Every output
// column is stored as text so values round-trip unchanged.
func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	defs := []string{
		"document_id UUID NOT NULL",
		"row_index INTEGER NOT NULL",
	}
	for _, c := range models.Columns {
		defs = append(defs, pq.QuoteIdentifier(c)+" TEXT NOT NULL DEFAULT ''")
	}
	defs = append(defs, "PRIMARY KEY (document_id, row_index)")

	query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)",
		pq.QuoteIdentifier(s.table()), strings.Join(defs, ",\n\t"))
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.table(), err)
	}
	return nil
}

// SaveRows copies rows into the table under documentID. Either every row is
// stored or none is.
func (s *PostgresSink) SaveRows(ctx context.Context, documentID string, rows []models.Row) (err error) {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(s.table(), copyColumns()...))
	if err != nil {
		return fmt.Errorf("failed to prepare copy: %w", err)
	}

	args := make([]any, 0, len(models.Columns)+2)
	for i, row := range rows {
		if len(row) != len(models.Columns) {
			stmt.Close()
			return fmt.Errorf("row %d has %d fields, want %d", i, len(row), len(models.Columns))
		}
		args = append(args[:0], documentID, i)
		for _, v := range row {
			args = append(args, v)
		}
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			stmt.Close()
			return fmt.Errorf("failed to copy row %d: %w", i, err)
		}
	}
	if _, err = stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return fmt.Errorf("failed to flush copy: %w", err)
	}
	if err = stmt.Close(); err != nil {
		return fmt.Errorf("failed to close copy: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rows: %w", err)
	}
	return nil
}
