package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("document not found")

type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists documents. Clients consult it on initial load and explicit
// save; the relay itself never reads or writes it.
type Store struct {
	database *sql.DB
}

func New(database *sql.DB) *Store {
	return &Store{database: database}
}

func (s *Store) Init(ctx context.Context) error {
	if _, err := s.database.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS documents (
    	id text not null primary key,
    	title text not null,
    	content text not null,
    	created_at timestamp not null,
    	updated_at timestamp not null
		)`,
	); err != nil {
		return fmt.Errorf("failed to create documents table: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]Document, error) {
	rows, err := s.database.QueryContext(ctx,
		`SELECT id, title, content, created_at, updated_at FROM documents ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()
	docs := make([]Document, 0)
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Title, &d.Content, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// Create inserts a new empty document. An empty title falls back to the
// default used by the editor UI.
func (s *Store) Create(ctx context.Context, title string) (Document, error) {
	if title == "" {
		title = "Untitled Document"
	}
	now := time.Now().UTC()
	d := Document{ID: uuid.NewString(), Title: title, CreatedAt: now, UpdatedAt: now}
	if _, err := s.database.ExecContext(ctx,
		`INSERT INTO documents(id, title, content, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		d.ID, d.Title, d.Content, d.CreatedAt, d.UpdatedAt,
	); err != nil {
		return Document{}, fmt.Errorf("failed to insert document: %w", err)
	}
	return d, nil
}

func (s *Store) Get(ctx context.Context, id string) (Document, error) {
	var d Document
	if err := s.database.QueryRowContext(ctx,
		`SELECT id, title, content, created_at, updated_at FROM documents WHERE id = ?`, id,
	).Scan(&d.ID, &d.Title, &d.Content, &d.CreatedAt, &d.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, fmt.Errorf("failed to query document: %w", err)
	}
	return d, nil
}

// Update applies a partial update: nil fields keep their stored value.
func (s *Store) Update(ctx context.Context, id string, title *string, content *string) (Document, error) {
	tx, err := s.database.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return Document{}, fmt.Errorf("failed to start tx: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			slog.Error("failed to rollback", "err", err)
		}
	}()

	var d Document
	if err := tx.QueryRowContext(ctx,
		`SELECT id, title, content, created_at, updated_at FROM documents WHERE id = ?`, id,
	).Scan(&d.ID, &d.Title, &d.Content, &d.CreatedAt, &d.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, fmt.Errorf("failed to query document: %w", err)
	}

	if title != nil && *title != "" {
		d.Title = *title
	}
	if content != nil {
		d.Content = *content
	}
	d.UpdatedAt = time.Now().UTC()

	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET title = ?, content = ?, updated_at = ? WHERE id = ?`,
		d.Title, d.Content, d.UpdatedAt, d.ID,
	); err != nil {
		return Document{}, fmt.Errorf("failed to update document: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Document{}, fmt.Errorf("failed to commit: %w", err)
	}
	return d, nil
}
