package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/go-playground/assert/v2"
	_ "github.com/mattn/go-sqlite3"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	s := New(db)
	if err := s.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestCreateAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, "Meeting notes")
	assert.Equal(t, nil, err)
	assert.NotEqual(t, "", created.ID)
	assert.Equal(t, "Meeting notes", created.Title)
	assert.Equal(t, "", created.Content)

	got, err := s.Get(ctx, created.ID)
	assert.Equal(t, nil, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Meeting notes", got.Title)
}

func TestCreateDefaultsTitle(t *testing.T) {
	s := newTestStore(t)
	created, err := s.Create(context.Background(), "")
	assert.Equal(t, nil, err)
	assert.Equal(t, "Untitled Document", created.Title)
}

func TestGetUnknownIsNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), "nope")
	assert.Equal(t, true, errors.Is(err, ErrNotFound))
}

func TestList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	docs, err := s.List(ctx)
	assert.Equal(t, nil, err)
	assert.Equal(t, 0, len(docs))

	_, err = s.Create(ctx, "one")
	assert.Equal(t, nil, err)
	_, err = s.Create(ctx, "two")
	assert.Equal(t, nil, err)

	docs, err = s.List(ctx)
	assert.Equal(t, nil, err)
	assert.Equal(t, 2, len(docs))
}

func TestPartialUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	created, err := s.Create(ctx, "draft")
	assert.Equal(t, nil, err)

	content := "hello world"
	updated, err := s.Update(ctx, created.ID, nil, &content)
	assert.Equal(t, nil, err)
	assert.Equal(t, "draft", updated.Title)
	assert.Equal(t, "hello world", updated.Content)

	title := "final"
	updated, err = s.Update(ctx, created.ID, &title, nil)
	assert.Equal(t, nil, err)
	assert.Equal(t, "final", updated.Title)
	assert.Equal(t, "hello world", updated.Content)

	// empty title keeps the stored one, matching the editor's save behaviour
	empty := ""
	updated, err = s.Update(ctx, created.ID, &empty, nil)
	assert.Equal(t, nil, err)
	assert.Equal(t, "final", updated.Title)
}

func TestUpdateUnknownIsNotFound(t *testing.T) {
	s := newTestStore(t)
	title := "x"
	_, err := s.Update(context.Background(), "nope", &title, nil)
	assert.Equal(t, true, errors.Is(err, ErrNotFound))
}
