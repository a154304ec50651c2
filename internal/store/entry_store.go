package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Entry represents a row in the entries table together with its attachments.
type Entry struct {
	ID          string       `db:"id"`
	Content     string       `db:"content"`
	CreatedAt   time.Time    `db:"created_at"`
	Attachments []Attachment `db:"-"`
}

// Attachment represents a row in the attachments table. SavedPath is the
// on-disk location and must never leave the server.
type Attachment struct {
	EntryID      string `db:"entry_id"`
	Seq          int    `db:"seq"`
	SavedPath    string `db:"saved_path"`
	OriginalName string `db:"original_name"`
	Mime         string `db:"mime"`
}

// NewAttachment is the input for one attachment of a new entry. Seq is
// assigned from its position, starting at 1.
type NewAttachment struct {
	SavedPath    string
	OriginalName string
	Mime         string
}

// EntryStore is the sqlx-backed store for journal entries.
type EntryStore struct {
	db *sqlx.DB
}

// NewEntryStore creates a new EntryStore.
func NewEntryStore(db *sqlx.DB) *EntryStore {
	return &EntryStore{db: db}
}

// q rebinds ? placeholders to the driver's native format ($1,$2,... for PostgreSQL).
func (s *EntryStore) q(query string) string { return s.db.Rebind(query) }

// Create inserts an entry and its attachments in one transaction.
func (s *EntryStore) Create(ctx context.Context, content string, createdAt time.Time, attachments []NewAttachment) (*Entry, error) {
	e := &Entry{
		ID:        uuid.New().String(),
		Content:   content,
		CreatedAt: createdAt.UTC(),
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, s.q(`
		INSERT INTO entries (id, content, created_at) VALUES (?, ?, ?)
	`), e.ID, e.Content, e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert entry: %w", err)
	}

	for i, a := range attachments {
		att := Attachment{
			EntryID:      e.ID,
			Seq:          i + 1,
			SavedPath:    a.SavedPath,
			OriginalName: a.OriginalName,
			Mime:         a.Mime,
		}
		_, err = tx.ExecContext(ctx, s.q(`
			INSERT INTO attachments (entry_id, seq, saved_path, original_name, mime)
			VALUES (?, ?, ?, ?, ?)
		`), att.EntryID, att.Seq, att.SavedPath, att.OriginalName, att.Mime)
		if err != nil {
			return nil, fmt.Errorf("insert attachment %d: %w", att.Seq, err)
		}
		e.Attachments = append(e.Attachments, att)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return e, nil
}

// GetByID returns the entry with its attachments, or ErrNotFound.
func (s *EntryStore) GetByID(ctx context.Context, id string) (*Entry, error) {
	var e Entry
	err := s.db.GetContext(ctx, &e, s.q(`SELECT id, content, created_at FROM entries WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.attachAll(ctx, []*Entry{&e}); err != nil {
		return nil, err
	}
	return &e, nil
}

// List returns up to limit entries, newest first, skipping offset entries.
func (s *EntryStore) List(ctx context.Context, limit, offset int) ([]*Entry, error) {
	entries := []*Entry{}
	err := s.db.SelectContext(ctx, &entries, s.q(`
		SELECT id, content, created_at FROM entries
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`), limit, offset)
	if err != nil {
		return nil, err
	}
	if err := s.attachAll(ctx, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// attachAll loads the attachments for entries in a single query.
func (s *EntryStore) attachAll(ctx context.Context, entries []*Entry) error {
	if len(entries) == 0 {
		return nil
	}
	byID := make(map[string]*Entry, len(entries))
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
		ids = append(ids, e.ID)
	}

	query, args, err := sqlx.In(`
		SELECT entry_id, seq, saved_path, original_name, mime FROM attachments
		WHERE entry_id IN (?)
		ORDER BY entry_id, seq
	`, ids)
	if err != nil {
		return err
	}
	var rows []Attachment
	if err := s.db.SelectContext(ctx, &rows, s.q(query), args...); err != nil {
		return fmt.Errorf("load attachments: %w", err)
	}
	for _, a := range rows {
		e := byID[a.EntryID]
		e.Attachments = append(e.Attachments, a)
	}
	return nil
}
