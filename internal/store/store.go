// Package store persists journal entries and their attachment metadata.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// EntryStoreIface exposes entry data operations.
// No handler may query the DB directly; all access goes through this interface.
type EntryStoreIface interface {
	Create(ctx context.Context, content string, createdAt time.Time, attachments []NewAttachment) (*Entry, error)
	GetByID(ctx context.Context, id string) (*Entry, error)
	List(ctx context.Context, limit, offset int) ([]*Entry, error)
}

var _ EntryStoreIface = (*EntryStore)(nil)
