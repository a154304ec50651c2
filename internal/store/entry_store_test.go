package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kou-oishi/Elogbook-Backend/internal/store"
	"github.com/kou-oishi/Elogbook-Backend/internal/testutil"
)

func newEntryTestEnv(t *testing.T) *store.EntryStore {
	t.Helper()
	return store.NewEntryStore(testutil.NewTestDB(t))
}

func TestEntryStore_CreateAndGet(t *testing.T) {
	es := newEntryTestEnv(t)
	ctx := context.Background()
	created := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	e, err := es.Create(ctx, "beam line warmed up", created, []store.NewAttachment{
		{SavedPath: "attachments/2024/03/01/aa.png", OriginalName: "scope.png", Mime: "image/png"},
		{SavedPath: "attachments/2024/03/01/bb.txt", OriginalName: "notes.txt", Mime: "text/plain"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if e.ID == "" {
		t.Fatal("expected generated ID")
	}

	got, err := es.GetByID(ctx, e.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Content != "beam line warmed up" {
		t.Errorf("Content = %q", got.Content)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
	}
	if len(got.Attachments) != 2 {
		t.Fatalf("len(Attachments) = %d, want 2", len(got.Attachments))
	}
	first := got.Attachments[0]
	if first.Seq != 1 || first.OriginalName != "scope.png" || first.SavedPath != "attachments/2024/03/01/aa.png" || first.Mime != "image/png" {
		t.Errorf("Attachments[0] = %+v", first)
	}
	if got.Attachments[1].Seq != 2 {
		t.Errorf("Attachments[1].Seq = %d, want 2", got.Attachments[1].Seq)
	}
}

func TestEntryStore_GetByID_NotFound(t *testing.T) {
	es := newEntryTestEnv(t)
	_, err := es.GetByID(context.Background(), "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetByID(missing) = %v, want ErrNotFound", err)
	}
}

func TestEntryStore_List(t *testing.T) {
	es := newEntryTestEnv(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, content := range []string{"first", "second", "third"} {
		var atts []store.NewAttachment
		if content == "second" {
			atts = []store.NewAttachment{{SavedPath: "p", OriginalName: "a.bin", Mime: "application/octet-stream"}}
		}
		if _, err := es.Create(ctx, content, base.Add(time.Duration(i)*time.Hour), atts); err != nil {
			t.Fatalf("Create %s: %v", content, err)
		}
	}

	tests := []struct {
		name          string
		limit, offset int
		want          []string
	}{
		{"all newest first", 10, 0, []string{"third", "second", "first"}},
		{"limit", 2, 0, []string{"third", "second"}},
		{"offset", 2, 1, []string{"second", "first"}},
		{"past end", 5, 3, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := es.List(ctx, tt.limit, tt.offset)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(entries) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(entries), len(tt.want))
			}
			for i, e := range entries {
				if e.Content != tt.want[i] {
					t.Errorf("entries[%d] = %q, want %q", i, e.Content, tt.want[i])
				}
				wantAtts := 0
				if e.Content == "second" {
					wantAtts = 1
				}
				if len(e.Attachments) != wantAtts {
					t.Errorf("%s has %d attachments, want %d", e.Content, len(e.Attachments), wantAtts)
				}
			}
		})
	}
}
