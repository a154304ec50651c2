// Package attachment writes uploaded files under a date-partitioned tree with
// hashed names, so the on-disk name never reveals the uploaded one.
package attachment

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

const octetStream = "application/octet-stream"

// Saver stores attachments below Root.
type Saver struct {
	Root string
}

// NewSaver creates a Saver rooted at root.
func NewSaver(root string) *Saver {
	return &Saver{Root: root}
}

// Path returns where the seq-th attachment of an entry created at createdAt
// with the given original name is stored:
// <root>/YYYY/MM/DD/<sha256(created_at, name, seq)>[.ext]
func (s *Saver) Path(createdAt time.Time, seq int, originalName string) string {
	createdAt = createdAt.UTC()
	name := filepath.Base(originalName)

	h := sha256.New()
	h.Write([]byte(createdAt.Format(time.RFC3339Nano)))
	h.Write([]byte(name))
	h.Write([]byte(strconv.Itoa(seq)))
	file := hex.EncodeToString(h.Sum(nil)) + filepath.Ext(name)

	return filepath.Join(s.Root,
		fmt.Sprintf("%04d", createdAt.Year()),
		fmt.Sprintf("%02d", int(createdAt.Month())),
		fmt.Sprintf("%02d", createdAt.Day()),
		file)
}

// Save copies r to the attachment path and returns it. A partially written
// file is removed on error.
func (s *Saver) Save(createdAt time.Time, seq int, originalName string, r io.Reader) (string, error) {
	path := s.Path(createdAt, seq, originalName)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", fmt.Errorf("create attachment dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return "", fmt.Errorf("create attachment %s: %w", path, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write attachment %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close attachment %s: %w", path, err)
	}
	return path, nil
}

// Remove deletes previously saved attachments, ignoring files already gone.
func (s *Saver) Remove(paths ...string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}

// DetectMime returns declared unless it is empty or generic, in which case
// the type is sniffed from the file content.
func DetectMime(path, declared string) string {
	if declared != "" && declared != octetStream {
		return declared
	}
	m, err := mimetype.DetectFile(path)
	if err != nil {
		return octetStream
	}
	return m.String()
}
