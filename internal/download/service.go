package download

import (
	"errors"
	"fmt"
	"os"
	"time"
)

const (
	// DefaultLifetime is how long an issued token stays usable.
	DefaultLifetime = 5 * time.Minute

	// DefaultExtension is how far Extend pushes a session past the current time.
	DefaultExtension = 5 * time.Minute

	maxIssueAttempts = 5
)

var errTokenSpaceExhausted = errors.New("could not mint a unique download token")

// Service issues, consumes, and extends download tokens on top of a Store.
type Service struct {
	store     *Store
	lifetime  time.Duration
	extension time.Duration
	now       func() time.Time
	generate  TokenGenerator
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now as the service's time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithTokenGenerator replaces GenerateToken as the token source.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(s *Service) { s.generate = g }
}

// NewService creates a Service. Non-positive durations fall back to the defaults.
func NewService(store *Store, lifetime, extension time.Duration, opts ...Option) *Service {
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}
	if extension <= 0 {
		extension = DefaultExtension
	}
	s := &Service{
		store:     store,
		lifetime:  lifetime,
		extension: extension,
		now:       time.Now,
		generate:  GenerateToken,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue mints a fresh token for d under clientID. The client's session is
// created if needed, or started afresh if it has expired, and kept alive for
// at least the token lifetime. Every
// call yields a new token, even for a file that already has one.
func (s *Service) Issue(clientID string, d Descriptor) (string, error) {
	now := s.now()
	expiry := now.Add(s.lifetime)
	for range maxIssueAttempts {
		token, err := s.generate()
		if err != nil {
			return "", fmt.Errorf("generate token: %w", err)
		}
		if s.store.Put(clientID, token, d, now, expiry) {
			return token, nil
		}
	}
	return "", errTokenSpaceExhausted
}

// Consume redeems token for clientID and returns its descriptor. The token is
// gone once Consume returns successfully, whatever the caller does next.
func (s *Service) Consume(clientID, token string) (Descriptor, error) {
	return s.store.Take(clientID, token, s.now())
}

// Open consumes token and opens the file it points to. The store lock is
// released before the file is touched. On ErrFileUnavailable the token is
// still spent.
func (s *Service) Open(clientID, token string) (*os.File, os.FileInfo, Descriptor, error) {
	d, err := s.Consume(clientID, token)
	if err != nil {
		return nil, nil, Descriptor{}, err
	}

	f, err := os.Open(d.FilePath)
	if err != nil {
		return nil, nil, d, fmt.Errorf("%w: %v", ErrFileUnavailable, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, d, fmt.Errorf("%w: %v", ErrFileUnavailable, err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, nil, d, fmt.Errorf("%w: %s is a directory", ErrFileUnavailable, d.FilePath)
	}
	return f, info, d, nil
}

// Extend keeps the client's session alive for another extension period,
// counted from now. Unknown client ids and sessions that have already
// expired are ignored.
func (s *Service) Extend(clientID string) {
	now := s.now()
	s.store.Touch(clientID, now, now.Add(s.extension))
}

// Sweep discards every expired session and returns how many were removed.
func (s *Service) Sweep() int {
	return s.store.Sweep(s.now())
}

// Sessions returns the number of sessions currently held.
func (s *Service) Sessions() int {
	return s.store.Len()
}

// Lifetime returns the configured token lifetime.
func (s *Service) Lifetime() time.Duration {
	return s.lifetime
}
