// Package download issues short-lived, single-use tokens that authorize the
// download of one attachment without exposing its path on disk.
//
// Tokens are grouped into client sessions. Each session carries its own
// deadline; once it passes, every token in the session is dead, whether or
// not it was used. Sessions are dropped in bulk by Sweep.
package download

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrUnknownClient is returned when no session exists for a client id.
	ErrUnknownClient = errors.New("unrecognised client")

	// ErrExpiredClient is returned when the client's session deadline has passed.
	ErrExpiredClient = errors.New("expired client")

	// ErrUnknownToken is returned when the token was never issued to the client
	// or has already been consumed.
	ErrUnknownToken = errors.New("unrecognised or consumed token")

	// ErrFileUnavailable is returned when a consumed token points at a file
	// that can no longer be opened.
	ErrFileUnavailable = errors.New("file unavailable")
)

// Descriptor is what a token resolves to: the file on disk and the name
// presented to the downloader.
type Descriptor struct {
	FilePath     string
	OriginalName string
}

// Session is a point-in-time view of a client session.
type Session struct {
	ExpiresAt  time.Time
	TokenCount int
}

type session struct {
	expiresAt time.Time
	tokens    map[string]Descriptor
}

// Store maps client ids to their sessions. All operations take a single
// mutex for the duration of the map access only; callers must not do I/O
// while holding a result that depends on the lock.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*session
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*session)}
}

// getOrCreateLocked returns the session for clientID, creating one that
// expires at now. Caller must hold mu.
func (s *Store) getOrCreateLocked(clientID string, now time.Time) *session {
	sess, ok := s.sessions[clientID]
	if !ok {
		sess = &session{expiresAt: now, tokens: make(map[string]Descriptor)}
		s.sessions[clientID] = sess
	}
	return sess
}

// GetOrCreate returns the session for clientID. A previously unseen client
// gets an empty session whose tentative expiry is now.
func (s *Store) GetOrCreate(clientID string, now time.Time) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.getOrCreateLocked(clientID, now)
	return Session{ExpiresAt: sess.expiresAt, TokenCount: len(sess.tokens)}
}

// liveLocked returns the client's session if it has not expired by now.
// Caller must hold mu.
func (s *Store) liveLocked(clientID string, now time.Time) (*session, bool) {
	sess, ok := s.sessions[clientID]
	if !ok || !now.Before(sess.expiresAt) {
		return nil, false
	}
	return sess, true
}

// Touch moves the session's expiry forward to expiry. Earlier deadlines,
// unknown client ids, and sessions already expired at now are ignored; an
// expired session stays dead until Sweep removes it.
func (s *Store) Touch(clientID string, now, expiry time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.liveLocked(clientID, now); ok && expiry.After(sess.expiresAt) {
		sess.expiresAt = expiry
	}
}

// Put registers token under clientID and raises the session expiry to at
// least expiry. A session that has expired by now is replaced by an empty
// one first, so its old tokens never come back. Put reports false, leaving
// the session untouched, if the token is already present in that session.
func (s *Store) Put(clientID, token string, d Descriptor, now, expiry time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.liveLocked(clientID, now)
	if !ok {
		sess = &session{expiresAt: now, tokens: make(map[string]Descriptor)}
		s.sessions[clientID] = sess
	}
	if _, exists := sess.tokens[token]; exists {
		return false
	}
	sess.tokens[token] = d
	if expiry.After(sess.expiresAt) {
		sess.expiresAt = expiry
	}
	return true
}

// Take removes token from the client's session and returns its descriptor.
// An expired session is left in place for Sweep; its tokens are not removed.
func (s *Store) Take(clientID, token string, now time.Time) (Descriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[clientID]
	if !ok {
		return Descriptor{}, ErrUnknownClient
	}
	if !now.Before(sess.expiresAt) {
		return Descriptor{}, ErrExpiredClient
	}
	d, ok := sess.tokens[token]
	if !ok {
		return Descriptor{}, ErrUnknownToken
	}
	delete(sess.tokens, token)
	return d, nil
}

// Sweep drops every session whose expiry is at or before now, together with
// any tokens it still holds. It returns the number of sessions removed.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if !sess.expiresAt.After(now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Expiry returns the current deadline of the client's session.
func (s *Store) Expiry(clientID string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[clientID]
	if !ok {
		return time.Time{}, false
	}
	return sess.expiresAt, true
}

// Len returns the number of sessions currently held, expired or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
