// Package session keeps a per-browser download client id in a server-side
// cookie session, for callers that do not pass an explicit client id.
package session

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/mysqlstore"
	"github.com/alexedwards/scs/postgresstore"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/jmoiron/sqlx"

	"github.com/kou-oishi/Elogbook-Backend/internal/download"
)

// ClientIDKey is the session key holding the download client id.
const ClientIDKey = "download_client"

// NewManager creates an SCS session manager backed by the application DB.
// The driver parameter selects the appropriate store: "mysql", "postgres", or
// "sqlite3" (default).
func NewManager(db *sqlx.DB, driver string, lifetime time.Duration, secure bool) *scs.SessionManager {
	sm := scs.New()
	switch driver {
	case "mysql":
		sm.Store = mysqlstore.New(db.DB)
	case "postgres":
		sm.Store = postgresstore.New(db.DB)
	default: // sqlite3
		sm.Store = sqlite3store.New(db.DB)
	}
	sm.Lifetime = lifetime
	sm.Cookie.Name = "elogbook_session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = secure
	return sm
}

// ClientID returns the download client id stored in the request's session,
// minting and storing a new one on first use. ctx must come from a request
// that passed through sm.LoadAndSave.
func ClientID(ctx context.Context, sm *scs.SessionManager) (string, error) {
	if id := sm.GetString(ctx, ClientIDKey); id != "" {
		return id, nil
	}
	id, err := download.GenerateToken()
	if err != nil {
		return "", fmt.Errorf("mint client id: %w", err)
	}
	sm.Put(ctx, ClientIDKey, id)
	return id, nil
}
