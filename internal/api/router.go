package api

import (
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"github.com/kou-oishi/Elogbook-Backend/internal/attachment"
	"github.com/kou-oishi/Elogbook-Backend/internal/download"
	"github.com/kou-oishi/Elogbook-Backend/internal/store"
)

// Deps holds all dependencies required to build the API router.
type Deps struct {
	Entries   store.EntryStoreIface
	Downloads *download.Service
	Saver     *attachment.Saver
	Sessions  *scs.SessionManager
	Logger    *slog.Logger

	// MaxUpload caps the size of a POST /entries body in bytes.
	MaxUpload int64

	// DownloadLimiter throttles the download routes. Nil disables throttling.
	DownloadLimiter *rate.Limiter
}

// NewAPIRouter creates the chi sub-router serving entries and downloads.
// Sessions must be loaded by the parent router (sm.LoadAndSave).
func NewAPIRouter(deps Deps) chi.Router {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	r := chi.NewRouter()

	registerEntryRoutes(r, deps)
	registerDownloadRoutes(r, deps)

	return r
}

// rateLimit rejects requests with 429 once l has no tokens left.
func rateLimit(l *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if l == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow() {
				writeError(w, http.StatusTooManyRequests, "too many requests", "RATE_LIMITED")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
