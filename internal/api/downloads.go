package api

import (
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"net/url"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kou-oishi/Elogbook-Backend/internal/download"
	"github.com/kou-oishi/Elogbook-Backend/internal/metrics"
	"github.com/kou-oishi/Elogbook-Backend/internal/session"
)

// downloadsAPIHandler redeems single-use download tokens.
type downloadsAPIHandler struct {
	downloads *download.Service
	sessions  *scs.SessionManager
	log       *slog.Logger
}

// registerDownloadRoutes registers the rate-limited /download sub-router on r.
// HEAD is answered by the GET handlers and spends the token like a GET.
func registerDownloadRoutes(r chi.Router, deps Deps) {
	h := &downloadsAPIHandler{downloads: deps.Downloads, sessions: deps.Sessions, log: deps.Logger}
	r.Route("/download", func(r chi.Router) {
		r.Use(rateLimit(deps.DownloadLimiter))
		r.Use(middleware.GetHead)
		r.Get("/", h.Download)
		r.Get("/extend", h.Extend)
		r.Post("/extend", h.Extend)
		r.Get("/{token}", h.DownloadByPath)
	})
}

// Download streams the file behind a token issued to an explicit client id.
//
// @Summary      Download an attachment
// @Description  Redeems a single-use token. The token is spent even if the file cannot be read.
// @Tags         Downloads
// @Produce      octet-stream
// @Param        client  query     string  true  "Download client id"
// @Param        token   query     string  true  "Download token"
// @Success      200
// @Failure      400     {object}  ErrorResponse  "Missing parameter or expired client"
// @Failure      404     {object}  ErrorResponse  "Unknown client or token"
// @Failure      429     {object}  ErrorResponse
// @Failure      500     {object}  ErrorResponse
// @Router       /download [get]
func (h *downloadsAPIHandler) Download(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "token is required", "BAD_REQUEST")
		return
	}
	clientID, _, err := resolveClient(r, h.sessions)
	if err != nil {
		h.log.Error("resolve download client", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
		return
	}
	h.serve(w, r, clientID, token)
}

// DownloadByPath streams the file behind a token issued to the caller's
// cookie session.
//
// @Summary      Download an attachment (session client)
// @Description  Redeems a single-use token issued to the client id held in the session cookie.
// @Tags         Downloads
// @Produce      octet-stream
// @Param        token  path      string  true  "Download token"
// @Success      200
// @Failure      400    {object}  ErrorResponse  "Expired client"
// @Failure      404    {object}  ErrorResponse  "Unknown client or token"
// @Failure      429    {object}  ErrorResponse
// @Failure      500    {object}  ErrorResponse
// @Router       /download/{token} [get]
func (h *downloadsAPIHandler) DownloadByPath(w http.ResponseWriter, r *http.Request) {
	clientID, err := session.ClientID(r.Context(), h.sessions)
	if err != nil {
		h.log.Error("resolve download client", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
		return
	}
	h.serve(w, r, clientID, chi.URLParam(r, "token"))
}

// Extend keeps the caller's download session alive. It succeeds whether or
// not the client id is known.
//
// @Summary      Extend a download session
// @Description  Pushes the session expiry to now plus the extension period. Unknown clients are ignored.
// @Tags         Downloads
// @Produce      json
// @Param        client  query     string  false  "Download client id; defaults to the cookie session's id"
// @Success      200     {object}  StatusResponse
// @Router       /download/extend [post]
// @Router       /download/extend [get]
func (h *downloadsAPIHandler) Extend(w http.ResponseWriter, r *http.Request) {
	clientID, _, err := resolveClient(r, h.sessions)
	if err != nil {
		h.log.Warn("resolve download client", "err", err)
	} else {
		h.downloads.Extend(clientID)
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

func (h *downloadsAPIHandler) serve(w http.ResponseWriter, r *http.Request, clientID, token string) {
	f, info, d, err := h.downloads.Open(clientID, token)
	if err != nil {
		fail := classifyDownloadError(err)
		metrics.DownloadsTotal.WithLabelValues(fail.label).Inc()
		if fail.status >= http.StatusInternalServerError {
			h.log.Error("download failed", "client", clientID, "err", err)
		} else {
			h.log.Debug("download rejected", "client", clientID, "code", fail.code)
		}
		writeError(w, fail.status, fail.message, fail.code)
		return
	}
	defer f.Close()

	metrics.DownloadsTotal.WithLabelValues("ok").Inc()
	w.Header().Set("Content-Disposition", contentDisposition(d.OriginalName))
	http.ServeContent(w, r, d.OriginalName, info.ModTime(), f)
}

// contentDisposition marks the response as an attachment named name.
func contentDisposition(name string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": name}); v != "" {
		return v
	}
	return "attachment"
}

// resolveClient returns the ?client= id when given, otherwise the id held in
// the request's cookie session. explicit reports which one was used.
func resolveClient(r *http.Request, sm *scs.SessionManager) (id string, explicit bool, err error) {
	if id := r.URL.Query().Get("client"); id != "" {
		return id, true, nil
	}
	if sm == nil {
		return "", false, fmt.Errorf("no client id and no session manager")
	}
	id, err = session.ClientID(r.Context(), sm)
	return id, false, err
}

// downloadURL builds the link handed out for a token. Explicit clients get
// the query form; session clients get the path form.
func downloadURL(clientID, token string, explicit bool) string {
	if !explicit {
		return "/download/" + url.PathEscape(token)
	}
	q := url.Values{}
	q.Set("client", clientID)
	q.Set("token", token)
	return "/download?" + q.Encode()
}
