package api

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/kou-oishi/Elogbook-Backend/internal/attachment"
	"github.com/kou-oishi/Elogbook-Backend/internal/download"
	"github.com/kou-oishi/Elogbook-Backend/internal/metrics"
	"github.com/kou-oishi/Elogbook-Backend/internal/store"
)

// defaultUploadName is used for file parts sent without a filename.
const defaultUploadName = "tmpfile"

// entriesAPIHandler provides REST handlers for journal entries.
type entriesAPIHandler struct {
	entries   store.EntryStoreIface
	downloads *download.Service
	saver     *attachment.Saver
	sessions  *scs.SessionManager
	log       *slog.Logger
	maxUpload int64
}

// registerEntryRoutes registers entry routes on r.
func registerEntryRoutes(r chi.Router, deps Deps) {
	h := &entriesAPIHandler{
		entries:   deps.Entries,
		downloads: deps.Downloads,
		saver:     deps.Saver,
		sessions:  deps.Sessions,
		log:       deps.Logger,
		maxUpload: deps.MaxUpload,
	}
	r.Get("/entries", h.List)
	r.Post("/entries", h.Create)
	r.Get("/entries/{id}", h.Get)
}

// List returns entries newest first. Every attachment in the page gets a
// freshly minted single-use download URL bound to the caller's client id.
// Expired download sessions are swept first.
//
// @Summary      List entries
// @Description  Returns entries newest first. Each attachment carries a single-use download URL valid for the download lifetime.
// @Tags         Entries
// @Produce      json
// @Param        limit   query     int     false  "Page size (default 50, max 200)"
// @Param        offset  query     int     false  "Entries to skip"
// @Param        client  query     string  false  "Download client id; defaults to the cookie session's id"
// @Success      200     {array}   EntryResponse
// @Failure      400     {object}  ErrorResponse
// @Failure      500     {object}  ErrorResponse
// @Router       /entries [get]
func (h *entriesAPIHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
		return
	}

	clientID, explicit, err := resolveClient(r, h.sessions)
	if err != nil {
		h.log.Error("resolve download client", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
		return
	}

	if n := h.downloads.Sweep(); n > 0 {
		metrics.DownloadSessionsSweptTotal.Add(float64(n))
		h.log.Debug("swept expired download sessions", "count", n)
	}

	entries, err := h.entries.List(r.Context(), limit, offset)
	if err != nil {
		h.log.Error("list entries", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
		return
	}

	resp := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		er, err := h.render(e, clientID, explicit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
			return
		}
		resp = append(resp, er)
	}
	metrics.DownloadSessions.Set(float64(h.downloads.Sessions()))

	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single entry with fresh download URLs for its attachments.
//
// @Summary      Get an entry
// @Description  Returns one entry. Each attachment carries a single-use download URL valid for the download lifetime.
// @Tags         Entries
// @Produce      json
// @Param        id      path      string  true   "Entry ID"
// @Param        client  query     string  false  "Download client id; defaults to the cookie session's id"
// @Success      200     {object}  EntryResponse
// @Failure      404     {object}  ErrorResponse
// @Failure      500     {object}  ErrorResponse
// @Router       /entries/{id} [get]
func (h *entriesAPIHandler) Get(w http.ResponseWriter, r *http.Request) {
	e, err := h.entries.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found", "NOT_FOUND")
			return
		}
		h.log.Error("get entry", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
		return
	}

	clientID, explicit, err := resolveClient(r, h.sessions)
	if err != nil {
		h.log.Error("resolve download client", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
		return
	}

	er, err := h.render(e, clientID, explicit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
		return
	}
	metrics.DownloadSessions.Set(float64(h.downloads.Sessions()))

	writeJSON(w, http.StatusOK, er)
}

// render converts e and mints a download URL per attachment for clientID.
func (h *entriesAPIHandler) render(e *store.Entry, clientID string, explicit bool) (EntryResponse, error) {
	er := toEntryResponse(e)
	for i, a := range e.Attachments {
		token, err := h.downloads.Issue(clientID, download.Descriptor{
			FilePath:     a.SavedPath,
			OriginalName: a.OriginalName,
		})
		if err != nil {
			h.log.Error("issue download token", "entry", e.ID, "seq", a.Seq, "err", err)
			return EntryResponse{}, err
		}
		metrics.DownloadTokensIssuedTotal.Inc()
		er.Attachments[i].DownloadURL = downloadURL(clientID, token, explicit)
	}
	return er, nil
}

// Create stores a new entry from a multipart form with a "content" field and
// any number of "file" parts.
//
// @Summary      Create an entry
// @Description  Stores a new entry. Attachments are written under the attachment root with hashed names.
// @Tags         Entries
// @Accept       mpfd
// @Produce      json
// @Param        content  formData  string  false  "Entry text"
// @Param        file     formData  file    false  "Attachment (repeatable)"
// @Success      201      {object}  EntryResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      413      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Router       /entries [post]
func (h *entriesAPIHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	}
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large", "REQUEST_TOO_LARGE")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form", "BAD_REQUEST")
		return
	}
	defer r.MultipartForm.RemoveAll()

	content := strings.Join(r.MultipartForm.Value["content"], "")
	files := r.MultipartForm.File["file"]
	if strings.TrimSpace(content) == "" && len(files) == 0 {
		writeError(w, http.StatusBadRequest, "content or file is required", "BAD_REQUEST")
		return
	}

	createdAt := time.Now().UTC()
	atts := make([]store.NewAttachment, 0, len(files))
	saved := make([]string, 0, len(files))
	for i, fh := range files {
		a, err := h.saveUpload(createdAt, i+1, fh)
		if err != nil {
			h.saver.Remove(saved...)
			h.log.Error("save attachment", "name", fh.Filename, "err", err)
			writeError(w, http.StatusInternalServerError, "could not store attachment", "ATTACHMENT_WRITE_FAILED")
			return
		}
		saved = append(saved, a.SavedPath)
		atts = append(atts, a)
	}

	e, err := h.entries.Create(r.Context(), content, createdAt, atts)
	if err != nil {
		h.saver.Remove(saved...)
		h.log.Error("create entry", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
		return
	}
	metrics.EntriesCreatedTotal.Inc()
	h.log.Info("entry created", "id", e.ID, "attachments", len(atts))

	writeJSON(w, http.StatusCreated, toEntryResponse(e))
}

func (h *entriesAPIHandler) saveUpload(createdAt time.Time, seq int, fh *multipart.FileHeader) (store.NewAttachment, error) {
	name := filepath.Base(fh.Filename)
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = defaultUploadName
	}

	f, err := fh.Open()
	if err != nil {
		return store.NewAttachment{}, err
	}
	defer f.Close()

	path, err := h.saver.Save(createdAt, seq, name, f)
	if err != nil {
		return store.NewAttachment{}, err
	}
	return store.NewAttachment{
		SavedPath:    path,
		OriginalName: name,
		Mime:         attachment.DetectMime(path, fh.Header.Get("Content-Type")),
	}, nil
}

func toEntryResponse(e *store.Entry) EntryResponse {
	er := EntryResponse{
		ID:          e.ID,
		Content:     e.Content,
		CreatedAt:   e.CreatedAt,
		Attachments: make([]AttachmentResponse, 0, len(e.Attachments)),
	}
	for _, a := range e.Attachments {
		er.Attachments = append(er.Attachments, AttachmentResponse{
			ID:           a.Seq,
			Mime:         a.Mime,
			OriginalName: a.OriginalName,
		})
	}
	return er
}
