package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kou-oishi/Elogbook-Backend/internal/download"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeError writes a JSON error response with the given HTTP status code.
func writeError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorBody{Error: message, Code: code})
}

// writeJSON writes a JSON response with the given HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// downloadFailure describes how a failed redemption is reported.
type downloadFailure struct {
	status  int
	message string
	code    string
	label   string // metrics label
}

// classifyDownloadError maps a download error to its HTTP response. Each
// failure kind gets its own code so clients can tell them apart.
func classifyDownloadError(err error) downloadFailure {
	switch {
	case errors.Is(err, download.ErrUnknownClient):
		return downloadFailure{http.StatusNotFound, "unrecognised client", "UNKNOWN_CLIENT", "unknown_client"}
	case errors.Is(err, download.ErrExpiredClient):
		return downloadFailure{http.StatusBadRequest, "download session expired", "EXPIRED_CLIENT", "expired_client"}
	case errors.Is(err, download.ErrUnknownToken):
		return downloadFailure{http.StatusNotFound, "invalid or already used token", "UNKNOWN_TOKEN", "unknown_token"}
	case errors.Is(err, download.ErrFileUnavailable):
		return downloadFailure{http.StatusInternalServerError, "file not available", "FILE_UNAVAILABLE", "file_unavailable"}
	default:
		return downloadFailure{http.StatusInternalServerError, "internal error", "INTERNAL_ERROR", "error"}
	}
}
