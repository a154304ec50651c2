package api

import "time"

// EntryResponse is the JSON representation of a journal entry.
type EntryResponse struct {
	ID          string               `json:"id"`
	Content     string               `json:"content"`
	CreatedAt   time.Time            `json:"created_at"`
	Attachments []AttachmentResponse `json:"attachments"`
}

// AttachmentResponse describes one attachment. DownloadURL carries a
// single-use token and is only present in listings.
type AttachmentResponse struct {
	ID           int    `json:"id"`
	Mime         string `json:"mime"`
	OriginalName string `json:"original_name"`
	DownloadURL  string `json:"download_url,omitempty"`
}

// StatusResponse is returned by endpoints that only acknowledge a request.
type StatusResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
