package handler

import (
	"encoding/json"
	"net/http"

	"github.com/kou-oishi/Elogbook-Backend/internal/build"
)

type healthBody struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Health reports liveness and the running build version.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(healthBody{Status: "ok", Version: build.Version})
}
