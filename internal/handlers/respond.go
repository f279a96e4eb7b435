package handlers

import (
	"encoding/json"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody is the shared error envelope: a stable kind discriminator, a
// human-readable message, and optional per-kind context fields.
type errorBody struct {
	Kind    string                 `json:"kind"`
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, errorBody{Kind: kind, Error: msg})
}

func writeErrorCtx(w http.ResponseWriter, status int, kind, msg string, ctx map[string]interface{}) {
	writeJSON(w, status, errorBody{Kind: kind, Error: msg, Context: ctx})
}
