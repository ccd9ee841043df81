// Package respond centralizes JSON response writing for the API handlers.
package respond

import (
	"encoding/json"
	"net/http"
)

// WriteJSON encodes v as the response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteJSONObject is WriteJSON for ad-hoc key/value payloads.
func WriteJSONObject(w http.ResponseWriter, status int, obj map[string]any) {
	WriteJSON(w, status, obj)
}

// WriteError writes a structured error body.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]any{
		"error":  message,
		"status": status,
	})
}
