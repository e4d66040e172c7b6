// Package http provides the dev server's HTTP handlers for auth, todos
// and the AI agent endpoints.
package http

import (
	"encoding/json"
	"net/http"
)

// writeData writes the standard {data, message} envelope.
func writeData(w http.ResponseWriter, status int, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data":    data,
		"message": message,
	})
}

// writeError writes the standard error envelope: data is null and the
// message carries the failure reason.
func writeError(w http.ResponseWriter, status int, message string) {
	writeData(w, status, nil, message)
}
