package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/goalpath/goalpath/internal/problem"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// decodeJSON reads the request body into dst; a malformed body reports 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		problem.Write(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
