// Package problem writes RFC 7807 application/problem+json responses and
// maps domain error kinds onto HTTP status codes.
package problem

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/goalpath/goalpath/internal/apperr"
)

// Details is an RFC 7807 problem document.
type Details struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Write sends a problem document with the given status and detail.
func Write(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)

	doc := Details{
		Type:   "about:blank",
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	}
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		slog.Error("failed to encode problem response", "error", err)
	}
}

// WriteError maps the error's kind to a status code. Internal errors are
// logged and reported without their detail.
func WriteError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)

	if kind == apperr.KindInternal {
		slog.Error("request failed", "error", err)
		Write(w, status, "")
		return
	}

	detail := ""
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		detail = appErr.Detail
	}
	Write(w, status, detail)
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindInvalidType, apperr.KindBadInput:
		return http.StatusBadRequest
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
