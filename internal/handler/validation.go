package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/goalpath/goalpath/internal/ctxkeys"
	"github.com/goalpath/goalpath/internal/problem"
	"github.com/goalpath/goalpath/internal/service"
	"github.com/goalpath/goalpath/internal/storage"
)

// maxPhotoSize caps validation photo uploads at 10 MB.
const maxPhotoSize = 10 << 20

type validationHandler struct {
	validationService *service.ValidationService
	storage           storage.Storage
}

func NewValidationHandler(validationService *service.ValidationService, store storage.Storage) *validationHandler {
	return &validationHandler{validationService: validationService, storage: store}
}

// Photo accepts a multipart photo upload, stores it and records the
// validation.
func (h *validationHandler) Photo(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	instanceID := r.PathValue("id")

	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		problem.Write(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		problem.Write(w, http.StatusBadRequest, "photo file is required")
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			slog.Error("failed to close uploaded file", "error", closeErr)
		}
	}()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".heic", ".webp":
	default:
		problem.Write(w, http.StatusBadRequest, "unsupported photo format")
		return
	}

	key := fmt.Sprintf("validations/%s/%s%s", instanceID, uuid.New().String(), ext)
	contentType := header.Header.Get("Content-Type")
	if err := h.storage.Save(r.Context(), key, file, contentType); err != nil {
		slog.Error("failed to store validation photo", "error", err, "instance_id", instanceID)
		problem.Write(w, http.StatusInternalServerError, "")
		return
	}

	storedKey, err := h.validationService.SubmitPhoto(instanceID, user.ID, key)
	if err != nil {
		// The upload is orphaned once the validation is refused; best
		// effort cleanup keeps the bucket from accumulating strays.
		if delErr := h.storage.Delete(r.Context(), key); delErr != nil {
			slog.Warn("failed to delete orphaned photo", "error", delErr, "key", key)
		}
		problem.WriteError(w, err)
		return
	}

	url, err := h.storage.URL(storedKey)
	if err != nil {
		slog.Warn("failed to presign photo URL", "error", err, "key", storedKey)
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"photo_url": url,
	})
}

// Location checks the submitted coordinates against the goal's anchor.
// Out-of-range coordinates respond 200 with validated:false so the client
// can retry from a better position.
func (h *validationHandler) Location(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	instanceID := r.PathValue("id")

	var req struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		problem.Write(w, http.StatusBadRequest, "latitude and longitude are required")
		return
	}

	validated, err := h.validationService.SubmitLocation(instanceID, user.ID, *req.Latitude, *req.Longitude)
	if err != nil {
		problem.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"validated": validated})
}

// Team opens a pending team validation and notifies every member.
func (h *validationHandler) Team(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	instanceID := r.PathValue("id")

	if err := h.validationService.RequestTeam(instanceID, user); err != nil {
		problem.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, nil)
}

// Accept records one member's acceptance; completion is reported when the
// last member accepts.
func (h *validationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	instanceID := r.PathValue("id")

	completed, err := h.validationService.AcceptTeam(instanceID, user.ID)
	if err != nil {
		problem.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"completed": completed})
}
