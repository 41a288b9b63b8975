package handler

import (
	"net/http"

	"github.com/goalpath/goalpath/internal/ctxkeys"
	"github.com/goalpath/goalpath/internal/problem"
	"github.com/goalpath/goalpath/internal/service"
)

type notificationHandler struct {
	notificationService *service.NotificationService
}

func NewNotificationHandler(notificationService *service.NotificationService) *notificationHandler {
	return &notificationHandler{notificationService: notificationService}
}

func (h *notificationHandler) List(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	notifications, err := h.notificationService.ForUser(user.ID)
	if err != nil {
		problem.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"notifications": notifications})
}

func (h *notificationHandler) RegisterToken(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req struct {
		Token string `json:"token"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.notificationService.RegisterDeviceToken(user.ID, req.Token); err != nil {
		problem.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, nil)
}
