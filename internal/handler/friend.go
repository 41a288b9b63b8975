package handler

import (
	"net/http"

	"github.com/goalpath/goalpath/internal/ctxkeys"
	"github.com/goalpath/goalpath/internal/problem"
	"github.com/goalpath/goalpath/internal/service"
)

type friendHandler struct {
	friendService *service.FriendService
}

func NewFriendHandler(friendService *service.FriendService) *friendHandler {
	return &friendHandler{friendService: friendService}
}

func (h *friendHandler) List(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	friends, err := h.friendService.Friends(user.ID)
	if err != nil {
		problem.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"friends": friends})
}

func (h *friendHandler) Requests(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	requests, err := h.friendService.Requests(user.ID)
	if err != nil {
		problem.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"requests": requests})
}

func (h *friendHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	targetID := r.PathValue("userId")

	request, err := h.friendService.SendRequest(user.ID, targetID)
	if err != nil {
		problem.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, request)
}

func (h *friendHandler) Accept(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	requestID := r.PathValue("id")

	request, err := h.friendService.AcceptRequest(user.ID, requestID)
	if err != nil {
		problem.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, request)
}

func (h *friendHandler) Reject(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	requestID := r.PathValue("id")

	if err := h.friendService.RejectRequest(user.ID, requestID); err != nil {
		problem.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, nil)
}

// Search finds users by nickname fragment.
func (h *friendHandler) Search(w http.ResponseWriter, r *http.Request) {
	users, err := h.friendService.SearchUsers(r.URL.Query().Get("q"))
	if err != nil {
		problem.WriteError(w, err)
		return
	}

	type result struct {
		ID           string  `json:"id"`
		Nickname     *string `json:"nickname"`
		ProfileImage string  `json:"profile_image"`
		Level        int     `json:"level"`
	}

	results := make([]result, len(users))
	for i, u := range users {
		results[i] = result{ID: u.ID, Nickname: u.Nickname, ProfileImage: u.ProfileImage, Level: u.Level}
	}

	writeJSON(w, http.StatusOK, map[string]any{"users": results})
}
