package handler

import (
	"net/http"

	"github.com/goalpath/goalpath/internal/ctxkeys"
	"github.com/goalpath/goalpath/internal/problem"
	"github.com/goalpath/goalpath/internal/service"
)

type myPageHandler struct {
	myPageService *service.MyPageService
}

func NewMyPageHandler(myPageService *service.MyPageService) *myPageHandler {
	return &myPageHandler{myPageService: myPageService}
}

func (h *myPageHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	profile, err := h.myPageService.Profile(user.ID)
	if err != nil {
		problem.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func (h *myPageHandler) Donations(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	history, err := h.myPageService.DonationHistory(user.ID)
	if err != nil {
		problem.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"donations": history})
}
