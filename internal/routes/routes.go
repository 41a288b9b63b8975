package routes

import (
	"net/http"

	"github.com/goalpath/goalpath/internal/app"
	"github.com/goalpath/goalpath/internal/handler"
	"github.com/goalpath/goalpath/internal/middleware"
	"github.com/goalpath/goalpath/internal/problem"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	auth := handler.NewAuthHandler(app.AuthService, app.Cfg)
	goal := handler.NewGoalHandler(app.GoalService)
	validation := handler.NewValidationHandler(app.ValidationService, app.Storage)
	notification := handler.NewNotificationHandler(app.NotificationService)
	friend := handler.NewFriendHandler(app.FriendService)
	myPage := handler.NewMyPageHandler(app.MyPageService)

	mux := http.NewServeMux()

	// Health
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Auth (rate limited)
	rateLimiter := middleware.RateLimitAuth()

	mux.HandleFunc("GET /auth/kakao", rateLimiter(auth.KakaoAuth))
	mux.HandleFunc("GET /auth/kakao/callback", rateLimiter(auth.KakaoCallback))
	mux.HandleFunc("POST /auth/nickname", middleware.RequireAuth(auth.RegisterNickname))
	mux.HandleFunc("POST /auth/nickname/check", auth.CheckNickname)
	mux.HandleFunc("POST /auth/logout", auth.Logout)
	mux.HandleFunc("DELETE /auth/account", middleware.RequireAuth(auth.DeleteAccount))

	// Goals
	mux.HandleFunc("POST /goals", middleware.RequireAuth(goal.Create))
	mux.HandleFunc("GET /goals", middleware.RequireAuth(goal.List))
	mux.HandleFunc("GET /goals/weekly", middleware.RequireAuth(goal.Weekly))

	// Validation
	mux.HandleFunc("POST /goals/instances/{id}/validate/photo", middleware.RequireAuth(validation.Photo))
	mux.HandleFunc("POST /goals/instances/{id}/validate/location", middleware.RequireAuth(validation.Location))
	mux.HandleFunc("POST /goals/instances/{id}/validate/team", middleware.RequireAuth(validation.Team))
	mux.HandleFunc("POST /goals/instances/{id}/validate/accept", middleware.RequireAuth(validation.Accept))

	// Notifications
	mux.HandleFunc("GET /notifications", middleware.RequireAuth(notification.List))
	mux.HandleFunc("POST /notifications/tokens", middleware.RequireAuth(notification.RegisterToken))

	// Friends
	mux.HandleFunc("GET /friends", middleware.RequireAuth(friend.List))
	mux.HandleFunc("GET /friends/requests", middleware.RequireAuth(friend.Requests))
	mux.HandleFunc("POST /friends/requests/{userId}", middleware.RequireAuth(friend.SendRequest))
	mux.HandleFunc("PATCH /friends/requests/{id}/accept", middleware.RequireAuth(friend.Accept))
	mux.HandleFunc("PATCH /friends/requests/{id}/reject", middleware.RequireAuth(friend.Reject))
	mux.HandleFunc("GET /users/search", middleware.RequireAuth(friend.Search))

	// My page
	mux.HandleFunc("GET /me/profile", middleware.RequireAuth(myPage.Profile))
	mux.HandleFunc("GET /me/donations", middleware.RequireAuth(myPage.Donations))

	// 404
	mux.HandleFunc("/{path...}", func(w http.ResponseWriter, r *http.Request) {
		problem.Write(w, http.StatusNotFound, "no such route")
	})

	// Global middleware - executed in order (top to bottom)
	return middleware.Chain(
		mux,
		middleware.RequestLogging,
		middleware.AuthMiddleware(app.AuthService, app.UserRepository),
	)
}
