package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goalpath/goalpath/internal/ctxkeys"
	"github.com/goalpath/goalpath/internal/model"
	"github.com/goalpath/goalpath/internal/repository"
	"github.com/goalpath/goalpath/internal/service"
)

type stubUsers struct {
	user *model.User
}

func (s *stubUsers) Create(user *model.User) error { return nil }

func (s *stubUsers) ByID(id string) (*model.User, error) {
	if s.user != nil && s.user.ID == id {
		return s.user, nil
	}
	return nil, repository.ErrUserNotFound
}

func (s *stubUsers) ByKakaoID(int64) (*model.User, error)          { return nil, repository.ErrUserNotFound }
func (s *stubUsers) ByNickname(string) (*model.User, error)        { return nil, repository.ErrUserNotFound }
func (s *stubUsers) SearchByNickname(string) ([]*model.User, error) { return nil, nil }
func (s *stubUsers) UpdateNickname(id, nickname string) error      { return nil }
func (s *stubUsers) Delete(id string) error                        { return nil }
func (s *stubUsers) DebitPoints(id string, amount int) error       { return nil }
func (s *stubUsers) CreditPoints(id string, amount int) error      { return nil }

func newTestAuth(users *stubUsers) *service.AuthService {
	return service.NewAuthService(users, "test-secret", time.Hour, false)
}

func TestRequireAuthRejectsAnonymous(t *testing.T) {
	handler := RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest("GET", "/goals", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("content type = %q", ct)
	}
}

func TestAuthMiddlewareBearerToken(t *testing.T) {
	users := &stubUsers{user: &model.User{ID: "user-1", Email: "a@b.c"}}
	auth := newTestAuth(users)

	token, err := auth.GenerateJWT(users.user)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	var got *model.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ctxkeys.User(r.Context())
	})

	req := httptest.NewRequest("GET", "/goals", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	AuthMiddleware(auth, users)(next).ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || got.ID != "user-1" {
		t.Errorf("user = %+v, want user-1", got)
	}
}

func TestAuthMiddlewareCookie(t *testing.T) {
	users := &stubUsers{user: &model.User{ID: "user-1"}}
	auth := newTestAuth(users)

	token, err := auth.GenerateJWT(users.user)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	var got *model.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ctxkeys.User(r.Context())
	})

	req := httptest.NewRequest("GET", "/goals", nil)
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: token})
	AuthMiddleware(auth, users)(next).ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || got.ID != "user-1" {
		t.Errorf("user = %+v, want user-1", got)
	}
}

func TestAuthMiddlewareInvalidTokenContinuesAnonymous(t *testing.T) {
	users := &stubUsers{}
	auth := newTestAuth(users)

	var called bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if ctxkeys.User(r.Context()) != nil {
			t.Error("user must not be set for an invalid token")
		}
	})

	req := httptest.NewRequest("GET", "/goals", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	AuthMiddleware(auth, users)(next).ServeHTTP(httptest.NewRecorder(), req)

	if !called {
		t.Error("next handler must still run")
	}
}
