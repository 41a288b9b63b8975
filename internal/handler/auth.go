package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/goalpath/goalpath/internal/config"
	"github.com/goalpath/goalpath/internal/ctxkeys"
	"github.com/goalpath/goalpath/internal/problem"
	"github.com/goalpath/goalpath/internal/service"
)

// kakaoEndpoint is Kakao's OAuth2 authorization server.
var kakaoEndpoint = oauth2.Endpoint{
	AuthURL:  "https://kauth.kakao.com/oauth/authorize",
	TokenURL: "https://kauth.kakao.com/oauth/token",
}

const kakaoUserInfoURL = "https://kapi.kakao.com/v2/user/me"

type authHandler struct {
	authService      *service.AuthService
	kakaoOAuthConfig *oauth2.Config
	jwtExpiry        time.Duration
	isProduction     bool
}

func NewAuthHandler(authService *service.AuthService, cfg *config.Config) *authHandler {
	return &authHandler{
		authService: authService,
		kakaoOAuthConfig: &oauth2.Config{
			ClientID:     cfg.KakaoClientID,
			ClientSecret: cfg.KakaoClientSecret,
			RedirectURL:  cfg.AppURL + "/auth/kakao/callback",
			Endpoint:     kakaoEndpoint,
		},
		jwtExpiry:    cfg.JWTExpiry,
		isProduction: cfg.IsProduction(),
	}
}

// KakaoAuth redirects to Kakao's consent screen.
func (h *authHandler) KakaoAuth(w http.ResponseWriter, r *http.Request) {
	state := generateOAuthState()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600,
	})

	url := h.kakaoOAuthConfig.AuthCodeURL(state)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// KakaoCallback exchanges the authorization code, resolves the Kakao
// account and issues the session JWT.
func (h *authHandler) KakaoCallback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie("oauth_state")
	if err != nil || cookie.Value != state || state == "" {
		slog.Warn("kakao oauth state validation failed", "error", err)
		problem.Write(w, http.StatusBadRequest, "oauth state mismatch")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:   "oauth_state",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		problem.Write(w, http.StatusBadRequest, "missing authorization code")
		return
	}

	token, err := h.kakaoOAuthConfig.Exchange(r.Context(), code)
	if err != nil {
		slog.Error("kakao oauth token exchange failed", "error", err)
		problem.Write(w, http.StatusBadGateway, "kakao token exchange failed")
		return
	}

	profile, err := h.fetchKakaoProfile(r.Context(), token)
	if err != nil {
		slog.Error("failed to get kakao user info", "error", err)
		problem.Write(w, http.StatusBadGateway, "failed to fetch kakao account")
		return
	}

	user, err := h.authService.AuthenticateKakao(profile)
	if err != nil {
		problem.WriteError(w, err)
		return
	}

	jwtToken, err := h.authService.GenerateJWT(user)
	if err != nil {
		slog.Error("failed to generate JWT", "error", err, "user_id", user.ID)
		problem.Write(w, http.StatusInternalServerError, "")
		return
	}

	h.authService.SetJWTCookie(w, jwtToken, time.Now().Add(h.jwtExpiry))

	writeJSON(w, http.StatusOK, map[string]any{
		"token":            jwtToken,
		"needs_onboarding": !user.HasNickname(),
		"user_id":          user.ID,
	})
}

func (h *authHandler) fetchKakaoProfile(ctx context.Context, token *oauth2.Token) (service.KakaoProfile, error) {
	client := h.kakaoOAuthConfig.Client(ctx, token)
	resp, err := client.Get(kakaoUserInfoURL)
	if err != nil {
		return service.KakaoProfile{}, err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Error("failed to close response body", "error", closeErr)
		}
	}()

	var userInfo struct {
		ID           int64 `json:"id"`
		KakaoAccount struct {
			Email   string `json:"email"`
			Profile struct {
				ProfileImageURL string `json:"profile_image_url"`
			} `json:"profile"`
		} `json:"kakao_account"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return service.KakaoProfile{}, err
	}

	return service.KakaoProfile{
		KakaoID:      userInfo.ID,
		Email:        userInfo.KakaoAccount.Email,
		ProfileImage: userInfo.KakaoAccount.Profile.ProfileImageURL,
	}, nil
}

// RegisterNickname completes onboarding for the authenticated user.
func (h *authHandler) RegisterNickname(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req struct {
		Nickname string `json:"nickname"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.authService.RegisterNickname(user.ID, req.Nickname); err != nil {
		problem.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"nickname": req.Nickname})
}

// CheckNickname reports whether a nickname is still available.
func (h *authHandler) CheckNickname(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Nickname string `json:"nickname"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	available, err := h.authService.NicknameAvailable(req.Nickname)
	if err != nil {
		problem.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"available": available})
}

func (h *authHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authService.ClearJWTCookie(w)
	writeJSON(w, http.StatusOK, nil)
}

func (h *authHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	if err := h.authService.DeleteAccount(user.ID); err != nil {
		problem.WriteError(w, err)
		return
	}

	h.authService.ClearJWTCookie(w)
	writeJSON(w, http.StatusOK, nil)
}

func generateOAuthState() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		// crypto/rand failure means the process is unusable
		panic(err)
	}
	return hex.EncodeToString(bytes)
}
