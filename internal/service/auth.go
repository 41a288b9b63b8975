package service

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/goalpath/goalpath/internal/apperr"
	"github.com/goalpath/goalpath/internal/model"
	"github.com/goalpath/goalpath/internal/repository"
)

// nicknamePattern allows Korean syllables, letters and digits, 2-12 runes.
var nicknamePattern = regexp.MustCompile(`^[가-힣a-zA-Z0-9]{2,12}$`)

// KakaoProfile is the subset of the Kakao user-info response the backend
// keeps. The handler fetches it from kapi.kakao.com after the code exchange.
type KakaoProfile struct {
	KakaoID      int64
	Email        string
	ProfileImage string
}

type AuthService struct {
	users        repository.UserRepository
	jwtSecret    string
	jwtExpiry    time.Duration
	isProduction bool
	now          func() time.Time
}

func NewAuthService(users repository.UserRepository, jwtSecret string, jwtExpiry time.Duration, isProduction bool) *AuthService {
	return &AuthService{
		users:        users,
		jwtSecret:    jwtSecret,
		jwtExpiry:    jwtExpiry,
		isProduction: isProduction,
		now:          time.Now,
	}
}

// AuthenticateKakao looks the user up by Kakao account id and creates the
// account on first login. Nickname stays empty until onboarding.
func (s *AuthService) AuthenticateKakao(profile KakaoProfile) (*model.User, error) {
	if profile.KakaoID == 0 {
		return nil, apperr.BadInput("kakao account id is required")
	}

	user, err := s.users.ByKakaoID(profile.KakaoID)
	if err == nil {
		slog.Info("user authenticated via kakao", "user_id", user.ID)
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to look up user", err)
	}

	now := s.now()
	user = &model.User{
		ID:           uuid.New().String(),
		KakaoID:      profile.KakaoID,
		Email:        strings.TrimSpace(strings.ToLower(profile.Email)),
		ProfileImage: profile.ProfileImage,
		Level:        1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(user); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to create user", err)
	}

	slog.Info("new kakao user created", "user_id", user.ID)
	return user, nil
}

// NeedsOnboarding reports whether the user still has to pick a nickname.
func (s *AuthService) NeedsOnboarding(userID string) (bool, error) {
	user, err := s.users.ByID(userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return false, apperr.NotFound("user not found")
	}
	if err != nil {
		return false, apperr.Internal(err)
	}
	return !user.HasNickname(), nil
}

// RegisterNickname completes onboarding. Uniqueness is enforced by the
// repository's conditional update, so two concurrent registrations of the
// same nickname cannot both win.
func (s *AuthService) RegisterNickname(userID, nickname string) error {
	nickname = strings.TrimSpace(nickname)
	if !nicknamePattern.MatchString(nickname) {
		return apperr.BadInput("nickname must be 2-12 letters, digits or Korean characters")
	}

	err := s.users.UpdateNickname(userID, nickname)
	if errors.Is(err, repository.ErrNicknameTaken) {
		return apperr.Conflict("nickname already taken")
	}
	if errors.Is(err, repository.ErrUserNotFound) {
		return apperr.NotFound("user not found")
	}
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to update nickname", err)
	}
	return nil
}

// NicknameAvailable reports whether the nickname is free to take. The answer
// can go stale before the register call, which handles the race itself.
func (s *AuthService) NicknameAvailable(nickname string) (bool, error) {
	nickname = strings.TrimSpace(nickname)
	if !nicknamePattern.MatchString(nickname) {
		return false, apperr.BadInput("nickname must be 2-12 letters, digits or Korean characters")
	}

	_, err := s.users.ByNickname(nickname)
	if errors.Is(err, repository.ErrUserNotFound) {
		return true, nil
	}
	if err != nil {
		return false, apperr.Internal(err)
	}
	return false, nil
}

// DeleteAccount removes the user row; dependent rows cascade.
func (s *AuthService) DeleteAccount(userID string) error {
	err := s.users.Delete(userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return apperr.NotFound("user not found")
	}
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to delete account", err)
	}
	slog.Info("account deleted", "user_id", userID)
	return nil
}

func (s *AuthService) GenerateJWT(user *model.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"exp":     s.now().Add(s.jwtExpiry).Unix(),
		"iat":     s.now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *AuthService) VerifyJWT(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

func (s *AuthService) SetJWTCookie(w http.ResponseWriter, token string, expiry time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		Expires:  expiry,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *AuthService) ClearJWTCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    "",
		Expires:  time.Unix(0, 0),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}
