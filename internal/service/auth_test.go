package service

import (
	"testing"
	"time"

	"github.com/goalpath/goalpath/internal/apperr"
	"github.com/goalpath/goalpath/internal/model"
	"github.com/goalpath/goalpath/internal/repository"
)

type authUserRepo struct {
	stubUserRepo
	byKakao    map[int64]*model.User
	byNickname map[string]*model.User
	created    []*model.User
	taken      map[string]bool
}

func (m *authUserRepo) Create(user *model.User) error {
	m.created = append(m.created, user)
	if m.byKakao == nil {
		m.byKakao = map[int64]*model.User{}
	}
	m.byKakao[user.KakaoID] = user
	return nil
}

func (m *authUserRepo) ByKakaoID(id int64) (*model.User, error) {
	if u, ok := m.byKakao[id]; ok {
		return u, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *authUserRepo) ByNickname(nickname string) (*model.User, error) {
	if u, ok := m.byNickname[nickname]; ok {
		return u, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *authUserRepo) UpdateNickname(id, nickname string) error {
	if m.taken[nickname] {
		return repository.ErrNicknameTaken
	}
	return nil
}

func newAuth(users *authUserRepo) *AuthService {
	return NewAuthService(users, "test-secret", time.Hour, false)
}

func TestAuthenticateKakaoCreatesUserOnce(t *testing.T) {
	users := &authUserRepo{}
	svc := newAuth(users)

	profile := KakaoProfile{KakaoID: 12345, Email: "Min@Example.COM", ProfileImage: "http://img"}

	first, err := svc.AuthenticateKakao(profile)
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	if first.Email != "min@example.com" {
		t.Errorf("email = %q, want lowercased", first.Email)
	}
	if first.Level != 1 {
		t.Errorf("level = %d, want 1", first.Level)
	}

	second, err := svc.AuthenticateKakao(profile)
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if second.ID != first.ID {
		t.Error("second login must return the existing account")
	}
	if len(users.created) != 1 {
		t.Errorf("created %d users, want 1", len(users.created))
	}
}

func TestAuthenticateKakaoMissingID(t *testing.T) {
	svc := newAuth(&authUserRepo{})

	_, err := svc.AuthenticateKakao(KakaoProfile{})
	if apperr.KindOf(err) != apperr.KindBadInput {
		t.Errorf("kind = %v, want BadInput", apperr.KindOf(err))
	}
}

func TestRegisterNickname(t *testing.T) {
	users := &authUserRepo{taken: map[string]bool{"철수": true}}
	svc := newAuth(users)

	if err := svc.RegisterNickname("user-1", "달리기왕"); err != nil {
		t.Fatalf("RegisterNickname: %v", err)
	}

	err := svc.RegisterNickname("user-1", "철수")
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Errorf("taken nickname kind = %v, want Conflict", apperr.KindOf(err))
	}

	for _, bad := range []string{"", "a", "this-has-dashes", "way너무긴닉네임은안돼요열두자넘음"} {
		if err := svc.RegisterNickname("user-1", bad); apperr.KindOf(err) != apperr.KindBadInput {
			t.Errorf("nickname %q kind = %v, want BadInput", bad, apperr.KindOf(err))
		}
	}
}

func TestNicknameAvailable(t *testing.T) {
	users := &authUserRepo{byNickname: map[string]*model.User{
		"철수": {ID: "user-9"},
	}}
	svc := newAuth(users)

	available, err := svc.NicknameAvailable("영희")
	if err != nil || !available {
		t.Errorf("fresh nickname = (%v, %v), want (true, nil)", available, err)
	}

	available, err = svc.NicknameAvailable("철수")
	if err != nil || available {
		t.Errorf("taken nickname = (%v, %v), want (false, nil)", available, err)
	}
}

func TestJWTRoundTrip(t *testing.T) {
	svc := newAuth(&authUserRepo{})
	user := &model.User{ID: "user-1"}

	token, err := svc.GenerateJWT(user)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	claims, err := svc.VerifyJWT(token)
	if err != nil {
		t.Fatalf("VerifyJWT: %v", err)
	}
	if claims["user_id"] != "user-1" {
		t.Errorf("user_id claim = %v", claims["user_id"])
	}

	if _, err := svc.VerifyJWT(token + "x"); err == nil {
		t.Error("tampered token must not verify")
	}
}
