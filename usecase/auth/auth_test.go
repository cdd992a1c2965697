package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/dailydone/backend/domain"
)

type fakeUsers struct {
	byEmail map[string]*domain.User
	created *domain.User
}

func (f *fakeUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if user, ok := f.byEmail[email]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUsers) Create(ctx context.Context, user *domain.User) error {
	if f.byEmail == nil {
		f.byEmail = map[string]*domain.User{}
	}
	if _, ok := f.byEmail[user.Email]; ok {
		return domain.ErrEmailTaken
	}
	f.byEmail[user.Email] = user
	f.created = user
	return nil
}

func (f *fakeUsers) UpdateProfile(ctx context.Context, user *domain.User) error { return nil }
func (f *fakeUsers) List(ctx context.Context) ([]domain.User, error)            { return nil, nil }
func (f *fakeUsers) ApplyStreak(ctx context.Context, userID string, update domain.StreakUpdate) (bool, error) {
	return false, nil
}

type fakeSessions struct {
	sessions map[string]*domain.Session
}

func (f *fakeSessions) Get(ctx context.Context, id string) (*domain.Session, error) {
	if session, ok := f.sessions[id]; ok {
		return session, nil
	}
	return nil, domain.ErrSessionNotFound
}

func (f *fakeSessions) Save(ctx context.Context, session *domain.Session) error {
	if f.sessions == nil {
		f.sessions = map[string]*domain.Session{}
	}
	f.sessions[session.ID] = session
	return nil
}

func (f *fakeSessions) Delete(ctx context.Context, id string) error {
	delete(f.sessions, id)
	return nil
}

func (f *fakeSessions) Extend(ctx context.Context, id string, ttlSeconds int) error { return nil }

func newAuth(users *fakeUsers, sessions *fakeSessions) *UseCase {
	if users == nil {
		users = &fakeUsers{}
	}
	if sessions == nil {
		sessions = &fakeSessions{}
	}
	return New(users, sessions, "test-secret", "dailydone-test", nil)
}

func TestRegisterHashesPasswordAndValidatesTimezone(t *testing.T) {
	users := &fakeUsers{}
	uc := newAuth(users, nil)

	user, err := uc.Register(context.Background(), "a@example.com", "alex", "hunter2hunter2", "Europe/Berlin")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.PasswordHash == "hunter2hunter2" || user.PasswordHash == "" {
		t.Error("password must be stored hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter2hunter2")); err != nil {
		t.Errorf("stored hash does not verify: %v", err)
	}
	if user.ID == "" {
		t.Error("registered user should receive an id")
	}

	cases := []struct {
		name                               string
		email, username, password, tz      string
	}{
		{"empty email", "", "alex", "hunter2hunter2", "UTC"},
		{"empty username", "a@example.com", "", "hunter2hunter2", "UTC"},
		{"short password", "a@example.com", "alex", "short", "UTC"},
		{"bad timezone", "b@example.com", "alex", "hunter2hunter2", "Moon/Crater"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := uc.Register(context.Background(), tc.email, tc.username, tc.password, tc.tz); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
				t.Errorf("want invalid domain error, got %v", err)
			}
		})
	}
}

func TestLoginIssuesTokenWithClaims(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	users := &fakeUsers{byEmail: map[string]*domain.User{
		"a@example.com": {ID: "u1", Email: "a@example.com", PasswordHash: string(hash), Timezone: "UTC"},
	}}
	sessions := &fakeSessions{}
	uc := newAuth(users, sessions)

	creds, err := uc.Login(context.Background(), "a@example.com", "correct-horse", time.Hour)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if creds.Token == "" || creds.Session == nil || creds.User == nil {
		t.Fatalf("creds incomplete: %+v", creds)
	}
	if _, ok := sessions.sessions[creds.Session.ID]; !ok {
		t.Error("session was not persisted")
	}

	token, err := jwt.Parse(creds.Token, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("issued token does not verify: %v", err)
	}
	claims := token.Claims.(jwt.MapClaims)
	if claims["user_id"] != "u1" {
		t.Errorf("user_id claim = %v", claims["user_id"])
	}
	if claims["session_id"] != creds.Session.ID {
		t.Errorf("session_id claim = %v", claims["session_id"])
	}
}

func TestLoginRejectsBadCredentialsUniformly(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	users := &fakeUsers{byEmail: map[string]*domain.User{
		"a@example.com": {ID: "u1", Email: "a@example.com", PasswordHash: string(hash)},
	}}
	uc := newAuth(users, nil)

	// Unknown email and wrong password are indistinguishable.
	_, errUnknown := uc.Login(context.Background(), "nobody@example.com", "whatever", time.Hour)
	_, errWrong := uc.Login(context.Background(), "a@example.com", "wrong", time.Hour)
	for _, err := range []error{errUnknown, errWrong} {
		if !domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
			t.Errorf("want unauthorized, got %v", err)
		}
	}
}

func TestRefreshExpiredSessionIsRevoked(t *testing.T) {
	sessions := &fakeSessions{sessions: map[string]*domain.Session{
		"s1": {ID: "s1", UserID: "u1", ExpiresAt: time.Now().Add(-time.Minute)},
	}}
	uc := newAuth(nil, sessions)

	if _, err := uc.Refresh(context.Background(), "s1", time.Hour); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("want not-found for expired session, got %v", err)
	}
	if _, ok := sessions.sessions["s1"]; ok {
		t.Error("expired session must be deleted on refresh")
	}
}

func TestRefreshValidSessionExtends(t *testing.T) {
	sessions := &fakeSessions{sessions: map[string]*domain.Session{
		"s1": {ID: "s1", UserID: "u1", ExpiresAt: time.Now().Add(time.Minute)},
	}}
	uc := newAuth(nil, sessions)

	creds, err := uc.Refresh(context.Background(), "s1", time.Hour)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if creds.Token == "" {
		t.Error("refresh should issue a fresh token")
	}
	if !creds.Session.ExpiresAt.After(time.Now().Add(30 * time.Minute)) {
		t.Error("session expiry was not extended")
	}
}
