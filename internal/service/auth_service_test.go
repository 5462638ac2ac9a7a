package service

import (
	"errors"
	"testing"

	"heater_server/internal/models"
)

type stubAuthRepo struct {
	users  map[string]*models.User
	nextID int
}

func newStubAuthRepo() *stubAuthRepo {
	return &stubAuthRepo{users: make(map[string]*models.User), nextID: 1}
}

func (r *stubAuthRepo) Create(username, passwordHash string) (int, error) {
	if _, ok := r.users[username]; ok {
		return 0, errors.New("username taken")
	}
	id := r.nextID
	r.nextID++
	r.users[username] = &models.User{ID: id, Username: username, PasswordHash: passwordHash}
	return id, nil
}

func (r *stubAuthRepo) GetByUsername(username string) (*models.User, error) {
	return r.users[username], nil
}

func TestAuthService_SignUpAndSignIn(t *testing.T) {
	t.Parallel()

	repo := newStubAuthRepo()
	auth := NewAuthService(repo, "test-signing-key")

	id, err := auth.SignUp("alice", "secret")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if id != 1 {
		t.Errorf("id: want 1, got %d", id)
	}
	if repo.users["alice"].PasswordHash == "secret" {
		t.Fatalf("password must be stored hashed")
	}

	token, err := auth.GenerateToken("alice", "secret")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	userID, err := auth.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if userID != 1 {
		t.Errorf("user id from token: want 1, got %d", userID)
	}
}

func TestAuthService_RejectsEmptyPassword(t *testing.T) {
	t.Parallel()

	auth := NewAuthService(newStubAuthRepo(), "test-signing-key")
	if _, err := auth.SignUp("alice", "   "); err == nil {
		t.Fatalf("expected empty password to be rejected")
	}
}

func TestAuthService_RejectsWrongPassword(t *testing.T) {
	t.Parallel()

	repo := newStubAuthRepo()
	auth := NewAuthService(repo, "test-signing-key")
	if _, err := auth.SignUp("alice", "secret"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	if _, err := auth.GenerateToken("alice", "wrong"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("want ErrInvalidPassword, got %v", err)
	}
}

func TestAuthService_RejectsUnknownUser(t *testing.T) {
	t.Parallel()

	auth := NewAuthService(newStubAuthRepo(), "test-signing-key")
	if _, err := auth.GenerateToken("nobody", "secret"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("want ErrUserNotFound, got %v", err)
	}
}

func TestAuthService_RejectsForeignToken(t *testing.T) {
	t.Parallel()

	repo := newStubAuthRepo()
	issuer := NewAuthService(repo, "key-one")
	if _, err := issuer.SignUp("alice", "secret"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	token, err := issuer.GenerateToken("alice", "secret")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	verifier := NewAuthService(repo, "key-two")
	if _, err := verifier.ParseToken(token); err == nil {
		t.Fatalf("token signed with another key must be rejected")
	}
}
