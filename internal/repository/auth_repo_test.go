package repository

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func newUserMock(t *testing.T) (*UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewUserRepository(db), mock
}

func TestUserRepository_Create(t *testing.T) {
	t.Parallel()
	repo, mock := newUserMock(t)

	mock.ExpectExec(insertUserSQL).
		WithArgs("alice", "hash").
		WillReturnResult(sqlmock.NewResult(3, 1))

	id, err := repo.Create("alice", "hash")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id != 3 {
		t.Errorf("id: want 3, got %d", id)
	}
}

func TestUserRepository_GetByUsername(t *testing.T) {
	t.Parallel()
	repo, mock := newUserMock(t)

	mock.ExpectQuery(selectUserByUsernameSQL).WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash"}).
			AddRow(3, "alice", "hash"))

	u, err := repo.GetByUsername("alice")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if u == nil || u.ID != 3 || u.PasswordHash != "hash" {
		t.Fatalf("user not carried over: %+v", u)
	}
}

func TestUserRepository_GetByUsernameNotFound(t *testing.T) {
	t.Parallel()
	repo, mock := newUserMock(t)

	mock.ExpectQuery(selectUserByUsernameSQL).WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash"}))

	u, err := repo.GetByUsername("nobody")
	if err != nil {
		t.Fatalf("missing user must not be an error: %v", err)
	}
	if u != nil {
		t.Fatalf("want nil user, got %+v", u)
	}
}

func TestUserRepository_GetByUsernameQueryError(t *testing.T) {
	t.Parallel()
	repo, mock := newUserMock(t)

	mock.ExpectQuery(selectUserByUsernameSQL).WithArgs("alice").
		WillReturnError(errors.New("database is locked"))

	if _, err := repo.GetByUsername("alice"); err == nil {
		t.Fatalf("expected query error to propagate")
	}
}
