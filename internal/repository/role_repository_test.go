package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func expectationsMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAssignRoleUnknownUser(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM users WHERE id=? LIMIT 1").
		WithArgs(7).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := NewRoleRepo(db).AssignRole(context.Background(), 7, "farmer")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
	expectationsMet(t, mock)
}

func TestAssignRoleUnknownRole(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM users WHERE id=? LIMIT 1").
		WithArgs(7).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery("SELECT id FROM roles WHERE name=? LIMIT 1").
		WithArgs("surveyor").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := NewRoleRepo(db).AssignRole(context.Background(), 7, "surveyor")
	if !errors.Is(err, ErrRoleNotFound) {
		t.Fatalf("err = %v, want ErrRoleNotFound", err)
	}
	expectationsMet(t, mock)
}

func TestAssignRoleAlreadyHeld(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM users WHERE id=? LIMIT 1").
		WithArgs(7).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery("SELECT id FROM roles WHERE name=? LIMIT 1").
		WithArgs("farmer").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectQuery("SELECT 1 FROM user_roles WHERE user_id=? AND role_id=? LIMIT 1").
		WithArgs(7, 2).WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectRollback()

	err := NewRoleRepo(db).AssignRole(context.Background(), 7, "farmer")
	if !errors.Is(err, ErrRoleAssigned) {
		t.Fatalf("err = %v, want ErrRoleAssigned", err)
	}
	expectationsMet(t, mock)
}

func TestAssignRoleSuccess(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM users WHERE id=? LIMIT 1").
		WithArgs(7).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery("SELECT id FROM roles WHERE name=? LIMIT 1").
		WithArgs("farmer").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectQuery("SELECT 1 FROM user_roles WHERE user_id=? AND role_id=? LIMIT 1").
		WithArgs(7, 2).WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO user_roles (user_id, role_id) VALUES (?,?)").
		WithArgs(7, 2).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if err := NewRoleRepo(db).AssignRole(context.Background(), 7, "farmer"); err != nil {
		t.Fatalf("AssignRole: %v", err)
	}
	expectationsMet(t, mock)
}

// A failed commit means the grant never happened; the caller must see the
// error instead of a false success.
func TestAssignRoleCommitFailureSurfaces(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM users WHERE id=? LIMIT 1").
		WithArgs(7).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery("SELECT id FROM roles WHERE name=? LIMIT 1").
		WithArgs("farmer").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectQuery("SELECT 1 FROM user_roles WHERE user_id=? AND role_id=? LIMIT 1").
		WithArgs(7, 2).WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO user_roles (user_id, role_id) VALUES (?,?)").
		WithArgs(7, 2).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit().WillReturnError(errors.New("deadlock during commit"))

	if err := NewRoleRepo(db).AssignRole(context.Background(), 7, "farmer"); err == nil {
		t.Fatal("commit failure reported as success")
	}
	expectationsMet(t, mock)
}

func TestCreateRoleDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM roles WHERE name=? LIMIT 1").
		WithArgs("farmer").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectRollback()

	_, err := NewRoleRepo(db).CreateRole(context.Background(), "farmer")
	if !errors.Is(err, ErrRoleExists) {
		t.Fatalf("err = %v, want ErrRoleExists", err)
	}
	expectationsMet(t, mock)
}

func TestCreateRoleCommitFailure(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM roles WHERE name=? LIMIT 1").
		WithArgs("surveyor").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO roles (name) VALUES (?)").
		WithArgs("surveyor").WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectCommit().WillReturnError(errors.New("server gone"))

	role, err := NewRoleRepo(db).CreateRole(context.Background(), "surveyor")
	if err == nil {
		t.Fatal("commit failure reported as success")
	}
	if role != nil {
		t.Fatalf("role = %+v, want nil on failed commit", role)
	}
	expectationsMet(t, mock)
}

func TestCreateRoleSuccess(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM roles WHERE name=? LIMIT 1").
		WithArgs("surveyor").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO roles (name) VALUES (?)").
		WithArgs("surveyor").WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectCommit()

	role, err := NewRoleRepo(db).CreateRole(context.Background(), "surveyor")
	if err != nil {
		t.Fatalf("CreateRole: %v", err)
	}
	if role.ID != 3 || role.Name != "surveyor" {
		t.Fatalf("role = %+v", role)
	}
	expectationsMet(t, mock)
}

func TestRevokeRoleNotHeld(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(`DELETE ur FROM user_roles ur
		 JOIN roles ro ON ro.id = ur.role_id
		 WHERE ur.user_id = ? AND ro.name = ?`).
		WithArgs(7, "farmer").WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewRoleRepo(db).RevokeRole(context.Background(), 7, "farmer")
	if !errors.Is(err, ErrRoleNotFound) {
		t.Fatalf("err = %v, want ErrRoleNotFound", err)
	}
	expectationsMet(t, mock)
}
