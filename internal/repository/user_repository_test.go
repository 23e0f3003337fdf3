package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/iliyamo/farmland-registry/internal/model"
)

const insertUserSQL = "INSERT INTO users (phone_number, first_name, last_name, email, password) VALUES (?,?,?,?,?)"

func TestCreateUserPopulatesID(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(insertUserSQL).
		WithArgs("+49123456789", "Jane", "Miller", "jane@example.com", "hash").
		WillReturnResult(sqlmock.NewResult(11, 1))

	u := &model.User{
		PhoneNumber: "+49123456789",
		FirstName:   "Jane",
		LastName:    "Miller",
		Email:       "JANE@example.com", // normalized before the insert
		Password:    "hash",
	}
	if err := NewUserRepo(db).Create(context.Background(), u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.ID != 11 {
		t.Fatalf("ID = %d, want 11", u.ID)
	}
	expectationsMet(t, mock)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(insertUserSQL).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'jane@example.com' for key 'users.email'"))

	err := NewUserRepo(db).Create(context.Background(), &model.User{Email: "jane@example.com"})
	if !errors.Is(err, ErrEmailExists) {
		t.Fatalf("err = %v, want ErrEmailExists", err)
	}
	expectationsMet(t, mock)
}

func TestCreateUserDuplicatePhone(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(insertUserSQL).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry '+49123456789' for key 'users.phone_number'"))

	err := NewUserRepo(db).Create(context.Background(), &model.User{PhoneNumber: "+49123456789"})
	if !errors.Is(err, ErrPhoneExists) {
		t.Fatalf("err = %v, want ErrPhoneExists", err)
	}
	expectationsMet(t, mock)
}

func TestMapUserDupErrPassesThroughOtherErrors(t *testing.T) {
	in := errors.New("Error 1213 (40001): Deadlock found")
	if got := mapUserDupErr(in); got != in {
		t.Fatalf("got %v, want the original error", got)
	}
}

func TestGetByIDWithRolesFoldsJoinRows(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	cols := []string{"id", "phone_number", "first_name", "last_name", "email", "password",
		"created_at", "updated_at", "r_id", "r_name"}
	mock.ExpectQuery(`SELECT u.id, u.phone_number, u.first_name, u.last_name, u.email, u.password,
		                  u.created_at, u.updated_at, r.id, r.name
		           FROM users u
		           LEFT JOIN user_roles ur ON ur.user_id = u.id
		           LEFT JOIN roles r ON r.id = ur.role_id
		           WHERE u.id = ?`).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(5, "+49123", "Jane", "Miller", "jane@example.com", "hash", now, now, 1, "admin").
			AddRow(5, "+49123", "Jane", "Miller", "jane@example.com", "hash", now, now, 2, "farmer"))

	u, err := NewUserRepo(db).GetByIDWithRoles(context.Background(), 5)
	if err != nil {
		t.Fatalf("GetByIDWithRoles: %v", err)
	}
	if len(u.Roles) != 2 {
		t.Fatalf("roles = %+v, want 2 entries", u.Roles)
	}
	if !u.HasRole(model.RoleAdmin) || !u.HasRole(model.RoleFarmer) {
		t.Fatalf("roles = %+v", u.Roles)
	}
	expectationsMet(t, mock)
}

func TestGetByIDWithRolesUnknownUser(t *testing.T) {
	db, mock := newMockDB(t)
	cols := []string{"id", "phone_number", "first_name", "last_name", "email", "password",
		"created_at", "updated_at", "r_id", "r_name"}
	mock.ExpectQuery(`SELECT u.id, u.phone_number, u.first_name, u.last_name, u.email, u.password,
		                  u.created_at, u.updated_at, r.id, r.name
		           FROM users u
		           LEFT JOIN user_roles ur ON ur.user_id = u.id
		           LEFT JOIN roles r ON r.id = ur.role_id
		           WHERE u.id = ?`).
		WithArgs(404).
		WillReturnRows(sqlmock.NewRows(cols))

	_, err := NewUserRepo(db).GetByIDWithRoles(context.Background(), 404)
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
	expectationsMet(t, mock)
}
