package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/farmland-registry/internal/model"
)

// UserRepo encapsulates all database queries for users and their role
// assignments.  Role-membership predicates must reflect the current
// user_roles rows, so the "with roles" lookups are single JOIN queries and
// nothing here caches between calls.
type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// Create inserts a new user and populates its ID.  The password must
// already be hashed by the caller.  Duplicate email or phone unique-key
// violations are mapped to their sentinel errors.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (phone_number, first_name, last_name, email, password) VALUES (?,?,?,?,?)",
		u.PhoneNumber, u.FirstName, u.LastName, u.Email, u.Password)
	if err != nil {
		return mapUserDupErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return nil
}

// GetByEmail fetches a user by normalized email without role assignments.
// Used by the login path, which only needs the password hash.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := r.db.QueryRowContext(ctx,
		"SELECT id, phone_number, first_name, last_name, email, password, created_at, updated_at FROM users WHERE email=? LIMIT 1",
		email).Scan(&u.ID, &u.PhoneNumber, &u.FirstName, &u.LastName, &u.Email, &u.Password, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByIDWithRoles loads a user together with all current role assignments
// in one query.  This is the only lookup the session middleware and the
// authorization guards use, so privileges are always read fresh from
// user_roles on every request.
func (r *UserRepo) GetByIDWithRoles(ctx context.Context, id uint64) (*model.User, error) {
	const q = `SELECT u.id, u.phone_number, u.first_name, u.last_name, u.email, u.password,
	                  u.created_at, u.updated_at, r.id, r.name
	           FROM users u
	           LEFT JOIN user_roles ur ON ur.user_id = u.id
	           LEFT JOIN roles r ON r.id = ur.role_id
	           WHERE u.id = ?`
	rows, err := r.db.QueryContext(ctx, q, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var u *model.User
	for rows.Next() {
		var (
			row      model.User
			roleID   sql.NullInt64
			roleName sql.NullString
		)
		if err := rows.Scan(&row.ID, &row.PhoneNumber, &row.FirstName, &row.LastName,
			&row.Email, &row.Password, &row.CreatedAt, &row.UpdatedAt, &roleID, &roleName); err != nil {
			return nil, err
		}
		if u == nil {
			u = &row
		}
		if roleID.Valid {
			u.Roles = append(u.Roles, model.Role{ID: uint64(roleID.Int64), Name: roleName.String})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// ListWithRoles returns every user with their role assignments, ordered by
// user id.  Backs the admin-only user listing.
func (r *UserRepo) ListWithRoles(ctx context.Context) ([]*model.User, error) {
	const q = `SELECT u.id, u.phone_number, u.first_name, u.last_name, u.email,
	                  u.created_at, u.updated_at, r.id, r.name
	           FROM users u
	           LEFT JOIN user_roles ur ON ur.user_id = u.id
	           LEFT JOIN roles r ON r.id = ur.role_id
	           ORDER BY u.id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		out  []*model.User
		last *model.User
	)
	for rows.Next() {
		var (
			row      model.User
			roleID   sql.NullInt64
			roleName sql.NullString
		)
		if err := rows.Scan(&row.ID, &row.PhoneNumber, &row.FirstName, &row.LastName,
			&row.Email, &row.CreatedAt, &row.UpdatedAt, &roleID, &roleName); err != nil {
			return nil, err
		}
		if last == nil || last.ID != row.ID {
			u := row
			out = append(out, &u)
			last = out[len(out)-1]
		}
		if roleID.Valid {
			last.Roles = append(last.Roles, model.Role{ID: uint64(roleID.Int64), Name: roleName.String})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// mapUserDupErr translates MySQL duplicate-key errors (1062) on the users
// table into the matching sentinel, based on which unique key tripped.
func mapUserDupErr(err error) error {
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "1062") {
		return err
	}
	if strings.Contains(msg, "phone") {
		return ErrPhoneExists
	}
	return ErrEmailExists
}
