package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/farmland-registry/internal/model"
)

// RoleRepo manages the roles table and the user_roles join table.  Every
// write runs inside a single transaction that either fully commits or
// fully rolls back; there is no retry logic anywhere in this layer.
type RoleRepo struct{ db *sql.DB }

func NewRoleRepo(db *sql.DB) *RoleRepo { return &RoleRepo{db: db} }

// CreateRole inserts a new named role.  Returns ErrRoleExists when a role
// with the same name is already present.  The results are named so the
// deferred commit can surface its error to the caller.
func (r *RoleRepo) CreateRole(ctx context.Context, name string) (role *model.Role, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if err = tx.Commit(); err != nil {
			role = nil
		}
	}()

	var existing uint64
	err = tx.QueryRowContext(ctx, "SELECT id FROM roles WHERE name=? LIMIT 1", name).Scan(&existing)
	if err == nil {
		err = ErrRoleExists
		return nil, err
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	var res sql.Result
	res, err = tx.ExecContext(ctx, "INSERT INTO roles (name) VALUES (?)", name)
	if err != nil {
		// The unique key still guards against a concurrent insert racing the
		// existence check above.
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			err = ErrRoleExists
		}
		return nil, err
	}
	var id int64
	id, err = res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &model.Role{ID: uint64(id), Name: name}, nil
}

// DeleteRole removes a role by id along with any assignments referencing
// it.  Returns ErrRoleNotFound when the role does not exist.
func (r *RoleRepo) DeleteRole(ctx context.Context, id uint64) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	// Assignments go first so the role row never dangles behind FK rows.
	if _, err = tx.ExecContext(ctx, "DELETE FROM user_roles WHERE role_id=?", id); err != nil {
		return err
	}
	var res sql.Result
	res, err = tx.ExecContext(ctx, "DELETE FROM roles WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrRoleNotFound
		return err
	}
	return nil
}

// AssignRole grants the named role to a user.  The policy is strictly
// additive: existing assignments are left untouched and granting a role
// the user already holds is a conflict, not a no-op.
//
// Sequence inside one transaction:
//  1. user must exist            -> ErrUserNotFound
//  2. role must exist            -> ErrRoleNotFound
//  3. pair must not exist yet    -> ErrRoleAssigned
//  4. single INSERT into user_roles
func (r *RoleRepo) AssignRole(ctx context.Context, userID uint64, roleName string) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	var uid uint64
	err = tx.QueryRowContext(ctx, "SELECT id FROM users WHERE id=? LIMIT 1", userID).Scan(&uid)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrUserNotFound
		return err
	}
	if err != nil {
		return err
	}

	var roleID uint64
	err = tx.QueryRowContext(ctx, "SELECT id FROM roles WHERE name=? LIMIT 1", roleName).Scan(&roleID)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrRoleNotFound
		return err
	}
	if err != nil {
		return err
	}

	var exists int
	err = tx.QueryRowContext(ctx,
		"SELECT 1 FROM user_roles WHERE user_id=? AND role_id=? LIMIT 1", userID, roleID).Scan(&exists)
	if err == nil {
		err = ErrRoleAssigned
		return err
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO user_roles (user_id, role_id) VALUES (?,?)", userID, roleID)
	if err != nil {
		// Composite primary key backstops the existence check under
		// concurrent grants.
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			err = ErrRoleAssigned
		}
		return err
	}
	return nil
}

// RevokeRole deletes one (user, role) assignment.  Returns ErrRoleNotFound
// when the user does not hold the role.  Revocation is visible on the very
// next request because authorization always reloads assignments.
func (r *RoleRepo) RevokeRole(ctx context.Context, userID uint64, roleName string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE ur FROM user_roles ur
		 JOIN roles ro ON ro.id = ur.role_id
		 WHERE ur.user_id = ? AND ro.name = ?`, userID, roleName)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRoleNotFound
	}
	return nil
}
