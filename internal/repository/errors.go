// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios and
// translate them into the right HTTP status without string matching.
package repository

import "errors"

// Not-found sentinels. Handlers translate these into HTTP 404 (or 401 for
// ErrUserNotFound when it surfaces during session resolution: the token was
// valid but its subject no longer exists).
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrRoleNotFound   = errors.New("role not found")
	ErrFarmerNotFound = errors.New("farmer not found")
	ErrFieldNotFound  = errors.New("field not found")
)

// Conflict sentinels. Handlers translate these into HTTP 409 (400 for
// ErrRoleExists, matching the role-creation endpoint contract).
var (
	ErrEmailExists     = errors.New("email already exists")
	ErrPhoneExists     = errors.New("phone number already exists")
	ErrRoleExists      = errors.New("role already exists")
	ErrRoleAssigned    = errors.New("role already assigned to user")
	ErrFieldNameExists = errors.New("field name already exists")
)
