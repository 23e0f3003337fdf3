package model

import "time"

// User represents an application account as stored in the `users` table.
// The password column holds a bcrypt hash, never plaintext.  Roles carries
// the user's current role assignments when the record was loaded with the
// role-join query shape; it is nil for lookups that do not need them.
//
// Fields:
//  ID          – primary key identifier of the user.
//  PhoneNumber – unique phone number in international format.
//  FirstName   – given name.
//  LastName    – family name.
//  Email       – unique email address.
//  Password    – bcrypt hashed password.
//  Roles       – role assignments loaded alongside the user (may be nil).
//  CreatedAt   – timestamp of creation.
//  UpdatedAt   – timestamp of last update.
type User struct {
    ID          uint64    `json:"id"`
    PhoneNumber string    `json:"phone_number"`
    FirstName   string    `json:"first_name"`
    LastName    string    `json:"last_name"`
    Email       string    `json:"email"`
    Password    string    `json:"-"` // never serialized
    Roles       []Role    `json:"roles,omitempty"`
    CreatedAt   time.Time `json:"created_at"`
    UpdatedAt   time.Time `json:"updated_at"`
}

// Role represents a row in the `roles` table: a named permission tag,
// globally unique by name.
type Role struct {
    ID   uint64 `json:"id"`   // roles.id
    Name string `json:"name"` // roles.name
}

// Well-known role names.  Roles are free-form rows in the roles table; these
// two are the ones the authorization guards reference directly.
const (
    RoleAdmin  = "admin"
    RoleFarmer = "farmer"
)

// HasRole reports whether the user's loaded assignments contain the named
// role.  Users hold at most a handful of roles, so a linear scan over the
// slice is all this needs.
func (u *User) HasRole(name string) bool {
    for _, r := range u.Roles {
        if r.Name == name {
            return true
        }
    }
    return false
}

// IsAdmin reports whether the user currently holds the admin role.  The
// answer is only as fresh as the Roles slice, which the session middleware
// reloads from the store on every request.
func (u *User) IsAdmin() bool { return u.HasRole(RoleAdmin) }
