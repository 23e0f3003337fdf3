package middleware // middleware provides shared request processing for handlers

import (
    "context"
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/farmland-registry/internal/model"
    "github.com/iliyamo/farmland-registry/internal/repository"
    "github.com/iliyamo/farmland-registry/internal/utils"
)

// Cookie names the session layer reads and writes.  The client holds the
// only copy of each token; the server keeps no session table and rebuilds
// the session from the cookie on every request.
const (
    AccessCookieName  = "users_access_token"
    RefreshCookieName = "users_refresh_token"
)

// userContextKey is where the resolved user lives in the echo context.
const userContextKey = "current_user"

// TokenKind selects which cookie a session lookup reads.
type TokenKind string

const (
    AccessToken  TokenKind = "access"
    RefreshToken TokenKind = "refresh"
)

func (k TokenKind) cookieName() string {
    if k == RefreshToken {
        return RefreshCookieName
    }
    return AccessCookieName
}

// label returns the capitalized kind for use in error messages.
func (k TokenKind) label() string {
    if k == RefreshToken {
        return "Refresh"
    }
    return "Access"
}

// AuthError is a typed rejection produced while resolving a session.  It
// carries the HTTP status the handler should answer with.
type AuthError struct {
    Code    int
    Message string
}

func (e *AuthError) Error() string { return e.Message }

// UserLoader is the single query shape the session layer needs from the
// credential store: a user loaded together with all current role
// assignments.  *repository.UserRepo satisfies it; tests substitute fakes.
type UserLoader interface {
    GetByIDWithRoles(ctx context.Context, id uint64) (*model.User, error)
}

// ResolveUser runs the full session pipeline for one token kind:
// cookie -> signature check -> explicit expiry check -> subject claim ->
// user load with roles.  Each stage fails with its own distinct message so
// clients can tell an expired token from a tampered one.
func ResolveUser(c echo.Context, secret string, users UserLoader, kind TokenKind) (*model.User, *AuthError) {
    cookie, err := c.Cookie(kind.cookieName())
    if err != nil || cookie.Value == "" {
        return nil, &AuthError{http.StatusUnauthorized, kind.label() + " token not found"}
    }

    claims, err := utils.DecodeToken(secret, cookie.Value)
    if err != nil {
        return nil, &AuthError{http.StatusUnauthorized, "Invalid " + string(kind) + " token"}
    }
    // DecodeToken never checks expiry; this is the explicit, caller-owned step.
    if claims.Expired(time.Now().UTC()) {
        return nil, &AuthError{http.StatusUnauthorized, kind.label() + " token expired"}
    }

    uid, ok := parseSubject(claims.Subject)
    if !ok {
        return nil, &AuthError{http.StatusUnauthorized, "No user ID in token"}
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    u, err := users.GetByIDWithRoles(ctx, uid)
    if err != nil {
        // The token may outlive its subject, e.g. an account deleted after
        // issuance.  That is an authentication failure, not a 404.
        if errors.Is(err, repository.ErrUserNotFound) {
            return nil, &AuthError{http.StatusUnauthorized, "User not found"}
        }
        return nil, &AuthError{http.StatusInternalServerError, "could not load user"}
    }
    return u, nil
}

// Session returns middleware that authenticates requests via the access
// cookie and stashes the resolved user (roles included) in the context for
// handlers and the role guard.
func Session(secret string, users UserLoader) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            u, aerr := ResolveUser(c, secret, users, AccessToken)
            if aerr != nil {
                return c.JSON(aerr.Code, echo.Map{"error": aerr.Message})
            }
            c.Set(userContextKey, u)
            return next(c)
        }
    }
}

// CurrentUser extracts the resolved user placed in the context by Session.
func CurrentUser(c echo.Context) (*model.User, bool) {
    u, ok := c.Get(userContextKey).(*model.User)
    return u, ok && u != nil
}

// parseSubject converts the sub claim into a user ID.  Empty or
// non-numeric subjects are rejected.
func parseSubject(sub string) (uint64, bool) {
    if sub == "" {
        return 0, false
    }
    n, err := strconv.ParseUint(sub, 10, 64)
    return n, err == nil
}
