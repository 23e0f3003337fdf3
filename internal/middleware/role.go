package middleware // middleware provides shared request processing for handlers

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// RequireRole returns a middleware that admits only requests whose resolved
// user holds at least one of the given roles.  It must run after Session,
// which loads the user's assignments fresh from the store, so revoking a
// role takes effect on the very next request with no cached privilege
// state anywhere in the process.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    // Build a set of allowed role names for constant-time lookups.
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            u, ok := CurrentUser(c)
            if !ok {
                // Session middleware did not run or failed silently; treat
                // as unauthenticated rather than forbidden.
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
            }
            for _, r := range u.Roles {
                if allowed[r.Name] {
                    return next(c)
                }
            }
            return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
        }
    }
}
