package middleware

// identity.go provides the user-identifier helper shared by the rate
// limiter and cache key builders. When the session middleware has not
// resolved a user for the request, "anon" is used so unauthenticated
// traffic shares one bucket per IP/route.

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// requestUserID returns the resolved user's ID as a string, or "anon".
func requestUserID(c echo.Context) string {
    if u, ok := CurrentUser(c); ok {
        return strconv.FormatUint(u.ID, 10)
    }
    return "anon"
}
