package handler

import (
    "context"  // context with cancellation for DB calls
    "errors"   // sentinel comparison
    "net/http" // HTTP status codes and cookie primitives
    "strings"  // input normalization
    "time"     // timeouts and cookie expiry

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/iliyamo/farmland-registry/internal/config"     // app configuration
    "github.com/iliyamo/farmland-registry/internal/middleware" // session pipeline + cookie names
    "github.com/iliyamo/farmland-registry/internal/model"      // user record
    "github.com/iliyamo/farmland-registry/internal/repository" // DB repositories
    "github.com/iliyamo/farmland-registry/internal/utils"      // hashing, token issuing
)

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u}
}

// ----- DTOs -----

type registerReq struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phone_number"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a user account.  Validation failures come back as 422
// with field-level messages; duplicate email or phone is a 409.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if errs := validateRegister(req); len(errs) > 0 {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"detail": errs})
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u := &model.User{
		PhoneNumber: req.PhoneNumber,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Password:    hash,
	}
	if err := h.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) || errors.Is(err, repository.ErrPhoneExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "user already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "registration successful"})
}

// Login verifies credentials and establishes the cookie session: both the
// access and refresh tokens are returned in the body and set as HttpOnly
// cookies.  Unknown email and wrong password are indistinguishable.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid email or password"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.Password, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid email or password"})
	}

	access, accessExp, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	refresh, refreshExp, err := utils.NewRefreshToken(h.Cfg.JWTSecret, u.ID, h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
	}

	setTokenCookie(c, middleware.AccessCookieName, access, accessExp)
	setTokenCookie(c, middleware.RefreshCookieName, refresh, refreshExp)

	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  access,
		"refresh_token": refresh,
		"message":       "login successful",
	})
}

// Refresh exchanges a valid refresh cookie for a new access token.  The
// refresh token itself is NOT rotated: only the access cookie changes.
// The refresh cookie goes through the exact same pipeline as an access
// cookie (signature, explicit expiry, subject, user load).
func (h *AuthHandler) Refresh(c echo.Context) error {
	u, aerr := middleware.ResolveUser(c, h.Cfg.JWTSecret, h.Users, middleware.RefreshToken)
	if aerr != nil {
		return c.JSON(aerr.Code, echo.Map{"error": aerr.Message})
	}

	access, accessExp, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	setTokenCookie(c, middleware.AccessCookieName, access, accessExp)

	return c.JSON(http.StatusOK, echo.Map{"access_token": access})
}

// Logout clears both session cookies.  Tokens are stateless so there is
// nothing to revoke server-side; expiring the cookies ends the session.
func (h *AuthHandler) Logout(c echo.Context) error {
	clearTokenCookie(c, middleware.AccessCookieName)
	clearTokenCookie(c, middleware.RefreshCookieName)
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// Me returns the authenticated user, roles included.
func (h *AuthHandler) Me(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}
	return c.JSON(http.StatusOK, u)
}

// AllUsers returns every account with role assignments.  Admin only; the
// route group applies the role guard.
func (h *AuthHandler) AllUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.ListWithRoles(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, users)
}

// setTokenCookie writes an HttpOnly session cookie that expires together
// with the token it carries.
func setTokenCookie(c echo.Context, name, token string, exp time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    token,
		Expires:  exp,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearTokenCookie expires a session cookie immediately.
func clearTokenCookie(c echo.Context, name string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		MaxAge:   -1,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
