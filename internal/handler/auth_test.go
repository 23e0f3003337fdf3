package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/farmland-registry/internal/config"
	"github.com/iliyamo/farmland-registry/internal/middleware"
)

func newJSONContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func TestRegisterRejectsInvalidPayload(t *testing.T) {
	h := NewAuthHandler(config.Config{BcryptCost: 4}, nil)
	c, rec := newJSONContext(http.MethodPost, "/auth/register/",
		`{"email":"bad","password":"x","phone_number":"1","first_name":"A","last_name":"B"}`)
	if err := h.Register(c); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"detail"`) {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestLoginRequiresCredentials(t *testing.T) {
	h := NewAuthHandler(config.Config{}, nil)
	c, rec := newJSONContext(http.MethodPost, "/auth/login/", `{"email":"","password":""}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestLogoutClearsBothCookies(t *testing.T) {
	h := NewAuthHandler(config.Config{}, nil)
	c, rec := newJSONContext(http.MethodPost, "/auth/logout/", "")
	if err := h.Logout(c); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	cleared := map[string]bool{}
	for _, ck := range rec.Result().Cookies() {
		if ck.Value == "" && ck.MaxAge < 0 {
			cleared[ck.Name] = true
		}
		if !ck.HttpOnly {
			t.Fatalf("cookie %s not HttpOnly", ck.Name)
		}
	}
	if !cleared[middleware.AccessCookieName] || !cleared[middleware.RefreshCookieName] {
		t.Fatalf("cookies not cleared: %v", cleared)
	}
}

func TestMeWithoutSession(t *testing.T) {
	h := NewAuthHandler(config.Config{}, nil)
	c, rec := newJSONContext(http.MethodGet, "/auth/me/", "")
	if err := h.Me(c); err != nil {
		t.Fatalf("Me: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestSetTokenCookieAttributes(t *testing.T) {
	c, rec := newJSONContext(http.MethodPost, "/", "")
	exp := time.Now().Add(15 * time.Minute).UTC()
	setTokenCookie(c, middleware.AccessCookieName, "tok", exp)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies, want 1", len(cookies))
	}
	ck := cookies[0]
	if ck.Name != middleware.AccessCookieName || ck.Value != "tok" {
		t.Fatalf("cookie = %+v", ck)
	}
	if !ck.HttpOnly || ck.Path != "/" {
		t.Fatalf("cookie attributes = %+v", ck)
	}
	if ck.Expires.IsZero() || !ck.Expires.After(time.Now()) {
		t.Fatalf("cookie expiry = %v", ck.Expires)
	}
}
