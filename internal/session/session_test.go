package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLoginRoundTrip(t *testing.T) {
	rec := httptest.NewRecorder()
	LoginUser(rec, httptest.NewRequest(http.MethodPost, "/login", nil), "ana@example.org")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	email, ok := CurrentEmail(req)
	if !ok || email != "ana@example.org" {
		t.Fatalf("CurrentEmail = %q, %v", email, ok)
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	LogoutUser(rec, httptest.NewRequest(http.MethodPost, "/logout", nil))

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != cookieName || cookies[0].MaxAge >= 0 {
		t.Fatalf("unexpected cookies %+v", cookies)
	}
	if _, ok := CurrentEmail(httptest.NewRequest(http.MethodGet, "/", nil)); ok {
		t.Fatal("anonymous request reported a user")
	}
}

func TestLoginNormalizesEmail(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	LoginUser(rec, req, "  Ana+Grants@Example.ORG ")

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || !cookies[0].Secure {
		t.Fatalf("cookies = %+v, want one secure cookie", cookies)
	}
	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(cookies[0])
	if email, ok := CurrentEmail(next); !ok || email != "ana+grants@example.org" {
		t.Fatalf("CurrentEmail = %q, %v", email, ok)
	}
}

func TestCurrentEmailRejectsBadCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: "%zz"})
	if _, ok := CurrentEmail(req); ok {
		t.Fatal("undecodable cookie accepted")
	}
}
