package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yanizio/impact/internal/session"
)

func TestScope(t *testing.T) {
	if got := Scope(context.Background()); got != Anonymous {
		t.Fatalf("Scope(empty) = %q", got)
	}
	if got := Scope(WithUser(context.Background(), "")); got != Anonymous {
		t.Fatalf("Scope(blank) = %q", got)
	}
	if got := Scope(WithUser(context.Background(), "ana@example.org")); got != "ana@example.org" {
		t.Fatalf("Scope = %q", got)
	}
}

func TestMiddlewareReadsSession(t *testing.T) {
	login := httptest.NewRecorder()
	session.LoginUser(login, httptest.NewRequest(http.MethodPost, "/login", nil), "ana@example.org")

	var seen string
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = Scope(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/projects/forms", nil)
	for _, c := range login.Result().Cookies() {
		req.AddCookie(c)
	}
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "ana@example.org" {
		t.Fatalf("scope = %q", seen)
	}

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if seen != Anonymous {
		t.Fatalf("anonymous scope = %q", seen)
	}
}
