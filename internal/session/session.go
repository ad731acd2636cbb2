// internal/session/session.go
//
// Impact – cookie session stub.
//
// Context
//   Form drafts are scoped per user, so the dashboard must know who is
//   editing.  Login stores the normalised email in the "impact_session"
//   cookie; nothing is signed.  Authentication design is out of scope and
//   callers only use the three functions below.
//
//   The cookie is Secure when the request arrived over TLS directly or
//   through a proxy that sets X-Forwarded-Proto.
//
//------------------------------------------------------------------------------

package session

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	cookieName = "impact_session"
	lifetime   = 14 * 24 * time.Hour
)

// Normalize trims and lowercases an email so "Ana@Example.org " and
// "ana@example.org" share drafts.
func Normalize(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// LoginUser stores email in the session cookie.
func LoginUser(w http.ResponseWriter, r *http.Request, email string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    url.QueryEscape(Normalize(email)),
		Path:     "/",
		HttpOnly: true,
		Secure:   secure(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(lifetime / time.Second),
	})
}

// LogoutUser expires the session cookie.
func LogoutUser(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure(r),
		SameSite: http.SameSiteLaxMode,
	})
}

// CurrentEmail returns the session user.  ok is false for a missing,
// empty, or undecodable cookie.
func CurrentEmail(r *http.Request) (email string, ok bool) {
	c, err := r.Cookie(cookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	email, err = url.QueryUnescape(c.Value)
	if err != nil {
		return "", false
	}
	email = Normalize(email)
	return email, email != ""
}

func secure(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
