// components/auth/auth.go
//
// Impact authentication component – session cookie login and logout.
//
// Context
//   The dashboard only needs to know *who* is editing so drafts stay per
//   user.  Login stores the email in the session cookie; there is no
//   credential store.  GET /me reports the current user.
//
//------------------------------------------------------------------------------

package auth

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	iauth "github.com/yanizio/impact/internal/auth"
	"github.com/yanizio/impact/internal/component"
	"github.com/yanizio/impact/internal/form"
	"github.com/yanizio/impact/internal/session"
)

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

var validate = validator.New()

// Component encapsulates login functionality.
type Component struct{}

type loginBody struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

type meBody struct {
	Email     string `json:"email,omitempty"`
	Anonymous bool   `json:"anonymous"`
}

/*────────────────── component.Component methods ───────────────────────────*/

// Name returns the canonical component key.
func (c *Component) Name() string { return "auth" }

// Routes adds the login endpoints to r.
func (c *Component) Routes(r chi.Router) {
	r.Post("/login", c.handleLogin)
	r.Post("/logout", c.handleLogout)
	r.Get("/me", c.handleMe)
}

// Register component at program start.
func init() { component.Register(&Component{}) }

/*──────────────────────────── Handlers ─────────────────────────────────────*/

func (c *Component) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10)).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid login body"})
		return
	}
	in.Email = session.Normalize(in.Email)

	if err := validate.Struct(in); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"errors": []form.ErrorField{{Name: "email", Message: "Enter a valid email address."}},
		})
		return
	}

	session.LoginUser(w, r, in.Email)
	zap.S().Infow("user logged in", "email", in.Email)
	writeJSON(w, http.StatusOK, meBody{Email: in.Email})
}

func (c *Component) handleLogout(w http.ResponseWriter, r *http.Request) {
	session.LogoutUser(w, r)
	w.WriteHeader(http.StatusNoContent)
}

func (c *Component) handleMe(w http.ResponseWriter, r *http.Request) {
	email, ok := iauth.User(r.Context())
	writeJSON(w, http.StatusOK, meBody{Email: email, Anonymous: !ok})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
