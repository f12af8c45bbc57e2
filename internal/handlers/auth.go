package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tmrp/users-api/internal/middleware"
)

// AuthHandler lets browser clients trade a bearer token for the session
// cookie, inspect it and drop it again. Mounted only when a JWT secret is set.
type AuthHandler struct {
	secret string
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(secret string) *AuthHandler {
	return &AuthHandler{secret: secret}
}

// Routes registers auth routes on the given chi router.
func (h *AuthHandler) Routes(r chi.Router) {
	r.Post("/logout", h.Logout)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.secret))
		r.Post("/session", h.Session)
		r.Get("/me", h.Me)
	})
}

// Session stores the token RequireAuth verified in an HttpOnly cookie.
// When both a cookie and a bearer header are sent, the cookie wins.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	token := middleware.TokenFromContext(r.Context())
	if token == "" {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(middleware.TokenExpiry.Seconds()),
	})
	writeJSON(w, r, http.StatusOK, map[string]string{
		"subject": middleware.SubjectFromContext(r.Context()),
	})
}

// Logout clears the auth cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "logged out"})
}

// Me returns the subject of the presented token.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{
		"subject": middleware.SubjectFromContext(r.Context()),
	})
}
