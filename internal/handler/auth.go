package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/listings/internal/auth"
	"github.com/sakif/listings/internal/model"
	"github.com/sakif/listings/internal/service"
)

// AuthHandler manages email/password login and session management.
//
// HANDLER RESPONSIBILITIES:
//   - HandleLogin  → verify credentials, issue a JWT (body and cookie)
//   - HandleLogout → clear the JWT cookie
//   - HandleMe     → return the currently logged-in user's profile
type AuthHandler struct {
	auth   *service.AuthService
	ttl    time.Duration
	secure bool
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler. ttl is the token lifetime and sets
// the cookie's MaxAge; secure marks the cookie HTTPS-only.
func NewAuthHandler(authService *service.AuthService, ttl time.Duration, secure bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   authService,
		ttl:    ttl,
		secure: secure,
		logger: logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	ExpiresIn   int            `json:"expires_in"`
	User        model.UserView `json:"user"`
}

// HandleLogin exchanges credentials for a token.
//
// HTTP: POST /api/v1/auth/login
// REQUEST BODY: {"email":"a@b.io","password":"..."}
//
// The token is returned in the body for API clients and set as an HttpOnly
// cookie for browsers. Either one authenticates later requests.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	// HttpOnly = JavaScript cannot read this cookie (XSS protection).
	// SameSite=Lax = sent on top-level navigations but not cross-site POSTs.
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    res.Token,
		Path:     "/",
		MaxAge:   int(h.ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: res.Token,
		TokenType:   "Bearer",
		ExpiresIn:   int(h.ttl.Seconds()),
		User:        res.User.PublicView(),
	})
}

// HandleLogout clears the JWT cookie.
//
// HTTP: POST /api/v1/auth/logout
//
// Tokens are stateless, so a copied token stays valid until it expires;
// logout only removes the browser's copy.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	h.logger.Info("session cookie cleared")
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the authenticated user's profile.
//
// HTTP: GET /api/v1/auth/me (behind RequireAuth)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	u, err := h.auth.CurrentUser(r.Context(), auth.ActorFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u.PublicView())
}
