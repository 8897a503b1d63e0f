package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/sakif/listings/internal/policy"
)

// contextKey is unexported so no other package can read or shadow the
// values this package stores in a context.
type contextKey string

const actorKey contextKey = "actor"

// CookieName is the cookie the login handler sets and the middleware reads
// when no Authorization header is present.
const CookieName = "token"

// RequireAuth rejects requests without a valid token with 401 and stores
// the actor in the context otherwise.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := extractActor(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}` + "\n"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// OptionalAuth stores the actor when a valid token is present and lets
// anonymous requests through untouched. POST /users uses it so the very
// first account can be created without credentials.
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if actor, err := extractActor(r, tokens); err == nil {
				r = r.WithContext(WithActor(r.Context(), actor))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithActor returns a copy of ctx carrying actor.
func WithActor(ctx context.Context, actor *policy.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext returns the authenticated actor, or nil for an anonymous
// request. A nil actor is what the policy treats as unauthenticated.
func ActorFromContext(ctx context.Context) *policy.Actor {
	actor, _ := ctx.Value(actorKey).(*policy.Actor)
	return actor
}

// extractActor reads "Authorization: Bearer <jwt>" first and falls back to
// the token cookie.
func extractActor(r *http.Request, tokens *TokenService) (*policy.Actor, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return tokens.Validate(strings.TrimSpace(token))
		}
	}

	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, err
	}
	return tokens.Validate(cookie.Value)
}
