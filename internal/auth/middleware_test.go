package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/listings/internal/policy"
)

// echoActor writes the actor id, or "anonymous", so tests can see what the
// middleware stored.
var echoActor = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	actor := ActorFromContext(r.Context())
	if actor == nil {
		_, _ = w.Write([]byte("anonymous"))
		return
	}
	_, _ = w.Write([]byte(actor.ID))
})

func TestRequireAuth(t *testing.T) {
	ts := newTestTokenService(t)
	valid, err := ts.Generate("user-1", false)
	require.NoError(t, err)
	expired, err := ts.GenerateWithDuration("user-1", false, -time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		cookie     string
		wantStatus int
		wantBody   string
	}{
		{"bearer header", "Bearer " + valid, "", http.StatusOK, "user-1"},
		{"lowercase scheme", "bearer " + valid, "", http.StatusOK, "user-1"},
		{"cookie", "", valid, http.StatusOK, "user-1"},
		{"no credentials", "", "", http.StatusUnauthorized, ""},
		{"expired token", "Bearer " + expired, "", http.StatusUnauthorized, ""},
		{"garbage token", "Bearer nope", "", http.StatusUnauthorized, ""},
		{"invalid header beats valid cookie", "Bearer nope", valid, http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: CookieName, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()

			RequireAuth(ts)(echoActor).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			} else {
				assert.Contains(t, rec.Body.String(), `"error":"unauthorized"`)
				assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	ts := newTestTokenService(t)
	valid, err := ts.Generate("user-1", true)
	require.NoError(t, err)

	t.Run("anonymous passes through", func(t *testing.T) {
		rec := httptest.NewRecorder()
		OptionalAuth(ts)(echoActor).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "anonymous", rec.Body.String())
	})

	t.Run("invalid token treated as anonymous", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer broken")
		rec := httptest.NewRecorder()
		OptionalAuth(ts)(echoActor).ServeHTTP(rec, req)
		assert.Equal(t, "anonymous", rec.Body.String())
	})

	t.Run("valid token stores actor", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+valid)
		rec := httptest.NewRecorder()
		OptionalAuth(ts)(echoActor).ServeHTTP(rec, req)
		assert.Equal(t, "user-1", rec.Body.String())
	})
}

func TestActorFromContext(t *testing.T) {
	assert.Nil(t, ActorFromContext(context.Background()))

	actor := &policy.Actor{ID: "u", IsAdmin: true}
	got := ActorFromContext(WithActor(context.Background(), actor))
	assert.Same(t, actor, got)
}
