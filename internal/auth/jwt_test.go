package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/danieleon08/Taller3-Movil/internal/auth"
)

const secret = "test-secret"

func protectedHandler(t *testing.T, wantUID string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UIDFromContext(r.Context())
		require.True(t, ok)
		require.Equal(t, wantUID, uid)
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestMiddlewareAcceptsIssuedToken(t *testing.T) {
	token, err := auth.IssueToken(secret, "u1", time.Hour, time.Now())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	auth.Middleware(secret)(protectedHandler(t, "u1")).ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestMiddlewareRejectsBadTokens(t *testing.T) {
	expired, err := auth.IssueToken(secret, "u1", time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	wrongKey, err := auth.IssueToken("other-secret", "u1", time.Hour, time.Now())
	require.NoError(t, err)

	cases := map[string]string{
		"no header":    "",
		"not bearer":   "Basic abc",
		"garbage":      "Bearer not.a.jwt",
		"expired":      "Bearer " + expired,
		"wrong secret": "Bearer " + wrongKey,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			handler := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				t.Fatal("handler must not run")
			})
			auth.Middleware(secret)(handler).ServeHTTP(rec, req)
			require.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}
