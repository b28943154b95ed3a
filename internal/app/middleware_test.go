package app

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imovia-saas/imovia/internal/shared"
)

func newTestRouter(t *testing.T, csrf *shared.CSRFManager) chi.Router {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sessions := shared.NewSessionManager(client, "imovia_session", "session-secret", time.Hour, false)

	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         slog.Default(),
		SessionManager: sessions,
		CSRFManager:    csrf,
	}) {
		r.Use(mw)
	}

	r.Post("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		require.NotNil(t, sess)
		sess.SetUser("u-1")
		token, err := csrf.EnsureToken(r.Context(), sess)
		require.NoError(t, err)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"csrfToken": token})
	})
	r.Post("/agreements", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

func TestFirstLoginPassesWithoutCSRFToken(t *testing.T) {
	csrf := shared.NewCSRFManager("csrf-secret")
	router := newTestRouter(t, csrf)

	// A fresh client has no cookie and no token yet.
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.NotEmpty(t, body["csrfToken"])
	require.NotEmpty(t, rr.Result().Cookies())
}

func TestMutationsRequireCSRFToken(t *testing.T) {
	csrf := shared.NewCSRFManager("csrf-secret")
	router := newTestRouter(t, csrf)

	loginReq := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{}`))
	loginRR := httptest.NewRecorder()
	router.ServeHTTP(loginRR, loginReq)
	require.Equal(t, http.StatusOK, loginRR.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(loginRR.Body.Bytes(), &body))
	cookies := loginRR.Result().Cookies()
	require.NotEmpty(t, cookies)

	// Without the header the mutation is rejected.
	bare := httptest.NewRequest(http.MethodPost, "/agreements", nil)
	for _, c := range cookies {
		bare.AddCookie(c)
	}
	bareRR := httptest.NewRecorder()
	router.ServeHTTP(bareRR, bare)
	assert.Equal(t, http.StatusForbidden, bareRR.Code)

	// Echoing the issued token passes.
	ok := httptest.NewRequest(http.MethodPost, "/agreements", nil)
	for _, c := range cookies {
		ok.AddCookie(c)
	}
	ok.Header.Set(shared.CSRFHeader, body["csrfToken"])
	okRR := httptest.NewRecorder()
	router.ServeHTTP(okRR, ok)
	assert.Equal(t, http.StatusNoContent, okRR.Code)
}
