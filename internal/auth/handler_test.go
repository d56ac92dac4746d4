package auth_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/auth"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
	"github.com/odyssey-erp/odyssey-pos/internal/workspace"
	_ "github.com/odyssey-erp/odyssey-pos/testing"
)

type stubGateway struct {
	result auth.LoginResult
	err    error
	calls  int
}

func (s *stubGateway) Login(_ context.Context, _ auth.LoginRequest) (auth.LoginResult, error) {
	s.calls++
	return s.result, s.err
}

func signedToken(t *testing.T, subject string, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("backend-key"))
	require.NoError(t, err)
	return token
}

type fixture struct {
	router   http.Handler
	sessions *shared.SessionManager
	carts    *workspace.Registry[string]
	sess     *shared.Session
}

func newFixture(t *testing.T, gw auth.Gateway) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &fixture{
		sessions: shared.NewSessionManager(client, "test_session", "secret", time.Hour, false),
		carts:    workspace.NewRegistry[string](nil),
	}
	sess, err := f.sessions.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	f.sess = sess

	h := auth.NewHandler(logger, auth.NewService(gw, logger), f.sessions, shared.NewCSRFManager("csrfsecret"), f.carts)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(shared.ContextWithSession(req.Context(), f.sess)))
		})
	})
	r.Route("/auth", h.MountRoutes)
	r.With(auth.RequireLogin).Get("/private", func(w http.ResponseWriter, r *http.Request) {
		creds, ok := shared.CredentialsFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(creds.Username))
	})
	f.router = r
	return f
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))
	return rec
}

func TestLoginStoresCredentialsAndRenewsSession(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	gw := &stubGateway{result: auth.LoginResult{Token: signedToken(t, "maria", exp), Role: "ADMIN"}}
	f := newFixture(t, gw)

	oldID := f.sess.ID
	f.carts.Get(oldID, func() string { return "cart" })

	rec := f.do(http.MethodPost, "/auth/login", `{"username":"maria","password":"secret"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["authenticated"])
	assert.Equal(t, "maria", body["username"])
	assert.Equal(t, "ADMIN", body["role"])
	assert.NotEmpty(t, body["csrfToken"])

	assert.NotEqual(t, oldID, f.sess.ID)
	_, kept := f.carts.Lookup(oldID)
	assert.False(t, kept)

	creds, ok := f.sess.Credentials()
	require.True(t, ok)
	assert.True(t, exp.Equal(creds.ExpiresAt))
	assert.Equal(t, "maria", creds.Username)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	gw := &stubGateway{err: &shared.Error{Kind: shared.ErrUnauthorized, Status: 401, Message: "Bad credentials"}}
	f := newFixture(t, gw)

	rec := f.do(http.MethodPost, "/auth/login", `{"username":"maria","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	_, ok := f.sess.Credentials()
	assert.False(t, ok)
}

func TestLoginValidatesForm(t *testing.T) {
	gw := &stubGateway{}
	f := newFixture(t, gw)

	rec := f.do(http.MethodPost, "/auth/login", `{"username":"maria"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, gw.calls)
}

func TestLoginRejectsExpiredToken(t *testing.T) {
	gw := &stubGateway{result: auth.LoginResult{Token: signedToken(t, "maria", time.Now().Add(-time.Minute))}}
	f := newFixture(t, gw)

	rec := f.do(http.MethodPost, "/auth/login", `{"username":"maria","password":"secret"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOpaqueTokenFallsBackToFormUsername(t *testing.T) {
	gw := &stubGateway{result: auth.LoginResult{Token: "opaque-token"}}
	f := newFixture(t, gw)

	rec := f.do(http.MethodPost, "/auth/login", `{"username":" maria ","password":"secret"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	creds, ok := f.sess.Credentials()
	require.True(t, ok)
	assert.Equal(t, "maria", creds.Username)
	assert.True(t, creds.ExpiresAt.IsZero())
}

func TestRequireLoginAndLogout(t *testing.T) {
	gw := &stubGateway{result: auth.LoginResult{Token: "opaque-token", Username: "maria"}}
	f := newFixture(t, gw)

	rec := f.do(http.MethodGet, "/private", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/auth/login", `{"username":"maria","password":"secret"}`).Code)
	rec = f.do(http.MethodGet, "/private", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "maria", rec.Body.String())

	f.carts.Get(f.sess.ID, func() string { return "cart" })
	rec = f.do(http.MethodPost, "/auth/logout", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, f.sess.Destroyed())
	assert.Equal(t, 0, f.carts.Len())

	rec = f.do(http.MethodGet, "/private", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionEndpointReportsAnonymous(t *testing.T) {
	f := newFixture(t, &stubGateway{})

	rec := f.do(http.MethodGet, "/auth/session", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["authenticated"])
	assert.NotEmpty(t, body["csrfToken"])
}
