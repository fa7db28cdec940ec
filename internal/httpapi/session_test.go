package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"familytree/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSessionManager(t *testing.T) *SessionManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewSessionManager(store.NewRedisKV(client), time.Hour, false, zap.NewNop())
}

func TestSessionLifecycle(t *testing.T) {
	m := newSessionManager(t)
	ctx := context.Background()

	rec := httptest.NewRecorder()
	sess := &Session{Subject: "user-1", Email: "user@example.com"}
	require.NoError(t, m.Create(ctx, rec, sess))
	require.NotEmpty(t, sess.ID)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/people", nil)
	req.AddCookie(cookies[0])

	loaded, err := m.FromRequest(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "user-1", loaded.Subject)
	assert.Equal(t, "user@example.com", loaded.Email)

	rec2 := httptest.NewRecorder()
	destroyed, err := m.Destroy(ctx, rec2, req)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, destroyed.ID)

	_, err = m.FromRequest(ctx, req)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestFromRequest_NoCookie(t *testing.T) {
	m := newSessionManager(t)

	req := httptest.NewRequest(http.MethodGet, "/people", nil)
	_, err := m.FromRequest(context.Background(), req)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestRequireSession_RejectsUnauthenticated(t *testing.T) {
	m := newSessionManager(t)

	called := false
	handler := m.RequireSession(func(w http.ResponseWriter, r *http.Request) { called = true })

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/people", nil))

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireSession_InjectsSession(t *testing.T) {
	m := newSessionManager(t)
	ctx := context.Background()

	rec := httptest.NewRecorder()
	require.NoError(t, m.Create(ctx, rec, &Session{Subject: "user-1"}))

	req := httptest.NewRequest(http.MethodGet, "/people", nil)
	req.AddCookie(rec.Result().Cookies()[0])

	var subject string
	handler := m.RequireSession(func(w http.ResponseWriter, r *http.Request) {
		subject = SessionFromContext(r.Context()).Subject
	})

	rec2 := httptest.NewRecorder()
	handler(rec2, req)

	assert.Equal(t, http.StatusOK, rec2.Code)
	assert.Equal(t, "user-1", subject)
}
