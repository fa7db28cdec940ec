package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"familytree/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionCookieName local session cookie; the value is an opaque session id,
// the session itself lives in the KV store.
const SessionCookieName = "ft_session"

const sessionKeyPrefix = "session:"

var ErrNoSession = errors.New("no valid session")

// Session the local record of an authenticated principal. AccessToken is
// kept only so logout can revoke it at the provider.
type Session struct {
	ID          string    `json:"id"`
	Subject     string    `json:"subject"`
	Email       string    `json:"email,omitempty"`
	Name        string    `json:"name,omitempty"`
	AccessToken string    `json:"access_token,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// AuthGate guards handlers behind an authenticated session.
type AuthGate interface {
	RequireSession(next http.HandlerFunc) http.HandlerFunc
}

// SessionManager creates, resolves, and destroys KV-backed sessions.
type SessionManager struct {
	kv     store.KV
	ttl    time.Duration
	secure bool
	logger *zap.Logger
}

func NewSessionManager(kv store.KV, ttl time.Duration, secure bool, logger *zap.Logger) *SessionManager {
	return &SessionManager{kv: kv, ttl: ttl, secure: secure, logger: logger}
}

var _ AuthGate = (*SessionManager)(nil)

// Create stores a new session and sets the cookie. The session id is
// assigned here.
func (m *SessionManager) Create(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	sess.ID = uuid.NewString()
	sess.CreatedAt = time.Now().UTC()

	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := m.kv.Set(ctx, sessionKeyPrefix+sess.ID, string(raw), m.ttl); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   int(m.ttl / time.Second),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// FromRequest resolves the session referenced by the request cookie.
func (m *SessionManager) FromRequest(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrNoSession
	}
	raw, err := m.kv.Get(ctx, sessionKeyPrefix+cookie.Value)
	if err != nil {
		if errors.Is(err, store.ErrMiss) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &sess, nil
}

// Destroy removes the session and expires the cookie. Returns the session
// that was active, if any, so the caller can revoke its provider token.
func (m *SessionManager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Session, error) {
	sess, err := m.FromRequest(ctx, r)
	if err == nil {
		if delErr := m.kv.Del(ctx, sessionKeyPrefix+sess.ID); delErr != nil {
			m.logger.Warn("failed to delete session", zap.Error(delErr))
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// RequireSession rejects requests without a valid session before they reach
// the handler.
func (m *SessionManager) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := m.FromRequest(r.Context(), r)
		if err != nil {
			if !errors.Is(err, ErrNoSession) {
				m.logger.Error("session lookup failed", zap.Error(err))
			}
			writeJSON(w, http.StatusUnauthorized, Fail("authentication required"))
			return
		}
		next(w, r.WithContext(withSession(r.Context(), sess)))
	}
}

// DevAuthGate skips authentication entirely (AUTH_DISABLED=true) and injects
// a fixed subject, so the service runs without an identity provider.
type DevAuthGate struct {
	Subject string
}

var _ AuthGate = (*DevAuthGate)(nil)

func (g *DevAuthGate) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := &Session{ID: "dev", Subject: g.Subject}
		next(w, r.WithContext(withSession(r.Context(), sess)))
	}
}

type sessionContextKey struct{}

func withSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext the session injected by the auth gate, or nil.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}
