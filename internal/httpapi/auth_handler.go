package httpapi

import (
	"errors"
	"net/http"
	"time"

	"familytree/internal/service"
	"familytree/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const stateKeyPrefix = "oauth-state:"
const stateTTL = 10 * time.Minute

// AuthHandler drives the redirect flow against the external identity
// provider. It holds no credentials itself; it only brokers redirects and
// keeps the local session.
type AuthHandler struct {
	idp      *service.IdentityClient
	sessions *SessionManager
	kv       store.KV
	logger   *zap.Logger
}

func NewAuthHandler(idp *service.IdentityClient, sessions *SessionManager, kv store.KV, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{idp: idp, sessions: sessions, kv: kv, logger: logger}
}

// Login GET /auth/login
// Already authenticated: straight to the register. Otherwise redirect to the
// provider's challenge URL with a one-time state.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if _, err := h.sessions.FromRequest(r.Context(), r); err == nil {
		http.Redirect(w, r, "/people", http.StatusSeeOther)
		return
	}

	state := uuid.NewString()
	if err := h.kv.Set(r.Context(), stateKeyPrefix+state, "1", stateTTL); err != nil {
		h.logger.Error("failed to store login state", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("login is temporarily unavailable"))
		return
	}
	http.Redirect(w, r, h.idp.AuthCodeURL(state), http.StatusFound)
}

// Callback GET /auth/callback
// Validates the state, exchanges the code, verifies the ID token, and
// establishes the local session.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if state == "" || code == "" {
		writeJSON(w, http.StatusBadRequest, Fail("missing state or code"))
		return
	}

	if _, err := h.kv.Get(r.Context(), stateKeyPrefix+state); err != nil {
		if errors.Is(err, store.ErrMiss) {
			writeJSON(w, http.StatusBadRequest, Fail("unknown or expired login state"))
			return
		}
		h.logger.Error("failed to load login state", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("login failed"))
		return
	}
	_ = h.kv.Del(r.Context(), stateKeyPrefix+state)

	identity, accessToken, err := h.idp.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("code exchange failed", zap.Error(err))
		writeJSON(w, http.StatusUnauthorized, Fail("authentication failed"))
		return
	}

	sess := &Session{
		Subject:     identity.Subject,
		Email:       identity.Email,
		Name:        identity.Name,
		AccessToken: accessToken,
	}
	if err := h.sessions.Create(r.Context(), w, sess); err != nil {
		h.logger.Error("failed to create session", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("login failed"))
		return
	}

	h.logger.Info("user logged in", zap.String("subject", identity.Subject))
	http.Redirect(w, r, "/people", http.StatusSeeOther)
}

// Logout GET /auth/logout
// Tears down the local session and revokes the provider token (best effort).
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Destroy(r.Context(), w, r)
	if err == nil && sess.AccessToken != "" {
		if revErr := h.idp.Revoke(r.Context(), sess.AccessToken); revErr != nil {
			h.logger.Warn("token revocation failed", zap.Error(revErr))
		}
	}
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}
