// Package session implements the opaque-token session lifecycle. The raw
// token is returned exactly once at issue time; only its SHA-256 hash is
// stored, so a database leak does not leak usable tokens.
package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/reqstly/reqstly/domain"
	"github.com/reqstly/reqstly/model"
)

// Manager issues, validates and revokes sessions against a Storage.
type Manager struct {
	store domain.Storage
	ttl   time.Duration

	// now is swappable in tests.
	now func() time.Time
}

func NewManager(store domain.Storage, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{
		store: store,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Context is the authenticated view of a validated session.
type Context struct {
	Session *model.Session
	User    *model.User

	// Identity is set only for sessions issued through a federated login.
	Identity *model.ExternalIdentity
}

// Issue creates a session for the user and returns the raw token. The token
// is not recoverable afterwards. Sessions have a fixed lifetime; there is no
// sliding expiry.
func (m *Manager) Issue(ctx context.Context, userID uuid.UUID, provider model.AuthProvider, externalIdentityID *uuid.UUID) (string, *model.Session, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", nil, fmt.Errorf("session: failed to generate token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	sess := &model.Session{
		UserID:             userID,
		ExternalIdentityID: externalIdentityID,
		Provider:           provider,
		TokenHash:          HashToken(token),
		ExpiresAt:          m.now().Add(m.ttl),
	}
	if err := m.store.CreateSession(ctx, sess); err != nil {
		return "", nil, err
	}

	return token, sess, nil
}

// Validate resolves a raw token to its session and user. An unknown token
// returns domain.ErrSessionNotFound; an expired one returns
// domain.ErrSessionExpired and the row is reaped on the way out.
func (m *Manager) Validate(ctx context.Context, token string) (*Context, error) {
	hash := HashToken(token)

	sess, err := m.store.SessionByTokenHash(ctx, hash)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	if sess.Expired(m.now()) {
		// Best-effort reap; the session is rejected either way.
		_ = m.store.DeleteSessionByTokenHash(ctx, hash)
		return nil, domain.ErrSessionExpired
	}

	user, err := m.store.UserByID(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}

	sc := &Context{Session: sess, User: user}
	if sess.ExternalIdentityID != nil {
		ident, err := m.store.ExternalIdentityByID(ctx, *sess.ExternalIdentityID)
		if err == nil {
			sc.Identity = ident
		}
	}

	return sc, nil
}

// Revoke deletes the session for the given raw token. Revoking a token that
// no longer resolves to a session is not an error.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	err := m.store.DeleteSessionByTokenHash(ctx, HashToken(token))
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}

// RevokeAllForUser invalidates every session the user holds.
func (m *Manager) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	return m.store.DeleteSessionsForUser(ctx, userID)
}

// DeleteExpired sweeps expired rows. Validation does not depend on it;
// expired sessions are rejected either way.
func (m *Manager) DeleteExpired(ctx context.Context) (int64, error) {
	return m.store.DeleteExpiredSessions(ctx, m.now())
}

// HashToken derives the stored lookup key for a raw session token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
