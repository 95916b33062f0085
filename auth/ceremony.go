package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrCeremonyNotFound is returned when a ceremony id is unknown or expired.
var ErrCeremonyNotFound = errors.New("ceremony not found or expired")

// Ceremony is the server-side state of a pending WebAuthn registration or
// login, keyed by an opaque ceremony id handed to the client.
type Ceremony struct {
	UserID  uuid.UUID            `json:"user_id"`
	Session webauthn.SessionData `json:"session"`
}

// CeremonyStore stores pending WebAuthn ceremonies. Take is a destructive
// read: each ceremony id is usable exactly once.
type CeremonyStore interface {
	Save(ctx context.Context, id string, data *Ceremony, ttl time.Duration) error
	Take(ctx context.Context, id string) (*Ceremony, error)
}

// NewCeremonyID returns a random opaque ceremony identifier.
func NewCeremonyID() string {
	b := make([]byte, 32)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// ---- Memory Ceremony Store (for development/testing) ----

type memoryCeremony struct {
	data      *Ceremony
	expiresAt time.Time
}

// MemoryCeremonyStore is an in-memory CeremonyStore. Use Redis in production.
type MemoryCeremonyStore struct {
	mu         sync.Mutex
	ceremonies map[string]memoryCeremony
}

func NewMemoryCeremonyStore() *MemoryCeremonyStore {
	return &MemoryCeremonyStore{
		ceremonies: make(map[string]memoryCeremony),
	}
}

func (s *MemoryCeremonyStore) Save(ctx context.Context, id string, data *Ceremony, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ceremonies[id] = memoryCeremony{data: data, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *MemoryCeremonyStore) Take(ctx context.Context, id string) (*Ceremony, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.ceremonies[id]
	if !ok {
		return nil, ErrCeremonyNotFound
	}
	delete(s.ceremonies, id)
	if time.Now().After(c.expiresAt) {
		return nil, ErrCeremonyNotFound
	}
	return c.data, nil
}

// ---- Redis Ceremony Store ----

// RedisCeremonyStore stores ceremonies in Redis with a TTL, for deployments
// with more than one backend instance.
type RedisCeremonyStore struct {
	client *redis.Client
	prefix string
}

func NewRedisCeremonyStore(client *redis.Client, prefix string) *RedisCeremonyStore {
	if prefix == "" {
		prefix = "reqstly:ceremony:"
	}
	return &RedisCeremonyStore{client: client, prefix: prefix}
}

func (s *RedisCeremonyStore) key(id string) string {
	return s.prefix + id
}

func (s *RedisCeremonyStore) Save(ctx context.Context, id string, data *Ceremony, ttl time.Duration) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("ceremony: marshal failed: %w", err)
	}
	if err := s.client.Set(ctx, s.key(id), payload, ttl).Err(); err != nil {
		return fmt.Errorf("ceremony: save failed: %w", err)
	}
	return nil
}

func (s *RedisCeremonyStore) Take(ctx context.Context, id string) (*Ceremony, error) {
	payload, err := s.client.GetDel(ctx, s.key(id)).Result()
	if err == redis.Nil {
		return nil, ErrCeremonyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ceremony: take failed: %w", err)
	}
	var data Ceremony
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return nil, fmt.Errorf("ceremony: unmarshal failed: %w", err)
	}
	return &data, nil
}
