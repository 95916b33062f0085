package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"
)

func TestMemoryCeremonyStoreTakeIsSingleUse(t *testing.T) {
	s := NewMemoryCeremonyStore()
	ctx := context.Background()

	id := NewCeremonyID()
	data := &Ceremony{UserID: uuid.New(), Session: webauthn.SessionData{Challenge: "challenge"}}
	if err := s.Save(ctx, id, data, time.Minute); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := s.Take(ctx, id)
	if err != nil {
		t.Fatalf("take failed: %v", err)
	}
	if got.Session.Challenge != "challenge" || got.UserID != data.UserID {
		t.Fatalf("unexpected ceremony: %+v", got)
	}

	if _, err := s.Take(ctx, id); !errors.Is(err, ErrCeremonyNotFound) {
		t.Fatalf("second take should fail, got %v", err)
	}
}

func TestMemoryCeremonyStoreExpiry(t *testing.T) {
	s := NewMemoryCeremonyStore()
	ctx := context.Background()

	id := NewCeremonyID()
	if err := s.Save(ctx, id, &Ceremony{}, -time.Second); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if _, err := s.Take(ctx, id); !errors.Is(err, ErrCeremonyNotFound) {
		t.Fatalf("expired ceremony should not be returned, got %v", err)
	}
}

func TestNewCeremonyIDIsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewCeremonyID()
		if seen[id] {
			t.Fatalf("duplicate ceremony id %q", id)
		}
		seen[id] = true
	}
}
