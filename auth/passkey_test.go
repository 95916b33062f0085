package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/reqstly/reqstly/domain"
	"github.com/reqstly/reqstly/model"
)

func newPasskeyStrategy(t *testing.T, repo domain.Storage) *PasskeyStrategy {
	t.Helper()
	s, err := NewPasskeyStrategy(repo, PasskeyConfig{
		RPID:          "localhost",
		RPDisplayName: "Reqstly Test",
		RPOrigins:     []string{"http://localhost:8080"},
	}, NewMemoryCeremonyStore())
	if err != nil {
		t.Fatalf("failed to create passkey strategy: %v", err)
	}
	return s
}

func TestPasskeyBeginRegistrationStoresCeremony(t *testing.T) {
	repo := newTestStore(t)
	s := newPasskeyStrategy(t, repo)
	ctx := context.Background()

	user := &model.User{Email: "wa@example.com", Name: "WebAuthn User"}
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	options, ceremonyID, err := s.BeginRegistration(ctx, user.ID)
	if err != nil {
		t.Fatalf("begin registration failed: %v", err)
	}
	if options == nil || options.Response.Challenge.String() == "" {
		t.Fatal("expected creation options with a challenge")
	}
	if ceremonyID == "" {
		t.Fatal("expected a ceremony id")
	}

	// The ceremony must be bound to the registering user.
	ceremony, err := s.ceremonies.Take(ctx, ceremonyID)
	if err != nil {
		t.Fatalf("ceremony should be stored: %v", err)
	}
	if ceremony.UserID != user.ID {
		t.Fatalf("ceremony bound to wrong user: %s", ceremony.UserID)
	}
}

func TestPasskeyBeginLoginUnknownEmail(t *testing.T) {
	repo := newTestStore(t)
	s := newPasskeyStrategy(t, repo)

	_, _, err := s.BeginLogin(context.Background(), "ghost@example.com")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestPasskeyBeginLoginNoCredentials(t *testing.T) {
	repo := newTestStore(t)
	s := newPasskeyStrategy(t, repo)
	ctx := context.Background()

	user := &model.User{Email: "nocreds@example.com", Name: "No Creds"}
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	// Same error as an unknown email, so login probes cannot tell whether
	// an account exists.
	_, _, err := s.BeginLogin(ctx, "nocreds@example.com")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestPasskeyLoginAfterPasswordSignup(t *testing.T) {
	repo := newTestStore(t)
	s := newPasskeyStrategy(t, repo)
	ctx := context.Background()

	passwords, err := NewPasswordStrategy(repo, &countingHasher{inner: &BcryptHasher{Cost: 4}})
	if err != nil {
		t.Fatalf("failed to create password strategy: %v", err)
	}
	user, err := passwords.Register(ctx, "mixed@example.com", "Mixed Mode", "hunter2hunter2")
	if err != nil {
		t.Fatalf("password signup failed: %v", err)
	}

	// An account created with a password can start passkey enrollment, and
	// once a credential is on file the login ceremony offers it.
	if _, _, err := s.BeginRegistration(ctx, user.ID); err != nil {
		t.Fatalf("begin registration failed: %v", err)
	}
	cred := &model.PasskeyCredential{
		UserID:       user.ID,
		CredentialID: "dGVzdC1jcmVkZW50aWFs",
		PublicKey:    []byte{0x01, 0x02, 0x03},
		Counter:      0,
	}
	if err := repo.CreatePasskeyCredential(ctx, cred); err != nil {
		t.Fatalf("failed to seed credential: %v", err)
	}

	options, ceremonyID, err := s.BeginLogin(ctx, "mixed@example.com")
	if err != nil {
		t.Fatalf("begin login failed: %v", err)
	}
	if ceremonyID == "" {
		t.Fatal("expected a ceremony id")
	}
	if len(options.Response.AllowedCredentials) != 1 {
		t.Fatalf("expected one allowed credential, got %d", len(options.Response.AllowedCredentials))
	}
}

func TestPasskeyFinishLoginUnknownCeremony(t *testing.T) {
	repo := newTestStore(t)
	s := newPasskeyStrategy(t, repo)

	_, _, err := s.FinishLogin(context.Background(), "bogus-ceremony", nil)
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestPasskeyAssertionCounterPolicy(t *testing.T) {
	repo := newTestStore(t)
	s := newPasskeyStrategy(t, repo)
	ctx := context.Background()

	user := &model.User{Email: "counter@example.com", Name: "Counter User"}
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	rawID := []byte("counter-credential")
	credentialID := base64.RawURLEncoding.EncodeToString(rawID)
	if err := repo.CreatePasskeyCredential(ctx, &model.PasskeyCredential{
		UserID:       user.ID,
		CredentialID: credentialID,
		PublicKey:    []byte{0x04, 0x05},
		Counter:      5,
	}); err != nil {
		t.Fatalf("failed to seed credential: %v", err)
	}

	// A replayed assertion carries a counter the server has already seen.
	// That is denied with its own error class, not the generic one.
	replay := &webauthn.Credential{
		ID:            rawID,
		Authenticator: webauthn.Authenticator{SignCount: 5},
	}
	_, _, err := s.verifyAssertion(ctx, replay)
	if !errors.Is(err, domain.ErrPossibleClone) {
		t.Fatalf("expected ErrPossibleClone for a stale counter, got %v", err)
	}
	if errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatal("clone detection must be distinguishable from bad credentials")
	}

	// An advancing counter passes and is persisted.
	fresh := &webauthn.Credential{
		ID:            rawID,
		Authenticator: webauthn.Authenticator{SignCount: 6},
	}
	userID, gotCredentialID, err := s.verifyAssertion(ctx, fresh)
	if err != nil {
		t.Fatalf("advancing assertion failed: %v", err)
	}
	if userID != user.ID || gotCredentialID != credentialID {
		t.Fatalf("unexpected assertion result: %s %s", userID, gotCredentialID)
	}
	stored, err := repo.PasskeyCredentialByCredentialID(ctx, credentialID)
	if err != nil {
		t.Fatalf("credential lookup failed: %v", err)
	}
	if stored.Counter != 6 {
		t.Fatalf("expected stored counter 6, got %d", stored.Counter)
	}

	// A clone warning denies the login even when the counter advances.
	warned := &webauthn.Credential{
		ID: rawID,
		Authenticator: webauthn.Authenticator{
			SignCount:    7,
			CloneWarning: true,
		},
	}
	if _, _, err := s.verifyAssertion(ctx, warned); !errors.Is(err, domain.ErrPossibleClone) {
		t.Fatalf("expected ErrPossibleClone for a clone warning, got %v", err)
	}
	if stored, err = repo.PasskeyCredentialByCredentialID(ctx, credentialID); err != nil || stored.Counter != 6 {
		t.Fatalf("denied assertion must not move the counter: %d %v", stored.Counter, err)
	}
}

func TestPasskeyCounterlessAuthenticatorAllowed(t *testing.T) {
	repo := newTestStore(t)
	s := newPasskeyStrategy(t, repo)
	ctx := context.Background()

	user := &model.User{Email: "nocounter@example.com", Name: "No Counter"}
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	rawID := []byte("counterless-credential")
	if err := repo.CreatePasskeyCredential(ctx, &model.PasskeyCredential{
		UserID:       user.ID,
		CredentialID: base64.RawURLEncoding.EncodeToString(rawID),
		PublicKey:    []byte{0x06},
		Counter:      0,
	}); err != nil {
		t.Fatalf("failed to seed credential: %v", err)
	}

	// Authenticators that never implement a counter report zero forever.
	assertion := &webauthn.Credential{
		ID:            rawID,
		Authenticator: webauthn.Authenticator{SignCount: 0},
	}
	for i := 0; i < 2; i++ {
		if _, _, err := s.verifyAssertion(ctx, assertion); err != nil {
			t.Fatalf("counterless assertion %d failed: %v", i, err)
		}
	}
}

func TestPasskeyFinishRegistrationWrongUser(t *testing.T) {
	repo := newTestStore(t)
	s := newPasskeyStrategy(t, repo)
	ctx := context.Background()

	owner := &model.User{Email: "owner@example.com", Name: "Owner"}
	intruder := &model.User{Email: "intruder@example.com", Name: "Intruder"}
	for _, u := range []*model.User{owner, intruder} {
		if err := repo.CreateUser(ctx, u); err != nil {
			t.Fatalf("failed to seed user: %v", err)
		}
	}

	_, ceremonyID, err := s.BeginRegistration(ctx, owner.ID)
	if err != nil {
		t.Fatalf("begin registration failed: %v", err)
	}

	_, err = s.FinishRegistration(ctx, intruder.ID, ceremonyID, nil)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for ceremony hijack, got %v", err)
	}
}
