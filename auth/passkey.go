package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"
	"github.com/reqstly/reqstly/domain"
	"github.com/reqstly/reqstly/logger"
	"github.com/reqstly/reqstly/model"
	"go.uber.org/zap"
)

const (
	registrationCeremonyTTL = 10 * time.Minute
	loginCeremonyTTL        = 5 * time.Minute
)

// PasskeyConfig holds the WebAuthn relying party settings.
type PasskeyConfig struct {
	RPID          string
	RPDisplayName string
	RPOrigins     []string
}

// PasskeyStrategy implements WebAuthn registration and login ceremonies on
// top of go-webauthn, with pending ceremony state held in a CeremonyStore.
type PasskeyStrategy struct {
	store      domain.Storage
	webAuthn   *webauthn.WebAuthn
	ceremonies CeremonyStore
}

func NewPasskeyStrategy(store domain.Storage, cfg PasskeyConfig, ceremonies CeremonyStore) (*PasskeyStrategy, error) {
	wa, err := webauthn.New(&webauthn.Config{
		RPDisplayName: cfg.RPDisplayName,
		RPID:          cfg.RPID,
		RPOrigins:     cfg.RPOrigins,
	})
	if err != nil {
		return nil, fmt.Errorf("passkey: failed to create webauthn instance: %w", err)
	}
	return &PasskeyStrategy{
		store:      store,
		webAuthn:   wa,
		ceremonies: ceremonies,
	}, nil
}

// webauthnUser adapts a User and its stored credentials to webauthn.User.
type webauthnUser struct {
	user  *model.User
	creds []webauthn.Credential
}

func (u *webauthnUser) WebAuthnID() []byte                         { return u.user.ID[:] }
func (u *webauthnUser) WebAuthnName() string                       { return u.user.Email }
func (u *webauthnUser) WebAuthnDisplayName() string                { return u.user.Name }
func (u *webauthnUser) WebAuthnCredentials() []webauthn.Credential { return u.creds }

// WebAuthnIcon satisfies the deprecated icon accessor still required by the
// webauthn.User interface in go-webauthn v0.10.x.
func (u *webauthnUser) WebAuthnIcon() string { return "" }

// BeginRegistration starts a passkey registration ceremony for an
// authenticated user. Returns the creation options for the client and the
// ceremony id that must accompany the attestation response.
func (s *PasskeyStrategy) BeginRegistration(ctx context.Context, userID uuid.UUID) (*protocol.CredentialCreation, string, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	options, session, err := s.webAuthn.BeginRegistration(user)
	if err != nil {
		return nil, "", fmt.Errorf("passkey: begin registration failed: %w", err)
	}

	ceremonyID := NewCeremonyID()
	if err := s.ceremonies.Save(ctx, ceremonyID, &Ceremony{UserID: userID, Session: *session}, registrationCeremonyTTL); err != nil {
		return nil, "", fmt.Errorf("passkey: failed to save ceremony: %w", err)
	}

	return options, ceremonyID, nil
}

// FinishRegistration validates the attestation response and stores the new
// credential. The ceremony id is consumed whether or not validation succeeds.
func (s *PasskeyStrategy) FinishRegistration(ctx context.Context, userID uuid.UUID, ceremonyID string, response *protocol.ParsedCredentialCreationData) (*model.PasskeyCredential, error) {
	ceremony, err := s.ceremonies.Take(ctx, ceremonyID)
	if err != nil {
		return nil, ErrCeremonyNotFound
	}
	if ceremony.UserID != userID {
		return nil, domain.ErrUnauthorized
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	credential, err := s.webAuthn.CreateCredential(user, ceremony.Session, response)
	if err != nil {
		return nil, fmt.Errorf("passkey: credential creation failed: %w", err)
	}

	transports, err := json.Marshal(credential.Transport)
	if err != nil {
		return nil, fmt.Errorf("passkey: failed to marshal transports: %w", err)
	}

	cred := &model.PasskeyCredential{
		UserID:       userID,
		CredentialID: base64.RawURLEncoding.EncodeToString(credential.ID),
		PublicKey:    credential.PublicKey,
		Counter:      credential.Authenticator.SignCount,
		Transports:   model.JSON(transports),
	}
	if err := s.store.CreatePasskeyCredential(ctx, cred); err != nil {
		return nil, err
	}

	return cred, nil
}

// BeginLogin starts a passkey login ceremony for the given email. An unknown
// email or a user without passkeys returns domain.ErrInvalidCredentials, the
// same error a failed assertion produces.
func (s *PasskeyStrategy) BeginLogin(ctx context.Context, email string) (*protocol.CredentialAssertion, string, error) {
	owner, err := s.store.UserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, "", domain.ErrInvalidCredentials
	}

	user, err := s.loadUser(ctx, owner.ID)
	if err != nil {
		return nil, "", err
	}
	if len(user.creds) == 0 {
		return nil, "", domain.ErrInvalidCredentials
	}

	options, session, err := s.webAuthn.BeginLogin(user)
	if err != nil {
		return nil, "", fmt.Errorf("passkey: begin login failed: %w", err)
	}

	ceremonyID := NewCeremonyID()
	if err := s.ceremonies.Save(ctx, ceremonyID, &Ceremony{UserID: owner.ID, Session: *session}, loginCeremonyTTL); err != nil {
		return nil, "", fmt.Errorf("passkey: failed to save ceremony: %w", err)
	}

	return options, ceremonyID, nil
}

// FinishLogin validates the assertion and enforces signature counter
// monotonicity. A clone warning from the library, a non-advancing counter,
// or losing the conditional counter update to a concurrent assertion all
// deny the login with domain.ErrPossibleClone.
func (s *PasskeyStrategy) FinishLogin(ctx context.Context, ceremonyID string, response *protocol.ParsedCredentialAssertionData) (uuid.UUID, string, error) {
	ceremony, err := s.ceremonies.Take(ctx, ceremonyID)
	if err != nil {
		return uuid.Nil, "", domain.ErrInvalidCredentials
	}

	user, err := s.loadUser(ctx, ceremony.UserID)
	if err != nil {
		return uuid.Nil, "", domain.ErrInvalidCredentials
	}

	credential, err := s.webAuthn.ValidateLogin(user, ceremony.Session, response)
	if err != nil {
		return uuid.Nil, "", domain.ErrInvalidCredentials
	}

	return s.verifyAssertion(ctx, credential)
}

// verifyAssertion applies the clone-detection policy to an assertion that
// already passed signature validation. A clone warning from the library or
// a signature counter that fails to advance denies the login with
// domain.ErrPossibleClone; the credential itself is kept.
func (s *PasskeyStrategy) verifyAssertion(ctx context.Context, credential *webauthn.Credential) (uuid.UUID, string, error) {
	credentialID := base64.RawURLEncoding.EncodeToString(credential.ID)
	if credential.Authenticator.CloneWarning {
		logger.Log.Error("possible cloned authenticator detected",
			zap.String("credential_id", credentialID))
		return uuid.Nil, "", domain.ErrPossibleClone
	}

	stored, err := s.store.PasskeyCredentialByCredentialID(ctx, credentialID)
	if err != nil {
		return uuid.Nil, "", domain.ErrInvalidCredentials
	}

	// Authenticators without a counter report 0 forever; that is allowed.
	// Anything else must strictly advance, and the conditional update makes
	// sure two racing assertions cannot both claim the same counter value.
	newCount := credential.Authenticator.SignCount
	if newCount != 0 || stored.Counter != 0 {
		advanced, err := s.store.AdvancePasskeyCounter(ctx, credentialID, newCount)
		if err != nil {
			return uuid.Nil, "", err
		}
		if !advanced {
			logger.Log.Error("passkey signature counter did not advance",
				zap.String("credential_id", credentialID),
				zap.String("user_id", stored.UserID.String()),
				zap.Uint32("stored_counter", stored.Counter),
				zap.Uint32("asserted_counter", newCount))
			return uuid.Nil, "", domain.ErrPossibleClone
		}
	}

	return stored.UserID, credentialID, nil
}

// loadUser builds the webauthn.User view of a user and its credentials.
func (s *PasskeyStrategy) loadUser(ctx context.Context, userID uuid.UUID) (*webauthnUser, error) {
	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	stored, err := s.store.PasskeyCredentialsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	creds := make([]webauthn.Credential, 0, len(stored))
	for _, c := range stored {
		id, err := base64.RawURLEncoding.DecodeString(c.CredentialID)
		if err != nil {
			continue
		}
		var transports []protocol.AuthenticatorTransport
		if len(c.Transports) > 0 {
			// Transports are a hint; a malformed list just means no hint.
			_ = json.Unmarshal(c.Transports, &transports)
		}
		creds = append(creds, webauthn.Credential{
			ID:        id,
			PublicKey: c.PublicKey,
			Transport: transports,
			Authenticator: webauthn.Authenticator{
				SignCount: c.Counter,
			},
		})
	}

	return &webauthnUser{user: user, creds: creds}, nil
}
