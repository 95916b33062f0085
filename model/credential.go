package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuthProvider identifies which mechanism issued a proof of identity.
type AuthProvider string

const (
	ProviderAzureAD  AuthProvider = "azure_ad"
	ProviderPasskey  AuthProvider = "passkey"
	ProviderPassword AuthProvider = "password"
)

func ParseAuthProvider(s string) (AuthProvider, error) {
	switch strings.ToLower(s) {
	case "azure_ad":
		return ProviderAzureAD, nil
	case "passkey":
		return ProviderPasskey, nil
	case "password":
		return ProviderPassword, nil
	default:
		return "", fmt.Errorf("invalid auth provider: %s", s)
	}
}

func (p AuthProvider) String() string { return string(p) }

// ExternalIdentity maps a federated (provider, subject) pair to one User.
// The pair is globally unique; the cached email is informational only.
type ExternalIdentity struct {
	ID        uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID    `gorm:"type:uuid;not null;index" json:"user_id"`
	Provider  AuthProvider `gorm:"not null;uniqueIndex:idx_provider_subject" json:"provider"`
	Subject   string       `gorm:"not null;uniqueIndex:idx_provider_subject" json:"subject"`
	Email     *string      `json:"email,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

func (e *ExternalIdentity) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// PasskeyCredential is one registered WebAuthn authenticator. Counter is the
// replay-detection signature counter; it never decreases for a credential.
type PasskeyCredential struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	CredentialID string    `gorm:"uniqueIndex;not null" json:"credential_id"`
	PublicKey    []byte    `gorm:"not null" json:"-"`
	Counter      uint32    `gorm:"not null;default:0" json:"counter"`
	Transports   JSON      `json:"transports,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (p *PasskeyCredential) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Password holds only the bcrypt hash, one row per User.
type Password struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (p *Password) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
