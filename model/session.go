package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session binds an opaque token to a User and the provider that issued it.
// Only the SHA-256 hash of the token is stored; the raw token exists solely
// in the response that created it. Sessions issued from a federated login
// carry the ExternalIdentity used at issuance; password sessions carry none.
// A session is immutable except for deletion or expiry.
type Session struct {
	ID                 uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID             uuid.UUID    `gorm:"type:uuid;not null;index" json:"user_id"`
	ExternalIdentityID *uuid.UUID   `gorm:"type:uuid" json:"external_identity_id,omitempty"`
	Provider           AuthProvider `gorm:"not null" json:"provider"`
	TokenHash          string       `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt          time.Time    `gorm:"not null;index" json:"expires_at"`
	CreatedAt          time.Time    `json:"created_at"`
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
