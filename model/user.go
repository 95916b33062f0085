package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the canonical identity every credential resolves to. Email is the
// linking key across authentication mechanisms, so it carries a uniqueness
// constraint that also serializes concurrent first-time registrations.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Name      string    `gorm:"not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ExternalIdentities []ExternalIdentity  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	PasskeyCredentials []PasskeyCredential `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Password           *Password           `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Sessions           []Session           `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
