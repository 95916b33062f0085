package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuditAction string

const (
	ActionCreated       AuditAction = "created"
	ActionUpdated       AuditAction = "updated"
	ActionDeleted       AuditAction = "deleted"
	ActionStatusChanged AuditAction = "status_changed"
)

func ParseAuditAction(s string) (AuditAction, error) {
	switch strings.ToLower(s) {
	case "created":
		return ActionCreated, nil
	case "updated":
		return ActionUpdated, nil
	case "deleted":
		return ActionDeleted, nil
	case "status_changed":
		return ActionStatusChanged, nil
	default:
		return "", fmt.Errorf("invalid audit action: %s", s)
	}
}

func (a AuditAction) String() string { return string(a) }

// AuditLog is an append-only record of a Request mutation. UserID is nil for
// system actions. OldValue/NewValue are populated asymmetrically for
// created (no old) and deleted (no new) actions. Rows are never updated;
// deleting a Request removes its trail except for the deleted row itself,
// which is written after the delete and outlives the request. RequestID is
// deliberately not a foreign key for that reason.
type AuditLog struct {
	ID        uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	RequestID uuid.UUID   `gorm:"type:uuid;not null;index" json:"request_id"`
	UserID    *uuid.UUID  `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Action    AuditAction `gorm:"not null" json:"action"`
	OldValue  JSON        `json:"old_value,omitempty"`
	NewValue  JSON        `json:"new_value,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
