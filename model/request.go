package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestStatus enumerates the ticket states. Any state is reachable from
// any other in a single transition; the enum constrains values, not edges.
type RequestStatus string

const (
	StatusOpen       RequestStatus = "open"
	StatusInProgress RequestStatus = "in_progress"
	StatusResolved   RequestStatus = "resolved"
)

func ParseRequestStatus(s string) (RequestStatus, error) {
	switch strings.ToLower(s) {
	case "open":
		return StatusOpen, nil
	case "in_progress":
		return StatusInProgress, nil
	case "resolved":
		return StatusResolved, nil
	default:
		return "", fmt.Errorf("invalid request status: %s", s)
	}
}

func (s RequestStatus) String() string { return string(s) }

type RequestCategory string

const (
	CategoryIT    RequestCategory = "IT"
	CategoryOps   RequestCategory = "Ops"
	CategoryAdmin RequestCategory = "Admin"
	CategoryHR    RequestCategory = "HR"
)

func ParseRequestCategory(s string) (RequestCategory, error) {
	switch strings.ToUpper(s) {
	case "IT":
		return CategoryIT, nil
	case "OPS":
		return CategoryOps, nil
	case "ADMIN":
		return CategoryAdmin, nil
	case "HR":
		return CategoryHR, nil
	default:
		return "", fmt.Errorf("invalid request category: %s", s)
	}
}

func (c RequestCategory) String() string { return string(c) }

type RequestPriority string

const (
	PriorityLow    RequestPriority = "low"
	PriorityMedium RequestPriority = "medium"
	PriorityHigh   RequestPriority = "high"
)

func ParseRequestPriority(s string) (RequestPriority, error) {
	switch strings.ToLower(s) {
	case "low":
		return PriorityLow, nil
	case "medium":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	default:
		return "", fmt.Errorf("invalid request priority: %s", s)
	}
}

func (p RequestPriority) String() string { return string(p) }

// Request is a ticket owned by a User. Status changes are the only mutation
// tracked by the audit subsystem; they must be written atomically with their
// AuditLog row.
type Request struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	Title       string          `gorm:"size:255;not null" json:"title"`
	Description string          `gorm:"size:5000" json:"description,omitempty"`
	Category    RequestCategory `gorm:"not null;check:category IN ('IT','Ops','Admin','HR')" json:"category"`
	Status      RequestStatus   `gorm:"not null;default:open;check:status IN ('open','in_progress','resolved')" json:"status"`
	Priority    RequestPriority `gorm:"not null;check:priority IN ('low','medium','high')" json:"priority"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (r *Request) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
