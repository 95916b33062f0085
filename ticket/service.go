// Package ticket implements the audit-logged request workflow. Every
// mutation that the audit subsystem tracks is written in the same
// transaction as its audit row; a request can never change state without a
// matching record, and an audit write failure rolls the mutation back.
package ticket

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/reqstly/reqstly/domain"
	"github.com/reqstly/reqstly/model"
)

var (
	ErrTitleRequired      = errors.New("title cannot be empty")
	ErrTitleTooLong       = errors.New("title must be 255 characters or less")
	ErrDescriptionTooLong = errors.New("description must be 5000 characters or less")
)

// Service owns request CRUD and the status state machine.
type Service struct {
	store domain.Storage
}

func NewService(store domain.Storage) *Service {
	return &Service{store: store}
}

// CreateInput carries the caller-provided fields for a new request.
type CreateInput struct {
	Title       string
	Description string
	Category    model.RequestCategory
	Priority    model.RequestPriority
}

// UpdateInput carries optional field updates. Nil fields are left unchanged.
// Status changes go through TransitionStatus, not Update.
type UpdateInput struct {
	Title       *string
	Description *string
	Priority    *model.RequestPriority
}

// ListFilter narrows List results. Ownership is always enforced; these only
// narrow within the actor's own requests.
type ListFilter struct {
	Status   *model.RequestStatus
	Category *model.RequestCategory
}

// Create stores a new request owned by the actor, status open, together with
// its created audit row.
func (s *Service) Create(ctx context.Context, actor uuid.UUID, in CreateInput) (*model.Request, error) {
	if err := validateTitle(in.Title); err != nil {
		return nil, err
	}
	if len(in.Description) > 5000 {
		return nil, ErrDescriptionTooLong
	}

	req := &model.Request{
		UserID:      actor,
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Status:      model.StatusOpen,
		Priority:    in.Priority,
	}

	err := s.store.Transaction(ctx, func(tx domain.Storage) error {
		if err := tx.CreateRequest(ctx, req); err != nil {
			return err
		}
		return tx.CreateAuditLog(ctx, &model.AuditLog{
			RequestID: req.ID,
			UserID:    &actor,
			Action:    model.ActionCreated,
			NewValue: mustJSON(map[string]string{
				"title":    req.Title,
				"category": req.Category.String(),
				"priority": req.Priority.String(),
			}),
		})
	})
	if err != nil {
		return nil, err
	}

	return req, nil
}

// Get returns a request the actor owns.
func (s *Service) Get(ctx context.Context, actor, id uuid.UUID) (*model.Request, error) {
	return s.ownedRequest(ctx, s.store, actor, id)
}

// List returns the actor's requests, newest first, optionally narrowed by
// status and category.
func (s *Service) List(ctx context.Context, actor uuid.UUID, filter ListFilter) ([]model.Request, error) {
	return s.store.Requests(ctx, domain.RequestFilter{
		OwnerID:  &actor,
		Status:   filter.Status,
		Category: filter.Category,
	})
}

// Update applies field changes to a request the actor owns. A priority
// change is audited as an updated action; title and description changes are
// not tracked. No-op updates write nothing.
func (s *Service) Update(ctx context.Context, actor, id uuid.UUID, in UpdateInput) (*model.Request, error) {
	var updated *model.Request
	err := s.store.Transaction(ctx, func(tx domain.Storage) error {
		req, err := s.ownedRequest(ctx, tx, actor, id)
		if err != nil {
			return err
		}

		changed := false
		if in.Title != nil && *in.Title != req.Title {
			if err := validateTitle(*in.Title); err != nil {
				return err
			}
			req.Title = *in.Title
			changed = true
		}
		if in.Description != nil && *in.Description != req.Description {
			if len(*in.Description) > 5000 {
				return ErrDescriptionTooLong
			}
			req.Description = *in.Description
			changed = true
		}

		var oldPriority model.RequestPriority
		priorityChanged := in.Priority != nil && *in.Priority != req.Priority
		if priorityChanged {
			oldPriority = req.Priority
			req.Priority = *in.Priority
			changed = true
		}

		if !changed {
			updated = req
			return nil
		}

		if err := tx.SaveRequest(ctx, req); err != nil {
			return err
		}
		if priorityChanged {
			if err := tx.CreateAuditLog(ctx, &model.AuditLog{
				RequestID: req.ID,
				UserID:    &actor,
				Action:    model.ActionUpdated,
				OldValue:  mustJSON(oldPriority.String()),
				NewValue:  mustJSON(req.Priority.String()),
			}); err != nil {
				return err
			}
		}
		updated = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// TransitionStatus moves a request to a new status and writes exactly one
// status_changed audit row, both in one transaction. Any status is reachable
// from any other, including reopening a resolved request. Transitioning to
// the current status writes nothing.
func (s *Service) TransitionStatus(ctx context.Context, actor, id uuid.UUID, status model.RequestStatus) (*model.Request, error) {
	var updated *model.Request
	err := s.store.Transaction(ctx, func(tx domain.Storage) error {
		req, err := s.ownedRequest(ctx, tx, actor, id)
		if err != nil {
			return err
		}

		if req.Status == status {
			updated = req
			return nil
		}

		old := req.Status
		req.Status = status
		if err := tx.SaveRequest(ctx, req); err != nil {
			return err
		}
		if err := tx.CreateAuditLog(ctx, &model.AuditLog{
			RequestID: req.ID,
			UserID:    &actor,
			Action:    model.ActionStatusChanged,
			OldValue:  mustJSON(old.String()),
			NewValue:  mustJSON(status.String()),
		}); err != nil {
			return err
		}
		updated = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a request the actor owns. The deleted audit row is written
// in the same transaction, recording the final title and status; the
// request's earlier audit trail goes with it.
func (s *Service) Delete(ctx context.Context, actor, id uuid.UUID) error {
	return s.store.Transaction(ctx, func(tx domain.Storage) error {
		req, err := s.ownedRequest(ctx, tx, actor, id)
		if err != nil {
			return err
		}

		if err := tx.DeleteRequest(ctx, req.ID); err != nil {
			return err
		}
		return tx.CreateAuditLog(ctx, &model.AuditLog{
			RequestID: req.ID,
			UserID:    &actor,
			Action:    model.ActionDeleted,
			OldValue: mustJSON(map[string]string{
				"title":  req.Title,
				"status": req.Status.String(),
			}),
		})
	})
}

// Audit returns the audit trail of a request the actor owns, newest first.
func (s *Service) Audit(ctx context.Context, actor, id uuid.UUID) ([]model.AuditLog, error) {
	if _, err := s.ownedRequest(ctx, s.store, actor, id); err != nil {
		return nil, err
	}
	return s.store.AuditLogsByRequest(ctx, id)
}

// ActorAudit returns every audit row the actor produced, newest first.
func (s *Service) ActorAudit(ctx context.Context, actor uuid.UUID) ([]model.AuditLog, error) {
	return s.store.AuditLogsByActor(ctx, actor)
}

func (s *Service) ownedRequest(ctx context.Context, store domain.Storage, actor, id uuid.UUID) (*model.Request, error) {
	req, err := store.RequestByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.UserID != actor {
		return nil, domain.ErrUnauthorized
	}
	return req, nil
}

func validateTitle(title string) error {
	if len(title) == 0 {
		return ErrTitleRequired
	}
	if len(title) > 255 {
		return ErrTitleTooLong
	}
	return nil
}

func mustJSON(v any) model.JSON {
	b, _ := json.Marshal(v)
	return model.JSON(b)
}
