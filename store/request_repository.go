package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/reqstly/reqstly/domain"
	"github.com/reqstly/reqstly/model"
)

func (r *Repository) CreateRequest(ctx context.Context, request *model.Request) error {
	return translate(r.db.WithContext(ctx).Create(request).Error)
}

func (r *Repository) RequestByID(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	var request model.Request
	if err := r.db.WithContext(ctx).First(&request, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &request, nil
}

func (r *Repository) Requests(ctx context.Context, filter domain.RequestFilter) ([]model.Request, error) {
	query := r.db.WithContext(ctx).Model(&model.Request{})
	if filter.OwnerID != nil {
		query = query.Where("user_id = ?", *filter.OwnerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}

	var requests []model.Request
	if err := query.Order("created_at DESC").Find(&requests).Error; err != nil {
		return nil, translate(err)
	}
	return requests, nil
}

func (r *Repository) SaveRequest(ctx context.Context, request *model.Request) error {
	return translate(r.db.WithContext(ctx).Save(request).Error)
}

func (r *Repository) DeleteRequest(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	// The existing trail goes with the request; the caller writes the
	// surviving deleted row afterwards in the same transaction.
	if err := db.Where("request_id = ?", id).Delete(&model.AuditLog{}).Error; err != nil {
		return translate(err)
	}
	return translate(db.Delete(&model.Request{}, "id = ?", id).Error)
}
