package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/reqstly/reqstly/model"
)

func (r *Repository) CreateSession(ctx context.Context, session *model.Session) error {
	return translate(r.db.WithContext(ctx).Create(session).Error)
}

func (r *Repository) SessionByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error) {
	var session model.Session
	if err := r.db.WithContext(ctx).First(&session, "token_hash = ?", tokenHash).Error; err != nil {
		return nil, translate(err)
	}
	return &session, nil
}

func (r *Repository) DeleteSessionByTokenHash(ctx context.Context, tokenHash string) error {
	return translate(r.db.WithContext(ctx).Delete(&model.Session{}, "token_hash = ?", tokenHash).Error)
}

func (r *Repository) DeleteSessionsForUser(ctx context.Context, userID uuid.UUID) error {
	return translate(r.db.WithContext(ctx).Delete(&model.Session{}, "user_id = ?", userID).Error)
}

func (r *Repository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&model.Session{}, "expires_at <= ?", now)
	return result.RowsAffected, translate(result.Error)
}
