package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/reqstly/reqstly/model"
)

func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *Repository) UserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *Repository) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// DeleteUser removes the user and, through the schema's cascade rules, every
// credential and session hanging off it.
func (r *Repository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	// SQLite does not always enforce the declared cascades, so dependents
	// are removed explicitly inside the same transaction.
	for _, dependent := range []any{
		&model.Session{}, &model.PasskeyCredential{},
		&model.ExternalIdentity{}, &model.Password{},
	} {
		if err := db.Where("user_id = ?", id).Delete(dependent).Error; err != nil {
			return translate(err)
		}
	}
	return translate(db.Delete(&model.User{}, "id = ?", id).Error)
}
