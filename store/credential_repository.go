package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/reqstly/reqstly/domain"
	"github.com/reqstly/reqstly/model"
)

func (r *Repository) CreateExternalIdentity(ctx context.Context, identity *model.ExternalIdentity) error {
	return translate(r.db.WithContext(ctx).Create(identity).Error)
}

func (r *Repository) ExternalIdentityByID(ctx context.Context, id uuid.UUID) (*model.ExternalIdentity, error) {
	var identity model.ExternalIdentity
	if err := r.db.WithContext(ctx).First(&identity, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &identity, nil
}

func (r *Repository) ExternalIdentityByProviderSubject(ctx context.Context, provider model.AuthProvider, subject string) (*model.ExternalIdentity, error) {
	var identity model.ExternalIdentity
	err := r.db.WithContext(ctx).
		Where("provider = ? AND subject = ?", provider, subject).
		First(&identity).Error
	if err != nil {
		return nil, translate(err)
	}
	return &identity, nil
}

func (r *Repository) CreatePasskeyCredential(ctx context.Context, cred *model.PasskeyCredential) error {
	return translate(r.db.WithContext(ctx).Create(cred).Error)
}

func (r *Repository) PasskeyCredentialByCredentialID(ctx context.Context, credentialID string) (*model.PasskeyCredential, error) {
	var cred model.PasskeyCredential
	if err := r.db.WithContext(ctx).First(&cred, "credential_id = ?", credentialID).Error; err != nil {
		return nil, translate(err)
	}
	return &cred, nil
}

func (r *Repository) PasskeyCredentialsByUser(ctx context.Context, userID uuid.UUID) ([]model.PasskeyCredential, error) {
	var creds []model.PasskeyCredential
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&creds).Error
	if err != nil {
		return nil, translate(err)
	}
	return creds, nil
}

// AdvancePasskeyCounter performs the conditional counter update that closes
// the race between two concurrent authentications replaying the same
// assertion: only the one whose counter is strictly greater than the stored
// value moves the row.
func (r *Repository) AdvancePasskeyCounter(ctx context.Context, credentialID string, counter uint32) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.PasskeyCredential{}).
		Where("credential_id = ? AND counter < ?", credentialID, counter).
		Update("counter", counter)
	if result.Error != nil {
		return false, translate(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) CreatePassword(ctx context.Context, password *model.Password) error {
	return translate(r.db.WithContext(ctx).Create(password).Error)
}

func (r *Repository) PasswordByUserID(ctx context.Context, userID uuid.UUID) (*model.Password, error) {
	var password model.Password
	if err := r.db.WithContext(ctx).First(&password, "user_id = ?", userID).Error; err != nil {
		return nil, translate(err)
	}
	return &password, nil
}

func (r *Repository) UpdatePasswordHash(ctx context.Context, userID uuid.UUID, hash string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Password{}).
		Where("user_id = ?", userID).
		Update("password_hash", hash)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
