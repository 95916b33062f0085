package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/reqstly/reqstly/domain"
	"github.com/reqstly/reqstly/model"
)

// Resolver turns a verified AuthProof into the canonical User it belongs to.
// For external proofs it implements link-or-create: an already-seen
// (provider, subject) pair wins outright, then an email match links the
// identity to the existing account, and only then is a fresh user created.
type Resolver struct {
	store domain.Storage
}

func NewResolver(store domain.Storage) *Resolver {
	return &Resolver{store: store}
}

// Resolve maps a proof to its user. Password and passkey proofs already name
// the user; external proofs go through the link-or-create path and also
// return the external identity that matched or was created.
func (r *Resolver) Resolve(ctx context.Context, proof domain.AuthProof) (*model.User, *model.ExternalIdentity, error) {
	switch proof.Kind {
	case domain.ProofPassword, domain.ProofPasskey:
		user, err := r.store.UserByID(ctx, proof.UserID)
		if err != nil {
			return nil, nil, err
		}
		return user, nil, nil
	case domain.ProofExternal:
		return r.ResolveExternalIdentity(ctx, proof.Provider, proof.Subject, proof.Email, proof.Name)
	default:
		return nil, nil, fmt.Errorf("resolver: unknown proof kind %q", proof.Kind)
	}
}

// ResolveExternalIdentity links a verified federated claim set to a user,
// creating both identity and user as needed. The whole decision runs in one
// transaction; a uniqueness race lost on either the email or the
// (provider, subject) pair surfaces as domain.ErrAccountExists.
func (r *Resolver) ResolveExternalIdentity(ctx context.Context, provider model.AuthProvider, subject, email, name string) (*model.User, *model.ExternalIdentity, error) {
	if subject == "" || email == "" {
		return nil, nil, fmt.Errorf("resolver: %w: missing subject or email claim", domain.ErrInvalidCredentials)
	}
	email = normalizeEmail(email)
	if name == "" {
		name = email
	}

	var user *model.User
	var ident *model.ExternalIdentity
	err := r.store.Transaction(ctx, func(tx domain.Storage) error {
		existing, err := tx.ExternalIdentityByProviderSubject(ctx, provider, subject)
		if err == nil {
			ident = existing
			user, err = tx.UserByID(ctx, existing.UserID)
			return err
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		owner, err := tx.UserByEmail(ctx, email)
		if errors.Is(err, domain.ErrNotFound) {
			owner = &model.User{Email: email, Name: name}
			if err := tx.CreateUser(ctx, owner); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		ident = &model.ExternalIdentity{
			UserID:   owner.ID,
			Provider: provider,
			Subject:  subject,
			Email:    &email,
		}
		if err := tx.CreateExternalIdentity(ctx, ident); err != nil {
			return err
		}
		user = owner
		return nil
	})
	if errors.Is(err, domain.ErrConflict) {
		return nil, nil, domain.ErrAccountExists
	}
	if err != nil {
		return nil, nil, err
	}

	return user, ident, nil
}
