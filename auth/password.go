package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/reqstly/reqstly/domain"
	"github.com/reqstly/reqstly/model"
	"golang.org/x/crypto/bcrypt"
)

// ErrWeakPassword is returned by Register for passwords under 8 characters.
var ErrWeakPassword = errors.New("password must be at least 8 characters")

const defaultBcryptCost = 12

// BcryptHasher is the production domain.Hasher. Tests dial the cost down to
// bcrypt.MinCost to keep the suite fast.
type BcryptHasher struct {
	Cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost == 0 {
		cost = defaultBcryptCost
	}
	return &BcryptHasher{Cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (h *BcryptHasher) Compare(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// PasswordStrategy verifies and registers local email/password credentials.
type PasswordStrategy struct {
	store  domain.Storage
	hasher domain.Hasher

	// dummyHash is compared against when no user or password row exists, so
	// the unknown-email path does the same bcrypt work as a wrong password.
	dummyHash string
}

func NewPasswordStrategy(store domain.Storage, hasher domain.Hasher) (*PasswordStrategy, error) {
	dummy, err := hasher.Hash("reqstly-no-such-user")
	if err != nil {
		return nil, fmt.Errorf("password: failed to precompute dummy hash: %w", err)
	}
	return &PasswordStrategy{
		store:     store,
		hasher:    hasher,
		dummyHash: dummy,
	}, nil
}

// Authenticate verifies an email/password pair. Every failure mode returns
// domain.ErrInvalidCredentials, so a caller cannot distinguish an unknown
// email from a wrong password.
func (s *PasswordStrategy) Authenticate(ctx context.Context, email, password string) (uuid.UUID, error) {
	user, err := s.store.UserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		s.hasher.Compare(password, s.dummyHash)
		return uuid.Nil, domain.ErrInvalidCredentials
	}

	pw, err := s.store.PasswordByUserID(ctx, user.ID)
	if err != nil {
		s.hasher.Compare(password, s.dummyHash)
		return uuid.Nil, domain.ErrInvalidCredentials
	}

	if !s.hasher.Compare(password, pw.PasswordHash) {
		return uuid.Nil, domain.ErrInvalidCredentials
	}

	return user.ID, nil
}

// Register creates the user and its password row in one transaction. A
// duplicate email surfaces as domain.ErrAccountExists, including when two
// concurrent registrations race on the same email.
func (s *PasswordStrategy) Register(ctx context.Context, email, name, password string) (*model.User, error) {
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("password: hash failed: %w", err)
	}

	user := &model.User{Email: normalizeEmail(email), Name: name}
	err = s.store.Transaction(ctx, func(tx domain.Storage) error {
		if err := tx.CreateUser(ctx, user); err != nil {
			return err
		}
		return tx.CreatePassword(ctx, &model.Password{UserID: user.ID, PasswordHash: hash})
	})
	if errors.Is(err, domain.ErrConflict) {
		return nil, domain.ErrAccountExists
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

// ChangePassword replaces the stored hash after verifying the current
// password.
func (s *PasswordStrategy) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	if len(next) < 8 {
		return ErrWeakPassword
	}

	pw, err := s.store.PasswordByUserID(ctx, userID)
	if err != nil {
		return domain.ErrInvalidCredentials
	}
	if !s.hasher.Compare(current, pw.PasswordHash) {
		return domain.ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("password: hash failed: %w", err)
	}
	return s.store.UpdatePasswordHash(ctx, userID, hash)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
