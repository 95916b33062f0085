// Package domain defines the storage contracts and shared types the Reqstly
// core is written against.
//
// Every component takes an explicit Storage handle instead of reaching for
// ambient global state; tests substitute in-memory implementations and the
// store package provides the GORM-backed one. Mutations that must be atomic
// (status change plus audit row, identity resolution plus user creation) run
// inside Transaction, which is the sole concurrency-control mechanism — the
// core holds no in-process locks.
package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/reqstly/reqstly/model"
)

// Storage combines all persistence operations.
type Storage interface {
	UserStorage
	ExternalIdentityStorage
	PasskeyStorage
	PasswordStorage
	SessionStorage
	RequestStorage
	AuditStorage

	// Transaction runs fn against a transactional view of the storage.
	// fn returning an error rolls the whole unit back.
	Transaction(ctx context.Context, fn func(tx Storage) error) error
}

type UserStorage interface {
	CreateUser(ctx context.Context, user *model.User) error
	UserByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	UserByEmail(ctx context.Context, email string) (*model.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type ExternalIdentityStorage interface {
	CreateExternalIdentity(ctx context.Context, identity *model.ExternalIdentity) error
	ExternalIdentityByID(ctx context.Context, id uuid.UUID) (*model.ExternalIdentity, error)
	ExternalIdentityByProviderSubject(ctx context.Context, provider model.AuthProvider, subject string) (*model.ExternalIdentity, error)
}

type PasskeyStorage interface {
	CreatePasskeyCredential(ctx context.Context, cred *model.PasskeyCredential) error
	PasskeyCredentialByCredentialID(ctx context.Context, credentialID string) (*model.PasskeyCredential, error)
	PasskeyCredentialsByUser(ctx context.Context, userID uuid.UUID) ([]model.PasskeyCredential, error)

	// AdvancePasskeyCounter conditionally moves the stored signature counter
	// forward (UPDATE ... WHERE counter < new value). It reports whether a
	// row was updated, so two racing authentications cannot both pass the
	// monotonicity check.
	AdvancePasskeyCounter(ctx context.Context, credentialID string, counter uint32) (bool, error)
}

type PasswordStorage interface {
	CreatePassword(ctx context.Context, password *model.Password) error
	PasswordByUserID(ctx context.Context, userID uuid.UUID) (*model.Password, error)
	UpdatePasswordHash(ctx context.Context, userID uuid.UUID, hash string) error
}

type SessionStorage interface {
	CreateSession(ctx context.Context, session *model.Session) error
	SessionByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error)
	DeleteSessionByTokenHash(ctx context.Context, tokenHash string) error
	DeleteSessionsForUser(ctx context.Context, userID uuid.UUID) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// RequestFilter narrows a request listing. Nil fields match everything.
type RequestFilter struct {
	OwnerID  *uuid.UUID
	Status   *model.RequestStatus
	Category *model.RequestCategory
}

type RequestStorage interface {
	CreateRequest(ctx context.Context, request *model.Request) error
	RequestByID(ctx context.Context, id uuid.UUID) (*model.Request, error)
	Requests(ctx context.Context, filter RequestFilter) ([]model.Request, error)
	SaveRequest(ctx context.Context, request *model.Request) error
	DeleteRequest(ctx context.Context, id uuid.UUID) error
}

type AuditStorage interface {
	CreateAuditLog(ctx context.Context, entry *model.AuditLog) error
	AuditLogsByRequest(ctx context.Context, requestID uuid.UUID) ([]model.AuditLog, error)
	AuditLogsByActor(ctx context.Context, userID uuid.UUID) ([]model.AuditLog, error)
}

// Hasher defines the interface for password hashing and verification.
type Hasher interface {
	Hash(password string) (string, error)
	Compare(password, hash string) bool
}
