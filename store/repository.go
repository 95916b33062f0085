// Package store implements domain.Storage on GORM.
//
// Storage backends are registered by name (sqlite for development and tests,
// postgres for production); the dialector registry keeps the open path
// driver-agnostic. GORM's error translation is enabled so that unique
// constraint violations surface as gorm.ErrDuplicatedKey, which the
// repository maps onto the domain error taxonomy — that mapping is what
// turns an email-uniqueness race into domain.ErrAccountExists upstream.
package store

import (
	"context"
	"errors"

	"github.com/glebarez/sqlite"
	"github.com/reqstly/reqstly/domain"
	"github.com/reqstly/reqstly/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	Register("sqlite", sqlite.Open)
	Register("postgres", postgres.Open)
}

// Repository is the GORM-backed implementation of domain.Storage.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Open connects to the named backend and returns a migrated Repository.
func Open(dbType, dsn string, autoMigrate bool) (*Repository, error) {
	opener, err := opener(dbType)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(opener(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	repo := NewRepository(db)
	if autoMigrate {
		if err := repo.AutoMigrate(); err != nil {
			return nil, err
		}
	}
	return repo, nil
}

func (r *Repository) DB() *gorm.DB {
	return r.db
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&model.User{},
		&model.ExternalIdentity{},
		&model.PasskeyCredential{},
		&model.Password{},
		&model.Session{},
		&model.Request{},
		&model.AuditLog{},
	)
}

// Ping checks database connectivity for health reporting.
func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Transaction runs fn against a transactional Repository. Storage isolation
// is the only concurrency control the core relies on.
func (r *Repository) Transaction(ctx context.Context, fn func(tx domain.Storage) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

// translate maps GORM errors onto the domain taxonomy.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ErrConflict
	default:
		return err
	}
}
