package repository

import (
	"context"
	"database/sql"
	"time"

	"storefront/internal/models"
)

type Authorization interface {
	Create(ctx context.Context, username, hash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id int) (*models.User, error)
	UpdatePassword(ctx context.Context, id int, hash string) error
}

type ProductRepo interface {
	Create(ctx context.Context, p models.Product) (int, error)
	GetByID(ctx context.Context, id int) (*models.Product, error)
	// ListByAvailability returns products with the given flag; a non-nil
	// ownerID restricts the result to that owner.
	ListByAvailability(ctx context.Context, available bool, ownerID *int) ([]models.Product, error)
	SetAvailability(ctx context.Context, id int, available bool, ownerID *int) error
	Counts(ctx context.Context) (available, owned int, err error)
}

// SessionStore persists login sessions. Get returns (nil, nil) for an unknown id.
type SessionStore interface {
	Save(ctx context.Context, s models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.ActivityEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.ActivityEvent, error)
}

// Transactor runs fn inside one database transaction.
type Transactor interface {
	RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error
}

type Repository struct {
	Auth       Authorization
	Products   ProductRepo
	Sessions   SessionStore
	Events     EventRepo
	Transactor Transactor
}

// NewRepository wires the SQLite-backed repositories. Pass a non-nil
// sessions store to replace the SQLite one (e.g. Redis).
func NewRepository(db *sql.DB, sessions SessionStore) *Repository {
	if sessions == nil {
		sessions = NewSessionSQLite(db)
	}
	return &Repository{
		Auth:       NewUserRepository(db),
		Products:   NewProductSQLite(db),
		Sessions:   sessions,
		Events:     NewEventSQLite(db),
		Transactor: NewTxManager(db),
	}
}
