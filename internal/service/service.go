package service

import (
	"context"
	"time"

	"storefront/internal/logger"
	"storefront/internal/models"
	"storefront/internal/repository"
)

type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	ChangePassword(ctx context.Context, userID int, current, newPassword, confirm string) error
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Sessions manages login sessions referenced by an opaque cookie id.
type Sessions interface {
	Begin(ctx context.Context, userID int) (models.Session, error)
	Resolve(ctx context.Context, sessionID string) (int, error)
	End(ctx context.Context, sessionID string) error
}

// Catalog exposes product creation, listing and the buy/return toggle.
type Catalog interface {
	AddProduct(ctx context.Context, userID int, p ProductParams) (models.Product, error)
	ListAvailable(ctx context.Context) ([]models.Product, error)
	ListOwned(ctx context.Context, userID int) ([]models.Product, error)
	Buy(ctx context.Context, userID, productID int) (models.Product, error)
	Return(ctx context.Context, userID, productID int) (models.Product, error)
	Summary(ctx context.Context) (models.CatalogSummary, error)
}

// Activity exposes the append-only audit log with filtering access.
type Activity interface {
	Record(ctx context.Context, e models.ActivityEvent) error
	List(ctx context.Context, f LogFilter) ([]models.ActivityEvent, error)
}

// Sweeper runs the background loop that removes expired sessions.
// Stop via context cancellation in main() for graceful shutdown.
type Sweeper interface {
	Run(ctx context.Context, tick time.Duration)
}

type Service struct {
	Authorization
	Sessions
	Catalog
	Activity
	Sweeper
}

// Options carries the tunables the services read from config.
// Zero values fall back to defaults.
type Options struct {
	SigningKey string
	TokenTTL   time.Duration
	SessionTTL time.Duration
	Ownership  string
	Logger     *logger.Logger
}

const (
	defaultTokenTTL   = time.Hour
	defaultSessionTTL = 24 * time.Hour
)

func (o Options) withDefaults() Options {
	if o.TokenTTL <= 0 {
		o.TokenTTL = defaultTokenTTL
	}
	if o.SessionTTL <= 0 {
		o.SessionTTL = defaultSessionTTL
	}
	if o.Ownership == "" {
		o.Ownership = OwnershipShared
	}
	return o
}

// NewService wires the repository layer into concrete services.
func NewService(repos *repository.Repository, opts Options) *Service {
	opts = opts.withDefaults()
	activity := NewActivityService(repos.Events)
	return &Service{
		Authorization: NewAuthService(repos.Auth, repos.Transactor, activity, opts.SigningKey, opts.TokenTTL),
		Sessions:      NewSessionService(repos.Sessions, repos.Transactor, activity, opts.SessionTTL),
		Catalog:       NewCatalogService(repos.Products, repos.Transactor, activity, opts.Ownership),
		Activity:      activity,
		Sweeper:       NewSessionSweeper(repos.Sessions, opts.Logger),
	}
}
