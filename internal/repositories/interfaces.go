package repositories

import (
	"context"
	"time"

	domain "github.com/uniqmaker/api/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Snapshots() SnapshotRepository
	Users() UserRepository
	Clients() ClientRepository
	Favorites() FavoriteRepository
	Quotes() QuoteRepository
	Products() ProductRepository
	Health() HealthRepository
	UnitOfWork
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork allows grouping repository operations in a transactional boundary when supported.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// SnapshotRepository stores the append-only supplier feed snapshot log.
// Snapshots are never updated or deleted; each fetch attempt appends a new
// document, and reads always resolve the most recent one per feed.
type SnapshotRepository interface {
	Append(ctx context.Context, snapshot domain.FeedSnapshot) (domain.FeedSnapshot, error)
	Latest(ctx context.Context, feed domain.FeedKey) (domain.FeedSnapshot, error)
	LatestBundle(ctx context.Context) (domain.SnapshotBundle, error)
}

// UserRepository stores account records keyed by id with an email uniqueness guarantee.
type UserRepository interface {
	Insert(ctx context.Context, user domain.User) (domain.User, error)
	Update(ctx context.Context, user domain.User) (domain.User, error)
	Delete(ctx context.Context, userID string) error
	FindByID(ctx context.Context, userID string) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	List(ctx context.Context, pager domain.Pagination) (domain.CursorPage[domain.User], error)
}

// ClientRepository stores B2B client companies.
type ClientRepository interface {
	Insert(ctx context.Context, client domain.Client) (domain.Client, error)
	Update(ctx context.Context, client domain.Client) (domain.Client, error)
	Delete(ctx context.Context, clientID string) error
	FindByID(ctx context.Context, clientID string) (domain.Client, error)
	List(ctx context.Context, pager domain.Pagination) (domain.CursorPage[domain.Client], error)
}

// FavoriteRepository tracks favorite products per user.
type FavoriteRepository interface {
	List(ctx context.Context, userID string, pager domain.Pagination) (domain.CursorPage[domain.Favorite], error)
	Put(ctx context.Context, userID string, favorite domain.Favorite) (bool, error)
	Delete(ctx context.Context, userID string, productID string) error
}

// QuoteRepository persists quote simulations and their lifecycle state.
type QuoteRepository interface {
	Insert(ctx context.Context, quote domain.Quote) (domain.Quote, error)
	Update(ctx context.Context, quote domain.Quote) (domain.Quote, error)
	FindByID(ctx context.Context, quoteID string) (domain.Quote, error)
	List(ctx context.Context, filter QuoteListFilter) (domain.CursorPage[domain.Quote], error)
}

// ProductRepository stores locally authored catalog entries, separate from the
// supplier snapshot mirror.
type ProductRepository interface {
	Insert(ctx context.Context, product domain.Product) (domain.Product, error)
	Update(ctx context.Context, product domain.Product) (domain.Product, error)
	Delete(ctx context.Context, productID string) error
	FindByID(ctx context.Context, productID string) (domain.Product, error)
	List(ctx context.Context, filter ProductListFilter) (domain.CursorPage[domain.Product], error)
}

// HealthRepository exposes status of downstream dependencies for health checks.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}

// Filter DTOs shared across repositories ------------------------------------

type QuoteListFilter struct {
	ClientID   string
	Status     []string
	DateRange  domain.RangeQuery[time.Time]
	Pagination domain.Pagination
}

type ProductListFilter struct {
	Category   *string
	Search     string
	Pagination domain.Pagination
}
