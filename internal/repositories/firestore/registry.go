package firestore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	pfirestore "github.com/uniqmaker/api/internal/platform/firestore"
	"github.com/uniqmaker/api/internal/repositories"
)

// Registry bundles the Firestore-backed repositories behind the
// repositories.Registry contract and owns the shared provider lifecycle.
type Registry struct {
	provider *pfirestore.Provider

	snapshots *SnapshotRepository
	users     *UserRepository
	clients   *ClientRepository
	favorites *FavoriteRepository
	quotes    *QuoteRepository
	products  *ProductRepository
	health    repositories.HealthRepository
}

// NewRegistry wires every repository on top of the shared provider.
func NewRegistry(provider *pfirestore.Provider) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("registry requires firestore provider")
	}

	reg := &Registry{provider: provider}

	var err error
	if reg.snapshots, err = NewSnapshotRepository(provider); err != nil {
		return nil, fmt.Errorf("build snapshot repository: %w", err)
	}
	if reg.users, err = NewUserRepository(provider); err != nil {
		return nil, fmt.Errorf("build user repository: %w", err)
	}
	if reg.clients, err = NewClientRepository(provider); err != nil {
		return nil, fmt.Errorf("build client repository: %w", err)
	}
	if reg.favorites, err = NewFavoriteRepository(provider); err != nil {
		return nil, fmt.Errorf("build favorite repository: %w", err)
	}
	if reg.quotes, err = NewQuoteRepository(provider); err != nil {
		return nil, fmt.Errorf("build quote repository: %w", err)
	}
	if reg.products, err = NewProductRepository(provider); err != nil {
		return nil, fmt.Errorf("build product repository: %w", err)
	}

	health, err := repositories.NewDependencyHealthRepository([]repositories.DependencyCheck{
		{Name: "firestore", Check: firestoreProbe(provider)},
	})
	if err != nil {
		return nil, fmt.Errorf("build health repository: %w", err)
	}
	reg.health = health

	return reg, nil
}

// Close releases the underlying Firestore client.
func (r *Registry) Close(ctx context.Context) error {
	if r == nil || r.provider == nil {
		return nil
	}
	return r.provider.Close(ctx)
}

func (r *Registry) Snapshots() repositories.SnapshotRepository { return r.snapshots }
func (r *Registry) Users() repositories.UserRepository         { return r.users }
func (r *Registry) Clients() repositories.ClientRepository     { return r.clients }
func (r *Registry) Favorites() repositories.FavoriteRepository { return r.favorites }
func (r *Registry) Quotes() repositories.QuoteRepository       { return r.quotes }
func (r *Registry) Products() repositories.ProductRepository   { return r.products }
func (r *Registry) Health() repositories.HealthRepository      { return r.health }

// RunInTx executes fn inside a single Firestore transaction.
func (r *Registry) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if r == nil || r.provider == nil {
		return errors.New("registry not initialised")
	}
	return r.provider.RunTransaction(ctx, func(ctx context.Context, _ *firestore.Transaction) error {
		return fn(ctx)
	})
}

// firestoreProbe verifies the client can be built and the backend answers a
// trivial read.
func firestoreProbe(provider *pfirestore.Provider) func(context.Context) error {
	return func(ctx context.Context) error {
		client, err := provider.Client(ctx)
		if err != nil {
			return err
		}
		iter := client.Collections(ctx)
		if _, err := iter.Next(); err != nil && !errors.Is(err, iterator.Done) {
			return err
		}
		return nil
	}
}

// Ensure interface compliance.
var _ repositories.Registry = (*Registry)(nil)
