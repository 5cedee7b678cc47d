package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/uniqmaker/api/internal/platform/auth"
	"github.com/uniqmaker/api/internal/platform/config"
	"github.com/uniqmaker/api/internal/repositories"
	"github.com/uniqmaker/api/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon. Concrete implementations
// are assembled via dependency injection in NewContainer.
type Services struct {
	Catalog  services.CatalogService
	Users    services.UserService
	Clients  services.ClientService
	Quotes   services.QuoteService
	Products services.ProductService
	System   services.SystemService
}

// Collaborators carries the non-repository dependencies constructed by the
// entry point: outbound gateways, renderers and stores. Optional members may
// be nil; the corresponding features degrade gracefully at runtime.
type Collaborators struct {
	Gateway       services.SupplierGateway
	Renderer      services.QuotePDFRenderer
	Mailer        services.QuoteMailer
	Store         services.ObjectStore
	QuoteEvents   services.QuoteEventPublisher
	CatalogEvents services.CatalogEventPublisher
	Tokens        *auth.TokenIssuer
	Passwords     *auth.PasswordHasher
	Logger        func(ctx context.Context, event string, fields map[string]any)
}

// Container wires repositories, services, and background infrastructure for runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Services     Services
}

// NewContainer constructs the runtime dependencies. Production wiring provides real
// implementations, while tests can supply in-memory registries.
func NewContainer(ctx context.Context, cfg config.Config, reg repositories.Registry, deps Collaborators) (*Container, error) {
	if reg == nil {
		return nil, errors.New("repositories registry is required")
	}

	svc, err := buildServices(cfg, reg, deps)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:       cfg,
		Repositories: reg,
		Services:     svc,
	}, nil
}

// Close releases resources such as repository clients, background workers, or caches.
func (c *Container) Close(ctx context.Context) error {
	if c == nil || c.Repositories == nil {
		return nil
	}
	return c.Repositories.Close(ctx)
}

func buildServices(cfg config.Config, reg repositories.Registry, deps Collaborators) (Services, error) {
	var svc Services

	catalogSvc, err := services.NewCatalogService(services.CatalogServiceDeps{
		Snapshots: reg.Snapshots(),
		Gateway:   deps.Gateway,
		Events:    deps.CatalogEvents,
		Clock:     time.Now,
		Logger:    deps.Logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build catalog service: %w", err)
	}
	svc.Catalog = catalogSvc

	userSvc, err := services.NewUserService(services.UserServiceDeps{
		Users:     reg.Users(),
		Favorites: reg.Favorites(),
		Tokens:    deps.Tokens,
		Passwords: deps.Passwords,
		Admin: services.AdminFallback{
			Email:    cfg.Auth.AdminEmail,
			Password: cfg.Auth.AdminPassword,
		},
		Clock:  time.Now,
		Logger: deps.Logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build user service: %w", err)
	}
	svc.Users = userSvc

	clientSvc, err := services.NewClientService(services.ClientServiceDeps{
		Clients: reg.Clients(),
		Clock:   time.Now,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build client service: %w", err)
	}
	svc.Clients = clientSvc

	quoteSvc, err := services.NewQuoteService(services.QuoteServiceDeps{
		Quotes:       reg.Quotes(),
		Clients:      reg.Clients(),
		Renderer:     deps.Renderer,
		Mailer:       deps.Mailer,
		Store:        deps.Store,
		Bucket:       cfg.Storage.QuotesBucket,
		SignedURLTTL: cfg.Storage.SignedURLTTL,
		Events:       deps.QuoteEvents,
		Clock:        time.Now,
		Logger:       deps.Logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build quote service: %w", err)
	}
	svc.Quotes = quoteSvc

	productSvc, err := services.NewProductService(services.ProductServiceDeps{
		Products:      reg.Products(),
		Catalog:       catalogSvc,
		Store:         deps.Store,
		UploadsBucket: cfg.Storage.UploadsBucket,
		Clock:         time.Now,
		Logger:        deps.Logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build product service: %w", err)
	}
	svc.Products = productSvc

	if healthRepo := reg.Health(); healthRepo != nil {
		systemSvc, err := services.NewSystemService(services.SystemServiceDeps{
			HealthRepository: healthRepo,
			Clock:            time.Now,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build system service: %w", err)
		}
		svc.System = systemSvc
	}

	return svc, nil
}
