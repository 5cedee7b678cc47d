package handlers

import (
	"context"
	"errors"

	domain "github.com/uniqmaker/api/internal/domain"
	"github.com/uniqmaker/api/internal/services"
)

var errStubNotConfigured = errors.New("stub not configured")

type stubUserService struct {
	registerFunc       func(ctx context.Context, cmd services.RegisterCommand) (services.AuthResult, error)
	loginFunc          func(ctx context.Context, cmd services.LoginCommand) (services.AuthResult, error)
	getUserFunc        func(ctx context.Context, userID string) (domain.User, error)
	createUserFunc     func(ctx context.Context, cmd services.CreateUserCommand) (domain.User, error)
	updateUserFunc     func(ctx context.Context, cmd services.UpdateUserCommand) (domain.User, error)
	deleteUserFunc     func(ctx context.Context, userID string) error
	listUsersFunc      func(ctx context.Context, pager services.Pagination) (domain.CursorPage[domain.User], error)
	listFavoritesFunc  func(ctx context.Context, userID string, pager services.Pagination) (domain.CursorPage[domain.Favorite], error)
	addFavoriteFunc    func(ctx context.Context, cmd services.AddFavoriteCommand) (domain.Favorite, bool, error)
	removeFavoriteFunc func(ctx context.Context, userID, productID string) error
}

var _ services.UserService = (*stubUserService)(nil)

func (s *stubUserService) Register(ctx context.Context, cmd services.RegisterCommand) (services.AuthResult, error) {
	if s.registerFunc == nil {
		return services.AuthResult{}, errStubNotConfigured
	}
	return s.registerFunc(ctx, cmd)
}

func (s *stubUserService) Login(ctx context.Context, cmd services.LoginCommand) (services.AuthResult, error) {
	if s.loginFunc == nil {
		return services.AuthResult{}, errStubNotConfigured
	}
	return s.loginFunc(ctx, cmd)
}

func (s *stubUserService) GetUser(ctx context.Context, userID string) (domain.User, error) {
	if s.getUserFunc == nil {
		return domain.User{}, errStubNotConfigured
	}
	return s.getUserFunc(ctx, userID)
}

func (s *stubUserService) CreateUser(ctx context.Context, cmd services.CreateUserCommand) (domain.User, error) {
	if s.createUserFunc == nil {
		return domain.User{}, errStubNotConfigured
	}
	return s.createUserFunc(ctx, cmd)
}

func (s *stubUserService) UpdateUser(ctx context.Context, cmd services.UpdateUserCommand) (domain.User, error) {
	if s.updateUserFunc == nil {
		return domain.User{}, errStubNotConfigured
	}
	return s.updateUserFunc(ctx, cmd)
}

func (s *stubUserService) DeleteUser(ctx context.Context, userID string) error {
	if s.deleteUserFunc == nil {
		return errStubNotConfigured
	}
	return s.deleteUserFunc(ctx, userID)
}

func (s *stubUserService) ListUsers(ctx context.Context, pager services.Pagination) (domain.CursorPage[domain.User], error) {
	if s.listUsersFunc == nil {
		return domain.CursorPage[domain.User]{}, errStubNotConfigured
	}
	return s.listUsersFunc(ctx, pager)
}

func (s *stubUserService) ListFavorites(ctx context.Context, userID string, pager services.Pagination) (domain.CursorPage[domain.Favorite], error) {
	if s.listFavoritesFunc == nil {
		return domain.CursorPage[domain.Favorite]{}, errStubNotConfigured
	}
	return s.listFavoritesFunc(ctx, userID, pager)
}

func (s *stubUserService) AddFavorite(ctx context.Context, cmd services.AddFavoriteCommand) (domain.Favorite, bool, error) {
	if s.addFavoriteFunc == nil {
		return domain.Favorite{}, false, errStubNotConfigured
	}
	return s.addFavoriteFunc(ctx, cmd)
}

func (s *stubUserService) RemoveFavorite(ctx context.Context, userID, productID string) error {
	if s.removeFavoriteFunc == nil {
		return errStubNotConfigured
	}
	return s.removeFavoriteFunc(ctx, userID, productID)
}

type stubClientService struct {
	createFunc func(ctx context.Context, cmd services.UpsertClientCommand) (domain.Client, error)
	getFunc    func(ctx context.Context, clientID string) (domain.Client, error)
	updateFunc func(ctx context.Context, cmd services.UpsertClientCommand) (domain.Client, error)
	deleteFunc func(ctx context.Context, clientID string) error
	listFunc   func(ctx context.Context, pager services.Pagination) (domain.CursorPage[domain.Client], error)
}

var _ services.ClientService = (*stubClientService)(nil)

func (s *stubClientService) Create(ctx context.Context, cmd services.UpsertClientCommand) (domain.Client, error) {
	if s.createFunc == nil {
		return domain.Client{}, errStubNotConfigured
	}
	return s.createFunc(ctx, cmd)
}

func (s *stubClientService) Get(ctx context.Context, clientID string) (domain.Client, error) {
	if s.getFunc == nil {
		return domain.Client{}, errStubNotConfigured
	}
	return s.getFunc(ctx, clientID)
}

func (s *stubClientService) Update(ctx context.Context, cmd services.UpsertClientCommand) (domain.Client, error) {
	if s.updateFunc == nil {
		return domain.Client{}, errStubNotConfigured
	}
	return s.updateFunc(ctx, cmd)
}

func (s *stubClientService) Delete(ctx context.Context, clientID string) error {
	if s.deleteFunc == nil {
		return errStubNotConfigured
	}
	return s.deleteFunc(ctx, clientID)
}

func (s *stubClientService) List(ctx context.Context, pager services.Pagination) (domain.CursorPage[domain.Client], error) {
	if s.listFunc == nil {
		return domain.CursorPage[domain.Client]{}, errStubNotConfigured
	}
	return s.listFunc(ctx, pager)
}

type stubQuoteService struct {
	createFunc func(ctx context.Context, cmd services.CreateQuoteCommand) (domain.Quote, error)
	getFunc    func(ctx context.Context, quoteID string) (services.QuoteDetail, error)
	listFunc   func(ctx context.Context, filter services.QuoteListFilter) (domain.CursorPage[services.QuoteDetail], error)
	sendFunc   func(ctx context.Context, cmd services.SendQuoteCommand) (domain.Quote, error)
}

var _ services.QuoteService = (*stubQuoteService)(nil)

func (s *stubQuoteService) Create(ctx context.Context, cmd services.CreateQuoteCommand) (domain.Quote, error) {
	if s.createFunc == nil {
		return domain.Quote{}, errStubNotConfigured
	}
	return s.createFunc(ctx, cmd)
}

func (s *stubQuoteService) Get(ctx context.Context, quoteID string) (services.QuoteDetail, error) {
	if s.getFunc == nil {
		return services.QuoteDetail{}, errStubNotConfigured
	}
	return s.getFunc(ctx, quoteID)
}

func (s *stubQuoteService) List(ctx context.Context, filter services.QuoteListFilter) (domain.CursorPage[services.QuoteDetail], error) {
	if s.listFunc == nil {
		return domain.CursorPage[services.QuoteDetail]{}, errStubNotConfigured
	}
	return s.listFunc(ctx, filter)
}

func (s *stubQuoteService) Send(ctx context.Context, cmd services.SendQuoteCommand) (domain.Quote, error) {
	if s.sendFunc == nil {
		return domain.Quote{}, errStubNotConfigured
	}
	return s.sendFunc(ctx, cmd)
}

type stubProductService struct {
	listFunc    func(ctx context.Context, filter services.ProductListFilter) (domain.CursorPage[domain.Product], error)
	getFunc     func(ctx context.Context, productID string) (domain.Product, error)
	similarFunc func(ctx context.Context, productID string) ([]domain.Product, error)
	createFunc  func(ctx context.Context, cmd services.CreateProductCommand) (domain.Product, error)
	importFunc  func(ctx context.Context, cmd services.ImportProductsCommand) (services.ImportReport, error)
}

var _ services.ProductService = (*stubProductService)(nil)

func (s *stubProductService) List(ctx context.Context, filter services.ProductListFilter) (domain.CursorPage[domain.Product], error) {
	if s.listFunc == nil {
		return domain.CursorPage[domain.Product]{}, errStubNotConfigured
	}
	return s.listFunc(ctx, filter)
}

func (s *stubProductService) Get(ctx context.Context, productID string) (domain.Product, error) {
	if s.getFunc == nil {
		return domain.Product{}, errStubNotConfigured
	}
	return s.getFunc(ctx, productID)
}

func (s *stubProductService) Similar(ctx context.Context, productID string) ([]domain.Product, error) {
	if s.similarFunc == nil {
		return nil, errStubNotConfigured
	}
	return s.similarFunc(ctx, productID)
}

func (s *stubProductService) Create(ctx context.Context, cmd services.CreateProductCommand) (domain.Product, error) {
	if s.createFunc == nil {
		return domain.Product{}, errStubNotConfigured
	}
	return s.createFunc(ctx, cmd)
}

func (s *stubProductService) Import(ctx context.Context, cmd services.ImportProductsCommand) (services.ImportReport, error) {
	if s.importFunc == nil {
		return services.ImportReport{}, errStubNotConfigured
	}
	return s.importFunc(ctx, cmd)
}

type stubCatalogService struct {
	fetchAllFunc  func(ctx context.Context) (services.FetchReport, error)
	rawDataFunc   func(ctx context.Context) ([]services.RawFeedData, error)
	catalogFunc   func(ctx context.Context) ([]domain.UnifiedProductView, error)
	printDataFunc func(ctx context.Context, masterCode string) (*domain.PrintDataView, error)
}

var _ services.CatalogService = (*stubCatalogService)(nil)

func (s *stubCatalogService) FetchAll(ctx context.Context) (services.FetchReport, error) {
	if s.fetchAllFunc == nil {
		return services.FetchReport{}, errStubNotConfigured
	}
	return s.fetchAllFunc(ctx)
}

func (s *stubCatalogService) RawData(ctx context.Context) ([]services.RawFeedData, error) {
	if s.rawDataFunc == nil {
		return nil, errStubNotConfigured
	}
	return s.rawDataFunc(ctx)
}

func (s *stubCatalogService) Catalog(ctx context.Context) ([]domain.UnifiedProductView, error) {
	if s.catalogFunc == nil {
		return nil, errStubNotConfigured
	}
	return s.catalogFunc(ctx)
}

func (s *stubCatalogService) PrintData(ctx context.Context, masterCode string) (*domain.PrintDataView, error) {
	if s.printDataFunc == nil {
		return nil, errStubNotConfigured
	}
	return s.printDataFunc(ctx, masterCode)
}

type stubSystemService struct {
	reportFunc func(ctx context.Context) (domain.SystemHealthReport, error)
}

var _ services.SystemService = (*stubSystemService)(nil)

func (s *stubSystemService) HealthReport(ctx context.Context) (domain.SystemHealthReport, error) {
	if s.reportFunc == nil {
		return domain.SystemHealthReport{}, errStubNotConfigured
	}
	return s.reportFunc(ctx)
}
