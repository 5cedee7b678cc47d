package services

import (
	"context"
	"time"

	domain "github.com/uniqmaker/api/internal/domain"
	"github.com/uniqmaker/api/internal/repositories"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Pagination         = domain.Pagination
	User               = domain.User
	Client             = domain.Client
	Favorite           = domain.Favorite
	Quote              = domain.Quote
	QuoteLine          = domain.QuoteLine
	Product            = domain.Product
	FeedSnapshot       = domain.FeedSnapshot
	UnifiedProductView = domain.UnifiedProductView
	PrintDataView      = domain.PrintDataView
	SystemHealthReport = domain.SystemHealthReport
)

// CatalogService mirrors the supplier gateway and computes the normalized views.
type CatalogService interface {
	FetchAll(ctx context.Context) (FetchReport, error)
	RawData(ctx context.Context) ([]RawFeedData, error)
	Catalog(ctx context.Context) ([]UnifiedProductView, error)
	PrintData(ctx context.Context, masterCode string) (*PrintDataView, error)
}

// UserService manages accounts, authentication and per-user favorites.
type UserService interface {
	Register(ctx context.Context, cmd RegisterCommand) (AuthResult, error)
	Login(ctx context.Context, cmd LoginCommand) (AuthResult, error)
	GetUser(ctx context.Context, userID string) (User, error)
	CreateUser(ctx context.Context, cmd CreateUserCommand) (User, error)
	UpdateUser(ctx context.Context, cmd UpdateUserCommand) (User, error)
	DeleteUser(ctx context.Context, userID string) error
	ListUsers(ctx context.Context, pager Pagination) (domain.CursorPage[User], error)
	ListFavorites(ctx context.Context, userID string, pager Pagination) (domain.CursorPage[Favorite], error)
	AddFavorite(ctx context.Context, cmd AddFavoriteCommand) (Favorite, bool, error)
	RemoveFavorite(ctx context.Context, userID string, productID string) error
}

// ClientService manages the B2B client companies quotes are addressed to.
type ClientService interface {
	Create(ctx context.Context, cmd UpsertClientCommand) (Client, error)
	Get(ctx context.Context, clientID string) (Client, error)
	Update(ctx context.Context, cmd UpsertClientCommand) (Client, error)
	Delete(ctx context.Context, clientID string) error
	List(ctx context.Context, pager Pagination) (domain.CursorPage[Client], error)
}

// QuoteService covers the quote lifecycle from draft to delivered PDF.
type QuoteService interface {
	Create(ctx context.Context, cmd CreateQuoteCommand) (Quote, error)
	Get(ctx context.Context, quoteID string) (QuoteDetail, error)
	List(ctx context.Context, filter QuoteListFilter) (domain.CursorPage[QuoteDetail], error)
	Send(ctx context.Context, cmd SendQuoteCommand) (Quote, error)
}

// ProductService manages the local product repository, independent of the raw
// supplier mirror.
type ProductService interface {
	List(ctx context.Context, filter ProductListFilter) (domain.CursorPage[Product], error)
	Get(ctx context.Context, productID string) (Product, error)
	Similar(ctx context.Context, productID string) ([]Product, error)
	Create(ctx context.Context, cmd CreateProductCommand) (Product, error)
	Import(ctx context.Context, cmd ImportProductsCommand) (ImportReport, error)
}

// SystemService aggregates readiness information for health endpoints.
type SystemService interface {
	HealthReport(ctx context.Context) (SystemHealthReport, error)
}

// SupplierGateway fetches one raw feed payload from the upstream supplier.
type SupplierGateway interface {
	Fetch(ctx context.Context, feed domain.FeedKey) ([]byte, error)
}

// QuotePDFRenderer turns a quote document into PDF bytes.
type QuotePDFRenderer interface {
	RenderQuotePDF(ctx context.Context, doc QuoteDocument) ([]byte, error)
}

// QuoteMailer delivers a rendered quote to the client contact.
type QuoteMailer interface {
	SendQuote(ctx context.Context, email QuoteEmail) error
}

// ObjectStore uploads binary payloads and issues time-limited download links.
type ObjectStore interface {
	Upload(ctx context.Context, bucket, object, contentType string, data []byte) error
	SignedDownloadURL(ctx context.Context, bucket, object string, ttl time.Duration) (string, error)
}

// QuoteEventPublisher announces quote lifecycle events to downstream consumers.
type QuoteEventPublisher interface {
	PublishQuoteEvent(ctx context.Context, message QuoteEventMessage) error
}

// CatalogEventPublisher announces supplier refresh cycles.
type CatalogEventPublisher interface {
	PublishCatalogRefreshed(ctx context.Context, message CatalogRefreshMessage) error
}

// Command and DTO definitions ------------------------------------------------

// FeedFetchResult summarises one feed fetch attempt inside a cycle.
type FeedFetchResult struct {
	Feed   domain.FeedKey
	Status domain.SnapshotStatus
	Size   int
	Error  string
}

// FetchReport is the outcome of a full supplier fetch cycle.
type FetchReport struct {
	Results   []FeedFetchResult
	Timestamp time.Time
}

// RawFeedData is the latest stored snapshot for one feed, payload included.
type RawFeedData struct {
	Feed      domain.FeedKey
	Payload   []byte
	FetchedAt time.Time
	Status    domain.SnapshotStatus
}

type RegisterCommand struct {
	Name     string
	Email    string
	Password string
}

type LoginCommand struct {
	Email    string
	Password string
}

// AuthResult carries the signed token together with the resolved account.
type AuthResult struct {
	Token string
	User  User
}

type CreateUserCommand struct {
	Name     string
	Email    string
	Role     string
	Password string
}

type UpdateUserCommand struct {
	UserID   string
	Name     *string
	Email    *string
	Role     *string
	Password *string
}

type AddFavoriteCommand struct {
	UserID      string
	ProductID   string
	ProductName string
}

type UpsertClientCommand struct {
	ClientID    string
	CompanyName string
	SIRET       string
	MainContact string
	Email       string
	Phone       string
}

type CreateQuoteCommand struct {
	ClientID string
	Lines    []QuoteLine
}

type SendQuoteCommand struct {
	QuoteID string
	ActorID string
}

// QuoteDetail joins a quote with its client company for display.
type QuoteDetail struct {
	Quote       Quote
	CompanyName string
}

type QuoteListFilter struct {
	ClientID   string
	Status     []string
	DateRange  domain.RangeQuery[time.Time]
	Pagination Pagination
}

type ProductListFilter = repositories.ProductListFilter

type CreateProductCommand struct {
	Name           string
	Price          float64
	ImageURL       string
	ImageData      []byte
	ImageFileName  string
	ImageMIMEType  string
	CategoryLevel1 string
	CategoryLevel2 string
	CategoryLevel3 string
	Description    string
	Stock          int
	ColorsJSON     string
	ImagesJSON     string
}

type ImportProductsCommand struct {
	MasterCodes []string
}

// ImportReport summarises an admin catalog import run.
type ImportReport struct {
	Imported []string
	Skipped  []string
}

// QuoteDocument is the renderer input for one quote PDF.
type QuoteDocument struct {
	Quote       Quote
	CompanyName string
	Contact     string
	Email       string
	GeneratedAt time.Time
}

// QuoteEmail is the delivery request for one rendered quote.
type QuoteEmail struct {
	To          string
	CompanyName string
	QuoteID     string
	DownloadURL string
	Attachment  []byte
	FileName    string
}

// QuoteEventMessage is published after a quote changes state.
type QuoteEventMessage struct {
	QuoteID    string
	ClientID   string
	Event      string
	Recipient  string
	OccurredAt time.Time
}

// CatalogRefreshMessage is published after a supplier fetch cycle completes.
type CatalogRefreshMessage struct {
	Results    []FeedFetchResult
	OccurredAt time.Time
}
