package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/uniqmaker/api/internal/domain"
	"github.com/uniqmaker/api/internal/platform/storage"
	"github.com/uniqmaker/api/internal/repositories"
)

const (
	eventQuoteSent = "quote.sent"

	defaultSignedURLTTL = 15 * time.Minute
	quotePDFContentType = "application/pdf"
)

var (
	// ErrQuoteInvalidInput signals the caller provided invalid arguments.
	ErrQuoteInvalidInput = errors.New("quote: invalid input")
	// ErrQuoteNotFound indicates the quote could not be located.
	ErrQuoteNotFound = errors.New("quote: not found")
	// ErrQuoteNoRecipient indicates the client company has no email address to send to.
	ErrQuoteNoRecipient = errors.New("quote: client has no email address")
)

// QuoteServiceDeps bundles the collaborators required to construct a quote service.
type QuoteServiceDeps struct {
	Quotes       repositories.QuoteRepository
	Clients      repositories.ClientRepository
	Renderer     QuotePDFRenderer
	Mailer       QuoteMailer
	Store        ObjectStore
	Bucket       string
	SignedURLTTL time.Duration
	Events       QuoteEventPublisher
	Clock        func() time.Time
	IDGenerator  func() string
	Logger       func(ctx context.Context, event string, fields map[string]any)
}

type quoteService struct {
	quotes   repositories.QuoteRepository
	clients  repositories.ClientRepository
	renderer QuotePDFRenderer
	mailer   QuoteMailer
	store    ObjectStore
	bucket   string
	urlTTL   time.Duration
	events   QuoteEventPublisher
	clock    func() time.Time
	newID    func() string
	logger   func(context.Context, string, map[string]any)
}

// NewQuoteService wires dependencies into a concrete QuoteService implementation.
func NewQuoteService(deps QuoteServiceDeps) (QuoteService, error) {
	if deps.Quotes == nil {
		return nil, errors.New("quote service: quote repository is required")
	}
	if deps.Clients == nil {
		return nil, errors.New("quote service: client repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	urlTTL := deps.SignedURLTTL
	if urlTTL <= 0 {
		urlTTL = defaultSignedURLTTL
	}

	return &quoteService{
		quotes:   deps.Quotes,
		clients:  deps.Clients,
		renderer: deps.Renderer,
		mailer:   deps.Mailer,
		store:    deps.Store,
		bucket:   strings.TrimSpace(deps.Bucket),
		urlTTL:   urlTTL,
		events:   deps.Events,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  idGen,
		logger: logger,
	}, nil
}

func (s *quoteService) Create(ctx context.Context, cmd CreateQuoteCommand) (Quote, error) {
	clientID := strings.TrimSpace(cmd.ClientID)
	if clientID == "" {
		return Quote{}, fmt.Errorf("%w: client id is required", ErrQuoteInvalidInput)
	}
	if len(cmd.Lines) == 0 {
		return Quote{}, fmt.Errorf("%w: at least one line is required", ErrQuoteInvalidInput)
	}
	lines := make([]domain.QuoteLine, 0, len(cmd.Lines))
	for _, line := range cmd.Lines {
		if strings.TrimSpace(line.ProductID) == "" {
			return Quote{}, fmt.Errorf("%w: line product id is required", ErrQuoteInvalidInput)
		}
		if line.Qty <= 0 {
			return Quote{}, fmt.Errorf("%w: line quantity must be positive", ErrQuoteInvalidInput)
		}
		if line.PriceEstimate < 0 {
			return Quote{}, fmt.Errorf("%w: line price cannot be negative", ErrQuoteInvalidInput)
		}
		lines = append(lines, domain.QuoteLine{
			ProductID:     strings.TrimSpace(line.ProductID),
			ProductName:   strings.TrimSpace(line.ProductName),
			Qty:           line.Qty,
			PriceEstimate: line.PriceEstimate,
		})
	}

	if _, err := s.clients.FindByID(ctx, clientID); err != nil {
		return Quote{}, s.mapQuoteError(err, ErrQuoteInvalidInput)
	}

	quote := domain.Quote{
		ID:        s.newID(),
		ClientID:  clientID,
		Lines:     lines,
		Status:    domain.QuoteStatusDraft,
		CreatedAt: s.clock(),
	}

	stored, err := s.quotes.Insert(ctx, quote)
	if err != nil {
		return Quote{}, s.mapQuoteError(err, ErrQuoteNotFound)
	}
	return stored, nil
}

func (s *quoteService) Get(ctx context.Context, quoteID string) (QuoteDetail, error) {
	quoteID = strings.TrimSpace(quoteID)
	if quoteID == "" {
		return QuoteDetail{}, fmt.Errorf("%w: quote id is required", ErrQuoteInvalidInput)
	}
	quote, err := s.quotes.FindByID(ctx, quoteID)
	if err != nil {
		return QuoteDetail{}, s.mapQuoteError(err, ErrQuoteNotFound)
	}
	detail := QuoteDetail{Quote: quote}
	if client, err := s.clients.FindByID(ctx, quote.ClientID); err == nil {
		detail.CompanyName = client.CompanyName
	}
	return detail, nil
}

// List returns quotes joined with the client company name, newest first.
func (s *quoteService) List(ctx context.Context, filter QuoteListFilter) (domain.CursorPage[QuoteDetail], error) {
	page, err := s.quotes.List(ctx, repositories.QuoteListFilter{
		ClientID:   strings.TrimSpace(filter.ClientID),
		Status:     filter.Status,
		DateRange:  filter.DateRange,
		Pagination: filter.Pagination,
	})
	if err != nil {
		return domain.CursorPage[QuoteDetail]{}, err
	}

	companies := map[string]string{}
	details := make([]QuoteDetail, 0, len(page.Items))
	for _, quote := range page.Items {
		name, ok := companies[quote.ClientID]
		if !ok {
			if client, err := s.clients.FindByID(ctx, quote.ClientID); err == nil {
				name = client.CompanyName
			}
			companies[quote.ClientID] = name
		}
		details = append(details, QuoteDetail{Quote: quote, CompanyName: name})
	}
	return domain.CursorPage[QuoteDetail]{
		Items:         details,
		NextPageToken: page.NextPageToken,
	}, nil
}

// Send renders the quote to PDF, stores it, mails the client contact a signed
// download link with the document attached, and marks the quote sent.
func (s *quoteService) Send(ctx context.Context, cmd SendQuoteCommand) (Quote, error) {
	quoteID := strings.TrimSpace(cmd.QuoteID)
	if quoteID == "" {
		return Quote{}, fmt.Errorf("%w: quote id is required", ErrQuoteInvalidInput)
	}
	if s.renderer == nil || s.mailer == nil || s.store == nil || s.bucket == "" {
		return Quote{}, errors.New("quote service: send pipeline is not configured")
	}

	quote, err := s.quotes.FindByID(ctx, quoteID)
	if err != nil {
		return Quote{}, s.mapQuoteError(err, ErrQuoteNotFound)
	}
	client, err := s.clients.FindByID(ctx, quote.ClientID)
	if err != nil {
		return Quote{}, s.mapQuoteError(err, ErrQuoteNotFound)
	}
	recipient := strings.TrimSpace(client.Email)
	if recipient == "" {
		return Quote{}, ErrQuoteNoRecipient
	}

	now := s.clock()
	pdf, err := s.renderer.RenderQuotePDF(ctx, QuoteDocument{
		Quote:       quote,
		CompanyName: client.CompanyName,
		Contact:     client.MainContact,
		Email:       recipient,
		GeneratedAt: now,
	})
	if err != nil {
		return Quote{}, fmt.Errorf("quote service: render pdf: %w", err)
	}

	objectPath, err := storage.BuildObjectPath(storage.PurposeQuoteDocument, storage.PathParams{
		QuoteID:  quote.ID,
		ClientID: quote.ClientID,
	})
	if err != nil {
		return Quote{}, fmt.Errorf("quote service: build object path: %w", err)
	}
	if err := s.store.Upload(ctx, s.bucket, objectPath, quotePDFContentType, pdf); err != nil {
		return Quote{}, fmt.Errorf("quote service: upload pdf: %w", err)
	}

	downloadURL, err := s.store.SignedDownloadURL(ctx, s.bucket, objectPath, s.urlTTL)
	if err != nil {
		return Quote{}, fmt.Errorf("quote service: sign download url: %w", err)
	}

	if err := s.mailer.SendQuote(ctx, QuoteEmail{
		To:          recipient,
		CompanyName: client.CompanyName,
		QuoteID:     quote.ID,
		DownloadURL: downloadURL,
		Attachment:  pdf,
		FileName:    fmt.Sprintf("devis_%s.pdf", quote.ID),
	}); err != nil {
		return Quote{}, fmt.Errorf("quote service: send mail: %w", err)
	}

	quote.Status = domain.QuoteStatusSent
	quote.PDFPath = objectPath
	quote.SentAt = now
	updated, err := s.quotes.Update(ctx, quote)
	if err != nil {
		return Quote{}, s.mapQuoteError(err, ErrQuoteNotFound)
	}

	if s.events != nil {
		message := QuoteEventMessage{
			QuoteID:    updated.ID,
			ClientID:   updated.ClientID,
			Event:      eventQuoteSent,
			Recipient:  recipient,
			OccurredAt: now,
		}
		if err := s.events.PublishQuoteEvent(ctx, message); err != nil {
			s.logger(ctx, eventQuoteSent, map[string]any{
				"quoteId": updated.ID,
				"error":   err.Error(),
			})
		}
	}

	s.logger(ctx, "quote.sent", map[string]any{"quoteId": updated.ID, "recipient": recipient})
	return updated, nil
}

// mapQuoteError converts repository not-found failures into the given
// sentinel; conflicts and transport errors pass through.
func (s *quoteService) mapQuoteError(err error, notFound error) error {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		if errors.Is(notFound, ErrQuoteInvalidInput) {
			return fmt.Errorf("%w: unknown client", ErrQuoteInvalidInput)
		}
		return notFound
	}
	return err
}
