package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/uniqmaker/api/internal/domain"
	pfirestore "github.com/uniqmaker/api/internal/platform/firestore"
	"github.com/uniqmaker/api/internal/repositories"
)

const quoteCollection = "quotes"

// QuoteRepository persists quote simulations.
type QuoteRepository struct {
	base *pfirestore.BaseRepository[quoteDocument]
}

// NewQuoteRepository constructs a Firestore-backed quote repository.
func NewQuoteRepository(provider *pfirestore.Provider) (*QuoteRepository, error) {
	if provider == nil {
		return nil, errors.New("quote repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[quoteDocument](provider, quoteCollection, nil, nil)
	return &QuoteRepository{base: base}, nil
}

// Insert creates a new quote document.
func (r *QuoteRepository) Insert(ctx context.Context, quote domain.Quote) (domain.Quote, error) {
	if r == nil || r.base == nil {
		return domain.Quote{}, errors.New("quote repository not initialised")
	}
	if strings.TrimSpace(quote.ID) == "" {
		return domain.Quote{}, errors.New("quote repository: quote id is required")
	}
	if quote.CreatedAt.IsZero() {
		quote.CreatedAt = time.Now().UTC()
	}
	if _, err := r.base.Set(ctx, quote.ID, fromDomainQuote(quote)); err != nil {
		return domain.Quote{}, err
	}
	return quote, nil
}

// Update overwrites the quote document, preserving the original creation time.
func (r *QuoteRepository) Update(ctx context.Context, quote domain.Quote) (domain.Quote, error) {
	if r == nil || r.base == nil {
		return domain.Quote{}, errors.New("quote repository not initialised")
	}
	if strings.TrimSpace(quote.ID) == "" {
		return domain.Quote{}, errors.New("quote repository: quote id is required")
	}
	existing, err := r.base.Get(ctx, quote.ID)
	if err != nil {
		return domain.Quote{}, err
	}
	if quote.CreatedAt.IsZero() {
		quote.CreatedAt = existing.Data.CreatedAt
	}
	if _, err := r.base.Set(ctx, quote.ID, fromDomainQuote(quote)); err != nil {
		return domain.Quote{}, err
	}
	return quote, nil
}

// FindByID loads a quote by id.
func (r *QuoteRepository) FindByID(ctx context.Context, quoteID string) (domain.Quote, error) {
	if r == nil || r.base == nil {
		return domain.Quote{}, errors.New("quote repository not initialised")
	}
	if strings.TrimSpace(quoteID) == "" {
		return domain.Quote{}, errors.New("quote repository: quote id is required")
	}
	doc, err := r.base.Get(ctx, quoteID)
	if err != nil {
		return domain.Quote{}, err
	}
	return toDomainQuote(doc), nil
}

// List returns quotes newest first, optionally filtered by client and status.
func (r *QuoteRepository) List(ctx context.Context, filter repositories.QuoteListFilter) (domain.CursorPage[domain.Quote], error) {
	if r == nil || r.base == nil {
		return domain.CursorPage[domain.Quote]{}, errors.New("quote repository not initialised")
	}

	pager := filter.Pagination
	limit := pager.PageSize
	if limit < 0 {
		limit = 0
	}
	fetchLimit := 0
	if limit > 0 {
		fetchLimit = limit + 1
	}

	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		if clientID := strings.TrimSpace(filter.ClientID); clientID != "" {
			query = query.Where("clientId", "==", clientID)
		}
		if len(filter.Status) > 0 {
			query = query.Where("status", "in", filter.Status)
		}
		if filter.DateRange.From != nil {
			query = query.Where("createdAt", ">=", filter.DateRange.From.UTC())
		}
		if filter.DateRange.To != nil {
			query = query.Where("createdAt", "<", filter.DateRange.To.UTC())
		}
		query = query.
			OrderBy("createdAt", firestore.Desc).
			OrderBy(firestore.DocumentID, firestore.Desc)
		if token := strings.TrimSpace(pager.PageToken); token != "" {
			if tokenTime, tokenID, err := decodeCursorToken(token); err == nil {
				query = query.StartAfter(tokenTime, tokenID)
			}
		}
		if fetchLimit > 0 {
			query = query.Limit(fetchLimit)
		}
		return query
	})
	if err != nil {
		return domain.CursorPage[domain.Quote]{}, err
	}

	nextToken := ""
	if fetchLimit > 0 && len(docs) == fetchLimit {
		last := docs[len(docs)-2]
		nextToken = encodeCursorToken(last.Data.CreatedAt, last.ID)
		docs = docs[:len(docs)-1]
	}

	items := make([]domain.Quote, 0, len(docs))
	for _, doc := range docs {
		items = append(items, toDomainQuote(doc))
	}
	return domain.CursorPage[domain.Quote]{Items: items, NextPageToken: nextToken}, nil
}

type quoteDocument struct {
	ClientID  string              `firestore:"clientId"`
	Lines     []quoteLineDocument `firestore:"lines"`
	Status    string              `firestore:"status"`
	PDFPath   string              `firestore:"pdfPath"`
	CreatedAt time.Time           `firestore:"createdAt"`
	SentAt    time.Time           `firestore:"sentAt"`
}

type quoteLineDocument struct {
	ProductID     string  `firestore:"productId"`
	ProductName   string  `firestore:"productName"`
	Qty           int     `firestore:"qty"`
	PriceEstimate float64 `firestore:"priceEstimate"`
}

func fromDomainQuote(quote domain.Quote) quoteDocument {
	lines := make([]quoteLineDocument, 0, len(quote.Lines))
	for _, line := range quote.Lines {
		lines = append(lines, quoteLineDocument{
			ProductID:     line.ProductID,
			ProductName:   line.ProductName,
			Qty:           line.Qty,
			PriceEstimate: line.PriceEstimate,
		})
	}
	return quoteDocument{
		ClientID:  strings.TrimSpace(quote.ClientID),
		Lines:     lines,
		Status:    quote.Status,
		PDFPath:   quote.PDFPath,
		CreatedAt: quote.CreatedAt.UTC(),
		SentAt:    quote.SentAt.UTC(),
	}
}

func toDomainQuote(doc pfirestore.Document[quoteDocument]) domain.Quote {
	lines := make([]domain.QuoteLine, 0, len(doc.Data.Lines))
	for _, line := range doc.Data.Lines {
		lines = append(lines, domain.QuoteLine{
			ProductID:     line.ProductID,
			ProductName:   line.ProductName,
			Qty:           line.Qty,
			PriceEstimate: line.PriceEstimate,
		})
	}
	return domain.Quote{
		ID:        doc.ID,
		ClientID:  doc.Data.ClientID,
		Lines:     lines,
		Status:    doc.Data.Status,
		PDFPath:   doc.Data.PDFPath,
		CreatedAt: doc.Data.CreatedAt,
		SentAt:    doc.Data.SentAt,
	}
}

// Ensure interface compliance.
var _ repositories.QuoteRepository = (*QuoteRepository)(nil)
