package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/uniqmaker/api/internal/domain"
	"github.com/uniqmaker/api/internal/platform/auth"
	"github.com/uniqmaker/api/internal/platform/httpx"
	"github.com/uniqmaker/api/internal/services"
)

// QuoteHandlers exposes the quote lifecycle endpoints.
type QuoteHandlers struct {
	authn       *auth.Authenticator
	quotes      services.QuoteService
	idempotency func(http.Handler) http.Handler
}

// QuoteOption customises the quote handlers.
type QuoteOption func(*QuoteHandlers)

// WithQuoteIdempotency guards the mutating quote endpoints with the supplied
// idempotency middleware. It runs after authentication so replay records are
// scoped to the calling user.
func WithQuoteIdempotency(middleware func(http.Handler) http.Handler) QuoteOption {
	return func(h *QuoteHandlers) {
		h.idempotency = middleware
	}
}

// NewQuoteHandlers constructs the /quotes handlers.
func NewQuoteHandlers(authn *auth.Authenticator, quotes services.QuoteService, opts ...QuoteOption) *QuoteHandlers {
	h := &QuoteHandlers{
		authn:  authn,
		quotes: quotes,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes wires the /quotes endpoints onto the provided router.
func (h *QuoteHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireAuth())
	}
	if h.idempotency != nil {
		r.Use(h.idempotency)
	}
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{quoteID}", h.get)
	r.Post("/{quoteID}/send", h.send)
}

type quotePayload struct {
	ID          string             `json:"id"`
	ClientID    string             `json:"client_id"`
	CompanyName string             `json:"company_name,omitempty"`
	Lines       []domain.QuoteLine `json:"lines"`
	Status      string             `json:"status"`
	PDFPath     string             `json:"pdf_path,omitempty"`
	CreatedAt   string             `json:"created_at,omitempty"`
	SentAt      string             `json:"sent_at,omitempty"`
}

func buildQuotePayload(quote domain.Quote, companyName string) quotePayload {
	return quotePayload{
		ID:          quote.ID,
		ClientID:    quote.ClientID,
		CompanyName: companyName,
		Lines:       quote.Lines,
		Status:      quote.Status,
		PDFPath:     quote.PDFPath,
		CreatedAt:   formatTime(quote.CreatedAt),
		SentAt:      formatTime(quote.SentAt),
	}
}

func (h *QuoteHandlers) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter := services.QuoteListFilter{
		ClientID:   strings.TrimSpace(r.URL.Query().Get("client_id")),
		Pagination: parsePagination(r),
	}
	if status := strings.TrimSpace(r.URL.Query().Get("status")); status != "" {
		filter.Status = strings.Split(status, ",")
	}

	page, err := h.quotes.List(ctx, filter)
	if err != nil {
		writeQuoteError(ctx, w, err)
		return
	}

	payload := listPayload[quotePayload]{Items: make([]quotePayload, 0, len(page.Items)), NextPageToken: page.NextPageToken}
	for _, detail := range page.Items {
		payload.Items = append(payload.Items, buildQuotePayload(detail.Quote, detail.CompanyName))
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

type createQuoteRequest struct {
	ClientID string             `json:"client_id"`
	Lines    []domain.QuoteLine `json:"lines"`
}

func (h *QuoteHandlers) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req createQuoteRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	quote, err := h.quotes.Create(ctx, services.CreateQuoteCommand{
		ClientID: req.ClientID,
		Lines:    req.Lines,
	})
	if err != nil {
		writeQuoteError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, buildQuotePayload(quote, ""))
}

func (h *QuoteHandlers) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	detail, err := h.quotes.Get(ctx, strings.TrimSpace(chi.URLParam(r, "quoteID")))
	if err != nil {
		writeQuoteError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildQuotePayload(detail.Quote, detail.CompanyName))
}

func (h *QuoteHandlers) send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	quote, err := h.quotes.Send(ctx, services.SendQuoteCommand{
		QuoteID: strings.TrimSpace(chi.URLParam(r, "quoteID")),
		ActorID: identity.UserID,
	})
	if err != nil {
		writeQuoteError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildQuotePayload(quote, ""))
}

func writeQuoteError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrQuoteNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("quote_not_found", "quote not found", http.StatusNotFound))
	case errors.Is(err, services.ErrQuoteNoRecipient):
		httpx.WriteError(ctx, w, httpx.NewError("quote_no_recipient", "client has no email address", http.StatusBadRequest))
	case errors.Is(err, services.ErrQuoteInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	default:
		if writeRepositoryError(ctx, w, err, "quote") {
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("quote_error", err.Error(), http.StatusInternalServerError))
	}
}
