package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/uniqmaker/api/internal/catalog"
	domain "github.com/uniqmaker/api/internal/domain"
	"github.com/uniqmaker/api/internal/platform/auth"
	"github.com/uniqmaker/api/internal/platform/httpx"
	"github.com/uniqmaker/api/internal/services"
)

// SupplierHandlers exposes the supplier mirror: fetch cycles, raw snapshot
// access and the normalized catalog views.
type SupplierHandlers struct {
	authn   *auth.Authenticator
	catalog services.CatalogService
}

// NewSupplierHandlers constructs the /supplier handlers.
func NewSupplierHandlers(authn *auth.Authenticator, catalogSvc services.CatalogService) *SupplierHandlers {
	return &SupplierHandlers{
		authn:   authn,
		catalog: catalogSvc,
	}
}

// Routes wires the authenticated /supplier endpoints onto the provided router.
func (h *SupplierHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireAuth())
	}
	r.Post("/fetch", h.fetch)
	r.Get("/data", h.data)
	r.Get("/catalog", h.normalizedCatalog)
	r.Get("/print-data/{masterCode}", h.printData)
}

// InternalRoutes wires the server-to-server refresh trigger. Authentication
// is applied by the router's internal middleware chain.
func (h *SupplierHandlers) InternalRoutes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/supplier/refresh", h.fetch)
}

type feedResultPayload struct {
	Status string `json:"status"`
	Size   int    `json:"size"`
	Error  string `json:"error,omitempty"`
}

type fetchResponse struct {
	Results   map[string]feedResultPayload `json:"results"`
	Timestamp string                       `json:"timestamp"`
}

func (h *SupplierHandlers) fetch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	report, err := h.catalog.FetchAll(ctx)
	if err != nil {
		writeSupplierError(ctx, w, err)
		return
	}

	resp := fetchResponse{
		Results:   make(map[string]feedResultPayload, len(report.Results)),
		Timestamp: formatTime(report.Timestamp),
	}
	for _, result := range report.Results {
		resp.Results[string(result.Feed)] = feedResultPayload{
			Status: string(result.Status),
			Size:   result.Size,
			Error:  result.Error,
		}
	}
	writeJSONResponse(w, http.StatusOK, resp)
}

type rawFeedPayload struct {
	Status    string          `json:"status"`
	FetchedAt string          `json:"fetched_at"`
	Payload   json.RawMessage `json:"payload"`
}

func (h *SupplierHandlers) data(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	feeds, err := h.catalog.RawData(ctx)
	if err != nil {
		writeSupplierError(ctx, w, err)
		return
	}

	resp := make(map[string]rawFeedPayload, len(feeds))
	for _, feed := range feeds {
		payload := json.RawMessage(feed.Payload)
		if !json.Valid(payload) {
			payload, _ = json.Marshal(string(feed.Payload))
		}
		resp[string(feed.Feed)] = rawFeedPayload{
			Status:    string(feed.Status),
			FetchedAt: formatTime(feed.FetchedAt),
			Payload:   payload,
		}
	}
	writeJSONResponse(w, http.StatusOK, resp)
}

type normalizedCatalogResponse struct {
	Products []domain.UnifiedProductView `json:"products_with_images"`
}

func (h *SupplierHandlers) normalizedCatalog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	views, err := h.catalog.Catalog(ctx)
	if err != nil {
		writeSupplierError(ctx, w, err)
		return
	}
	if views == nil {
		views = []domain.UnifiedProductView{}
	}
	writeJSONResponse(w, http.StatusOK, normalizedCatalogResponse{Products: views})
}

type printDataResponse struct {
	Status string                `json:"status"`
	Data   *domain.PrintDataView `json:"data"`
}

func (h *SupplierHandlers) printData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := h.catalog.PrintData(ctx, strings.TrimSpace(chi.URLParam(r, "masterCode")))
	if err != nil {
		writeSupplierError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, printDataResponse{Status: "success", Data: view})
}

// writeCatalogError maps the catalog error taxonomy onto the JSON envelope.
// Returns false when err does not belong to the catalog package.
func writeCatalogError(ctx context.Context, w http.ResponseWriter, err error) bool {
	var formatErr *catalog.FormatError
	switch {
	case errors.Is(err, catalog.ErrNoSnapshot):
		httpx.WriteError(ctx, w, httpx.NewError("no_snapshot", "no supplier snapshot available", http.StatusNotFound))
	case errors.Is(err, catalog.ErrNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("master_code_not_found", "master code not found", http.StatusNotFound))
	case errors.As(err, &formatErr):
		httpx.WriteError(ctx, w, httpx.NewError("snapshot_format_error", "stored snapshot could not be decoded", http.StatusInternalServerError))
	default:
		return false
	}
	return true
}

func writeSupplierError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCatalogInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	if writeCatalogError(ctx, w, err) {
		return
	}
	if writeRepositoryError(ctx, w, err, "snapshot") {
		return
	}
	httpx.WriteError(ctx, w, httpx.NewError("supplier_error", err.Error(), http.StatusInternalServerError))
}
