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

// ClientHandlers exposes CRUD endpoints for the B2B client companies.
type ClientHandlers struct {
	authn   *auth.Authenticator
	clients services.ClientService
}

// NewClientHandlers constructs the /clients handlers.
func NewClientHandlers(authn *auth.Authenticator, clients services.ClientService) *ClientHandlers {
	return &ClientHandlers{
		authn:   authn,
		clients: clients,
	}
}

// Routes wires the /clients endpoints onto the provided router.
func (h *ClientHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireAuth())
	}
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{clientID}", h.get)
	r.Put("/{clientID}", h.update)
	r.Delete("/{clientID}", h.remove)
}

type clientPayload struct {
	ID          string `json:"id"`
	CompanyName string `json:"company_name"`
	SIRET       string `json:"siret,omitempty"`
	MainContact string `json:"main_contact,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

func buildClientPayload(client domain.Client) clientPayload {
	return clientPayload{
		ID:          client.ID,
		CompanyName: client.CompanyName,
		SIRET:       client.SIRET,
		MainContact: client.MainContact,
		Email:       client.Email,
		Phone:       client.Phone,
		CreatedAt:   formatTime(client.CreatedAt),
		UpdatedAt:   formatTime(client.UpdatedAt),
	}
}

type upsertClientRequest struct {
	CompanyName string `json:"company_name"`
	SIRET       string `json:"siret"`
	MainContact string `json:"main_contact"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
}

func (h *ClientHandlers) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, err := h.clients.List(ctx, parsePagination(r))
	if err != nil {
		writeClientError(ctx, w, err)
		return
	}

	payload := listPayload[clientPayload]{Items: make([]clientPayload, 0, len(page.Items)), NextPageToken: page.NextPageToken}
	for _, client := range page.Items {
		payload.Items = append(payload.Items, buildClientPayload(client))
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

func (h *ClientHandlers) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req upsertClientRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	client, err := h.clients.Create(ctx, services.UpsertClientCommand{
		CompanyName: req.CompanyName,
		SIRET:       req.SIRET,
		MainContact: req.MainContact,
		Email:       req.Email,
		Phone:       req.Phone,
	})
	if err != nil {
		writeClientError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, buildClientPayload(client))
}

func (h *ClientHandlers) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	client, err := h.clients.Get(ctx, strings.TrimSpace(chi.URLParam(r, "clientID")))
	if err != nil {
		writeClientError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildClientPayload(client))
}

func (h *ClientHandlers) update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req upsertClientRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	client, err := h.clients.Update(ctx, services.UpsertClientCommand{
		ClientID:    strings.TrimSpace(chi.URLParam(r, "clientID")),
		CompanyName: req.CompanyName,
		SIRET:       req.SIRET,
		MainContact: req.MainContact,
		Email:       req.Email,
		Phone:       req.Phone,
	})
	if err != nil {
		writeClientError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildClientPayload(client))
}

func (h *ClientHandlers) remove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.clients.Delete(ctx, strings.TrimSpace(chi.URLParam(r, "clientID"))); err != nil {
		writeClientError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeClientError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrClientNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("client_not_found", "client not found", http.StatusNotFound))
	case errors.Is(err, services.ErrClientInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	default:
		if writeRepositoryError(ctx, w, err, "client") {
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("client_error", err.Error(), http.StatusInternalServerError))
	}
}
