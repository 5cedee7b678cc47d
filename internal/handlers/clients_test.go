package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	domain "github.com/uniqmaker/api/internal/domain"
	"github.com/uniqmaker/api/internal/platform/auth"
	"github.com/uniqmaker/api/internal/services"
)

func newTestClientsRouter(handler *ClientHandlers) chi.Router {
	r := chi.NewRouter()
	handler.Routes(r)
	return r
}

func TestClientHandlersCreate(t *testing.T) {
	svc := &stubClientService{
		createFunc: func(ctx context.Context, cmd services.UpsertClientCommand) (domain.Client, error) {
			if cmd.CompanyName != "ACME SARL" || cmd.SIRET != "12345678900012" {
				t.Fatalf("unexpected command %+v", cmd)
			}
			return domain.Client{ID: "cl_1", CompanyName: cmd.CompanyName, SIRET: cmd.SIRET, Email: cmd.Email}, nil
		},
	}
	handler := NewClientHandlers(nil, svc)
	router := newTestClientsRouter(handler)

	body := `{"company_name":"ACME SARL","siret":"12345678900012","main_contact":"Jean","email":"jean@acme.fr","phone":"+33 1 23 45 67 89"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req = withIdentity(req, &auth.Identity{UserID: "usr_1", Role: "commercial"})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp clientPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("expected JSON response: %v", err)
	}
	if resp.ID != "cl_1" || resp.CompanyName != "ACME SARL" {
		t.Fatalf("unexpected payload %+v", resp)
	}
}

func TestClientHandlersList(t *testing.T) {
	svc := &stubClientService{
		listFunc: func(ctx context.Context, pager services.Pagination) (domain.CursorPage[domain.Client], error) {
			return domain.CursorPage[domain.Client]{
				Items:         []domain.Client{{ID: "cl_1", CompanyName: "ACME"}},
				NextPageToken: "cl_1",
			}, nil
		},
	}
	handler := NewClientHandlers(nil, svc)
	router := newTestClientsRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = withIdentity(req, &auth.Identity{UserID: "usr_1", Role: "commercial"})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp listPayload[clientPayload]
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("expected JSON response: %v", err)
	}
	if len(resp.Items) != 1 || resp.NextPageToken != "cl_1" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestClientHandlersGetNotFound(t *testing.T) {
	svc := &stubClientService{
		getFunc: func(ctx context.Context, clientID string) (domain.Client, error) {
			return domain.Client{}, services.ErrClientNotFound
		},
	}
	handler := NewClientHandlers(nil, svc)
	router := newTestClientsRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/ghost", nil)
	req = withIdentity(req, &auth.Identity{UserID: "usr_1", Role: "commercial"})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "client_not_found") {
		t.Fatalf("expected client_not_found error, got %s", rr.Body.String())
	}
}

func TestClientHandlersUpdate(t *testing.T) {
	svc := &stubClientService{
		updateFunc: func(ctx context.Context, cmd services.UpsertClientCommand) (domain.Client, error) {
			if cmd.ClientID != "cl_1" {
				t.Fatalf("unexpected client id %q", cmd.ClientID)
			}
			return domain.Client{ID: cmd.ClientID, CompanyName: cmd.CompanyName}, nil
		},
	}
	handler := NewClientHandlers(nil, svc)
	router := newTestClientsRouter(handler)

	req := httptest.NewRequest(http.MethodPut, "/cl_1", strings.NewReader(`{"company_name":"ACME Group"}`))
	req = withIdentity(req, &auth.Identity{UserID: "usr_1", Role: "commercial"})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestClientHandlersDelete(t *testing.T) {
	deleted := ""
	svc := &stubClientService{
		deleteFunc: func(ctx context.Context, clientID string) error {
			deleted = clientID
			return nil
		},
	}
	handler := NewClientHandlers(nil, svc)
	router := newTestClientsRouter(handler)

	req := httptest.NewRequest(http.MethodDelete, "/cl_1", nil)
	req = withIdentity(req, &auth.Identity{UserID: "usr_1", Role: "commercial"})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}
	if deleted != "cl_1" {
		t.Fatalf("expected cl_1 deleted, got %q", deleted)
	}
}

func TestClientHandlersInvalidInput(t *testing.T) {
	svc := &stubClientService{
		createFunc: func(ctx context.Context, cmd services.UpsertClientCommand) (domain.Client, error) {
			return domain.Client{}, services.ErrClientInvalidInput
		},
	}
	handler := NewClientHandlers(nil, svc)
	router := newTestClientsRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"company_name":""}`))
	req = withIdentity(req, &auth.Identity{UserID: "usr_1", Role: "commercial"})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}
