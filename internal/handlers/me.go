package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/uniqmaker/api/internal/domain"
	"github.com/uniqmaker/api/internal/platform/auth"
	"github.com/uniqmaker/api/internal/platform/httpx"
	"github.com/uniqmaker/api/internal/services"
)

// MeHandlers exposes the authenticated self-service endpoints: the current
// profile and the favorites list.
type MeHandlers struct {
	authn *auth.Authenticator
	users services.UserService
}

// NewMeHandlers constructs the /me handlers.
func NewMeHandlers(authn *auth.Authenticator, users services.UserService) *MeHandlers {
	return &MeHandlers{
		authn: authn,
		users: users,
	}
}

// Routes wires the /me endpoints onto the provided router.
func (h *MeHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireAuth())
	}
	r.Get("/", h.getProfile)
	r.Route("/favorites", h.favoriteRoutes)
}

func (h *MeHandlers) getProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.users == nil {
		httpx.WriteError(ctx, w, httpx.NewError("user_service_unavailable", "user service is unavailable", http.StatusServiceUnavailable))
		return
	}
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	user, err := h.users.GetUser(ctx, identity.UserID)
	if err != nil {
		// The bootstrap admin has no stored account; answer from the token.
		if errors.Is(err, services.ErrUserNotFound) && identity.HasRole(auth.RoleAdmin) {
			writeJSONResponse(w, http.StatusOK, userPayload{
				ID:    identity.UserID,
				Name:  identity.Name,
				Email: identity.Email,
				Role:  identity.Role,
			})
			return
		}
		writeUserError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildUserPayload(user))
}

func (h *MeHandlers) favoriteRoutes(r chi.Router) {
	r.Get("/", h.listFavorites)
	r.Put("/{productID}", h.addFavorite)
	r.Delete("/{productID}", h.removeFavorite)
}

type favoritePayload struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name,omitempty"`
	AddedAt     string `json:"added_at"`
}

func buildFavoritePayload(fav domain.Favorite) favoritePayload {
	return favoritePayload{
		ProductID:   fav.ProductID,
		ProductName: fav.ProductName,
		AddedAt:     formatTime(fav.AddedAt),
	}
}

func (h *MeHandlers) listFavorites(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	page, err := h.users.ListFavorites(ctx, identity.UserID, parsePagination(r))
	if err != nil {
		writeUserError(ctx, w, err)
		return
	}

	payload := listPayload[favoritePayload]{Items: make([]favoritePayload, 0, len(page.Items)), NextPageToken: page.NextPageToken}
	for _, fav := range page.Items {
		payload.Items = append(payload.Items, buildFavoritePayload(fav))
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

type addFavoriteRequest struct {
	ProductName string `json:"product_name"`
}

func (h *MeHandlers) addFavorite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if productID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product id is required", http.StatusBadRequest))
		return
	}

	// The body is optional; it only carries the display name.
	var req addFavoriteRequest
	if r.ContentLength > 0 {
		if err := decodeJSONBody(r, &req); err != nil {
			writeBodyError(ctx, w, err)
			return
		}
	}

	fav, created, err := h.users.AddFavorite(ctx, services.AddFavoriteCommand{
		UserID:      identity.UserID,
		ProductID:   productID,
		ProductName: req.ProductName,
	})
	if err != nil {
		writeUserError(ctx, w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSONResponse(w, status, buildFavoritePayload(fav))
}

func (h *MeHandlers) removeFavorite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if productID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product id is required", http.StatusBadRequest))
		return
	}

	if err := h.users.RemoveFavorite(ctx, identity.UserID, productID); err != nil {
		writeUserError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
