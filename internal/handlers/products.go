package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/uniqmaker/api/internal/domain"
	"github.com/uniqmaker/api/internal/platform/auth"
	"github.com/uniqmaker/api/internal/platform/httpx"
	"github.com/uniqmaker/api/internal/services"
)

const maxProductImageSize = 10 << 20

// ProductHandlers exposes the local product repository: public reads plus
// admin-only creation and supplier import.
type ProductHandlers struct {
	authn    *auth.Authenticator
	products services.ProductService
}

// NewProductHandlers constructs the /products handlers.
func NewProductHandlers(authn *auth.Authenticator, products services.ProductService) *ProductHandlers {
	return &ProductHandlers{
		authn:    authn,
		products: products,
	}
}

// Routes wires the /products endpoints onto the provided router.
func (h *ProductHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.list)
	r.Get("/{productID}", h.get)
	r.Get("/{productID}/similar", h.similar)

	if h.authn != nil {
		r.With(h.authn.RequireAuth(auth.RoleAdmin)).Post("/", h.create)
	} else {
		r.Post("/", h.create)
	}
}

// AdminRoutes wires the /admin endpoints onto the provided router.
func (h *ProductHandlers) AdminRoutes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireAuth(auth.RoleAdmin))
	}
	r.Post("/import", h.importProducts)
}

type productPayload struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Price          float64 `json:"price"`
	ImagePath      string  `json:"image_path,omitempty"`
	ImageURL       string  `json:"image_url,omitempty"`
	CategoryLevel1 string  `json:"category_level1,omitempty"`
	CategoryLevel2 string  `json:"category_level2,omitempty"`
	CategoryLevel3 string  `json:"category_level3,omitempty"`
	Description    string  `json:"description,omitempty"`
	Stock          int     `json:"stock"`
	Rating         float64 `json:"rating,omitempty"`
	CreatedAt      string  `json:"created_at,omitempty"`
	UpdatedAt      string  `json:"updated_at,omitempty"`
}

func buildProductPayload(product domain.Product) productPayload {
	return productPayload{
		ID:             product.ID,
		Name:           product.Name,
		Price:          product.Price,
		ImagePath:      product.ImagePath,
		ImageURL:       product.ImageURL,
		CategoryLevel1: product.CategoryLevel1,
		CategoryLevel2: product.CategoryLevel2,
		CategoryLevel3: product.CategoryLevel3,
		Description:    product.Description,
		Stock:          product.Stock,
		Rating:         product.Rating,
		CreatedAt:      formatTime(product.CreatedAt),
		UpdatedAt:      formatTime(product.UpdatedAt),
	}
}

func (h *ProductHandlers) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter := services.ProductListFilter{
		Search:     strings.TrimSpace(r.URL.Query().Get("search")),
		Pagination: parsePagination(r),
	}
	if category := strings.TrimSpace(r.URL.Query().Get("category")); category != "" {
		filter.Category = &category
	}

	page, err := h.products.List(ctx, filter)
	if err != nil {
		writeProductError(ctx, w, err)
		return
	}

	payload := listPayload[productPayload]{Items: make([]productPayload, 0, len(page.Items)), NextPageToken: page.NextPageToken}
	for _, product := range page.Items {
		payload.Items = append(payload.Items, buildProductPayload(product))
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

func (h *ProductHandlers) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	product, err := h.products.Get(ctx, strings.TrimSpace(chi.URLParam(r, "productID")))
	if err != nil {
		writeProductError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildProductPayload(product))
}

func (h *ProductHandlers) similar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	similar, err := h.products.Similar(ctx, strings.TrimSpace(chi.URLParam(r, "productID")))
	if err != nil {
		writeProductError(ctx, w, err)
		return
	}

	payload := make([]productPayload, 0, len(similar))
	for _, product := range similar {
		payload = append(payload, buildProductPayload(product))
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

// create accepts either multipart form data (with an optional image file) or a
// plain JSON document referencing an external image URL.
func (h *ProductHandlers) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		cmd services.CreateProductCommand
		err error
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		cmd, err = parseProductForm(r)
	} else {
		cmd, err = parseProductJSON(r)
	}
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	product, err := h.products.Create(ctx, cmd)
	if err != nil {
		writeProductError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, buildProductPayload(product))
}

func parseProductJSON(r *http.Request) (services.CreateProductCommand, error) {
	var body struct {
		Name           string  `json:"name"`
		Price          float64 `json:"price"`
		ImageURL       string  `json:"image_url"`
		CategoryLevel1 string  `json:"category_level1"`
		CategoryLevel2 string  `json:"category_level2"`
		CategoryLevel3 string  `json:"category_level3"`
		Description    string  `json:"description"`
		Stock          int     `json:"stock"`
		Colors         string  `json:"colors"`
		Images         string  `json:"images"`
	}
	if err := decodeJSONBody(r, &body); err != nil {
		return services.CreateProductCommand{}, errors.New("invalid JSON payload")
	}
	return services.CreateProductCommand{
		Name:           body.Name,
		Price:          body.Price,
		ImageURL:       body.ImageURL,
		CategoryLevel1: body.CategoryLevel1,
		CategoryLevel2: body.CategoryLevel2,
		CategoryLevel3: body.CategoryLevel3,
		Description:    body.Description,
		Stock:          body.Stock,
		ColorsJSON:     body.Colors,
		ImagesJSON:     body.Images,
	}, nil
}

func parseProductForm(r *http.Request) (services.CreateProductCommand, error) {
	if err := r.ParseMultipartForm(maxProductImageSize); err != nil {
		return services.CreateProductCommand{}, errors.New("invalid multipart form")
	}

	cmd := services.CreateProductCommand{
		Name:           strings.TrimSpace(r.FormValue("name")),
		ImageURL:       strings.TrimSpace(r.FormValue("image_url")),
		CategoryLevel1: strings.TrimSpace(r.FormValue("category_level1")),
		CategoryLevel2: strings.TrimSpace(r.FormValue("category_level2")),
		CategoryLevel3: strings.TrimSpace(r.FormValue("category_level3")),
		Description:    strings.TrimSpace(r.FormValue("description")),
		ColorsJSON:     strings.TrimSpace(r.FormValue("colors")),
		ImagesJSON:     strings.TrimSpace(r.FormValue("images")),
	}

	if raw := strings.TrimSpace(r.FormValue("price")); raw != "" {
		price, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
		if err != nil {
			return services.CreateProductCommand{}, errors.New("price must be a number")
		}
		cmd.Price = price
	}
	if raw := strings.TrimSpace(r.FormValue("stock")); raw != "" {
		stock, err := strconv.Atoi(raw)
		if err != nil {
			return services.CreateProductCommand{}, errors.New("stock must be an integer")
		}
		cmd.Stock = stock
	}

	file, header, err := r.FormFile("image")
	switch {
	case err == nil:
		defer file.Close()
		data, readErr := io.ReadAll(io.LimitReader(file, maxProductImageSize))
		if readErr != nil {
			return services.CreateProductCommand{}, errors.New("could not read image upload")
		}
		cmd.ImageData = data
		cmd.ImageFileName = header.Filename
		cmd.ImageMIMEType = header.Header.Get("Content-Type")
	case errors.Is(err, http.ErrMissingFile):
		// Image is optional; an external URL may be used instead.
	default:
		return services.CreateProductCommand{}, errors.New("invalid image upload")
	}

	return cmd, nil
}

type importRequest struct {
	MasterCodes []string `json:"master_codes"`
}

type importResponse struct {
	Imported []string `json:"imported"`
	Skipped  []string `json:"skipped"`
}

func (h *ProductHandlers) importProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req importRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	report, err := h.products.Import(ctx, services.ImportProductsCommand{MasterCodes: req.MasterCodes})
	if err != nil {
		writeProductError(ctx, w, err)
		return
	}

	resp := importResponse{Imported: report.Imported, Skipped: report.Skipped}
	if resp.Imported == nil {
		resp.Imported = []string{}
	}
	if resp.Skipped == nil {
		resp.Skipped = []string{}
	}
	writeJSONResponse(w, http.StatusOK, resp)
}

func writeProductError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrProductInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	default:
		if writeCatalogError(ctx, w, err) {
			return
		}
		if writeRepositoryError(ctx, w, err, "product") {
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("product_error", err.Error(), http.StatusInternalServerError))
	}
}
