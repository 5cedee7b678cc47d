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

const similarProductLimit = 8

// Fallback labels applied when an imported supplier product lacks categories
// or a description. Kept in French, matching the storefront locale.
const (
	importFallbackCategory1   = "Catégorie par défaut"
	importFallbackCategory2   = "Sous-catégorie par défaut"
	importFallbackCategory3   = "Sous-sous-catégorie par défaut"
	importFallbackDescription = "Pas de description disponible"
)

var (
	// ErrProductInvalidInput signals the caller provided invalid arguments.
	ErrProductInvalidInput = errors.New("product: invalid input")
	// ErrProductNotFound indicates the product could not be located.
	ErrProductNotFound = errors.New("product: not found")
)

// ProductServiceDeps bundles the collaborators required to construct a product service.
type ProductServiceDeps struct {
	Products      repositories.ProductRepository
	Catalog       CatalogService
	Store         ObjectStore
	UploadsBucket string
	Clock         func() time.Time
	IDGenerator   func() string
	Logger        func(ctx context.Context, event string, fields map[string]any)
}

type productService struct {
	products      repositories.ProductRepository
	catalog       CatalogService
	store         ObjectStore
	uploadsBucket string
	clock         func() time.Time
	newID         func() string
	logger        func(context.Context, string, map[string]any)
}

// NewProductService wires dependencies into a concrete ProductService implementation.
func NewProductService(deps ProductServiceDeps) (ProductService, error) {
	if deps.Products == nil {
		return nil, errors.New("product service: product repository is required")
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

	return &productService{
		products:      deps.Products,
		catalog:       deps.Catalog,
		store:         deps.Store,
		uploadsBucket: strings.TrimSpace(deps.UploadsBucket),
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  idGen,
		logger: logger,
	}, nil
}

func (s *productService) List(ctx context.Context, filter ProductListFilter) (domain.CursorPage[Product], error) {
	return s.products.List(ctx, filter)
}

func (s *productService) Get(ctx context.Context, productID string) (Product, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return Product{}, fmt.Errorf("%w: product id is required", ErrProductInvalidInput)
	}
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return Product{}, s.mapProductError(err)
	}
	return product, nil
}

// Similar returns products sharing the first category level, excluding the
// product itself.
func (s *productService) Similar(ctx context.Context, productID string) ([]Product, error) {
	product, err := s.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(product.CategoryLevel1) == "" {
		return []Product{}, nil
	}

	category := product.CategoryLevel1
	page, err := s.products.List(ctx, repositories.ProductListFilter{
		Category:   &category,
		Pagination: domain.Pagination{PageSize: similarProductLimit + 1},
	})
	if err != nil {
		return nil, err
	}

	similar := make([]Product, 0, similarProductLimit)
	for _, candidate := range page.Items {
		if candidate.ID == product.ID {
			continue
		}
		similar = append(similar, candidate)
		if len(similar) == similarProductLimit {
			break
		}
	}
	return similar, nil
}

// Create stores a locally authored product. When image bytes are supplied the
// image is uploaded to Cloud Storage; otherwise an external image URL may be
// referenced directly.
func (s *productService) Create(ctx context.Context, cmd CreateProductCommand) (Product, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return Product{}, fmt.Errorf("%w: name is required", ErrProductInvalidInput)
	}
	if cmd.Price < 0 {
		return Product{}, fmt.Errorf("%w: price cannot be negative", ErrProductInvalidInput)
	}
	if cmd.Stock < 0 {
		return Product{}, fmt.Errorf("%w: stock cannot be negative", ErrProductInvalidInput)
	}

	now := s.clock()
	product := domain.Product{
		ID:             s.newID(),
		Name:           name,
		Price:          cmd.Price,
		ImageURL:       strings.TrimSpace(cmd.ImageURL),
		CategoryLevel1: strings.TrimSpace(cmd.CategoryLevel1),
		CategoryLevel2: strings.TrimSpace(cmd.CategoryLevel2),
		CategoryLevel3: strings.TrimSpace(cmd.CategoryLevel3),
		Description:    strings.TrimSpace(cmd.Description),
		Stock:          cmd.Stock,
		ColorsJSON:     strings.TrimSpace(cmd.ColorsJSON),
		ImagesJSON:     strings.TrimSpace(cmd.ImagesJSON),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if len(cmd.ImageData) > 0 {
		if s.store == nil || s.uploadsBucket == "" {
			return Product{}, errors.New("product service: image upload is not configured")
		}
		fileName := strings.TrimSpace(cmd.ImageFileName)
		if fileName == "" {
			fileName = "image"
		}
		objectPath, err := storage.BuildObjectPath(storage.PurposeProductImage, storage.PathParams{
			ProductID: product.ID,
			FileName:  fileName,
		})
		if err != nil {
			return Product{}, fmt.Errorf("product service: build image path: %w", err)
		}
		contentType := strings.TrimSpace(cmd.ImageMIMEType)
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		if err := s.store.Upload(ctx, s.uploadsBucket, objectPath, contentType, cmd.ImageData); err != nil {
			return Product{}, fmt.Errorf("product service: upload image: %w", err)
		}
		product.ImagePath = objectPath
	}

	stored, err := s.products.Insert(ctx, product)
	if err != nil {
		return Product{}, s.mapProductError(err)
	}
	return stored, nil
}

// Import pulls the normalized supplier catalog and inserts the requested
// master codes into the local repository: price doubled, category and
// description fallbacks applied, first product image referenced.
func (s *productService) Import(ctx context.Context, cmd ImportProductsCommand) (ImportReport, error) {
	if s.catalog == nil {
		return ImportReport{}, errors.New("product service: catalog service is not configured")
	}
	if len(cmd.MasterCodes) == 0 {
		return ImportReport{}, fmt.Errorf("%w: master codes are required", ErrProductInvalidInput)
	}

	wanted := make(map[string]bool, len(cmd.MasterCodes))
	for _, code := range cmd.MasterCodes {
		if code = strings.TrimSpace(code); code != "" {
			wanted[code] = false
		}
	}
	if len(wanted) == 0 {
		return ImportReport{}, fmt.Errorf("%w: master codes are required", ErrProductInvalidInput)
	}

	views, err := s.catalog.Catalog(ctx)
	if err != nil {
		return ImportReport{}, err
	}

	var report ImportReport
	for _, view := range views {
		if _, ok := wanted[view.MasterCode]; !ok || wanted[view.MasterCode] {
			continue
		}
		wanted[view.MasterCode] = true

		if _, err := s.products.Insert(ctx, s.importedProduct(view)); err != nil {
			return ImportReport{}, s.mapProductError(err)
		}
		report.Imported = append(report.Imported, view.MasterCode)
	}

	for code, imported := range wanted {
		if !imported {
			report.Skipped = append(report.Skipped, code)
		}
	}

	s.logger(ctx, "product.import", map[string]any{
		"imported": len(report.Imported),
		"skipped":  len(report.Skipped),
	})
	return report, nil
}

func (s *productService) importedProduct(view UnifiedProductView) domain.Product {
	name := strings.TrimSpace(view.ProductName)
	if name == "" {
		name = "Produit " + view.MasterCode
	}

	price := 0.0
	if view.Price != nil {
		price = *view.Price * 2
	}

	description := strings.TrimSpace(view.LongDescription)
	if description == "" {
		description = importFallbackDescription
	}

	imageURL := ""
	if len(view.Images) > 0 {
		imageURL = view.Images[0].URL
	}

	now := s.clock()
	return domain.Product{
		ID:             s.newID(),
		Name:           name,
		Price:          price,
		ImageURL:       imageURL,
		CategoryLevel1: categoryOrFallback(view.CategoryLevel1, importFallbackCategory1),
		CategoryLevel2: categoryOrFallback(view.CategoryLevel2, importFallbackCategory2),
		CategoryLevel3: categoryOrFallback(view.CategoryLevel3, importFallbackCategory3),
		Description:    description,
		Stock:          view.Stock,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func categoryOrFallback(category *string, fallback string) string {
	if category != nil && strings.TrimSpace(*category) != "" {
		return *category
	}
	return fallback
}

func (s *productService) mapProductError(err error) error {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return ErrProductNotFound
	}
	return err
}
