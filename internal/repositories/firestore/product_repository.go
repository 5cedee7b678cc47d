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

const productCollection = "products"

// ProductRepository stores locally authored catalog entries.
type ProductRepository struct {
	base *pfirestore.BaseRepository[productDocument]
}

// NewProductRepository constructs a Firestore-backed product repository.
func NewProductRepository(provider *pfirestore.Provider) (*ProductRepository, error) {
	if provider == nil {
		return nil, errors.New("product repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[productDocument](provider, productCollection, nil, nil)
	return &ProductRepository{base: base}, nil
}

// Insert creates a new product document.
func (r *ProductRepository) Insert(ctx context.Context, product domain.Product) (domain.Product, error) {
	if r == nil || r.base == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	if strings.TrimSpace(product.ID) == "" {
		return domain.Product{}, errors.New("product repository: product id is required")
	}
	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now
	if _, err := r.base.Set(ctx, product.ID, fromDomainProduct(product)); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

// Update overwrites the product document.
func (r *ProductRepository) Update(ctx context.Context, product domain.Product) (domain.Product, error) {
	if r == nil || r.base == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	if strings.TrimSpace(product.ID) == "" {
		return domain.Product{}, errors.New("product repository: product id is required")
	}
	existing, err := r.base.Get(ctx, product.ID)
	if err != nil {
		return domain.Product{}, err
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = existing.Data.CreatedAt
	}
	product.UpdatedAt = time.Now().UTC()
	if _, err := r.base.Set(ctx, product.ID, fromDomainProduct(product)); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

// Delete removes the product document.
func (r *ProductRepository) Delete(ctx context.Context, productID string) error {
	if r == nil || r.base == nil {
		return errors.New("product repository not initialised")
	}
	if strings.TrimSpace(productID) == "" {
		return errors.New("product repository: product id is required")
	}
	ref, err := r.base.DocumentRef(ctx, productID)
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx); err != nil {
		return pfirestore.WrapError("products.delete", err)
	}
	return nil
}

// FindByID loads a product by id.
func (r *ProductRepository) FindByID(ctx context.Context, productID string) (domain.Product, error) {
	if r == nil || r.base == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	if strings.TrimSpace(productID) == "" {
		return domain.Product{}, errors.New("product repository: product id is required")
	}
	doc, err := r.base.Get(ctx, productID)
	if err != nil {
		return domain.Product{}, err
	}
	return toDomainProduct(doc), nil
}

// List returns products newest first. Search filtering happens in memory on
// the fetched page because Firestore has no substring queries; category
// filtering is pushed down.
func (r *ProductRepository) List(ctx context.Context, filter repositories.ProductListFilter) (domain.CursorPage[domain.Product], error) {
	if r == nil || r.base == nil {
		return domain.CursorPage[domain.Product]{}, errors.New("product repository not initialised")
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
		if filter.Category != nil && strings.TrimSpace(*filter.Category) != "" {
			query = query.Where("categoryLevel1", "==", strings.TrimSpace(*filter.Category))
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
		return domain.CursorPage[domain.Product]{}, err
	}

	nextToken := ""
	if fetchLimit > 0 && len(docs) == fetchLimit {
		last := docs[len(docs)-2]
		nextToken = encodeCursorToken(last.Data.CreatedAt, last.ID)
		docs = docs[:len(docs)-1]
	}

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	items := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		product := toDomainProduct(doc)
		if search != "" && !strings.Contains(strings.ToLower(product.Name), search) {
			continue
		}
		items = append(items, product)
	}
	return domain.CursorPage[domain.Product]{Items: items, NextPageToken: nextToken}, nil
}

type productDocument struct {
	Name           string    `firestore:"name"`
	Price          float64   `firestore:"price"`
	ImagePath      string    `firestore:"imagePath"`
	ImageURL       string    `firestore:"imageUrl"`
	CategoryLevel1 string    `firestore:"categoryLevel1"`
	CategoryLevel2 string    `firestore:"categoryLevel2"`
	CategoryLevel3 string    `firestore:"categoryLevel3"`
	Description    string    `firestore:"description"`
	Stock          int       `firestore:"stock"`
	Rating         float64   `firestore:"rating"`
	ColorsJSON     string    `firestore:"colorsJson"`
	ImagesJSON     string    `firestore:"imagesJson"`
	CreatedAt      time.Time `firestore:"createdAt"`
	UpdatedAt      time.Time `firestore:"updatedAt"`
}

func fromDomainProduct(product domain.Product) productDocument {
	return productDocument{
		Name:           strings.TrimSpace(product.Name),
		Price:          product.Price,
		ImagePath:      product.ImagePath,
		ImageURL:       product.ImageURL,
		CategoryLevel1: product.CategoryLevel1,
		CategoryLevel2: product.CategoryLevel2,
		CategoryLevel3: product.CategoryLevel3,
		Description:    product.Description,
		Stock:          product.Stock,
		Rating:         product.Rating,
		ColorsJSON:     product.ColorsJSON,
		ImagesJSON:     product.ImagesJSON,
		CreatedAt:      product.CreatedAt.UTC(),
		UpdatedAt:      product.UpdatedAt.UTC(),
	}
}

func toDomainProduct(doc pfirestore.Document[productDocument]) domain.Product {
	return domain.Product{
		ID:             doc.ID,
		Name:           doc.Data.Name,
		Price:          doc.Data.Price,
		ImagePath:      doc.Data.ImagePath,
		ImageURL:       doc.Data.ImageURL,
		CategoryLevel1: doc.Data.CategoryLevel1,
		CategoryLevel2: doc.Data.CategoryLevel2,
		CategoryLevel3: doc.Data.CategoryLevel3,
		Description:    doc.Data.Description,
		Stock:          doc.Data.Stock,
		Rating:         doc.Data.Rating,
		ColorsJSON:     doc.Data.ColorsJSON,
		ImagesJSON:     doc.Data.ImagesJSON,
		CreatedAt:      doc.Data.CreatedAt,
		UpdatedAt:      doc.Data.UpdatedAt,
	}
}

// Ensure interface compliance.
var _ repositories.ProductRepository = (*ProductRepository)(nil)
