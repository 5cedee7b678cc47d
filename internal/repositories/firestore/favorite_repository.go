package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/uniqmaker/api/internal/domain"
	pfirestore "github.com/uniqmaker/api/internal/platform/firestore"
	"github.com/uniqmaker/api/internal/repositories"
)

const favoriteCollectionPattern = "users/%s/favorites"

// FavoriteRepository persists product bookmarks per user as a subcollection.
type FavoriteRepository struct {
	provider *pfirestore.Provider
}

// NewFavoriteRepository constructs a Firestore-backed favorite repository.
func NewFavoriteRepository(provider *pfirestore.Provider) (*FavoriteRepository, error) {
	if provider == nil {
		return nil, errors.New("favorite repository requires firestore provider")
	}
	return &FavoriteRepository{provider: provider}, nil
}

// List returns favorites ordered by most recent addition.
func (r *FavoriteRepository) List(ctx context.Context, userID string, pager domain.Pagination) (domain.CursorPage[domain.Favorite], error) {
	coll, err := r.collection(ctx, userID)
	if err != nil {
		return domain.CursorPage[domain.Favorite]{}, err
	}

	limit := pager.PageSize
	if limit < 0 {
		limit = 0
	}

	query := coll.OrderBy("addedAt", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Desc)
	var fetchLimit int
	if limit > 0 {
		fetchLimit = limit + 1
		query = query.Limit(fetchLimit)
	}

	if token := strings.TrimSpace(pager.PageToken); token != "" {
		tokenTime, tokenID, err := decodeCursorToken(token)
		if err != nil {
			return domain.CursorPage[domain.Favorite]{}, fmt.Errorf("favorites.list: invalid page token: %w", err)
		}
		query = query.StartAfter(tokenTime, tokenID)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	type favoriteRow struct {
		data  domain.Favorite
		docID string
	}

	var rows []favoriteRow
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return domain.CursorPage[domain.Favorite]{}, pfirestore.WrapError("favorites.list", err)
		}
		fav, err := decodeFavoriteDocument(snap)
		if err != nil {
			return domain.CursorPage[domain.Favorite]{}, err
		}
		rows = append(rows, favoriteRow{data: fav, docID: snap.Ref.ID})
	}

	nextToken := ""
	if limit > 0 && len(rows) == fetchLimit {
		last := rows[len(rows)-1]
		nextToken = encodeCursorToken(last.data.AddedAt, last.docID)
		rows = rows[:len(rows)-1]
	}

	items := make([]domain.Favorite, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.data)
	}

	return domain.CursorPage[domain.Favorite]{
		Items:         items,
		NextPageToken: nextToken,
	}, nil
}

// Put stores the favorite, reporting whether a new document was created.
// Re-favoriting an existing product keeps the original addedAt.
func (r *FavoriteRepository) Put(ctx context.Context, userID string, favorite domain.Favorite) (bool, error) {
	coll, err := r.collection(ctx, userID)
	if err != nil {
		return false, err
	}

	productID := strings.TrimSpace(favorite.ProductID)
	if productID == "" {
		return false, errors.New("favorite repository: product id is required")
	}
	if favorite.AddedAt.IsZero() {
		favorite.AddedAt = time.Now().UTC()
	}

	created := false
	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docRef := coll.Doc(productID)
		if _, err := tx.Get(docRef); err == nil {
			created = false
			return nil
		} else if status.Code(err) != codes.NotFound {
			return err
		}

		doc := favoriteDocument{
			ProductName: strings.TrimSpace(favorite.ProductName),
			AddedAt:     favorite.AddedAt.UTC(),
		}
		if err := tx.Set(docRef, doc); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return false, pfirestore.WrapError("favorites.put", err)
	}
	return created, nil
}

// Delete removes the favorite document.
func (r *FavoriteRepository) Delete(ctx context.Context, userID string, productID string) error {
	coll, err := r.collection(ctx, userID)
	if err != nil {
		return err
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return errors.New("favorite repository: product id is required")
	}
	if _, err := coll.Doc(productID).Delete(ctx); err != nil {
		return pfirestore.WrapError("favorites.delete", err)
	}
	return nil
}

func (r *FavoriteRepository) collection(ctx context.Context, userID string) (*firestore.CollectionRef, error) {
	if r == nil || r.provider == nil {
		return nil, errors.New("favorite repository not initialised")
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, errors.New("favorite repository: user id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	path := fmt.Sprintf(favoriteCollectionPattern, uid)
	return client.Collection(path), nil
}

func decodeFavoriteDocument(snapshot *firestore.DocumentSnapshot) (domain.Favorite, error) {
	var doc favoriteDocument
	if err := snapshot.DataTo(&doc); err != nil {
		return domain.Favorite{}, fmt.Errorf("decode favorite %s: %w", snapshot.Ref.ID, err)
	}
	return domain.Favorite{
		ProductID:   snapshot.Ref.ID,
		ProductName: doc.ProductName,
		AddedAt:     doc.AddedAt,
	}, nil
}

type favoriteDocument struct {
	ProductName string    `firestore:"productName"`
	AddedAt     time.Time `firestore:"addedAt"`
}

// Ensure interface compliance.
var _ repositories.FavoriteRepository = (*FavoriteRepository)(nil)
