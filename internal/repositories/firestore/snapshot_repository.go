package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/uniqmaker/api/internal/domain"
	pfirestore "github.com/uniqmaker/api/internal/platform/firestore"
	"github.com/uniqmaker/api/internal/repositories"
)

const snapshotCollection = "supplierSnapshots"

// SnapshotRepository stores feed snapshots as immutable documents. Appends only;
// the latest snapshot per feed is resolved by ordering on fetch time.
type SnapshotRepository struct {
	base     *pfirestore.BaseRepository[snapshotDocument]
	provider *pfirestore.Provider
}

// NewSnapshotRepository constructs a Firestore-backed snapshot repository.
func NewSnapshotRepository(provider *pfirestore.Provider) (*SnapshotRepository, error) {
	if provider == nil {
		return nil, errors.New("snapshot repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[snapshotDocument](provider, snapshotCollection, nil, nil)
	return &SnapshotRepository{base: base, provider: provider}, nil
}

// Append persists a new snapshot document. Existing snapshots are never touched.
func (r *SnapshotRepository) Append(ctx context.Context, snapshot domain.FeedSnapshot) (domain.FeedSnapshot, error) {
	if r == nil || r.base == nil {
		return domain.FeedSnapshot{}, errors.New("snapshot repository not initialised")
	}
	if strings.TrimSpace(snapshot.ID) == "" {
		return domain.FeedSnapshot{}, errors.New("snapshot repository: snapshot id is required")
	}
	if !snapshot.Feed.Valid() {
		return domain.FeedSnapshot{}, errors.New("snapshot repository: unknown feed")
	}
	if snapshot.FetchedAt.IsZero() {
		snapshot.FetchedAt = time.Now().UTC()
	}

	doc := snapshotDocument{
		Feed:      string(snapshot.Feed),
		FetchedAt: snapshot.FetchedAt.UTC(),
		Status:    string(snapshot.Status),
		Payload:   snapshot.Payload,
	}
	if _, err := r.base.Set(ctx, snapshot.ID, doc); err != nil {
		return domain.FeedSnapshot{}, err
	}
	return snapshot, nil
}

// Latest returns the most recent snapshot for the feed regardless of status.
func (r *SnapshotRepository) Latest(ctx context.Context, feed domain.FeedKey) (domain.FeedSnapshot, error) {
	if r == nil || r.base == nil {
		return domain.FeedSnapshot{}, errors.New("snapshot repository not initialised")
	}
	if !feed.Valid() {
		return domain.FeedSnapshot{}, errors.New("snapshot repository: unknown feed")
	}

	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		return query.
			Where("feed", "==", string(feed)).
			OrderBy("fetchedAt", firestore.Desc).
			Limit(1)
	})
	if err != nil {
		return domain.FeedSnapshot{}, err
	}
	if len(docs) == 0 {
		return domain.FeedSnapshot{}, pfirestore.WrapError(snapshotCollection+".latest",
			status.Error(codes.NotFound, "no snapshot for feed"))
	}
	return toDomainSnapshot(docs[0]), nil
}

// LatestBundle resolves the newest snapshot of each feed a read request needs.
// Feeds that were never fetched stay nil in the bundle.
func (r *SnapshotRepository) LatestBundle(ctx context.Context) (domain.SnapshotBundle, error) {
	bundle := domain.SnapshotBundle{}
	targets := []struct {
		feed domain.FeedKey
		dst  **domain.FeedSnapshot
	}{
		{domain.FeedProducts, &bundle.Products},
		{domain.FeedPriceList, &bundle.PriceList},
		{domain.FeedStock, &bundle.Stock},
		{domain.FeedPrintData, &bundle.PrintData},
	}
	for _, target := range targets {
		snapshot, err := r.Latest(ctx, target.feed)
		if err != nil {
			var repoErr repositories.RepositoryError
			if errors.As(err, &repoErr) && repoErr.IsNotFound() {
				continue
			}
			return domain.SnapshotBundle{}, err
		}
		value := snapshot
		*target.dst = &value
	}
	return bundle, nil
}

type snapshotDocument struct {
	Feed      string    `firestore:"feed"`
	FetchedAt time.Time `firestore:"fetchedAt"`
	Status    string    `firestore:"status"`
	Payload   []byte    `firestore:"payload"`
}

func toDomainSnapshot(doc pfirestore.Document[snapshotDocument]) domain.FeedSnapshot {
	return domain.FeedSnapshot{
		ID:        doc.ID,
		Feed:      domain.FeedKey(doc.Data.Feed),
		FetchedAt: doc.Data.FetchedAt,
		Status:    domain.SnapshotStatus(doc.Data.Status),
		Payload:   doc.Data.Payload,
	}
}

// Ensure interface compliance.
var _ repositories.SnapshotRepository = (*SnapshotRepository)(nil)
