package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/uniqmaker/api/internal/catalog"
	domain "github.com/uniqmaker/api/internal/domain"
	"github.com/uniqmaker/api/internal/repositories"
)

const eventCatalogRefreshed = "catalog.refreshed"

// ErrCatalogInvalidInput signals the caller provided invalid arguments.
var ErrCatalogInvalidInput = errors.New("catalog: invalid input")

// CatalogServiceDeps bundles the collaborators required to construct a catalog service.
type CatalogServiceDeps struct {
	Snapshots   repositories.SnapshotRepository
	Gateway     SupplierGateway
	Events      CatalogEventPublisher
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type catalogService struct {
	snapshots repositories.SnapshotRepository
	gateway   SupplierGateway
	events    CatalogEventPublisher
	clock     func() time.Time
	newID     func() string
	logger    func(context.Context, string, map[string]any)
}

// NewCatalogService wires dependencies into a concrete CatalogService implementation.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Snapshots == nil {
		return nil, errors.New("catalog service: snapshot repository is required")
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

	return &catalogService{
		snapshots: deps.Snapshots,
		gateway:   deps.Gateway,
		events:    deps.Events,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  idGen,
		logger: logger,
	}, nil
}

// FetchAll retrieves every supplier feed and appends the result, success or
// error, to the snapshot log. A failed feed never aborts the cycle; only a
// failure to persist does.
func (s *catalogService) FetchAll(ctx context.Context) (FetchReport, error) {
	if s.gateway == nil {
		return FetchReport{}, errors.New("catalog service: supplier gateway is not configured")
	}

	now := s.clock()
	report := FetchReport{Timestamp: now}

	for _, feed := range domain.AllFeeds() {
		result := FeedFetchResult{Feed: feed}
		snapshot := domain.FeedSnapshot{
			ID:        s.newID(),
			Feed:      feed,
			FetchedAt: s.clock(),
		}

		payload, err := s.gateway.Fetch(ctx, feed)
		if err != nil {
			result.Status = domain.SnapshotError
			result.Error = err.Error()
			snapshot.Status = domain.SnapshotError
			snapshot.Payload = errorPayload(err)
			s.logger(ctx, "catalog.fetch_failed", map[string]any{
				"feed":  string(feed),
				"error": err.Error(),
			})
		} else {
			result.Status = domain.SnapshotSuccess
			result.Size = len(payload)
			snapshot.Status = domain.SnapshotSuccess
			snapshot.Payload = payload
		}

		if _, err := s.snapshots.Append(ctx, snapshot); err != nil {
			return FetchReport{}, err
		}
		report.Results = append(report.Results, result)
	}

	if s.events != nil {
		message := CatalogRefreshMessage{Results: report.Results, OccurredAt: now}
		if err := s.events.PublishCatalogRefreshed(ctx, message); err != nil {
			s.logger(ctx, eventCatalogRefreshed, map[string]any{"error": err.Error()})
		}
	}

	return report, nil
}

// RawData returns the latest stored snapshot per feed. Feeds never fetched are
// simply absent from the result.
func (s *catalogService) RawData(ctx context.Context) ([]RawFeedData, error) {
	var data []RawFeedData
	for _, feed := range domain.AllFeeds() {
		snapshot, err := s.snapshots.Latest(ctx, feed)
		if err != nil {
			if isRepositoryNotFound(err) {
				continue
			}
			return nil, err
		}
		data = append(data, RawFeedData{
			Feed:      snapshot.Feed,
			Payload:   snapshot.Payload,
			FetchedAt: snapshot.FetchedAt,
			Status:    snapshot.Status,
		})
	}
	return data, nil
}

// Catalog computes the unified product views from the latest snapshots. The
// snapshot bundle is selected once; the normalizer never re-reads mid-pass.
func (s *catalogService) Catalog(ctx context.Context) ([]UnifiedProductView, error) {
	bundle, err := s.snapshots.LatestBundle(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Normalize(
		successPayload(bundle.Products),
		successPayload(bundle.PriceList),
		successPayload(bundle.Stock),
	)
}

// PrintData projects the printdata feed for one master code.
func (s *catalogService) PrintData(ctx context.Context, masterCode string) (*PrintDataView, error) {
	masterCode = strings.TrimSpace(masterCode)
	if masterCode == "" {
		return nil, ErrCatalogInvalidInput
	}

	snapshot, err := s.snapshots.Latest(ctx, domain.FeedPrintData)
	if err != nil {
		if isRepositoryNotFound(err) {
			return nil, catalog.ErrNoSnapshot
		}
		return nil, err
	}
	if snapshot.Status != domain.SnapshotSuccess {
		return nil, catalog.ErrNoSnapshot
	}
	return catalog.ProjectPrintData(snapshot.Payload, masterCode)
}

// successPayload returns the payload of a successful snapshot, or nil when the
// feed is absent or its latest fetch failed. A failed fetch stores an error
// object, not feed data, so it must not reach the normalizer.
func successPayload(snapshot *domain.FeedSnapshot) []byte {
	if snapshot == nil || snapshot.Status != domain.SnapshotSuccess {
		return nil
	}
	return snapshot.Payload
}

func errorPayload(err error) []byte {
	payload, marshalErr := json.Marshal(map[string]string{"error": err.Error()})
	if marshalErr != nil {
		return []byte(`{"error":"fetch failed"}`)
	}
	return payload
}

func isRepositoryNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}
