package services

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"time"

	domain "github.com/uniqmaker/api/internal/domain"
	"github.com/uniqmaker/api/internal/repositories"
)

// repoError is a stub repositories.RepositoryError for exercising error mapping.
type repoError struct {
	msg         string
	notFound    bool
	conflict    bool
	unavailable bool
}

func (e *repoError) Error() string       { return e.msg }
func (e *repoError) IsNotFound() bool    { return e.notFound }
func (e *repoError) IsConflict() bool    { return e.conflict }
func (e *repoError) IsUnavailable() bool { return e.unavailable }

var _ repositories.RepositoryError = (*repoError)(nil)

func notFoundErr(msg string) error { return &repoError{msg: msg, notFound: true} }
func conflictErr(msg string) error { return &repoError{msg: msg, conflict: true} }

// fixedClock returns a deterministic clock for tests.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// sequenceIDs returns ids id-1, id-2, ... on successive calls.
func sequenceIDs() func() string {
	n := 0
	return func() string {
		n++
		return "id-" + strconv.Itoa(n)
	}
}

// fakeUserRepo is an in-memory repositories.UserRepository.
type fakeUserRepo struct {
	users map[string]domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]domain.User{}}
}

func (r *fakeUserRepo) Insert(_ context.Context, user domain.User) (domain.User, error) {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return domain.User{}, conflictErr("email already registered")
		}
	}
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) Update(_ context.Context, user domain.User) (domain.User, error) {
	if _, ok := r.users[user.ID]; !ok {
		return domain.User{}, notFoundErr("user not found")
	}
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) Delete(_ context.Context, userID string) error {
	if _, ok := r.users[userID]; !ok {
		return notFoundErr("user not found")
	}
	delete(r.users, userID)
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, userID string) (domain.User, error) {
	user, ok := r.users[userID]
	if !ok {
		return domain.User{}, notFoundErr("user not found")
	}
	return user, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return domain.User{}, notFoundErr("user not found")
}

func (r *fakeUserRepo) List(_ context.Context, _ domain.Pagination) (domain.CursorPage[domain.User], error) {
	items := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		items = append(items, user)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return domain.CursorPage[domain.User]{Items: items}, nil
}

var _ repositories.UserRepository = (*fakeUserRepo)(nil)

// fakeFavoriteRepo is an in-memory repositories.FavoriteRepository.
type fakeFavoriteRepo struct {
	favorites map[string]map[string]domain.Favorite
}

func newFakeFavoriteRepo() *fakeFavoriteRepo {
	return &fakeFavoriteRepo{favorites: map[string]map[string]domain.Favorite{}}
}

func (r *fakeFavoriteRepo) List(_ context.Context, userID string, _ domain.Pagination) (domain.CursorPage[domain.Favorite], error) {
	items := make([]domain.Favorite, 0, len(r.favorites[userID]))
	for _, fav := range r.favorites[userID] {
		items = append(items, fav)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].AddedAt.After(items[j].AddedAt) })
	return domain.CursorPage[domain.Favorite]{Items: items}, nil
}

func (r *fakeFavoriteRepo) Put(_ context.Context, userID string, favorite domain.Favorite) (bool, error) {
	if r.favorites[userID] == nil {
		r.favorites[userID] = map[string]domain.Favorite{}
	}
	if _, ok := r.favorites[userID][favorite.ProductID]; ok {
		return false, nil
	}
	r.favorites[userID][favorite.ProductID] = favorite
	return true, nil
}

func (r *fakeFavoriteRepo) Delete(_ context.Context, userID string, productID string) error {
	if _, ok := r.favorites[userID][productID]; !ok {
		return notFoundErr("favorite not found")
	}
	delete(r.favorites[userID], productID)
	return nil
}

var _ repositories.FavoriteRepository = (*fakeFavoriteRepo)(nil)

// fakeClientRepo is an in-memory repositories.ClientRepository.
type fakeClientRepo struct {
	clients map[string]domain.Client
}

func newFakeClientRepo() *fakeClientRepo {
	return &fakeClientRepo{clients: map[string]domain.Client{}}
}

func (r *fakeClientRepo) Insert(_ context.Context, client domain.Client) (domain.Client, error) {
	r.clients[client.ID] = client
	return client, nil
}

func (r *fakeClientRepo) Update(_ context.Context, client domain.Client) (domain.Client, error) {
	if _, ok := r.clients[client.ID]; !ok {
		return domain.Client{}, notFoundErr("client not found")
	}
	r.clients[client.ID] = client
	return client, nil
}

func (r *fakeClientRepo) Delete(_ context.Context, clientID string) error {
	if _, ok := r.clients[clientID]; !ok {
		return notFoundErr("client not found")
	}
	delete(r.clients, clientID)
	return nil
}

func (r *fakeClientRepo) FindByID(_ context.Context, clientID string) (domain.Client, error) {
	client, ok := r.clients[clientID]
	if !ok {
		return domain.Client{}, notFoundErr("client not found")
	}
	return client, nil
}

func (r *fakeClientRepo) List(_ context.Context, _ domain.Pagination) (domain.CursorPage[domain.Client], error) {
	items := make([]domain.Client, 0, len(r.clients))
	for _, client := range r.clients {
		items = append(items, client)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return domain.CursorPage[domain.Client]{Items: items}, nil
}

var _ repositories.ClientRepository = (*fakeClientRepo)(nil)

// fakeQuoteRepo is an in-memory repositories.QuoteRepository.
type fakeQuoteRepo struct {
	quotes map[string]domain.Quote
}

func newFakeQuoteRepo() *fakeQuoteRepo {
	return &fakeQuoteRepo{quotes: map[string]domain.Quote{}}
}

func (r *fakeQuoteRepo) Insert(_ context.Context, quote domain.Quote) (domain.Quote, error) {
	r.quotes[quote.ID] = quote
	return quote, nil
}

func (r *fakeQuoteRepo) Update(_ context.Context, quote domain.Quote) (domain.Quote, error) {
	if _, ok := r.quotes[quote.ID]; !ok {
		return domain.Quote{}, notFoundErr("quote not found")
	}
	r.quotes[quote.ID] = quote
	return quote, nil
}

func (r *fakeQuoteRepo) FindByID(_ context.Context, quoteID string) (domain.Quote, error) {
	quote, ok := r.quotes[quoteID]
	if !ok {
		return domain.Quote{}, notFoundErr("quote not found")
	}
	return quote, nil
}

func (r *fakeQuoteRepo) List(_ context.Context, filter repositories.QuoteListFilter) (domain.CursorPage[domain.Quote], error) {
	items := make([]domain.Quote, 0, len(r.quotes))
	for _, quote := range r.quotes {
		if filter.ClientID != "" && quote.ClientID != filter.ClientID {
			continue
		}
		items = append(items, quote)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return domain.CursorPage[domain.Quote]{Items: items}, nil
}

var _ repositories.QuoteRepository = (*fakeQuoteRepo)(nil)

// fakeProductRepo is an in-memory repositories.ProductRepository.
type fakeProductRepo struct {
	products map[string]domain.Product
	inserted []domain.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: map[string]domain.Product{}}
}

func (r *fakeProductRepo) Insert(_ context.Context, product domain.Product) (domain.Product, error) {
	r.products[product.ID] = product
	r.inserted = append(r.inserted, product)
	return product, nil
}

func (r *fakeProductRepo) Update(_ context.Context, product domain.Product) (domain.Product, error) {
	if _, ok := r.products[product.ID]; !ok {
		return domain.Product{}, notFoundErr("product not found")
	}
	r.products[product.ID] = product
	return product, nil
}

func (r *fakeProductRepo) Delete(_ context.Context, productID string) error {
	if _, ok := r.products[productID]; !ok {
		return notFoundErr("product not found")
	}
	delete(r.products, productID)
	return nil
}

func (r *fakeProductRepo) FindByID(_ context.Context, productID string) (domain.Product, error) {
	product, ok := r.products[productID]
	if !ok {
		return domain.Product{}, notFoundErr("product not found")
	}
	return product, nil
}

func (r *fakeProductRepo) List(_ context.Context, filter repositories.ProductListFilter) (domain.CursorPage[domain.Product], error) {
	items := make([]domain.Product, 0, len(r.products))
	for _, product := range r.products {
		if filter.Category != nil && product.CategoryLevel1 != *filter.Category {
			continue
		}
		items = append(items, product)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	if limit := filter.Pagination.PageSize; limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return domain.CursorPage[domain.Product]{Items: items}, nil
}

var _ repositories.ProductRepository = (*fakeProductRepo)(nil)

// fakeSnapshotRepo is an in-memory append-only repositories.SnapshotRepository.
type fakeSnapshotRepo struct {
	appended []domain.FeedSnapshot
}

func (r *fakeSnapshotRepo) Append(_ context.Context, snapshot domain.FeedSnapshot) (domain.FeedSnapshot, error) {
	r.appended = append(r.appended, snapshot)
	return snapshot, nil
}

func (r *fakeSnapshotRepo) Latest(_ context.Context, feed domain.FeedKey) (domain.FeedSnapshot, error) {
	for i := len(r.appended) - 1; i >= 0; i-- {
		if r.appended[i].Feed == feed {
			return r.appended[i], nil
		}
	}
	return domain.FeedSnapshot{}, notFoundErr("no snapshot for feed")
}

func (r *fakeSnapshotRepo) LatestBundle(ctx context.Context) (domain.SnapshotBundle, error) {
	var bundle domain.SnapshotBundle
	assign := func(feed domain.FeedKey, target **domain.FeedSnapshot) {
		if snapshot, err := r.Latest(ctx, feed); err == nil {
			copied := snapshot
			*target = &copied
		}
	}
	assign(domain.FeedProducts, &bundle.Products)
	assign(domain.FeedPriceList, &bundle.PriceList)
	assign(domain.FeedStock, &bundle.Stock)
	assign(domain.FeedPrintData, &bundle.PrintData)
	return bundle, nil
}

var _ repositories.SnapshotRepository = (*fakeSnapshotRepo)(nil)

// stubGateway returns canned payloads or errors per feed.
type stubGateway struct {
	payloads map[domain.FeedKey][]byte
	failures map[domain.FeedKey]error
}

func (g *stubGateway) Fetch(_ context.Context, feed domain.FeedKey) ([]byte, error) {
	if err, ok := g.failures[feed]; ok {
		return nil, err
	}
	if payload, ok := g.payloads[feed]; ok {
		return payload, nil
	}
	return nil, errors.New("no payload configured")
}

// stubObjectStore records uploads and returns canned signed URLs.
type stubObjectStore struct {
	uploads   map[string][]byte
	signedURL string
	uploadErr error
}

func newStubObjectStore() *stubObjectStore {
	return &stubObjectStore{uploads: map[string][]byte{}, signedURL: "https://signed.example/doc"}
}

func (s *stubObjectStore) Upload(_ context.Context, bucket, object, _ string, data []byte) error {
	if s.uploadErr != nil {
		return s.uploadErr
	}
	s.uploads[bucket+"/"+object] = data
	return nil
}

func (s *stubObjectStore) SignedDownloadURL(_ context.Context, _, _ string, _ time.Duration) (string, error) {
	return s.signedURL, nil
}

var _ ObjectStore = (*stubObjectStore)(nil)
