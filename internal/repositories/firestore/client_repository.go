package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/uniqmaker/api/internal/domain"
	pfirestore "github.com/uniqmaker/api/internal/platform/firestore"
	"github.com/uniqmaker/api/internal/repositories"
)

const clientCollection = "clients"

// ClientRepository persists B2B client companies.
type ClientRepository struct {
	base *pfirestore.BaseRepository[clientDocument]
}

// NewClientRepository constructs a Firestore-backed client repository.
func NewClientRepository(provider *pfirestore.Provider) (*ClientRepository, error) {
	if provider == nil {
		return nil, errors.New("client repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[clientDocument](provider, clientCollection, nil, nil)
	return &ClientRepository{base: base}, nil
}

// Insert creates a new client company record.
func (r *ClientRepository) Insert(ctx context.Context, client domain.Client) (domain.Client, error) {
	if r == nil || r.base == nil {
		return domain.Client{}, errors.New("client repository not initialised")
	}
	if strings.TrimSpace(client.ID) == "" {
		return domain.Client{}, errors.New("client repository: client id is required")
	}
	now := time.Now().UTC()
	if client.CreatedAt.IsZero() {
		client.CreatedAt = now
	}
	client.UpdatedAt = now
	if _, err := r.base.Set(ctx, client.ID, fromDomainClient(client)); err != nil {
		return domain.Client{}, err
	}
	return client, nil
}

// Update overwrites the client record.
func (r *ClientRepository) Update(ctx context.Context, client domain.Client) (domain.Client, error) {
	if r == nil || r.base == nil {
		return domain.Client{}, errors.New("client repository not initialised")
	}
	if strings.TrimSpace(client.ID) == "" {
		return domain.Client{}, errors.New("client repository: client id is required")
	}
	existing, err := r.base.Get(ctx, client.ID)
	if err != nil {
		return domain.Client{}, err
	}
	if client.CreatedAt.IsZero() {
		client.CreatedAt = existing.Data.CreatedAt
	}
	client.UpdatedAt = time.Now().UTC()
	if _, err := r.base.Set(ctx, client.ID, fromDomainClient(client)); err != nil {
		return domain.Client{}, err
	}
	return client, nil
}

// Delete removes the client record.
func (r *ClientRepository) Delete(ctx context.Context, clientID string) error {
	if r == nil || r.base == nil {
		return errors.New("client repository not initialised")
	}
	if strings.TrimSpace(clientID) == "" {
		return errors.New("client repository: client id is required")
	}
	ref, err := r.base.DocumentRef(ctx, clientID)
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx); err != nil {
		return pfirestore.WrapError("clients.delete", err)
	}
	return nil
}

// FindByID loads a client by id.
func (r *ClientRepository) FindByID(ctx context.Context, clientID string) (domain.Client, error) {
	if r == nil || r.base == nil {
		return domain.Client{}, errors.New("client repository not initialised")
	}
	if strings.TrimSpace(clientID) == "" {
		return domain.Client{}, errors.New("client repository: client id is required")
	}
	doc, err := r.base.Get(ctx, clientID)
	if err != nil {
		return domain.Client{}, err
	}
	return toDomainClient(doc), nil
}

// List returns clients ordered by creation time, newest first.
func (r *ClientRepository) List(ctx context.Context, pager domain.Pagination) (domain.CursorPage[domain.Client], error) {
	if r == nil || r.base == nil {
		return domain.CursorPage[domain.Client]{}, errors.New("client repository not initialised")
	}
	return listByCreatedAt(ctx, r.base, pager, toDomainClient,
		func(doc pfirestore.Document[clientDocument]) time.Time { return doc.Data.CreatedAt })
}

type clientDocument struct {
	CompanyName string    `firestore:"companyName"`
	SIRET       string    `firestore:"siret"`
	MainContact string    `firestore:"mainContact"`
	Email       string    `firestore:"email"`
	Phone       string    `firestore:"phone"`
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

func fromDomainClient(client domain.Client) clientDocument {
	return clientDocument{
		CompanyName: strings.TrimSpace(client.CompanyName),
		SIRET:       strings.TrimSpace(client.SIRET),
		MainContact: strings.TrimSpace(client.MainContact),
		Email:       normaliseEmail(client.Email),
		Phone:       strings.TrimSpace(client.Phone),
		CreatedAt:   client.CreatedAt.UTC(),
		UpdatedAt:   client.UpdatedAt.UTC(),
	}
}

func toDomainClient(doc pfirestore.Document[clientDocument]) domain.Client {
	return domain.Client{
		ID:          doc.ID,
		CompanyName: doc.Data.CompanyName,
		SIRET:       doc.Data.SIRET,
		MainContact: doc.Data.MainContact,
		Email:       doc.Data.Email,
		Phone:       doc.Data.Phone,
		CreatedAt:   doc.Data.CreatedAt,
		UpdatedAt:   doc.Data.UpdatedAt,
	}
}

// Ensure interface compliance.
var _ repositories.ClientRepository = (*ClientRepository)(nil)
