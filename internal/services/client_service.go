package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/uniqmaker/api/internal/domain"
	"github.com/uniqmaker/api/internal/repositories"
)

var (
	// ErrClientInvalidInput signals the caller provided invalid arguments.
	ErrClientInvalidInput = errors.New("client: invalid input")
	// ErrClientNotFound indicates the client company could not be located.
	ErrClientNotFound = errors.New("client: not found")
)

// ClientServiceDeps bundles the collaborators required to construct a client service.
type ClientServiceDeps struct {
	Clients     repositories.ClientRepository
	Clock       func() time.Time
	IDGenerator func() string
}

type clientService struct {
	clients repositories.ClientRepository
	clock   func() time.Time
	newID   func() string
}

// NewClientService wires dependencies into a concrete ClientService implementation.
func NewClientService(deps ClientServiceDeps) (ClientService, error) {
	if deps.Clients == nil {
		return nil, errors.New("client service: client repository is required")
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

	return &clientService{
		clients: deps.Clients,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID: idGen,
	}, nil
}

func (s *clientService) Create(ctx context.Context, cmd UpsertClientCommand) (Client, error) {
	company := strings.TrimSpace(cmd.CompanyName)
	if company == "" {
		return Client{}, fmt.Errorf("%w: company name is required", ErrClientInvalidInput)
	}
	if email := strings.TrimSpace(cmd.Email); email != "" && !validEmail(strings.ToLower(email)) {
		return Client{}, fmt.Errorf("%w: invalid email address", ErrClientInvalidInput)
	}

	now := s.clock()
	client := domain.Client{
		ID:          s.newID(),
		CompanyName: company,
		SIRET:       strings.TrimSpace(cmd.SIRET),
		MainContact: strings.TrimSpace(cmd.MainContact),
		Email:       strings.ToLower(strings.TrimSpace(cmd.Email)),
		Phone:       strings.TrimSpace(cmd.Phone),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	stored, err := s.clients.Insert(ctx, client)
	if err != nil {
		return Client{}, s.mapClientError(err)
	}
	return stored, nil
}

func (s *clientService) Get(ctx context.Context, clientID string) (Client, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return Client{}, fmt.Errorf("%w: client id is required", ErrClientInvalidInput)
	}
	client, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		return Client{}, s.mapClientError(err)
	}
	return client, nil
}

func (s *clientService) Update(ctx context.Context, cmd UpsertClientCommand) (Client, error) {
	clientID := strings.TrimSpace(cmd.ClientID)
	if clientID == "" {
		return Client{}, fmt.Errorf("%w: client id is required", ErrClientInvalidInput)
	}
	company := strings.TrimSpace(cmd.CompanyName)
	if company == "" {
		return Client{}, fmt.Errorf("%w: company name is required", ErrClientInvalidInput)
	}
	if email := strings.TrimSpace(cmd.Email); email != "" && !validEmail(strings.ToLower(email)) {
		return Client{}, fmt.Errorf("%w: invalid email address", ErrClientInvalidInput)
	}

	existing, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		return Client{}, s.mapClientError(err)
	}

	existing.CompanyName = company
	existing.SIRET = strings.TrimSpace(cmd.SIRET)
	existing.MainContact = strings.TrimSpace(cmd.MainContact)
	existing.Email = strings.ToLower(strings.TrimSpace(cmd.Email))
	existing.Phone = strings.TrimSpace(cmd.Phone)
	existing.UpdatedAt = s.clock()

	updated, err := s.clients.Update(ctx, existing)
	if err != nil {
		return Client{}, s.mapClientError(err)
	}
	return updated, nil
}

func (s *clientService) Delete(ctx context.Context, clientID string) error {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return fmt.Errorf("%w: client id is required", ErrClientInvalidInput)
	}
	if err := s.clients.Delete(ctx, clientID); err != nil {
		return s.mapClientError(err)
	}
	return nil
}

func (s *clientService) List(ctx context.Context, pager Pagination) (domain.CursorPage[Client], error) {
	return s.clients.List(ctx, pager)
}

func (s *clientService) mapClientError(err error) error {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return ErrClientNotFound
	}
	return err
}
