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

const userCollection = "users"

// UserRepository persists account records in Firestore. Email uniqueness is
// enforced with an index document keyed by the normalised address, written in
// the same transaction as the account itself.
type UserRepository struct {
	base     *pfirestore.BaseRepository[userDocument]
	provider *pfirestore.Provider
}

const userEmailIndexCollection = "userEmails"

// NewUserRepository constructs a Firestore-backed user repository.
func NewUserRepository(provider *pfirestore.Provider) (*UserRepository, error) {
	if provider == nil {
		return nil, errors.New("user repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[userDocument](provider, userCollection, nil, nil)
	return &UserRepository{base: base, provider: provider}, nil
}

// Insert creates the account, failing with a conflict when the email is taken.
func (r *UserRepository) Insert(ctx context.Context, user domain.User) (domain.User, error) {
	if r == nil || r.provider == nil {
		return domain.User{}, errors.New("user repository not initialised")
	}
	if strings.TrimSpace(user.ID) == "" {
		return domain.User{}, errors.New("user repository: user id is required")
	}
	email := normaliseEmail(user.Email)
	if email == "" {
		return domain.User{}, errors.New("user repository: email is required")
	}
	user.Email = email

	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.User{}, err
	}

	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	userRef := client.Collection(userCollection).Doc(user.ID)
	emailRef := client.Collection(userEmailIndexCollection).Doc(email)

	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(emailRef); err == nil {
			return status.Error(codes.AlreadyExists, "email already registered")
		} else if status.Code(err) != codes.NotFound {
			return err
		}
		if err := tx.Create(userRef, fromDomainUser(user)); err != nil {
			return err
		}
		return tx.Set(emailRef, map[string]any{"userId": user.ID})
	})
	if err != nil {
		return domain.User{}, pfirestore.WrapError("users.insert", err)
	}
	return user, nil
}

// Update overwrites mutable account fields. The email index follows a changed
// address inside the transaction.
func (r *UserRepository) Update(ctx context.Context, user domain.User) (domain.User, error) {
	if r == nil || r.provider == nil {
		return domain.User{}, errors.New("user repository not initialised")
	}
	if strings.TrimSpace(user.ID) == "" {
		return domain.User{}, errors.New("user repository: user id is required")
	}
	email := normaliseEmail(user.Email)
	if email == "" {
		return domain.User{}, errors.New("user repository: email is required")
	}
	user.Email = email

	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.User{}, err
	}

	user.UpdatedAt = time.Now().UTC()
	userRef := client.Collection(userCollection).Doc(user.ID)

	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(userRef)
		if err != nil {
			return err
		}
		var existing userDocument
		if err := snap.DataTo(&existing); err != nil {
			return err
		}
		if user.CreatedAt.IsZero() {
			user.CreatedAt = existing.CreatedAt
		}
		if user.PasswordHash == "" {
			user.PasswordHash = existing.PasswordHash
		}

		if existing.Email != email {
			newEmailRef := client.Collection(userEmailIndexCollection).Doc(email)
			if _, err := tx.Get(newEmailRef); err == nil {
				return status.Error(codes.AlreadyExists, "email already registered")
			} else if status.Code(err) != codes.NotFound {
				return err
			}
			if existing.Email != "" {
				oldEmailRef := client.Collection(userEmailIndexCollection).Doc(existing.Email)
				if err := tx.Delete(oldEmailRef); err != nil {
					return err
				}
			}
			if err := tx.Set(newEmailRef, map[string]any{"userId": user.ID}); err != nil {
				return err
			}
		}
		return tx.Set(userRef, fromDomainUser(user))
	})
	if err != nil {
		return domain.User{}, pfirestore.WrapError("users.update", err)
	}
	return user, nil
}

// Delete removes the account and its email index entry.
func (r *UserRepository) Delete(ctx context.Context, userID string) error {
	if r == nil || r.provider == nil {
		return errors.New("user repository not initialised")
	}
	if strings.TrimSpace(userID) == "" {
		return errors.New("user repository: user id is required")
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}
	userRef := client.Collection(userCollection).Doc(userID)

	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(userRef)
		if err != nil {
			return err
		}
		var existing userDocument
		if err := snap.DataTo(&existing); err != nil {
			return err
		}
		if existing.Email != "" {
			if err := tx.Delete(client.Collection(userEmailIndexCollection).Doc(existing.Email)); err != nil {
				return err
			}
		}
		return tx.Delete(userRef)
	})
	if err != nil {
		return pfirestore.WrapError("users.delete", err)
	}
	return nil
}

// FindByID loads the account by id.
func (r *UserRepository) FindByID(ctx context.Context, userID string) (domain.User, error) {
	if r == nil || r.base == nil {
		return domain.User{}, errors.New("user repository not initialised")
	}
	if strings.TrimSpace(userID) == "" {
		return domain.User{}, errors.New("user repository: user id is required")
	}
	doc, err := r.base.Get(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	return toDomainUser(doc), nil
}

// FindByEmail loads the account by normalised email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	if r == nil || r.base == nil {
		return domain.User{}, errors.New("user repository not initialised")
	}
	email = normaliseEmail(email)
	if email == "" {
		return domain.User{}, errors.New("user repository: email is required")
	}
	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		return query.Where("email", "==", email).Limit(1)
	})
	if err != nil {
		return domain.User{}, err
	}
	if len(docs) == 0 {
		return domain.User{}, pfirestore.WrapError("users.findByEmail",
			status.Error(codes.NotFound, "user not found"))
	}
	return toDomainUser(docs[0]), nil
}

// List returns accounts ordered by creation time, newest first.
func (r *UserRepository) List(ctx context.Context, pager domain.Pagination) (domain.CursorPage[domain.User], error) {
	if r == nil || r.base == nil {
		return domain.CursorPage[domain.User]{}, errors.New("user repository not initialised")
	}
	return listByCreatedAt(ctx, r.base, pager, toDomainUser,
		func(doc pfirestore.Document[userDocument]) time.Time { return doc.Data.CreatedAt })
}

type userDocument struct {
	Name         string    `firestore:"name"`
	Email        string    `firestore:"email"`
	Role         string    `firestore:"role"`
	PasswordHash string    `firestore:"passwordHash"`
	CreatedAt    time.Time `firestore:"createdAt"`
	UpdatedAt    time.Time `firestore:"updatedAt"`
}

func fromDomainUser(user domain.User) userDocument {
	return userDocument{
		Name:         strings.TrimSpace(user.Name),
		Email:        user.Email,
		Role:         strings.ToLower(strings.TrimSpace(user.Role)),
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt.UTC(),
		UpdatedAt:    user.UpdatedAt.UTC(),
	}
}

func toDomainUser(doc pfirestore.Document[userDocument]) domain.User {
	return domain.User{
		ID:           doc.ID,
		Name:         doc.Data.Name,
		Email:        doc.Data.Email,
		Role:         doc.Data.Role,
		PasswordHash: doc.Data.PasswordHash,
		CreatedAt:    doc.Data.CreatedAt,
		UpdatedAt:    doc.Data.UpdatedAt,
	}
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Ensure interface compliance.
var _ repositories.UserRepository = (*UserRepository)(nil)
