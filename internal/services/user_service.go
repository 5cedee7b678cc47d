package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/uniqmaker/api/internal/domain"
	"github.com/uniqmaker/api/internal/platform/auth"
	"github.com/uniqmaker/api/internal/repositories"
)

const minPasswordLength = 8

var (
	// ErrUserInvalidInput signals the caller provided invalid arguments.
	ErrUserInvalidInput = errors.New("user: invalid input")
	// ErrUserEmailTaken indicates the email address is already registered.
	ErrUserEmailTaken = errors.New("user: email already registered")
	// ErrUserNotFound indicates the account could not be located.
	ErrUserNotFound = errors.New("user: not found")
	// ErrInvalidCredentials indicates the email or password did not match.
	ErrInvalidCredentials = errors.New("user: invalid credentials")
)

// AdminFallback is the env-configured administrator identity accepted at login
// even when no matching account document exists.
type AdminFallback struct {
	Email    string
	Password string
}

// UserServiceDeps bundles the collaborators required to construct a user service.
type UserServiceDeps struct {
	Users       repositories.UserRepository
	Favorites   repositories.FavoriteRepository
	Tokens      *auth.TokenIssuer
	Passwords   *auth.PasswordHasher
	Admin       AdminFallback
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type userService struct {
	users     repositories.UserRepository
	favorites repositories.FavoriteRepository
	tokens    *auth.TokenIssuer
	passwords *auth.PasswordHasher
	admin     AdminFallback
	clock     func() time.Time
	newID     func() string
	logger    func(context.Context, string, map[string]any)
}

// NewUserService wires dependencies into a concrete UserService implementation.
func NewUserService(deps UserServiceDeps) (UserService, error) {
	if deps.Users == nil {
		return nil, errors.New("user service: user repository is required")
	}
	if deps.Tokens == nil {
		return nil, errors.New("user service: token issuer is required")
	}
	if deps.Passwords == nil {
		return nil, errors.New("user service: password hasher is required")
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

	return &userService{
		users:     deps.Users,
		favorites: deps.Favorites,
		tokens:    deps.Tokens,
		passwords: deps.Passwords,
		admin:     deps.Admin,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  idGen,
		logger: logger,
	}, nil
}

// Register creates a public account. The role is always forced to client;
// privileged roles can only be handed out by an administrator.
func (s *userService) Register(ctx context.Context, cmd RegisterCommand) (AuthResult, error) {
	name := strings.TrimSpace(cmd.Name)
	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	if name == "" || email == "" || cmd.Password == "" {
		return AuthResult{}, fmt.Errorf("%w: name, email and password are required", ErrUserInvalidInput)
	}
	if !validEmail(email) {
		return AuthResult{}, fmt.Errorf("%w: invalid email address", ErrUserInvalidInput)
	}
	if len(cmd.Password) < minPasswordLength {
		return AuthResult{}, fmt.Errorf("%w: password must be at least %d characters", ErrUserInvalidInput, minPasswordLength)
	}

	hash, err := s.passwords.Hash(cmd.Password)
	if err != nil {
		return AuthResult{}, fmt.Errorf("user service: hash password: %w", err)
	}

	now := s.clock()
	user := domain.User{
		ID:           s.newID(),
		Name:         name,
		Email:        email,
		Role:         domain.RoleClient,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	stored, err := s.users.Insert(ctx, user)
	if err != nil {
		return AuthResult{}, s.mapUserError(err)
	}

	token, err := s.issueToken(stored)
	if err != nil {
		return AuthResult{}, err
	}

	s.logger(ctx, "user.registered", map[string]any{"userId": stored.ID})
	return AuthResult{Token: token, User: stored}, nil
}

// Login authenticates with email and password. The env-configured admin
// credentials are accepted even without an account document.
func (s *userService) Login(ctx context.Context, cmd LoginCommand) (AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	if email == "" || cmd.Password == "" {
		return AuthResult{}, fmt.Errorf("%w: email and password are required", ErrUserInvalidInput)
	}

	if s.admin.Email != "" && email == strings.ToLower(s.admin.Email) && cmd.Password == s.admin.Password {
		admin := domain.User{
			ID:    "admin",
			Name:  "Administrator",
			Email: email,
			Role:  domain.RoleAdmin,
		}
		token, err := s.issueToken(admin)
		if err != nil {
			return AuthResult{}, err
		}
		return AuthResult{Token: token, User: admin}, nil
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if isRepositoryNotFound(err) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}
	if err := s.passwords.Compare(user.PasswordHash, cmd.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}

	token, err := s.issueToken(user)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Token: token, User: user}, nil
}

func (s *userService) GetUser(ctx context.Context, userID string) (User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return User{}, fmt.Errorf("%w: user id is required", ErrUserInvalidInput)
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return User{}, s.mapUserError(err)
	}
	return user, nil
}

// CreateUser is the admin path: any valid role may be assigned.
func (s *userService) CreateUser(ctx context.Context, cmd CreateUserCommand) (User, error) {
	name := strings.TrimSpace(cmd.Name)
	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	role := strings.ToLower(strings.TrimSpace(cmd.Role))
	if name == "" || email == "" || role == "" || cmd.Password == "" {
		return User{}, fmt.Errorf("%w: name, email, role and password are required", ErrUserInvalidInput)
	}
	if !validEmail(email) {
		return User{}, fmt.Errorf("%w: invalid email address", ErrUserInvalidInput)
	}
	if !domain.ValidRole(role) {
		return User{}, fmt.Errorf("%w: unknown role %q", ErrUserInvalidInput, role)
	}
	if len(cmd.Password) < minPasswordLength {
		return User{}, fmt.Errorf("%w: password must be at least %d characters", ErrUserInvalidInput, minPasswordLength)
	}

	hash, err := s.passwords.Hash(cmd.Password)
	if err != nil {
		return User{}, fmt.Errorf("user service: hash password: %w", err)
	}

	now := s.clock()
	user := domain.User{
		ID:           s.newID(),
		Name:         name,
		Email:        email,
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	stored, err := s.users.Insert(ctx, user)
	if err != nil {
		return User{}, s.mapUserError(err)
	}
	return stored, nil
}

func (s *userService) UpdateUser(ctx context.Context, cmd UpdateUserCommand) (User, error) {
	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" {
		return User{}, fmt.Errorf("%w: user id is required", ErrUserInvalidInput)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return User{}, s.mapUserError(err)
	}

	if cmd.Name != nil {
		name := strings.TrimSpace(*cmd.Name)
		if name == "" {
			return User{}, fmt.Errorf("%w: name cannot be blank", ErrUserInvalidInput)
		}
		user.Name = name
	}
	if cmd.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*cmd.Email))
		if !validEmail(email) {
			return User{}, fmt.Errorf("%w: invalid email address", ErrUserInvalidInput)
		}
		user.Email = email
	}
	if cmd.Role != nil {
		role := strings.ToLower(strings.TrimSpace(*cmd.Role))
		if !domain.ValidRole(role) {
			return User{}, fmt.Errorf("%w: unknown role %q", ErrUserInvalidInput, role)
		}
		user.Role = role
	}
	if cmd.Password != nil {
		if len(*cmd.Password) < minPasswordLength {
			return User{}, fmt.Errorf("%w: password must be at least %d characters", ErrUserInvalidInput, minPasswordLength)
		}
		hash, err := s.passwords.Hash(*cmd.Password)
		if err != nil {
			return User{}, fmt.Errorf("user service: hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	updated, err := s.users.Update(ctx, user)
	if err != nil {
		return User{}, s.mapUserError(err)
	}
	return updated, nil
}

func (s *userService) DeleteUser(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("%w: user id is required", ErrUserInvalidInput)
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return s.mapUserError(err)
	}
	s.logger(ctx, "user.deleted", map[string]any{"userId": userID})
	return nil
}

func (s *userService) ListUsers(ctx context.Context, pager Pagination) (domain.CursorPage[User], error) {
	return s.users.List(ctx, pager)
}

func (s *userService) ListFavorites(ctx context.Context, userID string, pager Pagination) (domain.CursorPage[Favorite], error) {
	if s.favorites == nil {
		return domain.CursorPage[Favorite]{}, errors.New("user service: favorite repository is not configured")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.CursorPage[Favorite]{}, fmt.Errorf("%w: user id is required", ErrUserInvalidInput)
	}
	return s.favorites.List(ctx, userID, pager)
}

func (s *userService) AddFavorite(ctx context.Context, cmd AddFavoriteCommand) (Favorite, bool, error) {
	if s.favorites == nil {
		return Favorite{}, false, errors.New("user service: favorite repository is not configured")
	}
	userID := strings.TrimSpace(cmd.UserID)
	productID := strings.TrimSpace(cmd.ProductID)
	if userID == "" || productID == "" {
		return Favorite{}, false, fmt.Errorf("%w: user id and product id are required", ErrUserInvalidInput)
	}

	favorite := domain.Favorite{
		ProductID:   productID,
		ProductName: strings.TrimSpace(cmd.ProductName),
		AddedAt:     s.clock(),
	}
	created, err := s.favorites.Put(ctx, userID, favorite)
	if err != nil {
		return Favorite{}, false, s.mapUserError(err)
	}
	return favorite, created, nil
}

func (s *userService) RemoveFavorite(ctx context.Context, userID string, productID string) error {
	if s.favorites == nil {
		return errors.New("user service: favorite repository is not configured")
	}
	userID = strings.TrimSpace(userID)
	productID = strings.TrimSpace(productID)
	if userID == "" || productID == "" {
		return fmt.Errorf("%w: user id and product id are required", ErrUserInvalidInput)
	}
	if err := s.favorites.Delete(ctx, userID, productID); err != nil {
		return s.mapUserError(err)
	}
	return nil
}

func (s *userService) issueToken(user domain.User) (string, error) {
	token, err := s.tokens.Issue(auth.Identity{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Role:   user.Role,
	})
	if err != nil {
		return "", fmt.Errorf("user service: issue token: %w", err)
	}
	return token, nil
}

func (s *userService) mapUserError(err error) error {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return ErrUserNotFound
		case repoErr.IsConflict():
			return ErrUserEmailTaken
		}
	}
	return err
}

// validEmail applies the same lightweight shape check the storefront uses: an
// @ with a dotted domain part.
func validEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	return strings.Contains(email[at+1:], ".")
}
