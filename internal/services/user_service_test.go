package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/uniqmaker/api/internal/domain"
	"github.com/uniqmaker/api/internal/platform/auth"
	"golang.org/x/crypto/bcrypt"
)

func newUserService(t *testing.T, deps UserServiceDeps) (UserService, *auth.TokenIssuer) {
	t.Helper()
	issuer, err := auth.NewTokenIssuer("test-secret")
	if err != nil {
		t.Fatalf("NewTokenIssuer returned error: %v", err)
	}
	if deps.Users == nil {
		deps.Users = newFakeUserRepo()
	}
	if deps.Favorites == nil {
		deps.Favorites = newFakeFavoriteRepo()
	}
	if deps.Tokens == nil {
		deps.Tokens = issuer
	}
	if deps.Passwords == nil {
		deps.Passwords = auth.NewPasswordHasher(bcrypt.MinCost)
	}
	if deps.Clock == nil {
		deps.Clock = fixedClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	}
	if deps.IDGenerator == nil {
		deps.IDGenerator = sequenceIDs()
	}
	svc, err := NewUserService(deps)
	if err != nil {
		t.Fatalf("NewUserService returned error: %v", err)
	}
	return svc, deps.Tokens
}

func TestUserRegisterForcesClientRole(t *testing.T) {
	users := newFakeUserRepo()
	svc, issuer := newUserService(t, UserServiceDeps{Users: users})

	result, err := svc.Register(context.Background(), RegisterCommand{
		Name:     " Alice ",
		Email:    " Alice@Example.COM ",
		Password: "longenough",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if result.User.Role != domain.RoleClient {
		t.Fatalf("expected forced client role, got %q", result.User.Role)
	}
	if result.User.Name != "Alice" || result.User.Email != "alice@example.com" {
		t.Fatalf("unexpected normalisation %+v", result.User)
	}
	if result.User.PasswordHash == "" || result.User.PasswordHash == "longenough" {
		t.Fatal("password was not hashed")
	}

	identity, err := issuer.Verify(result.Token)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if identity.UserID != result.User.ID || identity.Role != domain.RoleClient {
		t.Fatalf("unexpected token identity %+v", identity)
	}
}

func TestUserRegisterValidation(t *testing.T) {
	svc, _ := newUserService(t, UserServiceDeps{})

	tests := []struct {
		name string
		cmd  RegisterCommand
	}{
		{"missing fields", RegisterCommand{Name: "Bob"}},
		{"invalid email", RegisterCommand{Name: "Bob", Email: "bob@nodot", Password: "longenough"}},
		{"short password", RegisterCommand{Name: "Bob", Email: "bob@example.com", Password: "short"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(context.Background(), tc.cmd); !errors.Is(err, ErrUserInvalidInput) {
				t.Fatalf("expected ErrUserInvalidInput, got %v", err)
			}
		})
	}
}

func TestUserRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newUserService(t, UserServiceDeps{})

	cmd := RegisterCommand{Name: "Alice", Email: "alice@example.com", Password: "longenough"}
	if _, err := svc.Register(context.Background(), cmd); err != nil {
		t.Fatalf("first Register returned error: %v", err)
	}
	if _, err := svc.Register(context.Background(), cmd); !errors.Is(err, ErrUserEmailTaken) {
		t.Fatalf("expected ErrUserEmailTaken, got %v", err)
	}
}

func TestUserLogin(t *testing.T) {
	svc, _ := newUserService(t, UserServiceDeps{})

	registered, err := svc.Register(context.Background(), RegisterCommand{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "longenough",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	result, err := svc.Login(context.Background(), LoginCommand{Email: "alice@example.com", Password: "longenough"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if result.User.ID != registered.User.ID || result.Token == "" {
		t.Fatalf("unexpected login result %+v", result)
	}

	if _, err := svc.Login(context.Background(), LoginCommand{Email: "alice@example.com", Password: "wrong-pass"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(context.Background(), LoginCommand{Email: "nobody@example.com", Password: "whatever"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestUserLoginAdminFallback(t *testing.T) {
	svc, issuer := newUserService(t, UserServiceDeps{
		Admin: AdminFallback{Email: "admin@uniqmaker.fr", Password: "root-secret"},
	})

	result, err := svc.Login(context.Background(), LoginCommand{Email: "Admin@uniqmaker.FR", Password: "root-secret"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	identity, err := issuer.Verify(result.Token)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if identity.Role != domain.RoleAdmin {
		t.Fatalf("expected admin role, got %q", identity.Role)
	}

	if _, err := svc.Login(context.Background(), LoginCommand{Email: "admin@uniqmaker.fr", Password: "bad"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestUserCreateUserValidatesRole(t *testing.T) {
	svc, _ := newUserService(t, UserServiceDeps{})

	if _, err := svc.CreateUser(context.Background(), CreateUserCommand{
		Name:     "Bob",
		Email:    "bob@example.com",
		Role:     "superuser",
		Password: "longenough",
	}); !errors.Is(err, ErrUserInvalidInput) {
		t.Fatalf("expected ErrUserInvalidInput, got %v", err)
	}

	user, err := svc.CreateUser(context.Background(), CreateUserCommand{
		Name:     "Bob",
		Email:    "bob@example.com",
		Role:     "Commercial",
		Password: "longenough",
	})
	if err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	if user.Role != domain.RoleCommercial {
		t.Fatalf("expected normalised role, got %q", user.Role)
	}
}

func TestUserUpdateUser(t *testing.T) {
	users := newFakeUserRepo()
	svc, _ := newUserService(t, UserServiceDeps{Users: users})

	created, err := svc.CreateUser(context.Background(), CreateUserCommand{
		Name:     "Bob",
		Email:    "bob@example.com",
		Role:     domain.RoleClient,
		Password: "longenough",
	})
	if err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}

	newName := "Robert"
	newRole := domain.RoleCommercial
	updated, err := svc.UpdateUser(context.Background(), UpdateUserCommand{
		UserID: created.ID,
		Name:   &newName,
		Role:   &newRole,
	})
	if err != nil {
		t.Fatalf("UpdateUser returned error: %v", err)
	}
	if updated.Name != "Robert" || updated.Role != domain.RoleCommercial {
		t.Fatalf("unexpected update %+v", updated)
	}
	if updated.Email != "bob@example.com" || updated.PasswordHash != created.PasswordHash {
		t.Fatal("untouched fields changed")
	}

	badRole := "owner"
	if _, err := svc.UpdateUser(context.Background(), UpdateUserCommand{UserID: created.ID, Role: &badRole}); !errors.Is(err, ErrUserInvalidInput) {
		t.Fatalf("expected ErrUserInvalidInput, got %v", err)
	}
	if _, err := svc.UpdateUser(context.Background(), UpdateUserCommand{UserID: "missing"}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserDeleteUser(t *testing.T) {
	svc, _ := newUserService(t, UserServiceDeps{})

	created, err := svc.CreateUser(context.Background(), CreateUserCommand{
		Name:     "Bob",
		Email:    "bob@example.com",
		Role:     domain.RoleClient,
		Password: "longenough",
	})
	if err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	if err := svc.DeleteUser(context.Background(), created.ID); err != nil {
		t.Fatalf("DeleteUser returned error: %v", err)
	}
	if _, err := svc.GetUser(context.Background(), created.ID); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserFavorites(t *testing.T) {
	svc, _ := newUserService(t, UserServiceDeps{})

	fav, created, err := svc.AddFavorite(context.Background(), AddFavoriteCommand{
		UserID:      "user-1",
		ProductID:   "SH01",
		ProductName: "Gourde isotherme",
	})
	if err != nil {
		t.Fatalf("AddFavorite returned error: %v", err)
	}
	if !created || fav.ProductID != "SH01" || fav.AddedAt.IsZero() {
		t.Fatalf("unexpected favorite %+v created=%v", fav, created)
	}

	// Re-favoriting is a no-op, not an error.
	if _, created, err := svc.AddFavorite(context.Background(), AddFavoriteCommand{UserID: "user-1", ProductID: "SH01"}); err != nil || created {
		t.Fatalf("expected created=false, got created=%v err=%v", created, err)
	}

	page, err := svc.ListFavorites(context.Background(), "user-1", Pagination{})
	if err != nil {
		t.Fatalf("ListFavorites returned error: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("expected 1 favorite, got %d", len(page.Items))
	}

	if err := svc.RemoveFavorite(context.Background(), "user-1", "SH01"); err != nil {
		t.Fatalf("RemoveFavorite returned error: %v", err)
	}
	if err := svc.RemoveFavorite(context.Background(), "user-1", "SH01"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	if _, _, err := svc.AddFavorite(context.Background(), AddFavoriteCommand{UserID: "", ProductID: "SH01"}); !errors.Is(err, ErrUserInvalidInput) {
		t.Fatalf("expected ErrUserInvalidInput, got %v", err)
	}
}
