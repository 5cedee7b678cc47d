package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func baseEnv() map[string]string {
	return map[string]string{
		"API_FIRESTORE_PROJECT_ID": "uniqmaker-dev",
		"API_AUTH_JWT_SECRET":      "test-secret",
	}
}

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load(context.Background(), WithEnvMap(baseEnv()), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.Supplier.BaseURL != defaultSupplierBaseURL {
		t.Errorf("expected default supplier base url, got %s", cfg.Supplier.BaseURL)
	}
	if cfg.Supplier.Timeout != defaultSupplierTimeout {
		t.Errorf("unexpected supplier timeout: %s", cfg.Supplier.Timeout)
	}
	if cfg.Supplier.Language != "fr" {
		t.Errorf("expected default supplier language fr, got %s", cfg.Supplier.Language)
	}
	if cfg.Supplier.RefreshEnabled {
		t.Errorf("expected scheduled refresh disabled by default")
	}
	if cfg.Auth.TokenTTL != defaultTokenTTL {
		t.Errorf("unexpected default token ttl: %s", cfg.Auth.TokenTTL)
	}
	if cfg.Auth.BcryptCost != defaultBcryptCost {
		t.Errorf("unexpected default bcrypt cost: %d", cfg.Auth.BcryptCost)
	}
	if cfg.SMTP.Port != defaultSMTPPort {
		t.Errorf("unexpected default smtp port: %d", cfg.SMTP.Port)
	}
	if cfg.PDF.RenderTimeout != defaultPDFRenderTimeout {
		t.Errorf("unexpected default pdf render timeout: %s", cfg.PDF.RenderTimeout)
	}
	if cfg.PubSub.ProjectID != "uniqmaker-dev" {
		t.Errorf("expected pubsub project to default to firestore project, got %s", cfg.PubSub.ProjectID)
	}
	if cfg.RateLimits.DefaultPerMinute != 120 {
		t.Errorf("unexpected default rate limit: %d", cfg.RateLimits.DefaultPerMinute)
	}
	if cfg.Security.Environment != "local" {
		t.Errorf("expected default security environment local, got %s", cfg.Security.Environment)
	}
	if cfg.Security.OIDC.JWKSURL != defaultOIDCJWKSURL {
		t.Errorf("expected default jwks url %s, got %s", defaultOIDCJWKSURL, cfg.Security.OIDC.JWKSURL)
	}
	if len(cfg.Security.OIDC.Issuers) != 2 {
		t.Errorf("expected default issuers, got %v", cfg.Security.OIDC.Issuers)
	}
}

func TestLoadWithOverridesAndSecrets(t *testing.T) {
	env := map[string]string{
		"API_SERVER_PORT":               "9090",
		"API_SERVER_READ_TIMEOUT":       "20s",
		"API_SERVER_IDLE_TIMEOUT":       "2m",
		"API_FIRESTORE_PROJECT_ID":      "uniqmaker-prod",
		"API_STORAGE_QUOTES_BUCKET":     "quotes-prod",
		"API_STORAGE_UPLOADS_BUCKET":    "uploads-prod",
		"API_STORAGE_SIGNED_URL_TTL":    "30m",
		"API_SUPPLIER_BASE_URL":         "https://gateway.example.com",
		"API_SUPPLIER_API_KEY":          "secret://supplier/key",
		"API_SUPPLIER_TIMEOUT":          "10s",
		"API_SUPPLIER_LANGUAGE":         "en",
		"API_SUPPLIER_REFRESH_ENABLED":  "true",
		"API_SUPPLIER_REFRESH_SCHEDULE": "30 5 * * *",
		"API_AUTH_JWT_SECRET":           "secret://auth/jwt",
		"API_AUTH_TOKEN_TTL":            "12h",
		"API_AUTH_ADMIN_EMAIL":          "admin@example.com",
		"API_AUTH_ADMIN_PASSWORD":       "secret://auth/admin",
		"API_SMTP_HOST":                 "smtp.example.com",
		"API_SMTP_PORT":                 "465",
		"API_SMTP_PASSWORD":             "secret://smtp/password",
		"API_SMTP_FROM":                 "quotes@example.com",
		"API_PUBSUB_PROJECT_ID":         "uniqmaker-events",
		"API_PUBSUB_EVENTS_TOPIC":       "quote-events",
		"API_RATELIMIT_DEFAULT_PER_MIN": "150",
		"API_SECURITY_ENVIRONMENT":      "prod",
		"API_SECURITY_OIDC_AUDIENCE":    "https://service.example.com",
		"API_SECURITY_OIDC_JWKS_URL":    "https://example.com/jwks.json",
	}

	secrets := map[string]string{
		"secret://supplier/key":  "gateway-key",
		"secret://auth/jwt":      "jwt-secret",
		"secret://auth/admin":    "admin-password",
		"secret://smtp/password": "smtp-password",
	}

	resolver := SecretResolverFunc(func(_ context.Context, ref string) (string, error) {
		if v, ok := secrets[ref]; ok {
			return v, nil
		}
		return "", &SecretError{Ref: ref, Err: errSecretResolverNotConfigured}
	})

	cfg, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""), WithSecretResolver(resolver))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Server.IdleTimeout != 2*time.Minute {
		t.Errorf("unexpected idle timeout: %s", cfg.Server.IdleTimeout)
	}
	if cfg.Storage.QuotesBucket != "quotes-prod" {
		t.Errorf("unexpected quotes bucket %s", cfg.Storage.QuotesBucket)
	}
	if cfg.Storage.SignedURLTTL != 30*time.Minute {
		t.Errorf("unexpected signed url ttl %s", cfg.Storage.SignedURLTTL)
	}
	if cfg.Supplier.APIKey != "gateway-key" {
		t.Errorf("expected resolved supplier key, got %s", cfg.Supplier.APIKey)
	}
	if cfg.Supplier.Language != "en" {
		t.Errorf("unexpected supplier language %s", cfg.Supplier.Language)
	}
	if !cfg.Supplier.RefreshEnabled {
		t.Errorf("expected scheduled refresh enabled")
	}
	if cfg.Supplier.RefreshSchedule != "30 5 * * *" {
		t.Errorf("unexpected refresh schedule %s", cfg.Supplier.RefreshSchedule)
	}
	if cfg.Auth.JWTSecret != "jwt-secret" {
		t.Errorf("expected resolved jwt secret, got %s", cfg.Auth.JWTSecret)
	}
	if cfg.Auth.TokenTTL != 12*time.Hour {
		t.Errorf("unexpected token ttl %s", cfg.Auth.TokenTTL)
	}
	if cfg.Auth.AdminPassword != "admin-password" {
		t.Errorf("expected resolved admin password, got %s", cfg.Auth.AdminPassword)
	}
	if cfg.SMTP.Password != "smtp-password" {
		t.Errorf("expected resolved smtp password, got %s", cfg.SMTP.Password)
	}
	if cfg.SMTP.Port != 465 {
		t.Errorf("unexpected smtp port %d", cfg.SMTP.Port)
	}
	if cfg.PubSub.ProjectID != "uniqmaker-events" {
		t.Errorf("unexpected pubsub project %s", cfg.PubSub.ProjectID)
	}
	if cfg.Security.Environment != "prod" {
		t.Errorf("expected security environment prod, got %s", cfg.Security.Environment)
	}
	if cfg.Security.OIDC.Audience != "https://service.example.com" {
		t.Errorf("unexpected oidc audience %s", cfg.Security.OIDC.Audience)
	}
	if cfg.Security.OIDC.JWKSURL != "https://example.com/jwks.json" {
		t.Errorf("unexpected jwks url %s", cfg.Security.OIDC.JWKSURL)
	}
}

func TestLoadDotEnvFallback(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env.test")
	content := "API_SERVER_PORT=7070\nAPI_FIRESTORE_PROJECT_ID=uniqmaker-dot\nAPI_AUTH_JWT_SECRET=dot-secret\n"
	if err := os.WriteFile(envPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write dotenv file: %v", err)
	}

	cfg, err := Load(context.Background(), WithEnvFile(envPath), WithoutSystemEnv())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "7070" {
		t.Errorf("expected port from dotenv 7070, got %s", cfg.Server.Port)
	}
	if cfg.Firestore.ProjectID != "uniqmaker-dot" {
		t.Errorf("expected firestore project from dotenv, got %s", cfg.Firestore.ProjectID)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	_, err := Load(context.Background(), WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""))
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	if _, ok := err.(*ValidationError); !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
}

func TestLoadSecretResolverError(t *testing.T) {
	env := baseEnv()
	env["API_SUPPLIER_API_KEY"] = "secret://missing"

	_, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err == nil {
		t.Fatal("expected secret resolution error, got nil")
	}
	var secretErr *SecretError
	if !errors.As(err, &secretErr) {
		t.Fatalf("expected SecretError, got %T", err)
	}
	if secretErr.Ref != "secret://missing" {
		t.Errorf("unexpected secret ref %s", secretErr.Ref)
	}
}

func TestEnvironmentValuesMergesSources(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env.test")
	content := "API_FIRESTORE_PROJECT_ID=dot-project\nAPI_SECRET_FALLBACK_FILE=.dot.local\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("failed writing env file: %v", err)
	}

	t.Setenv("API_FIRESTORE_PROJECT_ID", "os-project")
	t.Setenv("API_SECRET_PROJECT_IDS", "prod=project-prod")

	overrides := map[string]string{
		"API_FIRESTORE_PROJECT_ID": "override-project",
		"API_SECRET_VERSION_PINS":  "secret://supplier/key=5",
	}

	values, err := EnvironmentValues(WithEnvFile(envPath), WithEnvMap(overrides))
	if err != nil {
		t.Fatalf("EnvironmentValues returned error: %v", err)
	}

	if got := values["API_FIRESTORE_PROJECT_ID"]; got != "override-project" {
		t.Fatalf("expected override project, got %s", got)
	}
	if got := values["API_SECRET_FALLBACK_FILE"]; got != ".dot.local" {
		t.Fatalf("expected dotenv fallback file, got %s", got)
	}
	if got := values["API_SECRET_PROJECT_IDS"]; got != "prod=project-prod" {
		t.Fatalf("expected system env project map, got %s", got)
	}
	if got := values["API_SECRET_VERSION_PINS"]; got != "secret://supplier/key=5" {
		t.Fatalf("expected override version pin, got %s", got)
	}
}

func TestLoadMissingRequiredSecrets(t *testing.T) {
	_, err := Load(context.Background(),
		WithEnvMap(baseEnv()),
		WithoutSystemEnv(),
		WithEnvFile(""),
		WithRequiredSecrets("Supplier.APIKey"),
	)
	if err == nil {
		t.Fatal("expected missing secrets error, got nil")
	}
	var missing *MissingSecretsError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingSecretsError, got %T", err)
	}
	expectedRedacted := redactSecretName("Supplier.APIKey")
	if got := missing.RedactedNames(); len(got) != 1 || got[0] != expectedRedacted {
		t.Fatalf("unexpected redacted names %v", got)
	}
}

func TestLoadMissingRequiredSecretsPanic(t *testing.T) {
	defer func() {
		rec := recover()
		if rec == nil {
			t.Fatal("expected panic when required secrets missing")
		}
		missing, ok := rec.(*MissingSecretsError)
		if !ok {
			t.Fatalf("expected MissingSecretsError panic, got %T", rec)
		}
		if len(missing.Names()) != 1 || missing.Names()[0] != "Supplier.APIKey" {
			t.Fatalf("unexpected missing secrets %v", missing.Names())
		}
	}()

	Load(context.Background(),
		WithEnvMap(baseEnv()),
		WithoutSystemEnv(),
		WithEnvFile(""),
		WithRequiredSecrets("Supplier.APIKey"),
		WithPanicOnMissingSecrets(),
	)
}

func TestLoadSupportsLegacySecretScheme(t *testing.T) {
	env := baseEnv()
	env["API_SUPPLIER_API_KEY"] = "sm://supplier/key"

	secrets := map[string]string{
		"secret://supplier/key": "legacy-key",
	}

	resolver := SecretResolverFunc(func(_ context.Context, ref string) (string, error) {
		if v, ok := secrets[ref]; ok {
			return v, nil
		}
		return "", &SecretError{Ref: ref, Err: errors.New("not found")}
	})

	cfg, err := Load(context.Background(),
		WithEnvMap(env),
		WithoutSystemEnv(),
		WithEnvFile(""),
		WithSecretResolver(resolver),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Supplier.APIKey != "legacy-key" {
		t.Fatalf("expected legacy secret, got %s", cfg.Supplier.APIKey)
	}
}
