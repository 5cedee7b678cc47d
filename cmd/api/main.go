package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	cloudstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/uniqmaker/api/internal/di"
	"github.com/uniqmaker/api/internal/handlers"
	"github.com/uniqmaker/api/internal/mail"
	"github.com/uniqmaker/api/internal/pdf"
	"github.com/uniqmaker/api/internal/platform/auth"
	"github.com/uniqmaker/api/internal/platform/config"
	pfirestore "github.com/uniqmaker/api/internal/platform/firestore"
	"github.com/uniqmaker/api/internal/platform/idempotency"
	"github.com/uniqmaker/api/internal/platform/jobs"
	"github.com/uniqmaker/api/internal/platform/observability"
	"github.com/uniqmaker/api/internal/platform/secrets"
	platformstorage "github.com/uniqmaker/api/internal/platform/storage"
	firestoreRepo "github.com/uniqmaker/api/internal/repositories/firestore"
	"github.com/uniqmaker/api/internal/scheduler"
	"github.com/uniqmaker/api/internal/services"
	"github.com/uniqmaker/api/internal/supplier"
)

func main() {
	ctx := context.Background()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	envValues, err := config.EnvironmentValues()
	if err != nil {
		logger.Fatal("failed to read environment values", zap.Error(err))
	}

	fetcher, err := newSecretFetcher(ctx, logger, envValues)
	if err != nil {
		logger.Fatal("failed to initialise secret fetcher", zap.Error(err))
	}
	defer func() {
		if err := fetcher.Close(); err != nil {
			logger.Warn("secret fetcher close error", zap.Error(err))
		}
	}()

	cfg, err := config.Load(ctx,
		config.WithSecretResolver(config.SecretResolverFunc(fetcher.Resolve)),
		config.WithRequiredSecrets(requiredSecretNames(envValues)...),
	)
	if err != nil {
		var missing *config.MissingSecretsError
		if errors.As(err, &missing) {
			logger.Fatal("missing required secrets", zap.Strings("secrets", missing.RedactedNames()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	firestoreProvider := pfirestore.NewProvider(cfg.Firestore)
	firestoreClient, err := firestoreProvider.Client(ctx)
	if err != nil {
		logger.Fatal("failed to initialise firestore client", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := firestoreProvider.Close(closeCtx); err != nil {
			logger.Warn("firestore close error", zap.Error(err))
		}
	}()

	registry, err := firestoreRepo.NewRegistry(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise repositories", zap.Error(err))
	}

	objectStore := newObjectStore(ctx, logger, cfg)

	supplierClient, err := supplier.NewClient(cfg.Supplier)
	if err != nil {
		logger.Fatal("failed to initialise supplier client", zap.Error(err))
	}

	renderer, err := pdf.NewRenderer(cfg.PDF)
	if err != nil {
		logger.Fatal("failed to initialise pdf renderer", zap.Error(err))
	}

	var mailer services.QuoteMailer
	if strings.TrimSpace(cfg.SMTP.Host) != "" {
		m, err := mail.NewMailer(cfg.SMTP)
		if err != nil {
			logger.Fatal("failed to initialise mailer", zap.Error(err))
		}
		mailer = m
	} else {
		logger.Warn("smtp host not configured; quote delivery disabled")
	}

	var (
		quoteEvents   services.QuoteEventPublisher
		catalogEvents services.CatalogEventPublisher
		pubsubClient  *pubsub.Client
	)
	if topicID := strings.TrimSpace(cfg.PubSub.EventsTopic); topicID != "" {
		pubsubClient, err = pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			logger.Fatal("failed to initialise pubsub client", zap.Error(err))
		}
		publisher, err := jobs.NewEventPublisher(pubsubClient.Topic(topicID))
		if err != nil {
			logger.Fatal("failed to initialise event publisher", zap.Error(err))
		}
		quoteEvents = publisher
		catalogEvents = publisher
	}
	defer func() {
		if pubsubClient != nil {
			if err := pubsubClient.Close(); err != nil {
				logger.Warn("pubsub close error", zap.Error(err))
			}
		}
	}()

	tokenIssuer, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret, auth.WithTokenTTL(cfg.Auth.TokenTTL))
	if err != nil {
		logger.Fatal("failed to initialise token issuer", zap.Error(err))
	}
	authenticator := auth.NewAuthenticator(tokenIssuer)
	passwordHasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)

	container, err := di.NewContainer(ctx, cfg, registry, di.Collaborators{
		Gateway:       supplierClient,
		Renderer:      renderer,
		Mailer:        mailer,
		Store:         objectStore,
		QuoteEvents:   quoteEvents,
		CatalogEvents: catalogEvents,
		Tokens:        tokenIssuer,
		Passwords:     passwordHasher,
		Logger:        serviceLogger(logger.Named("services")),
	})
	if err != nil {
		logger.Fatal("failed to build services", zap.Error(err))
	}
	svc := container.Services

	authHandlers := handlers.NewAuthHandlers(svc.Users, cfg.RateLimits.AuthenticatedPerMinute)
	meHandlers := handlers.NewMeHandlers(authenticator, svc.Users)
	userHandlers := handlers.NewUserHandlers(authenticator, svc.Users)
	clientHandlers := handlers.NewClientHandlers(authenticator, svc.Clients)
	idempotencyMiddleware := idempotency.Middleware(
		idempotency.NewFirestoreStore(firestoreClient),
		idempotency.WithMethods(http.MethodPost),
		idempotency.WithLogger(observability.NewPrintfAdapter(logger.Named("idempotency"))),
	)
	quoteHandlers := handlers.NewQuoteHandlers(authenticator, svc.Quotes,
		handlers.WithQuoteIdempotency(idempotencyMiddleware),
	)
	productHandlers := handlers.NewProductHandlers(authenticator, svc.Products)
	supplierHandlers := handlers.NewSupplierHandlers(authenticator, svc.Catalog)
	healthHandlers := handlers.NewHealthHandlers(svc.System)

	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(cfg.Firestore.ProjectID),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(cfg.Firestore.ProjectID),
	}

	opts := []handlers.Option{
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithAuthRoutes(authHandlers.Routes),
		handlers.WithMeRoutes(meHandlers.Routes),
		handlers.WithUserRoutes(userHandlers.Routes),
		handlers.WithClientRoutes(clientHandlers.Routes),
		handlers.WithQuoteRoutes(quoteHandlers.Routes),
		handlers.WithProductRoutes(productHandlers.Routes),
		handlers.WithSupplierRoutes(supplierHandlers.Routes),
		handlers.WithAdminRoutes(productHandlers.AdminRoutes),
		handlers.WithInternalRoutes(supplierHandlers.InternalRoutes),
	}
	if oidcMiddleware := buildOIDCMiddleware(logger.Named("auth"), cfg); oidcMiddleware != nil {
		opts = append(opts, handlers.WithInternalMiddlewares(oidcMiddleware))
	}

	router := handlers.NewRouter(opts...)
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	var refresher *scheduler.RefreshScheduler
	if cfg.Supplier.RefreshEnabled {
		refresher, err = scheduler.NewRefreshScheduler(cfg.Supplier, svc.Catalog,
			scheduler.WithLogger(serviceLogger(logger.Named("scheduler"))),
		)
		if err != nil {
			logger.Fatal("failed to initialise refresh scheduler", zap.Error(err))
		}
		if err := refresher.Start(); err != nil {
			logger.Fatal("failed to start refresh scheduler", zap.Error(err))
		}
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if refresher != nil {
		if err := refresher.Stop(shutdownCtx); err != nil {
			logger.Warn("refresh scheduler stop error", zap.Error(err))
		}
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// newObjectStore builds the GCS-backed store used for quote PDFs and product
// image uploads. Signing requires a service account key; without one the
// store is nil and upload-backed features are disabled.
func newObjectStore(ctx context.Context, logger *zap.Logger, cfg config.Config) services.ObjectStore {
	signerKey := strings.TrimSpace(cfg.Storage.SignerKey)
	if signerKey == "" {
		logger.Warn("storage signer key not configured; object storage disabled")
		return nil
	}

	storageClient, err := cloudstorage.NewClient(ctx)
	if err != nil {
		logger.Fatal("failed to initialise storage client", zap.Error(err))
	}

	signer, err := platformstorage.NewServiceAccountSignerFromJSON([]byte(signerKey))
	if err != nil {
		logger.Fatal("failed to parse storage signer key", zap.Error(err))
	}
	signedURLClient, err := platformstorage.NewClient(signer)
	if err != nil {
		logger.Fatal("failed to initialise signed url client", zap.Error(err))
	}
	store, err := platformstorage.NewObjectStore(storageClient, signedURLClient)
	if err != nil {
		logger.Fatal("failed to initialise object store", zap.Error(err))
	}
	return store
}

// serviceLogger adapts the structured zap logger to the event/fields shape
// the service layer logs through.
func serviceLogger(logger *zap.Logger) func(ctx context.Context, event string, fields map[string]any) {
	return func(_ context.Context, event string, fields map[string]any) {
		zFields := make([]zap.Field, 0, len(fields))
		for k, v := range fields {
			zFields = append(zFields, zap.Any(k, v))
		}
		logger.Info(event, zFields...)
	}
}

func buildOIDCMiddleware(logger *zap.Logger, cfg config.Config) func(http.Handler) http.Handler {
	if strings.TrimSpace(cfg.Security.OIDC.JWKSURL) == "" {
		return nil
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	adapter := observability.NewPrintfAdapter(logger)
	cache := auth.NewJWKSCache(cfg.Security.OIDC.JWKSURL, auth.WithJWKSLogger(adapter))
	validator := auth.NewOIDCValidator(cache, auth.WithOIDCLogger(adapter))

	audience := strings.TrimSpace(cfg.Security.OIDC.Audience)
	if audience == "" {
		logger.Warn("auth: OIDC audience not configured; internal routes will reject requests")
	}
	issuers := cfg.Security.OIDC.Issuers
	if len(issuers) == 0 {
		logger.Warn("auth: OIDC issuers not configured; internal routes will reject requests")
	}

	return validator.RequireOIDC(audience, issuers)
}

func newSecretFetcher(ctx context.Context, logger *zap.Logger, env map[string]string) (*secrets.Fetcher, error) {
	lookup := func(key string) string {
		if env == nil {
			return ""
		}
		if value, ok := env[key]; ok {
			return strings.TrimSpace(value)
		}
		return ""
	}

	defaultProject := lookup("API_SECRET_DEFAULT_PROJECT_ID")
	if defaultProject == "" {
		defaultProject = lookup("API_FIRESTORE_PROJECT_ID")
	}
	fallbackPath := lookup("API_SECRET_FALLBACK_FILE")
	if fallbackPath == "" {
		fallbackPath = ".secrets.local"
	}
	credentialsFile := lookup("API_GOOGLE_CREDENTIALS_FILE")

	opts := []secrets.Option{
		secrets.WithLogger(logger.Named("secrets")),
		secrets.WithFallbackFile(fallbackPath),
	}
	if defaultProject != "" {
		opts = append(opts, secrets.WithDefaultProject(defaultProject))
	}
	if credentialsFile != "" {
		opts = append(opts, secrets.WithClientOptions(option.WithCredentialsFile(credentialsFile)))
	}

	return secrets.NewFetcher(ctx, opts...)
}

// requiredSecretNames lists the secrets that must resolve for the deployment
// profile implied by the environment. Optional integrations (SMTP, storage
// signing) only become required once their reference is present.
func requiredSecretNames(env map[string]string) []string {
	required := []string{
		"Auth.JWTSecret",
		"Supplier.APIKey",
	}
	if env != nil {
		if strings.TrimSpace(env["API_SMTP_PASSWORD"]) != "" {
			required = append(required, "SMTP.Password")
		}
		if strings.TrimSpace(env["API_STORAGE_SIGNER_KEY"]) != "" {
			required = append(required, "Storage.SignerKey")
		}
	}
	sort.Strings(required)
	return required
}
