package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/integrations-hub/integrations/internal/adapter/driven/security"
	"github.com/integrations-hub/integrations/internal/adapter/driven/sqlstore"
	httphandler "github.com/integrations-hub/integrations/internal/adapter/driving/http"
	"github.com/integrations-hub/integrations/internal/application"
	"github.com/integrations-hub/integrations/internal/config"
	"github.com/integrations-hub/integrations/internal/logging"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on missing required env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, logCloser, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		return err
	}
	defer func() { _ = logCloser.Close() }()
	slog.SetDefault(logger)

	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"log_level", cfg.LogLevel,
		"google_oauth", cfg.Google.ClientID != "",
		"sessions", cfg.HasAuthSecret(),
	)
	if !cfg.HasAuthSecret() {
		slog.Warn("JWT_SECRET_KEY not set, session endpoints will reject every request")
	}

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database and apply migrations.
	db, err := sqlstore.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "dialect", db.Dialect())

	if err := sqlstore.RunMigrations(db); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 4. Wire adapters.
	userStore := sqlstore.NewUserRepo(db)
	connStore := sqlstore.NewConnectionRepo(db)
	stateStore := sqlstore.NewOAuthStateRepo(db)
	messageStore := sqlstore.NewMessageRepo(db)

	cipher, err := security.NewFernetCipher(cfg.TokenEncryptionKey)
	if err != nil {
		return err
	}
	hasher := security.BcryptHasher{}
	signer := security.NewJWTSigner(cfg.JWTSecretKey, security.DefaultSessionTTL)
	authURLs := security.NewGoogleAuthURLs(security.GoogleOAuthConfig{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		AuthURI:      cfg.Google.AuthURI,
		TokenURI:     cfg.Google.TokenURI,
		RedirectURI:  cfg.Google.RedirectURI(),
		Scopes:       cfg.Google.Scopes,
	})

	// 5. Create services.
	userSvc := application.NewUserService(userStore, hasher)
	authSvc := application.NewAuthService(userStore, hasher, signer)
	connSvc := application.NewConnectionService(connStore, stateStore, cipher, authURLs, cfg.OAuthStateTTL)
	messageSvc := application.NewMessageService(messageStore, connStore, userStore)

	// 6. Start the OAuth state janitor.
	janitor := application.NewStateJanitor(stateStore, cfg.OAuthStateSweepInterval)
	go janitor.Start(ctx)

	// 7. Create HTTP handler and server.
	apiHandler := httphandler.NewHandler(userSvc, authSvc, connSvc, messageSvc, logger)
	handler := httphandler.NewServeMux(apiHandler, logger, httphandler.Options{
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// 8. Wait for shutdown signal or a listener failure.
	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-serveErr:
		return err
	}

	// 9. Graceful shutdown with 10s timeout to drain in-flight requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
