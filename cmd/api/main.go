package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ecoaceite/internal/config"
	"ecoaceite/internal/content"
	"ecoaceite/internal/database"
	"ecoaceite/internal/logger"
	"ecoaceite/internal/middleware"
	"ecoaceite/internal/notify"
	"ecoaceite/internal/pdf"
	"ecoaceite/internal/server"
	"ecoaceite/internal/validator"

	"github.com/gin-gonic/gin"
)

// @title           Ecoaceite API
// @version         1.0
// @description     Back office and public API of the Ecoaceite used cooking oil recycling association.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
// @description Shared key of the grant scraping pipeline.

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if appConfig.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	validator.Register()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var notifier notify.Notifier = notify.LogNotifier{}
	if appConfig.NATSURL != "" {
		nc, js, err := notify.Connect(appConfig.NATSURL, appConfig.NATSStream)
		if err != nil {
			return err
		}
		defer nc.Drain()
		notifier = notify.NewJetStreamNotifier(js)
		log.Infow("Publishing notifications to NATS", "stream", appConfig.NATSStream)
	}

	var verifier middleware.ExternalVerifier
	if appConfig.OIDCEnabled() {
		oidcVerifier, err := middleware.NewOIDCVerifier(ctx, appConfig.OIDCIssuerURL, appConfig.OIDCClientID)
		if err != nil {
			return err
		}
		verifier = oidcVerifier
		log.Infow("Accepting external ID tokens", "issuer", appConfig.OIDCIssuerURL)
	}

	pages, err := content.Load()
	if err != nil {
		return fmt.Errorf("failed to load content pages: %w", err)
	}

	router := server.NewRouter(server.Deps{
		Config:   appConfig,
		DB:       dbManager.DB(),
		Notifier: notifier,
		Verifier: verifier,
		Pages:    pages,
		Invoices: pdf.NewMarotoGenerator(pdf.Issuer{
			Name:    appConfig.AssociationName,
			CIF:     appConfig.AssociationCIF,
			Address: appConfig.AssociationAddress,
			Email:   appConfig.AssociationEmail,
		}),
	})

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting Ecoaceite API on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
