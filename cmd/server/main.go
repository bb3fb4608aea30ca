package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/atlasbank/core-banking/internal/adapter/http/controller"
	"github.com/atlasbank/core-banking/internal/adapter/http/middleware"
	"github.com/atlasbank/core-banking/internal/adapter/http/router"
	"github.com/atlasbank/core-banking/internal/adapter/repository/postgres"
	"github.com/atlasbank/core-banking/internal/config"
	"github.com/atlasbank/core-banking/internal/logger"
	"github.com/atlasbank/core-banking/internal/usecase/services"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := postgres.RunMigrations(migrateCtx, cfg.DatabaseDSN, cfg.MigrationsDir); err != nil {
		log.Fatalf("run migrations: %v", err)
	}
	logger.Info("migrations completed", nil)

	db, err := postgres.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	clientRepo := postgres.NewClientRepository(db)
	accountRepo := postgres.NewAccountRepository(db)
	ledgerRepo := postgres.NewLedgerRepository(db)
	keyRepo := postgres.NewPaymentKeyRepository(db)

	authService := services.NewAuthService(clientRepo, cfg.JWTSecret, cfg.TokenTTL)
	accountService := services.NewAccountService(accountRepo, cfg.Policy)
	transactionService := services.NewTransactionService(accountRepo, clientRepo, ledgerRepo, cfg.Policy)
	pixService := services.NewPixService(accountRepo, clientRepo, keyRepo, ledgerRepo, cfg.Policy)

	mux := router.New(
		controller.NewAuthController(authService),
		controller.NewAccountController(accountService),
		controller.NewTransactionController(transactionService),
		controller.NewPixController(pixService),
		middleware.BearerAuth(cfg.JWTSecret, clientRepo),
	)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info("http server listening", logger.Fields{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		logger.Info("http server shutting down", nil)
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Fatalf("server terminated: %v", err)
	}
	logger.Info("server stopped", nil)
}
