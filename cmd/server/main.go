package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/diegonaranjo/fiserv-gateway/internal/config"
	"github.com/diegonaranjo/fiserv-gateway/internal/database"
	"github.com/diegonaranjo/fiserv-gateway/internal/handler"
	"github.com/diegonaranjo/fiserv-gateway/internal/middleware"
	"github.com/diegonaranjo/fiserv-gateway/internal/repository"
	"github.com/diegonaranjo/fiserv-gateway/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	gin.SetMode(cfg.GinMode)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.DatabaseURL())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	if cfg.AutoMigrate {
		if err := database.RunMigrations(cfg.DatabaseURL()); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
		if err := database.SeedCardConfigs(context.Background(), pool); err != nil {
			log.Fatal().Err(err).Msg("failed to seed card configurations")
		}
	}

	router := gin.New()
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())
	router.Use(gin.Recovery())

	healthHandler := handler.NewHealthHandler(pool)
	router.GET("/health", healthHandler.Health)

	setupPaymentRoutes(router, pool, cfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("environment", cfg.Environment).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}

func setupPaymentRoutes(router *gin.Engine, pool *pgxpool.Pool, cfg *config.Config) {
	txnRepo := repository.NewTransactionRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	cardRepo := repository.NewCardConfigRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)

	reconcileService := service.NewReconcileService(orderRepo, service.FixedIVA{}, auditRepo)
	notificationService := service.NewNotificationService(
		txnRepo, orderRepo, reconcileService, auditRepo, cfg.StoreName, cfg.SharedSecret)
	paymentService := service.NewPaymentService(txnRepo, orderRepo, cardRepo, auditRepo, cfg)
	installmentService := service.NewInstallmentService(cardRepo)

	paymentHandler := handler.NewPaymentHandler(
		paymentService, notificationService, cfg.BaseURL+"/payment/status")
	installmentHandler := handler.NewInstallmentHandler(installmentService)

	payment := router.Group("/payment/fiserv")
	{
		payment.POST("/prepare", paymentHandler.Prepare)
		payment.GET("/transactions/:reference", paymentHandler.Status)
		payment.POST("/notify", paymentHandler.Notify)
		payment.POST("/return", paymentHandler.Return)
		payment.POST("/success", paymentHandler.Return)
		payment.POST("/fail", paymentHandler.Fail)
		payment.GET("/installments", installmentHandler.Options)
		payment.GET("/cards", installmentHandler.Cards)
	}
}
