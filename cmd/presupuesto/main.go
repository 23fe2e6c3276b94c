package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"presupuesto/internal/amqp"
	"presupuesto/internal/backend"
	"presupuesto/internal/cli"
	apphttp "presupuesto/internal/http"
	"presupuesto/internal/log"
	"presupuesto/internal/rates"
	"presupuesto/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger("presupuesto")

	logger.Info("Starting presupuesto server")

	cfg := cli.LoadAndValidateConfig(logger)

	result, err := backend.NewFactory(logger).Create(cfg)
	if err != nil {
		logger.Error("Failed to initialize data backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer result.Cleanup()

	// AMQP is optional. Without a broker the server still runs, it just
	// skips the audit event stream.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, audit events disabled", "error", err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
			logger.Info("AMQP connected", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	provider, tokens := cli.BuildAuthProvider(logger, cfg)

	rateService := rates.NewService(cfg.RateAPIURL,
		rates.WithTTL(cfg.RateCacheTTL),
		rates.WithDefaultRate(cfg.RateDefault),
	)

	budgetOpts := []services.BudgetOption{
		services.WithDefaultLimit(cfg.GeneralLimitCents),
	}
	if amqpClient != nil {
		budgetOpts = append(budgetOpts, services.WithPublisher(amqpClient))
	}
	budget := services.NewBudgetService(result.Repository, logger.WithComponent(log.ComponentBudget), budgetOpts...)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:       ":" + cfg.Port,
		Budget:     budget,
		Rates:      rateService,
		Provider:   provider,
		Tokens:     tokens,
		CookieName: cfg.SessionCookie,
		Logger:     logger,
	})

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Listening", "port", cfg.Port, "backend", cfg.DataBackend, "auth", cfg.AuthBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
