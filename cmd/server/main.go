package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/simaogato/folio-backend/internal/adapter/cache"
	grpcadapter "github.com/simaogato/folio-backend/internal/adapter/grpc"
	"github.com/simaogato/folio-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/folio-backend/internal/config"
	"github.com/simaogato/folio-backend/internal/logger"
	"github.com/simaogato/folio-backend/internal/usecase/ledger"
	"github.com/simaogato/folio-backend/internal/usecase/portfolio"
	"github.com/simaogato/folio-backend/internal/usecase/pricing"
	"github.com/simaogato/folio-backend/internal/usecase/summary"
)

func main() {
	// 1. Load configuration
	cfg := config.Load()
	logger.Init(cfg.Logger)
	if err := cfg.Validate(); err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}

	ctx := context.Background()

	// 2. Setup Database
	// Give Postgres a moment when started alongside it (Simple retry)
	time.Sleep(cfg.Database.StartupDelay)

	db, err := postgres.NewDB(ctx, cfg.Database.ConnStr)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if cfg.Database.RunMigrations {
		if err := postgres.RunMigrations(cfg.Database.ConnStr, cfg.Database.MigrationsPath); err != nil {
			logrus.WithError(err).Fatal("Failed to run migrations")
		}
		logrus.Info("Database migrations applied")
	}

	// 3. Initialize Repositories (Postgres)
	portfolioRepo := postgres.NewPortfolioRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)
	watchedRepo := postgres.NewWatchedAssetRepository(db)
	assetRepo := postgres.NewAssetRepository(db)
	priceRepo := postgres.NewHistoricalPriceRepository(db)

	// 4. Summary cache (optional)
	var summaryCache summary.Cache
	if cfg.Cache.Enabled() {
		redisClient, err := cache.NewRedisClient(ctx, cfg.Cache)
		if err != nil {
			logrus.WithError(err).Warn("Redis unavailable, summaries will not be cached")
		} else {
			defer redisClient.Close()
			summaryCache = cache.NewSummaryCache(redisClient)
		}
	}

	// 5. Initialize Services (Use Cases)
	portfolioService := portfolio.NewPortfolioService(portfolioRepo)

	valuationService := portfolio.NewValuationService(portfolioRepo, transactionRepo, watchedRepo, priceRepo)
	valuationService.Timeout = cfg.Engine.CalculationTimeout

	summaryService := summary.NewSummaryService(portfolioRepo, valuationService, summaryCache)
	summaryService.MaxConcurrency = cfg.Engine.MaxConcurrency
	summaryService.CacheTTL = cfg.Cache.SummaryTTL

	ledgerService := ledger.NewLedgerService(portfolioRepo, transactionRepo, watchedRepo, assetRepo)
	pricingService := pricing.NewPricingService(assetRepo, priceRepo)

	// 6. Start gRPC Server
	metrics := grpcadapter.NewMetrics(prometheus.DefaultRegisterer)
	grpcServer := grpclib.NewServer(
		grpclib.ChainUnaryInterceptor(
			grpcadapter.LoggingInterceptor(),
			grpcadapter.MetricsInterceptor(metrics),
			grpcadapter.AuthInterceptor(cfg.Auth.APIToken),
		),
	)

	grpcAdapter := grpcadapter.NewServer(portfolioService, summaryService, valuationService, ledgerService, pricingService)
	grpcadapter.RegisterPortfolioServiceServer(grpcServer, grpcAdapter)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(grpcadapter.ServiceName, healthpb.HealthCheckResponse_SERVING)

	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logrus.WithError(err).Fatalf("Failed to listen on %s", cfg.Server.GRPCAddr)
	}

	go func() {
		logrus.WithField("addr", cfg.Server.GRPCAddr).Info("gRPC server listening")
		if err := grpcServer.Serve(lis); err != nil {
			logrus.WithError(err).Fatal("Failed to serve gRPC server")
		}
	}()

	// 7. Metrics endpoint
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		go func() {
			logrus.WithField("addr", cfg.Metrics.Addr).Info("Metrics server listening")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logrus.WithError(err).Error("Metrics server failed")
			}
		}()
	}

	// Graceful shutdown
	waitForShutdown(grpcServer, healthServer, metricsServer, cfg.Server.ShutdownTimeout)
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the servers
func waitForShutdown(grpcServer *grpclib.Server, healthServer *health.Server, metricsServer *http.Server, timeout time.Duration) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	logrus.WithField("signal", sig.String()).Info("Shutting down gracefully...")

	healthServer.Shutdown()

	if metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := metricsServer.Shutdown(ctx); err != nil {
			logrus.WithError(err).Warn("Metrics server shutdown failed")
		}
	}

	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(timeout):
		logrus.Warn("Graceful stop timed out, forcing shutdown")
		grpcServer.Stop()
	}
	logrus.Info("gRPC server stopped")
}
