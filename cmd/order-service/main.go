package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/viper"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/jcmexdev/brewery-order-service/internal/config"
	"github.com/jcmexdev/brewery-order-service/internal/coordinator/sagalog/sqlite"
	"github.com/jcmexdev/brewery-order-service/internal/order-service/app"
	"github.com/jcmexdev/brewery-order-service/internal/order-service/infra/downstream"
	"github.com/jcmexdev/brewery-order-service/internal/order-service/infra/events"
	"github.com/jcmexdev/brewery-order-service/internal/order-service/infra/httpx"
	"github.com/jcmexdev/brewery-order-service/internal/order-service/infra/idempotency"
	"github.com/jcmexdev/brewery-order-service/internal/pkg/cache"
	"github.com/jcmexdev/brewery-order-service/internal/pkg/interceptors"
	"github.com/jcmexdev/brewery-order-service/internal/pkg/metrics"
	"github.com/jcmexdev/brewery-order-service/internal/pkg/telemetry"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("order service stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(viper.New())
	if err != nil {
		return err
	}
	logger := telemetry.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.SetupTracer(ctx, telemetry.TracerOptions{
		Endpoint:    cfg.OtelExporterEndpoint,
		ServiceName: cfg.OtelServiceName,
		Environment: cfg.AppEnv,
	})
	if err != nil {
		return fmt.Errorf("failed to initialise tracer: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			logger.Error("tracer shutdown error", "error", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	client := downstream.NewClient(cfg.DownstreamTimeout, downstream.WithRecorder(m))
	inventory := downstream.NewInventoryGateway(client, cfg.BreweryAPIURL)

	deps := app.Dependencies{
		Cart:           downstream.NewCartGateway(client, cfg.BreweryAPIURL),
		Inventory:      inventory,
		Stock:          inventory,
		Orders:         downstream.NewOrderStoreGateway(client, cfg.BreweryAPIURL),
		IdempotencyTTL: cfg.IdempotencyTTL,
		Observer:       m,
		Logger:         logger,
	}
	// Optional collaborators are only assigned when configured so that the
	// interfaces in deps stay nil otherwise.
	if cfg.PaymentServiceURL != "" {
		deps.Payment = downstream.NewPaymentGateway(client, cfg.PaymentServiceURL)
	}
	if cfg.ShippingServiceURL != "" {
		deps.Shipping = downstream.NewShippingGateway(client, cfg.ShippingServiceURL)
	}
	if cfg.NotificationServiceURL != "" {
		deps.Notification = downstream.NewNotificationGateway(client, cfg.NotificationServiceURL)
	}

	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisCache(cfg.RedisAddr, cfg.OtelServiceName)
		defer redisCache.Close()
		if err := redisCache.Ping(ctx); err != nil {
			logger.Warn("redis unreachable, idempotent replays unavailable until it recovers", "addr", cfg.RedisAddr, "error", err)
		}
		deps.Idempotency = idempotency.NewStore(redisCache)
	}

	if cfg.SagaLogPath != "" {
		repo, err := sqlite.Open(cfg.SagaLogPath)
		if err != nil {
			return fmt.Errorf("failed to open saga log: %w", err)
		}
		defer repo.Close()
		deps.SagaLog = repo
	}

	if brokers := cfg.Brokers(); len(brokers) > 0 {
		publisher := events.NewPublisher(events.NewKafkaWriter(brokers, cfg.OrderEventsTopic))
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		deps.Events = publisher
	}

	orchestrator := app.NewOrderOrchestrator(deps)
	router := httpx.NewRouter(httpx.NewHandler(orchestrator, logger), httpx.RouterOptions{
		JWTSecret: cfg.JWTSecret,
		Metrics:   metrics.Handler(reg),
	})
	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET is not set, every order route will answer 500")
	}

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcSrv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.UnaryInterceptor(interceptors.TraceServerInterceptor()),
	)
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)

	healthAddr := ":" + cfg.GRPCHealthPort
	lis, err := net.Listen("tcp", healthAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", healthAddr, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("order service HTTP running", "addr", httpSrv.Addr, "env", cfg.AppEnv)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("gRPC health service running", "addr", healthAddr)
		healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		return grpcSrv.Serve(lis)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		healthSrv.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := httpSrv.Shutdown(shutdownCtx)
		grpcSrv.GracefulStop()
		return err
	})
	return g.Wait()
}
