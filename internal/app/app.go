package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	promgrpc "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	healthcheck "github.com/vladislavdragonenkov/delivery/internal/health"
	"github.com/vladislavdragonenkov/delivery/internal/metrics"
	"github.com/vladislavdragonenkov/delivery/internal/service/catalog"
	"github.com/vladislavdragonenkov/delivery/internal/service/idempotency"
	"github.com/vladislavdragonenkov/delivery/internal/service/ordering"
	"github.com/vladislavdragonenkov/delivery/internal/service/outbox"
	"github.com/vladislavdragonenkov/delivery/internal/service/reporting"
	"github.com/vladislavdragonenkov/delivery/internal/service/seed"
	"github.com/vladislavdragonenkov/delivery/internal/transport/httpapi"
	"github.com/vladislavdragonenkov/delivery/internal/version"
)

const shutdownTimeout = 5 * time.Second

// services — прикладной слой поверх выбранного хранилища.
type services struct {
	catalog   *catalog.Service
	ordering  *ordering.Service
	reporting *reporting.Service
}

func newServices(deps *runtimeDependencies, logger *log.Entry) services {
	return services{
		catalog: catalog.NewService(deps.customers, deps.restaurants, deps.products, logger.WithField("layer", "catalog")),
		ordering: ordering.NewService(ordering.Repositories{
			Customers:   deps.customers,
			Restaurants: deps.restaurants,
			Products:    deps.products,
			Orders:      deps.orders,
			Timeline:    deps.timelineRepo,
			Outbox:      deps.outboxRepo,
		},
			ordering.WithLogger(logger.WithField("layer", "ordering")),
			ordering.WithMetrics(metrics.NewOrderMetrics()),
		),
		reporting: reporting.NewService(deps.reports, deps.orders, logger.WithField("layer", "reporting")),
	}
}

func (s services) seed(ctx context.Context, deps *runtimeDependencies, logger *log.Entry) (seed.Summary, error) {
	seeder := seed.NewSeeder(s.catalog, s.ordering, deps.customers, deps.restaurants, deps.orders, logger.WithField("layer", "seed"))
	return seeder.Run(ctx)
}

// SeedStorage наполняет настроенное хранилище демонстрационными данными.
// Повторный запуск ничего не создаёт.
func SeedStorage(ctx context.Context, cfg Config) (seed.Summary, error) {
	logger := log.WithField("component", "app")
	deps, err := initRuntimeDependencies(ctx, cfg, logger)
	if err != nil {
		return seed.Summary{}, err
	}
	defer func() {
		if err := deps.close(); err != nil {
			logger.WithError(err).Warn("failed to close storage")
		}
	}()
	return newServices(deps, logger).seed(ctx, deps, logger)
}

// newHealthHandler регистрирует проверки хранилища и backlog outbox.
func newHealthHandler(cfg Config, deps *runtimeDependencies) *healthcheck.Handler {
	handler := healthcheck.NewHandler(version.Current().Version)
	if deps.ping != nil {
		handler.RegisterChecker("storage", healthcheck.NewPingChecker("storage", deps.ping))
	}
	handler.RegisterChecker("outbox", healthcheck.NewOutboxBacklogChecker(deps.outboxRepo, cfg.OutboxMaxPending))
	return handler
}

// Run поднимает REST API, сервер метрик, gRPC health и фоновые воркеры
// и блокируется до отмены ctx или ошибки сервера.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")
	logger.WithField("build", version.Current().String()).Info("starting delivery service")

	deps, err := initRuntimeDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := deps.close(); err != nil {
			logger.WithError(err).Warn("failed to close storage")
		}
	}()

	svc := newServices(deps, logger)
	if cfg.Seed {
		if _, err := svc.seed(ctx, deps, logger); err != nil {
			return err
		}
	}

	healthHandler := newHealthHandler(cfg, deps)
	api := httpapi.New(httpapi.Services{
		Catalog:   svc.catalog,
		Ordering:  svc.ordering,
		Reporting: svc.reporting,
	},
		httpapi.WithLogger(logger.WithField("layer", "http")),
		httpapi.WithMetrics(metrics.NewHTTPMetrics(), promhttp.Handler()),
		httpapi.WithIdempotency(idempotency.NewGuard(deps.idempotencyRepo, cfg.IdempotencyTTL, logger.WithField("layer", "idempotency"))),
		httpapi.WithHealth(healthHandler),
	)

	pubs := initPublishers(cfg, logger)
	defer closeKafka(pubs.producer, logger)

	workerMetrics := metrics.NewWorkerMetrics()
	outboxWorker := outbox.NewWorker(deps.outboxRepo, pubs.events,
		outbox.WithLogger(logger.WithField("layer", "outbox")),
		outbox.WithMetrics(workerMetrics),
		outbox.WithDLQPublisher(pubs.dlq),
		outbox.WithPollInterval(cfg.OutboxPollInterval),
		outbox.WithBatchSize(cfg.OutboxBatchSize),
		outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
		outbox.WithRetryBaseDelay(cfg.OutboxRetryDelay),
	)
	cleanupWorker := idempotency.NewCleanupWorker(deps.idempotencyRepo,
		idempotency.WithLogger(logger.WithField("layer", "idempotency-cleanup")),
		idempotency.WithMetrics(workerMetrics),
		idempotency.WithInterval(cfg.IdempotencyCleanupInterval),
		idempotency.WithBatchSize(cfg.IdempotencyCleanupBatchSize),
	)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var workers sync.WaitGroup
	workers.Add(2)
	go func() {
		defer workers.Done()
		outboxWorker.Run(runCtx)
	}()
	go func() {
		defer workers.Done()
		cleanupWorker.Run(runCtx)
	}()

	errCh := make(chan error, 3)
	apiSrv := startHTTPServer(cfg.HTTPAddr, api.Routes(), "rest api", logger, errCh)
	metricsSrv := startMetricsServer(cfg.MetricsAddr, logger, healthHandler)
	grpcSrv, err := startGRPCHealthServer(cfg.GRPCAddr, logger, errCh)
	if err != nil {
		shutdownHTTP(apiSrv, logger)
		shutdownHTTP(metricsSrv, logger)
		cancel()
		workers.Wait()
		return err
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем сервис")
		runErr = ctx.Err()
	case runErr = <-errCh:
		logger.WithError(runErr).Error("server stopped unexpectedly")
	}

	grpcSrv.stop(logger)
	shutdownHTTP(apiSrv, logger)
	shutdownHTTP(metricsSrv, logger)
	cancel()
	workers.Wait()
	return runErr
}

// startHTTPServer запускает HTTP-сервер; ошибка Serve отправляется в errCh.
func startHTTPServer(addr string, handler http.Handler, name string, logger *log.Entry, errCh chan<- error) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Infof("%s слушает %s", name, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	return srv
}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus.
// Пустой addr отключает отдельный сервер метрик: /metrics доступен и в REST API.
func startMetricsServer(addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()
	return srv
}

// grpcHealth — gRPC-сервер со стандартным health service для probe-ов.
type grpcHealth struct {
	server *grpc.Server
	health *health.Server
}

func startGRPCHealthServer(addr string, logger *log.Entry, errCh chan<- error) (*grpcHealth, error) {
	if addr == "" {
		return nil, nil
	}

	grpcMetrics := promgrpc.NewServerMetrics()
	if err := prometheus.Register(grpcMetrics); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*promgrpc.ServerMetrics); ok {
				grpcMetrics = existing
			}
		} else {
			logger.WithError(err).Warn("failed to register grpc metrics")
		}
	}

	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(grpcMetrics.UnaryServerInterceptor()),
		grpc.ChainStreamInterceptor(grpcMetrics.StreamServerInterceptor()),
	)
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(server, healthServer)
	reflection.Register(server)
	grpcMetrics.InitializeMetrics(server)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	go func() {
		logger.Infof("gRPC health сервер слушает %s", addr)
		if err := server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errCh <- err
		}
	}()
	return &grpcHealth{server: server, health: healthServer}, nil
}

func (g *grpcHealth) stop(logger *log.Entry) {
	if g == nil {
		return
	}
	g.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	stoppedCh := make(chan struct{})
	go func() {
		g.server.GracefulStop()
		close(stoppedCh)
	}()
	select {
	case <-stoppedCh:
	case <-time.After(shutdownTimeout):
		logger.Warn("graceful stop превысил таймаут, принудительно останавливаем")
		g.server.Stop()
	}
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).WithField("addr", srv.Addr).Warn("http shutdown with error")
	}
}
