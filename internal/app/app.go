// Package app собирает зависимости и запускает HTTP-серверы приложения.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/yuridenisov/oims/internal/config"
	healthcheck "github.com/yuridenisov/oims/internal/health"
	"github.com/yuridenisov/oims/internal/service/catalog"
	"github.com/yuridenisov/oims/internal/service/directory"
	"github.com/yuridenisov/oims/internal/service/inventory"
	"github.com/yuridenisov/oims/internal/service/order"
	"github.com/yuridenisov/oims/internal/service/report"
	httptransport "github.com/yuridenisov/oims/internal/transport/http"
	"github.com/yuridenisov/oims/internal/version"
)

const shutdownTimeout = 5 * time.Second

// Run запускает сервис и блокируется до отмены контекста
// или фатальной ошибки сервера.
func Run(ctx context.Context, cfg config.Config) error {
	logger := log.WithField("component", "app")

	deps, err := NewDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.WithError(err).Warn("failed to close storage")
		}
	}()

	kafkaProducer := initKafkaProducer(cfg.KafkaBrokers, logger)
	defer closeKafka(kafkaProducer, logger)

	ledger := inventory.NewLedger(deps.Products, logger.WithField("component", "inventory-ledger"))

	var orderSvc *order.Service
	if kafkaProducer != nil {
		orderSvc = order.NewServiceWithKafka(
			deps.Orders, deps.Products, deps.Users, ledger, kafkaProducer,
			logger.WithField("component", "order-service"),
		)
	} else {
		orderSvc = order.NewService(
			deps.Orders, deps.Products, deps.Users, ledger,
			logger.WithField("component", "order-service"),
		)
	}
	catalogSvc := catalog.NewService(deps.Products, logger.WithField("component", "catalog-service"))
	directorySvc := directory.NewService(deps.Users, deps.Orders, logger.WithField("component", "directory-service"))
	reportSvc := report.NewService(deps.Orders, deps.Users, deps.Products, logger.WithField("component", "report-service"))

	v, _, _ := version.Info()
	healthHandler := healthcheck.NewHandler(v)
	if deps.Store != nil {
		healthHandler.RegisterChecker("postgres", healthcheck.NewCheckerFunc("postgres", func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return deps.Store.Ping(pingCtx)
		}))
	}

	httpLogger := logger.WithField("layer", "http")
	orderHandler := httptransport.NewOrderHandler(orderSvc, httpLogger)
	router := httptransport.NewRouter(httptransport.Handlers{
		Orders:   orderHandler,
		Products: httptransport.NewProductHandler(catalogSvc, orderHandler, httpLogger),
		Users:    httptransport.NewUserHandler(directorySvc, orderHandler, httpLogger),
		Reports:  httptransport.NewReportHandler(reportSvc, httpLogger),
		Health:   healthHandler,
	}, httpLogger)

	apiSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP сервер слушает %s", cfg.HTTPAddr)
		errCh <- apiSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP сервер")
		shutdownHTTP(apiSrv, logger)
		shutdownHTTP(metricsSrv, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startMetricsServer запускает служебный HTTP-сервер: /metrics и health-пробы.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
