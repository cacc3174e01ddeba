package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/penglongli/gin-metrics/ginmetrics"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/buker/go-tasks/docs"
	"github.com/buker/go-tasks/internal/config"
	"github.com/buker/go-tasks/internal/storage"
	"github.com/buker/go-tasks/internal/tasks"
	"github.com/buker/go-tasks/internal/web"
)

// @title Task List
// @version 1.0
// @description Server-rendered task list backed by a managed key-value store.

// @contact.name TimeGladiator
// @contact.url http://www.timegladiator.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @termsOfService http://swagger.io/terms/

// @BasePath /

const (
	shutdownTimeout = 10 * time.Second
	flushTimeout    = 2 * time.Second
)

func main() {
	// Registered first so it runs after every other deferred call.
	exitCode := 0
	defer func() {
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	configureLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	/////////////////////////////////////////////////////////////////////////////////////////////////
	///////////////////////Sentry//////////////////////////////////////
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn: cfg.SentryDSN,
			BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
				if hint.Context != nil {
					if req, ok := hint.Context.Value(sentry.RequestContextKey).(*http.Request); ok {
						log.WithField("path", req.URL.Path).Debug("Reporting request error to Sentry")
					}
				}
				return event
			},
		}); err != nil {
			log.Fatalf("Sentry initialization failed: %v", err)
		}
		defer sentry.Flush(flushTimeout)
	}

	/////////////////////////////////////////////////////////////////////////////////////////////////
	///////////////////////Store//////////////////////////////////////
	accessor := tasks.NewAccessor(openBackend(ctx, cfg), tasks.WithLogger(log.StandardLogger()))
	// A failure leaves the accessor degraded; the service keeps serving.
	_ = accessor.EnsureCollection(ctx)

	/////////////////////////////////////////////////////////////////////////////////////////////////
	///////////////////////Swagger//////////////////////////////////////
	docs.SwaggerInfo.Host = hostFor(cfg.ListenAddr)

	/////////////////////////////////////////////////////////////////////////////////////////////////
	///////////////////////Metrics//////////////////////////////////////
	metricRouter := gin.Default()
	metrics := ginmetrics.GetMonitor()
	metrics.SetMetricPath("/metrics")
	metrics.SetSlowTime(10)
	// used to p95, p99
	metrics.SetDuration([]float64{0.1, 0.3, 1.2, 5, 10})
	metrics.Expose(metricRouter)

	/////////////////////////////////////////////////////////////////////////////////////////////////
	///////////////////////Routes//////////////////////////////////////
	app := web.NewServer(accessor, log.StandardLogger()).Router(metrics.UseWithoutExposingEndpoint)

	appServer := &http.Server{Addr: cfg.ListenAddr, Handler: app}
	metricServer := &http.Server{Addr: cfg.MetricsAddr, Handler: metricRouter}

	go func() {
		log.Infof("Starting metrics server on %s", cfg.MetricsAddr)
		if err := serve(metricServer); err != nil {
			log.WithError(err).Error("Metrics server stopped")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = appServer.Shutdown(shutdownCtx)
		_ = metricServer.Shutdown(shutdownCtx)
	}()

	log.Infof("Starting server on %s", cfg.ListenAddr)
	if err := serve(appServer); err != nil {
		exitCode = reportFatal(sentry.CurrentHub(), "Server failed", err)
		stop()
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := accessor.Close(closeCtx); err != nil {
		log.WithError(err).Warn("Failed to close task store")
	}
	log.Info("Server stopped")
}

// serve runs srv until it fails or is shut down. A shutdown is not an error.
func serve(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// reportFatal logs err, sends it to Sentry through hub and waits for
// delivery. It returns the exit code for the process.
func reportFatal(hub *sentry.Hub, msg string, err error) int {
	log.WithError(err).Error(msg)
	hub.CaptureException(err)
	hub.Flush(flushTimeout)
	return 1
}

// openBackend builds the configured backend wrapped with store metrics.
// Construction failures yield an unavailable backend so startup continues
// in degraded mode.
func openBackend(ctx context.Context, cfg *config.Config) storage.Backend {
	backend, err := storage.NewBackend(ctx, cfg)
	if err != nil {
		log.WithError(err).WithField("backend", cfg.Backend).Error("Error connecting to task store")
		backend = storage.Unavailable(err)
	}

	instrumented, err := storage.Instrument(backend, prometheus.DefaultRegisterer)
	if err != nil {
		log.WithError(err).Warn("Store metrics disabled")
		return backend
	}
	return instrumented
}

func configureLogging(cfg *config.Config) {
	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warnf("Unknown LOG_LEVEL %q, using info", cfg.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
	if level >= log.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
}

// hostFor turns a listen address such as ":8080" into the host shown in
// the swagger document.
func hostFor(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
