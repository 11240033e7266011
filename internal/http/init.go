package http

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"link_auditor/internal/application/config"
	"link_auditor/internal/http/handlers"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
)

type Router struct {
	httpRouter *chi.Mux
	log        *log.Logger
}

func NewRouter(ctx context.Context, log *log.Logger, auditor handlers.Auditor) *Router {
	router := &Router{
		httpRouter: chi.NewRouter(),
		log:        log,
	}
	initRoutes(ctx, router, auditor)
	return router
}

// Init serves the audit API, the metrics endpoint and (in debug mode) pprof
// until SIGINT or SIGTERM.
func Init(ctx context.Context, log *log.Logger, appCfg *config.AppConfig, auditor handlers.Auditor) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	cfg, err := NewHTTPServerConfig()
	if err != nil {
		log.Fatalf(`Failed to load config: %v`, err)
	}
	if appCfg.MetricsHost == "" {
		log.Fatal(`HTTP_APP_METRICS_HOST is required`)
	}

	router := NewRouter(ctx, log, auditor)

	metricsServer := NewMetricsServer(appCfg.MetricsHost, cfg.Timeouts.ShutdownWait, log)
	go serve(log, `metrics`, metricsServer.Start)

	httpServer := NewHttpServer(ctx, cfg, router.httpRouter, log)
	go serve(log, `http`, httpServer.Start)

	// pprof uses http.DefaultServeMux
	var pprofServer *AuxServer
	if appCfg.DebugMode {
		pprofServer = NewPprofServer(":6060", cfg.Timeouts.ShutdownWait, log)
		go serve(log, `pprof`, pprofServer.Start)
	}

	<-sigs
	err = httpServer.Stop()
	if err != nil {
		log.Fatal(err)
	}

	if pprofServer != nil {
		err = pprofServer.Stop()
		if err != nil {
			log.Fatal(err)
		}
	}

	err = metricsServer.Stop()
	if err != nil {
		log.Fatal(err)
	}
}

func serve(logger *log.Logger, name string, start func() error) {
	if err := start(); err != nil {
		logger.WithError(err).Fatalf(`%s server failed`, name)
	}
}
