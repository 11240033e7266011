package http

import (
	"context"

	"link_auditor/internal/http/handlers"
	"link_auditor/internal/http/middleware"

	"github.com/go-chi/chi/v5"
)

func initRoutes(_ context.Context, r *Router, auditor handlers.Auditor) {
	r.httpRouter.Use(middleware.MetricsMiddleware)
	r.httpRouter.Use(middleware.RequestIDLoggerMiddleware(r.log))

	audit := handlers.NewAuditHandler(auditor, r.log)

	r.httpRouter.Get("/ready", handlers.NewReadyHandler().Handle)
	r.httpRouter.Route("/audit", func(ar chi.Router) {
		ar.Post("/", audit.Run)
		ar.Get("/status", audit.Status)
		ar.Get("/report", audit.Report)
		ar.Post("/reset", audit.Reset)
		ar.Post("/cache/purge", audit.PurgeCache)
	})
}
