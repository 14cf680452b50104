// Package httpapi is the HTTP control surface for workflows.
package httpapi

import (
	"net/http"
	"time"

	"apply-agent/internal/application/port/output"
	"apply-agent/internal/usecase/orchestrator"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/rs/zerolog"
)

const requestTimeout = 30 * time.Second

type Handler struct {
	dispatcher *orchestrator.Dispatcher
	store      output.TaskStore
	logger     output.LoggerPort
}

func NewHandler(dispatcher *orchestrator.Dispatcher, logger output.LoggerPort) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		store:      dispatcher.Store(),
		logger:     logger.Named("http"),
	}
}

// NewAccessLogger builds the request logger used by the router middleware.
func NewAccessLogger(service string) zerolog.Logger {
	return httplog.NewLogger(service, httplog.Options{
		JSON:    true,
		Concise: true,
	})
}

func NewRouter(h *Handler, accessLog zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(httplog.RequestLogger(accessLog))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", h.health)

	r.Route("/workflows", func(r chi.Router) {
		r.Post("/", h.createWorkflow)
		r.Post("/stop", h.stopWorkflow)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getWorkflow)
			r.Get("/tasks", h.listTasks)
			r.Get("/logs", h.listLogs)
		})
	})
	return r
}
