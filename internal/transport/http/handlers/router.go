package handlers

import (
	"net/http"

	"github.com/glebk/whoshere-bot/internal/transport/http/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewRouter registers the bot routes. metrics may be nil.
func NewRouter(log *zap.SugaredLogger, h *Handler, metrics http.Handler) chi.Router {
	router := chi.NewRouter()

	router.Use(chimw.RequestID)
	router.Use(chimw.Recoverer)
	router.Use(middleware.RequestLogger(log.Named("http")))

	router.Get("/healthz", h.Healthz)
	router.Post("/slack/commands", h.SlashCommand)
	if metrics != nil {
		router.Method(http.MethodGet, "/metrics", metrics)
	}

	return router
}
