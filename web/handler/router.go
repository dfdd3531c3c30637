package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/h15s/gmtea/pkg/logger"
)

// RouteAdder registers its routes on a router
type RouteAdder interface {
	AddRoutes(r chi.Router)
}

// NewRouter mounts every adder behind request logging and panic recovery.
func NewRouter(log *slog.Logger, adders ...RouteAdder) http.Handler {
	r := chi.NewRouter()
	r.Use(logger.NewMiddleware(log))
	r.Use(middleware.Recoverer)

	for _, a := range adders {
		a.AddRoutes(r)
	}
	return r
}
