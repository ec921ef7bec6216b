package api

import (
	"net/http"
	"time"

	chatapi "github.com/futig/rag-console/internal/api/chat"
	databaseapi "github.com/futig/rag-console/internal/api/database"
	"github.com/futig/rag-console/internal/api/docs"
	"github.com/futig/rag-console/internal/api/middleware"
	"github.com/futig/rag-console/internal/api/probe"
	promptapi "github.com/futig/rag-console/internal/api/prompt"
	settingsapi "github.com/futig/rag-console/internal/api/settings"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const requestTimeout = 60 * time.Second

type Handlers struct {
	Probe    *probe.Handler
	Settings *settingsapi.Handler
	Prompt   *promptapi.Handler
	Chat     *chatapi.Handler
	Database *databaseapi.Handler
}

// SetupRouter creates and configures the HTTP router
func SetupRouter(h Handlers, apiKey string, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Logger(logger))

	docs.RegisterRoutes(r)

	r.Route("/v1", func(r chi.Router) {
		probe.RegisterRoutes(r, h.Probe)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(apiKey))
			r.Use(middleware.Client)

			// Streaming and completions can outlive the default timeout.
			chatapi.RegisterRoutes(r, h.Chat)

			r.Group(func(r chi.Router) {
				r.Use(chimiddleware.Timeout(requestTimeout))

				settingsapi.RegisterRoutes(r, h.Settings)
				promptapi.RegisterRoutes(r, h.Prompt)
				databaseapi.RegisterRoutes(r, h.Database)
			})
		})
	})

	return r
}
