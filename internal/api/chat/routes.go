package chat

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers chat routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/chat", func(r chi.Router) {
		r.Post("/completions", h.Complete)
		r.Post("/streams", h.Stream)

		r.Route("/history", func(r chi.Router) {
			r.Get("/", h.GetHistory)
			r.Delete("/", h.ClearHistory)
			r.Get("/export", h.ExportHistory)
		})
	})
}
