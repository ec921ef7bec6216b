package prompt

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers prompt routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/prompts", func(r chi.Router) {
		r.Get("/", h.ListPrompts)

		r.Route("/{category}/{name}", func(r chi.Router) {
			r.Get("/", h.GetPrompt)
			r.Patch("/", h.UpdatePrompt)
		})
	})
}
