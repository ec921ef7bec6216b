package database

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers database and vector store routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/databases", func(r chi.Router) {
		r.Get("/", h.ListDatabases)

		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", h.GetDatabase)
			r.Patch("/", h.UpdateDatabase)
			r.Post("/embed", h.Embed)

			r.Route("/vector_stores", func(r chi.Router) {
				r.Get("/", h.ListVectorStores)
				r.Delete("/{table}", h.DropVectorStore)
			})
		})
	})
}
