package probe

import (
	"context"
	"net/http"
	"time"

	"github.com/futig/rag-console/internal/pkg/response"
	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	db Pinger
}

func NewHandler(db Pinger) *Handler {
	return &Handler{db: db}
}

// Liveness handles GET /v1/liveness
func (h *Handler) Liveness(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]string{"status": "alive"})
}

// Readiness handles GET /v1/readiness
func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		ctxzap.Warn(r.Context(), "readiness check failed", zap.Error(err))
		response.Detail(r.Context(), w, http.StatusServiceUnavailable, "Settings database is not reachable.", err)
		return
	}
	response.Success(w, map[string]string{"status": "ready"})
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/liveness", h.Liveness)
	r.Get("/readiness", h.Readiness)
}
