package settings

import (
	"io"
	"net/http"

	"github.com/futig/rag-console/internal/api/middleware"
	"github.com/futig/rag-console/internal/entity"
	"github.com/futig/rag-console/internal/pkg/logger"
	"github.com/futig/rag-console/internal/pkg/response"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const maxSettingsBody = 1 << 20

type Handler struct {
	usecase SettingsUsecase
}

func NewHandler(usecase SettingsUsecase) *Handler {
	return &Handler{usecase: usecase}
}

// GetSettings handles GET /v1/settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "GetSettings")

	s, err := h.usecase.Get(ctx, middleware.ClientFromContext(ctx))
	if err != nil {
		response.FromError(ctx, w, err)
		return
	}

	response.Success(w, s)
}

// CreateSettings handles POST /v1/settings
func (h *Handler) CreateSettings(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "CreateSettings")

	s, err := h.usecase.Create(ctx, middleware.ClientFromContext(ctx))
	if err != nil {
		response.FromError(ctx, w, err)
		return
	}

	response.Created(w, s)
}

// UpdateSettings handles PATCH /v1/settings
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "UpdateSettings")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxSettingsBody))
	if err != nil {
		response.Detail(ctx, w, http.StatusBadRequest, "Unable to read request body.", err)
		return
	}
	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
		response.Validation(ctx, w, entity.ValidationIssue{Loc: []string{"body"}, Msg: "a JSON object is required"})
		return
	}

	s, err := h.usecase.Update(ctx, middleware.ClientFromContext(ctx), body)
	if err != nil {
		response.FromError(ctx, w, err)
		return
	}

	ctxzap.Debug(ctx, "settings patch applied", zap.Int("bytes", len(body)))
	response.Success(w, s)
}
