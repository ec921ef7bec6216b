package prompt

import (
	"encoding/json"
	"net/http"

	"github.com/futig/rag-console/internal/entity"
	"github.com/futig/rag-console/internal/pkg/logger"
	"github.com/futig/rag-console/internal/pkg/response"
	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Handler struct {
	usecase PromptUsecase
}

func NewHandler(usecase PromptUsecase) *Handler {
	return &Handler{usecase: usecase}
}

// ListPrompts handles GET /v1/prompts
func (h *Handler) ListPrompts(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ListPrompts")
	category := entity.PromptCategory(r.URL.Query().Get("category"))

	prompts, err := h.usecase.List(ctx, category)
	if err != nil {
		response.FromError(ctx, w, err)
		return
	}

	ctxzap.Debug(ctx, "prompts listed", zap.Int("count", len(prompts)))
	response.Success(w, &entity.ListPromptsResponse{Prompts: prompts})
}

// GetPrompt handles GET /v1/prompts/{category}/{name}
func (h *Handler) GetPrompt(w http.ResponseWriter, r *http.Request) {
	category := entity.PromptCategory(chi.URLParam(r, "category"))
	name := chi.URLParam(r, "name")
	ctx := logger.AddFields(r.Context(),
		zap.String("action", "GetPrompt"),
		zap.String("category", string(category)),
		zap.String("name", name),
	)

	p, err := h.usecase.Get(ctx, category, name)
	if err != nil {
		response.FromError(ctx, w, err)
		return
	}

	response.Success(w, p)
}

// UpdatePrompt handles PATCH /v1/prompts/{category}/{name}
func (h *Handler) UpdatePrompt(w http.ResponseWriter, r *http.Request) {
	category := entity.PromptCategory(chi.URLParam(r, "category"))
	name := chi.URLParam(r, "name")
	ctx := logger.AddFields(r.Context(),
		zap.String("action", "UpdatePrompt"),
		zap.String("category", string(category)),
		zap.String("name", name),
	)

	var req entity.PromptUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Validation(ctx, w, entity.ValidationIssue{Loc: []string{"body"}, Msg: "invalid JSON: " + err.Error()})
		return
	}
	if req.Prompt == "" {
		response.Validation(ctx, w, entity.ValidationIssue{Loc: []string{"body", "prompt"}, Msg: "field required"})
		return
	}

	p, err := h.usecase.Update(ctx, category, name, req.Prompt)
	if err != nil {
		response.FromError(ctx, w, err)
		return
	}

	response.Success(w, p)
}
