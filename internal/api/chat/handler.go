package chat

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/futig/rag-console/internal/api/middleware"
	"github.com/futig/rag-console/internal/entity"
	"github.com/futig/rag-console/internal/pkg/logger"
	"github.com/futig/rag-console/internal/pkg/response"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// StreamFinished terminates every chat stream.
const StreamFinished = "[stream_finished]"

type Handler struct {
	usecase ChatUsecase
}

func NewHandler(usecase ChatUsecase) *Handler {
	return &Handler{usecase: usecase}
}

func decodeChatRequest(r *http.Request) (*entity.ChatRequest, []entity.ValidationIssue) {
	var req entity.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, []entity.ValidationIssue{{Loc: []string{"body"}, Msg: "invalid JSON: " + err.Error()}}
	}

	var issues []entity.ValidationIssue
	if len(req.Messages) == 0 {
		issues = append(issues, entity.ValidationIssue{Loc: []string{"body", "messages"}, Msg: "field required"})
	}
	for i, m := range req.Messages {
		switch m.Role {
		case entity.RoleSystem, entity.RoleUser, entity.RoleAssistant:
		default:
			issues = append(issues, entity.ValidationIssue{
				Loc: []string{"body", "messages", fmt.Sprint(i), "role"},
				Msg: "role must be one of system, user, assistant",
			})
		}
	}
	return &req, issues
}

// Complete handles POST /v1/chat/completions
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ChatCompletion")

	req, issues := decodeChatRequest(r)
	if len(issues) > 0 {
		response.Validation(ctx, w, issues...)
		return
	}

	completion, err := h.usecase.Complete(ctx, middleware.ClientFromContext(ctx), req)
	if err != nil {
		response.FromError(ctx, w, err)
		return
	}

	response.Success(w, completion)
}

// Stream handles POST /v1/chat/streams. Chunks are written as plain text and the
// stream always ends with StreamFinished once the first chunk has been sent.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ChatStream")

	req, issues := decodeChatRequest(r)
	if len(issues) > 0 {
		response.Validation(ctx, w, issues...)
		return
	}

	flusher, _ := w.(http.Flusher)
	started := false
	write := func(chunk string) error {
		if !started {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("X-Accel-Buffering", "no")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		if _, err := io.WriteString(w, chunk); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	}

	err := h.usecase.Stream(ctx, middleware.ClientFromContext(ctx), req, write)
	if err != nil && !started {
		response.FromError(ctx, w, err)
		return
	}
	if err != nil {
		ctxzap.Error(ctx, "chat stream interrupted", zap.Error(err))
	}

	if werr := write(StreamFinished); werr != nil {
		ctxzap.Warn(ctx, "could not finish chat stream", zap.Error(werr))
	}
}

// GetHistory handles GET /v1/chat/history
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "GetChatHistory")

	messages := h.usecase.History(ctx, middleware.ClientFromContext(ctx))
	response.Success(w, &entity.ChatHistoryResponse{Messages: messages})
}

// ClearHistory handles DELETE /v1/chat/history
func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ClearChatHistory")
	client := middleware.ClientFromContext(ctx)

	n := h.usecase.ClearHistory(ctx, client)
	response.Message(w, fmt.Sprintf("Chat history for %s cleared (%d messages).", client, n))
}

// ExportHistory handles GET /v1/chat/history/export?format=md|docx|pdf
func (h *Handler) ExportHistory(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ExportChatHistory")

	format := entity.ExportFormat(r.URL.Query().Get("format"))
	if format == "" {
		format = entity.ExportMarkdown
	}

	file, err := h.usecase.Export(ctx, middleware.ClientFromContext(ctx), format)
	if err != nil {
		response.FromError(ctx, w, err)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": file.Filename})
	if disposition == "" {
		disposition = "attachment"
	}
	w.Header().Set("Content-Disposition", disposition)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Content); err != nil {
		ctxzap.Warn(ctx, "could not write export", zap.Error(err))
	}
}
