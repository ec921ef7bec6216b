package chat

import (
	"context"

	"github.com/futig/rag-console/internal/entity"
)

type ChatUsecase interface {
	Complete(ctx context.Context, client string, req *entity.ChatRequest) (*entity.ChatCompletion, error)
	Stream(ctx context.Context, client string, req *entity.ChatRequest, fn func(string) error) error
	History(ctx context.Context, client string) []entity.ChatMessage
	ClearHistory(ctx context.Context, client string) int
	Export(ctx context.Context, client string, format entity.ExportFormat) (*entity.ExportedFile, error)
}
