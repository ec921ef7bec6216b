package prompt

import (
	"context"

	"github.com/futig/rag-console/internal/entity"
)

type Repository interface {
	List(ctx context.Context, category entity.PromptCategory) ([]*entity.Prompt, error)
	Get(ctx context.Context, category entity.PromptCategory, name string) (*entity.Prompt, error)
	Upsert(ctx context.Context, prompt *entity.Prompt) (*entity.Prompt, error)
}
