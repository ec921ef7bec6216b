package prompt

import (
	"context"

	"github.com/futig/rag-console/internal/entity"
)

type PromptUsecase interface {
	List(ctx context.Context, category entity.PromptCategory) ([]*entity.Prompt, error)
	Get(ctx context.Context, category entity.PromptCategory, name string) (*entity.Prompt, error)
	Update(ctx context.Context, category entity.PromptCategory, name, text string) (*entity.Prompt, error)
}
