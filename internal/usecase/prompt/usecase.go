package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/futig/rag-console/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Usecase struct {
	repo Repository
}

func NewUsecase(repo Repository) *Usecase {
	return &Usecase{repo: repo}
}

// List returns every prompt, or only those of category when it is not empty.
func (uc *Usecase) List(ctx context.Context, category entity.PromptCategory) ([]*entity.Prompt, error) {
	if category != "" {
		if err := category.Validate(); err != nil {
			return nil, err
		}
	}
	return uc.repo.List(ctx, category)
}

func (uc *Usecase) Get(ctx context.Context, category entity.PromptCategory, name string) (*entity.Prompt, error) {
	if err := category.Validate(); err != nil {
		return nil, err
	}

	p, err := uc.repo.Get(ctx, category, name)
	if err != nil {
		if errors.Is(err, entity.ErrPromptNotFound) {
			return nil, entity.WithDetail(err, "Prompt: %s (%s) not found.", name, category)
		}
		return nil, err
	}
	return p, nil
}

// Update creates or replaces the text of a prompt.
func (uc *Usecase) Update(ctx context.Context, category entity.PromptCategory, name, text string) (*entity.Prompt, error) {
	if err := category.Validate(); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name", entity.ErrMissingField)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: prompt", entity.ErrMissingField)
	}

	p, err := uc.repo.Upsert(ctx, &entity.Prompt{Category: category, Name: name, Prompt: text})
	if err != nil {
		return nil, err
	}

	ctxzap.Info(ctx, "prompt updated",
		zap.String("category", string(category)),
		zap.String("name", name),
		zap.Int("length", len(text)),
	)
	return p, nil
}
