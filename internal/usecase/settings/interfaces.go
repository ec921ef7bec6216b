package settings

import (
	"context"

	"github.com/futig/rag-console/internal/entity"
)

type Repository interface {
	Get(ctx context.Context, client string) (*entity.Settings, error)
	Create(ctx context.Context, settings *entity.Settings) error
	Update(ctx context.Context, settings *entity.Settings) error
}
