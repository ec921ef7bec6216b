package settings

import (
	"context"

	"github.com/futig/rag-console/internal/entity"
)

type SettingsUsecase interface {
	Get(ctx context.Context, client string) (*entity.Settings, error)
	Create(ctx context.Context, client string) (*entity.Settings, error)
	Update(ctx context.Context, client string, patch []byte) (*entity.Settings, error)
}
