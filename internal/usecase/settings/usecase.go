package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/futig/rag-console/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const cacheTTL = 5 * time.Minute

// Usecase owns per-client settings; reads go through a short-lived cache.
type Usecase struct {
	repo  Repository
	cache *cache.Cache
}

func NewUsecase(repo Repository) *Usecase {
	return &Usecase{
		repo:  repo,
		cache: cache.New(cacheTTL, 2*cacheTTL),
	}
}

// EnsureDefault creates the settings new clients are copied from.
func (uc *Usecase) EnsureDefault(ctx context.Context) error {
	err := uc.repo.Create(ctx, entity.DefaultSettings(entity.DefaultClient))
	if err != nil && !errors.Is(err, entity.ErrClientExists) {
		return fmt.Errorf("seed default settings: %w", err)
	}
	return nil
}

func (uc *Usecase) Get(ctx context.Context, client string) (*entity.Settings, error) {
	if cached, ok := uc.cache.Get(client); ok {
		s := *cached.(*entity.Settings)
		return &s, nil
	}

	s, err := uc.repo.Get(ctx, client)
	if err != nil {
		if errors.Is(err, entity.ErrClientNotFound) {
			return nil, entity.WithDetail(err, "Client: %s not found.", client)
		}
		return nil, err
	}

	uc.remember(s)
	return s, nil
}

// Create registers client with a copy of the default settings.
func (uc *Usecase) Create(ctx context.Context, client string) (*entity.Settings, error) {
	client = strings.TrimSpace(client)
	if client == "" {
		return nil, fmt.Errorf("%w: client", entity.ErrMissingField)
	}

	base, err := uc.Get(ctx, entity.DefaultClient)
	if err != nil {
		if !errors.Is(err, entity.ErrClientNotFound) {
			return nil, err
		}
		base = entity.DefaultSettings(entity.DefaultClient)
	}

	s := base.Clone(client)
	if err := uc.repo.Create(ctx, s); err != nil {
		if errors.Is(err, entity.ErrClientExists) {
			return nil, entity.WithDetail(err, "Client: %s already exists.", client)
		}
		return nil, err
	}

	ctxzap.Info(ctx, "client settings created", zap.String("client", client))
	uc.remember(s)
	return s, nil
}

// Update applies a partial settings document and returns the merged result.
func (uc *Usecase) Update(ctx context.Context, client string, patch []byte) (*entity.Settings, error) {
	current, err := uc.Get(ctx, client)
	if err != nil {
		return nil, err
	}

	merged, err := current.Merge(patch)
	if err != nil {
		return nil, err
	}

	changed := current.ChangedSections(merged)
	if len(changed) == 0 {
		ctxzap.Debug(ctx, "settings unchanged", zap.String("client", client))
		return current, nil
	}

	if err := uc.repo.Update(ctx, merged); err != nil {
		uc.cache.Delete(client)
		return nil, err
	}

	ctxzap.Info(ctx, "client settings updated",
		zap.String("client", client),
		zap.Strings("changed", changed),
	)
	uc.remember(merged)
	return merged, nil
}

func (uc *Usecase) remember(s *entity.Settings) {
	c := *s
	uc.cache.Set(s.Client, &c, cache.DefaultExpiration)
}
