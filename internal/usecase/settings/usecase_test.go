package settings

import (
	"context"
	"sync"
	"testing"

	"github.com/futig/rag-console/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	mu      sync.Mutex
	data    map[string]entity.Settings
	gets    int
	updates int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{data: make(map[string]entity.Settings)}
}

func (r *memoryRepo) Get(_ context.Context, client string) (*entity.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gets++
	s, ok := r.data[client]
	if !ok {
		return nil, entity.ErrClientNotFound
	}
	return &s, nil
}

func (r *memoryRepo) Create(_ context.Context, s *entity.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[s.Client]; ok {
		return entity.ErrClientExists
	}
	r.data[s.Client] = *s
	return nil
}

func (r *memoryRepo) Update(_ context.Context, s *entity.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[s.Client]; !ok {
		return entity.ErrClientNotFound
	}
	r.updates++
	r.data[s.Client] = *s
	return nil
}

func newSeeded(t *testing.T) (*Usecase, *memoryRepo) {
	t.Helper()
	repo := newMemoryRepo()
	uc := NewUsecase(repo)
	require.NoError(t, uc.EnsureDefault(context.Background()))
	require.NoError(t, uc.EnsureDefault(context.Background()))
	return uc, repo
}

func TestGet_NotFound(t *testing.T) {
	uc, _ := newSeeded(t)

	_, err := uc.Get(context.Background(), "ghost")
	require.ErrorIs(t, err, entity.ErrClientNotFound)
	assert.EqualError(t, err, "Client: ghost not found.")
}

func TestGet_Cached(t *testing.T) {
	uc, repo := newSeeded(t)
	ctx := context.Background()

	first, err := uc.Get(ctx, entity.DefaultClient)
	require.NoError(t, err)
	first.LLModel.Model = "mutated by caller"

	second, err := uc.Get(ctx, entity.DefaultClient)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.gets)
	assert.Empty(t, second.LLModel.Model)
}

func TestCreate(t *testing.T) {
	uc, _ := newSeeded(t)
	ctx := context.Background()

	s, err := uc.Create(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", s.Client)
	assert.Equal(t, "Basic Example", s.Prompts.Sys)

	_, err = uc.Create(ctx, "alice")
	require.ErrorIs(t, err, entity.ErrClientExists)
	assert.EqualError(t, err, "Client: alice already exists.")

	_, err = uc.Create(ctx, "  ")
	assert.ErrorIs(t, err, entity.ErrMissingField)
}

func TestUpdate_MergesPresentFields(t *testing.T) {
	uc, repo := newSeeded(t)
	ctx := context.Background()
	_, err := uc.Create(ctx, "alice")
	require.NoError(t, err)

	merged, err := uc.Update(ctx, "alice", []byte(`{"client":"mallory","ll_model":{"model":"gpt-4o","chat_history":false}}`))
	require.NoError(t, err)

	assert.Equal(t, "alice", merged.Client)
	assert.Equal(t, "gpt-4o", merged.LLModel.Model)
	assert.False(t, merged.LLModel.ChatHistory)
	assert.Equal(t, 0.5, merged.LLModel.Temperature)
	assert.Equal(t, "Basic Example", merged.Prompts.Sys)
	assert.Equal(t, 1, repo.updates)

	stored, err := uc.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", stored.LLModel.Model)
}

func TestUpdate_NoChangeSkipsWrite(t *testing.T) {
	uc, repo := newSeeded(t)

	_, err := uc.Update(context.Background(), entity.DefaultClient, []byte(`{"prompts":{"sys":"Basic Example"}}`))
	require.NoError(t, err)
	assert.Zero(t, repo.updates)
}

func TestUpdate_Invalid(t *testing.T) {
	uc, _ := newSeeded(t)
	ctx := context.Background()

	_, err := uc.Update(ctx, entity.DefaultClient, []byte(`{"ll_model":{"temperature":7}}`))
	assert.ErrorIs(t, err, entity.ErrInvalidParameter)

	_, err = uc.Update(ctx, entity.DefaultClient, []byte(`{"vector_search":{"enabled":true}}`))
	assert.ErrorIs(t, err, entity.ErrMissingField)

	_, err = uc.Update(ctx, entity.DefaultClient, []byte(`not json`))
	assert.ErrorIs(t, err, entity.ErrInvalidFormat)

	_, err = uc.Update(ctx, "ghost", []byte(`{}`))
	assert.ErrorIs(t, err, entity.ErrClientNotFound)
}
