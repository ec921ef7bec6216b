package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/futig/rag-console/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PromptRepository defines the interface for prompt template persistence
type PromptRepository interface {
	List(ctx context.Context, category entity.PromptCategory) ([]*entity.Prompt, error)
	Get(ctx context.Context, category entity.PromptCategory, name string) (*entity.Prompt, error)
	Upsert(ctx context.Context, prompt *entity.Prompt) (*entity.Prompt, error)
}

var _ PromptRepository = &PromptPostgres{}

type PromptPostgres struct {
	db *pgxpool.Pool
}

func NewPromptPostgres(db *pgxpool.Pool) *PromptPostgres {
	return &PromptPostgres{db: db}
}

type promptRow struct {
	Category  string    `db:"category"`
	Name      string    `db:"name"`
	Prompt    string    `db:"prompt"`
	UpdatedAt time.Time `db:"updated_at"`
}

// List returns all prompts, or those of one category when category is set.
func (r *PromptPostgres) List(ctx context.Context, category entity.PromptCategory) ([]*entity.Prompt, error) {
	rows, err := r.db.Query(ctx,
		`SELECT category, name, prompt, updated_at FROM prompts
		 WHERE $1 = '' OR category = $1
		 ORDER BY category, name`,
		string(category),
	)
	if err != nil {
		return nil, fmt.Errorf("list prompts: %w", err)
	}

	results, err := pgx.CollectRows(rows, pgx.RowToStructByName[promptRow])
	if err != nil {
		return nil, fmt.Errorf("scan prompts: %w", err)
	}

	prompts := make([]*entity.Prompt, 0, len(results))
	for i := range results {
		prompts = append(prompts, toEntityPrompt(&results[i]))
	}

	return prompts, nil
}

func (r *PromptPostgres) Get(ctx context.Context, category entity.PromptCategory, name string) (*entity.Prompt, error) {
	rows, err := r.db.Query(ctx,
		`SELECT category, name, prompt, updated_at FROM prompts WHERE category = $1 AND name = $2`,
		string(category), name,
	)
	if err != nil {
		return nil, fmt.Errorf("get prompt: %w", err)
	}

	result, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[promptRow])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrPromptNotFound
		}
		return nil, fmt.Errorf("scan prompt: %w", err)
	}

	return toEntityPrompt(&result), nil
}

func (r *PromptPostgres) Upsert(ctx context.Context, prompt *entity.Prompt) (*entity.Prompt, error) {
	rows, err := r.db.Query(ctx,
		`INSERT INTO prompts (category, name, prompt) VALUES ($1, $2, $3)
		 ON CONFLICT (category, name) DO UPDATE SET prompt = EXCLUDED.prompt, updated_at = now()
		 RETURNING category, name, prompt, updated_at`,
		string(prompt.Category), prompt.Name, prompt.Prompt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert prompt: %w", err)
	}

	result, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[promptRow])
	if err != nil {
		return nil, fmt.Errorf("scan upserted prompt: %w", err)
	}

	return toEntityPrompt(&result), nil
}
