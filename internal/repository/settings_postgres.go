package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/futig/rag-console/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SettingsRepository defines the interface for per-client settings persistence
type SettingsRepository interface {
	Get(ctx context.Context, client string) (*entity.Settings, error)
	Create(ctx context.Context, settings *entity.Settings) error
	Update(ctx context.Context, settings *entity.Settings) error
	List(ctx context.Context) ([]string, error)
}

var _ SettingsRepository = &SettingsPostgres{}

// SettingsPostgres stores each client's settings as one JSONB document.
type SettingsPostgres struct {
	db *pgxpool.Pool
}

func NewSettingsPostgres(db *pgxpool.Pool) *SettingsPostgres {
	return &SettingsPostgres{db: db}
}

func (r *SettingsPostgres) Get(ctx context.Context, client string) (*entity.Settings, error) {
	var raw []byte
	err := r.db.QueryRow(ctx,
		`SELECT settings FROM client_settings WHERE client = $1`, client,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrClientNotFound
		}
		return nil, fmt.Errorf("get settings: %w", err)
	}

	settings := &entity.Settings{}
	if err := json.Unmarshal(raw, settings); err != nil {
		return nil, fmt.Errorf("decode settings of %s: %w", client, err)
	}
	settings.Client = client

	return settings, nil
}

func (r *SettingsPostgres) Create(ctx context.Context, settings *entity.Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	tag, err := r.db.Exec(ctx,
		`INSERT INTO client_settings (client, settings) VALUES ($1, $2) ON CONFLICT (client) DO NOTHING`,
		settings.Client, raw,
	)
	if err != nil {
		return fmt.Errorf("create settings: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrClientExists
	}

	return nil
}

func (r *SettingsPostgres) Update(ctx context.Context, settings *entity.Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE client_settings SET settings = $2, updated_at = now() WHERE client = $1`,
		settings.Client, raw,
	)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrClientNotFound
	}

	return nil
}

func (r *SettingsPostgres) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT client FROM client_settings ORDER BY client`)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}

	clients, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan clients: %w", err)
	}

	return clients, nil
}
