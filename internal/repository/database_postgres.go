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

// DatabaseRepository persists the connections vector stores live in
type DatabaseRepository interface {
	List(ctx context.Context) ([]*entity.Database, error)
	Get(ctx context.Context, name string) (*entity.Database, error)
	Upsert(ctx context.Context, db *entity.Database) (*entity.Database, error)
}

var _ DatabaseRepository = &DatabasePostgres{}

type DatabasePostgres struct {
	db *pgxpool.Pool
}

func NewDatabasePostgres(db *pgxpool.Pool) *DatabasePostgres {
	return &DatabasePostgres{db: db}
}

type databaseRow struct {
	Name      string    `db:"name"`
	User      string    `db:"user_name"`
	Password  string    `db:"password"`
	DSN       string    `db:"dsn"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r *DatabasePostgres) List(ctx context.Context) ([]*entity.Database, error) {
	rows, err := r.db.Query(ctx,
		`SELECT name, user_name, password, dsn, updated_at FROM database_connections ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list databases: %w", err)
	}

	results, err := pgx.CollectRows(rows, pgx.RowToStructByName[databaseRow])
	if err != nil {
		return nil, fmt.Errorf("scan databases: %w", err)
	}

	databases := make([]*entity.Database, 0, len(results))
	for i := range results {
		databases = append(databases, toEntityDatabase(&results[i]))
	}

	return databases, nil
}

func (r *DatabasePostgres) Get(ctx context.Context, name string) (*entity.Database, error) {
	rows, err := r.db.Query(ctx,
		`SELECT name, user_name, password, dsn, updated_at FROM database_connections WHERE name = $1`, name)
	if err != nil {
		return nil, fmt.Errorf("get database: %w", err)
	}

	result, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[databaseRow])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrDatabaseNotFound
		}
		return nil, fmt.Errorf("scan database: %w", err)
	}

	return toEntityDatabase(&result), nil
}

func (r *DatabasePostgres) Upsert(ctx context.Context, db *entity.Database) (*entity.Database, error) {
	rows, err := r.db.Query(ctx,
		`INSERT INTO database_connections (name, user_name, password, dsn) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (name) DO UPDATE
		 SET user_name = EXCLUDED.user_name, password = EXCLUDED.password, dsn = EXCLUDED.dsn, updated_at = now()
		 RETURNING name, user_name, password, dsn, updated_at`,
		db.Name, db.User, db.Password, db.DSN,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert database: %w", err)
	}

	result, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[databaseRow])
	if err != nil {
		return nil, fmt.Errorf("scan upserted database: %w", err)
	}

	return toEntityDatabase(&result), nil
}
