package repository

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"sync"

	"github.com/futig/rag-console/internal/entity"
	"github.com/futig/rag-console/internal/vectorstore"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// VectorStoreRepository manages embedding tables inside configured databases
type VectorStoreRepository interface {
	Ping(ctx context.Context, db *entity.Database) error
	List(ctx context.Context, db *entity.Database) ([]*entity.VectorStore, error)
	Create(ctx context.Context, db *entity.Database, vs *entity.VectorStore, dimensions int) error
	Insert(ctx context.Context, db *entity.Database, table string, chunks []entity.Chunk, embeddings [][]float64) error
	Search(ctx context.Context, db *entity.Database, vs *entity.VectorStore, embedding []float64, topK int) ([]*entity.RetrievedDocument, error)
	Drop(ctx context.Context, db *entity.Database, table string) error
	Close()
}

var _ VectorStoreRepository = &VectorStorePostgres{}

// VectorStorePostgres keeps one pool per configured database and talks pgvector SQL.
type VectorStorePostgres struct {
	mu    sync.Mutex
	pools map[string]*pooledDatabase
}

type pooledDatabase struct {
	fingerprint string
	pool        *pgxpool.Pool
}

func NewVectorStorePostgres() *VectorStorePostgres {
	return &VectorStorePostgres{pools: make(map[string]*pooledDatabase)}
}

func fingerprint(db *entity.Database) string {
	return db.DSN + "\x00" + db.User + "\x00" + db.Password
}

// pool returns the cached pool for db, rebuilding it when the connection details changed.
func (r *VectorStorePostgres) pool(ctx context.Context, db *entity.Database) (*pgxpool.Pool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fp := fingerprint(db)
	if cached, ok := r.pools[db.Name]; ok {
		if cached.fingerprint == fp {
			return cached.pool, nil
		}
		cached.pool.Close()
		delete(r.pools, db.Name)
	}

	cfg, err := pgxpool.ParseConfig(db.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: parse DSN of %s: %v", entity.ErrDatabaseConnection, db.Name, err)
	}
	if db.User != "" {
		cfg.ConnConfig.User = db.User
	}
	if db.Password != "" {
		cfg.ConnConfig.Password = db.Password
	}
	cfg.MaxConns = 4

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", entity.ErrDatabaseConnection, db.Name, err)
	}

	r.pools[db.Name] = &pooledDatabase{fingerprint: fp, pool: pool}
	return pool, nil
}

// Ping verifies the connection details of db and that pgvector is available.
func (r *VectorStorePostgres) Ping(ctx context.Context, db *entity.Database) error {
	pool, err := r.pool(ctx, db)
	if err != nil {
		return err
	}

	if err := pool.Ping(ctx); err != nil {
		r.forget(db.Name)
		return fmt.Errorf("%w: %s: %v", entity.ErrDatabaseConnection, db.Name, err)
	}

	if _, err := pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		ctxzap.Warn(ctx, "could not ensure pgvector extension",
			zap.String("database", db.Name),
			zap.Error(err),
		)
	}

	return nil
}

func (r *VectorStorePostgres) forget(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cached, ok := r.pools[name]; ok {
		cached.pool.Close()
		delete(r.pools, name)
	}
}

// List discovers vector stores from table comments carrying the GENAI prefix.
func (r *VectorStorePostgres) List(ctx context.Context, db *entity.Database) ([]*entity.VectorStore, error) {
	pool, err := r.pool(ctx, db)
	if err != nil {
		return nil, err
	}

	rows, err := pool.Query(ctx,
		`SELECT c.relname, obj_description(c.oid, 'pg_class')
		 FROM pg_class c
		 JOIN pg_namespace n ON n.oid = c.relnamespace
		 WHERE c.relkind = 'r'
		   AND n.nspname = current_schema()
		   AND obj_description(c.oid, 'pg_class') LIKE $1
		 ORDER BY c.relname`,
		vectorstore.CommentPrefix+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("list vector stores: %w", err)
	}
	defer rows.Close()

	var stores []*entity.VectorStore
	for rows.Next() {
		var table, comment string
		if err := rows.Scan(&table, &comment); err != nil {
			return nil, fmt.Errorf("scan vector store: %w", err)
		}
		vs, ok := vectorstore.DecodeComment(table, comment)
		if !ok {
			ctxzap.Warn(ctx, "skipping table with unreadable comment", zap.String("table", table))
			continue
		}
		stores = append(stores, vs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vector stores: %w", err)
	}

	return stores, nil
}

// Create makes the table, its comment and its index in one transaction.
func (r *VectorStorePostgres) Create(ctx context.Context, db *entity.Database, vs *entity.VectorStore, dimensions int) error {
	pool, err := r.pool(ctx, db)
	if err != nil {
		return err
	}

	comment, err := vectorstore.EncodeComment(vs)
	if err != nil {
		return err
	}

	table := pgx.Identifier{vs.Table}.Sanitize()
	index := pgx.Identifier{indexName(vs.Table)}.Sanitize()
	metric := vectorstore.DistanceMetric(vs.DistanceMetric)

	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s (
				id        UUID PRIMARY KEY,
				source    TEXT NOT NULL,
				text      TEXT NOT NULL,
				embedding vector(%d) NOT NULL
			)`, table, dimensions)); err != nil {
			return fmt.Errorf("create vector store table: %w", err)
		}

		if _, err := tx.Exec(ctx, fmt.Sprintf(`COMMENT ON TABLE %s IS %s`, table, quoteLiteral(comment))); err != nil {
			return fmt.Errorf("comment vector store table: %w", err)
		}

		method := "hnsw"
		if vectorstore.IndexType(vs.IndexType) == vectorstore.IndexIVFFlat {
			method = "ivfflat"
		}
		if _, err := tx.Exec(ctx, fmt.Sprintf(
			`CREATE INDEX IF NOT EXISTS %s ON %s USING %s (embedding %s)`,
			index, table, method, metric.OpClass())); err != nil {
			return fmt.Errorf("index vector store table: %w", err)
		}

		return nil
	})
}

func (r *VectorStorePostgres) Insert(ctx context.Context, db *entity.Database, table string, chunks []entity.Chunk, embeddings [][]float64) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("insert vectors: %d chunks but %d embeddings", len(chunks), len(embeddings))
	}

	pool, err := r.pool(ctx, db)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`INSERT INTO %s (id, source, text, embedding) VALUES ($1, $2, $3, $4::vector)`,
		pgx.Identifier{table}.Sanitize())

	batch := &pgx.Batch{}
	for i, chunk := range chunks {
		batch.Queue(query, uuid.New(), chunk.Source, chunk.Text, vectorLiteral(embeddings[i]))
	}

	if err := pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert vectors into %s: %w", table, err)
	}

	return nil
}

func (r *VectorStorePostgres) Search(ctx context.Context, db *entity.Database, vs *entity.VectorStore, embedding []float64, topK int) ([]*entity.RetrievedDocument, error) {
	pool, err := r.pool(ctx, db)
	if err != nil {
		return nil, err
	}

	metric := vectorstore.DistanceMetric(vs.DistanceMetric)
	rows, err := pool.Query(ctx, fmt.Sprintf(
		`SELECT text, source, (embedding %s $1::vector)::float8 AS distance
		 FROM %s ORDER BY embedding %s $1::vector LIMIT $2`,
		metric.Operator(), pgx.Identifier{vs.Table}.Sanitize(), metric.Operator()),
		vectorLiteral(embedding), topK,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "42P01" {
			return nil, entity.WithDetail(entity.ErrVectorStoreNotFound, "Vector store %s not found.", vs.Table)
		}
		return nil, fmt.Errorf("search %s: %w", vs.Table, err)
	}

	docs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entity.RetrievedDocument, error) {
		doc := &entity.RetrievedDocument{}
		return doc, row.Scan(&doc.Text, &doc.Source, &doc.Distance)
	})
	if err != nil {
		return nil, fmt.Errorf("scan search results: %w", err)
	}

	return docs, nil
}

func (r *VectorStorePostgres) Drop(ctx context.Context, db *entity.Database, table string) error {
	pool, err := r.pool(ctx, db)
	if err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, fmt.Sprintf(`DROP TABLE %s`, pgx.Identifier{table}.Sanitize())); err != nil {
		return fmt.Errorf("drop vector store %s: %w", table, err)
	}

	return nil
}

// Close releases every cached pool.
func (r *VectorStorePostgres) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, cached := range r.pools {
		cached.pool.Close()
		delete(r.pools, name)
	}
}

func indexName(table string) string {
	const suffix = "_EMB_IDX"
	if len(table)+len(suffix) <= 63 {
		return table + suffix
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(table))
	tag := fmt.Sprintf("_%08X%s", h.Sum32(), suffix)
	return strings.TrimRight(table[:63-len(tag)], "_") + tag
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// vectorLiteral renders a pgvector text literal such as [0.1,0.2].
func vectorLiteral(v []float64) string {
	var sb strings.Builder
	sb.Grow(len(v) * 10)
	sb.WriteByte('[')
	for i, x := range v {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(x, 'f', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}
