package database

import (
	"context"

	"github.com/futig/rag-console/internal/entity"
)

type Repository interface {
	List(ctx context.Context) ([]*entity.Database, error)
	Get(ctx context.Context, name string) (*entity.Database, error)
	Upsert(ctx context.Context, db *entity.Database) (*entity.Database, error)
}

type VectorStores interface {
	Ping(ctx context.Context, db *entity.Database) error
	List(ctx context.Context, db *entity.Database) ([]*entity.VectorStore, error)
	Create(ctx context.Context, db *entity.Database, vs *entity.VectorStore, dimensions int) error
	Insert(ctx context.Context, db *entity.Database, table string, chunks []entity.Chunk, embeddings [][]float64) error
	Search(ctx context.Context, db *entity.Database, vs *entity.VectorStore, embedding []float64, topK int) ([]*entity.RetrievedDocument, error)
	Drop(ctx context.Context, db *entity.Database, table string) error
}

type Embedder interface {
	Embed(ctx context.Context, model string, texts []string) ([][]float64, error)
}
