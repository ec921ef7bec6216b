package database

import (
	"context"

	"github.com/futig/rag-console/internal/entity"
)

type DatabaseUsecase interface {
	List(ctx context.Context) ([]*entity.Database, error)
	Get(ctx context.Context, name string) (*entity.Database, error)
	Update(ctx context.Context, name string, req *entity.DatabaseUpdateRequest) (*entity.Database, error)
	ListVectorStores(ctx context.Context, name string) ([]*entity.VectorStore, error)
	DropVectorStore(ctx context.Context, name, table string) error
	Embed(ctx context.Context, name string, vs *entity.VectorStore, files []entity.UploadedFile) (*entity.EmbedResponse, error)
}
