package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/futig/rag-console/internal/entity"
	"github.com/futig/rag-console/internal/vectorstore"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// DefaultDatabase is the connection seeded from the server's own DATABASE_URL.
const DefaultDatabase = "DEFAULT"

const pingTimeout = 5 * time.Second

type Usecase struct {
	repo     Repository
	stores   VectorStores
	embedder Embedder
}

func NewUsecase(repo Repository, stores VectorStores, embedder Embedder) *Usecase {
	return &Usecase{
		repo:     repo,
		stores:   stores,
		embedder: embedder,
	}
}

// EnsureDefault registers the server database under DefaultDatabase if nothing is configured yet.
func (uc *Usecase) EnsureDefault(ctx context.Context, dsn string) error {
	_, err := uc.repo.Get(ctx, DefaultDatabase)
	if err == nil {
		return nil
	}
	if !errors.Is(err, entity.ErrDatabaseNotFound) {
		return err
	}

	if _, err := uc.repo.Upsert(ctx, &entity.Database{Name: DefaultDatabase, DSN: dsn}); err != nil {
		return fmt.Errorf("seed default database: %w", err)
	}
	return nil
}

// List returns every connection with its reachability; passwords are stripped.
func (uc *Usecase) List(ctx context.Context) ([]*entity.Database, error) {
	dbs, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	for _, db := range dbs {
		db.Connected = uc.ping(ctx, db) == nil
		db.Password = ""
	}
	return dbs, nil
}

// Get returns one connection and, when reachable, its vector stores.
func (uc *Usecase) Get(ctx context.Context, name string) (*entity.Database, error) {
	db, err := uc.load(ctx, name)
	if err != nil {
		return nil, err
	}

	if err := uc.ping(ctx, db); err == nil {
		db.Connected = true
		stores, err := uc.stores.List(ctx, db)
		if err != nil {
			ctxzap.Warn(ctx, "could not list vector stores", zap.String("database", name), zap.Error(err))
		}
		db.VectorStores = stores
	}

	db.Password = ""
	return db, nil
}

// Update tests the new connection details and stores them when they work.
// An empty password keeps the stored one.
func (uc *Usecase) Update(ctx context.Context, name string, req *entity.DatabaseUpdateRequest) (*entity.Database, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name", entity.ErrMissingField)
	}

	candidate := &entity.Database{
		Name:     name,
		User:     req.User,
		Password: req.Password,
		DSN:      req.DSN,
	}

	if candidate.Password == "" {
		if existing, err := uc.repo.Get(ctx, name); err == nil {
			candidate.Password = existing.Password
		} else if !errors.Is(err, entity.ErrDatabaseNotFound) {
			return nil, err
		}
	}

	if err := uc.ping(ctx, candidate); err != nil {
		return nil, entity.WithDetail(err, "Unable to connect to database %s. Check the DSN and credentials.", name)
	}

	saved, err := uc.repo.Upsert(ctx, candidate)
	if err != nil {
		return nil, err
	}

	ctxzap.Info(ctx, "database connection updated", zap.String("database", name), zap.String("user", req.User))
	saved.Connected = true
	saved.Password = ""
	return saved, nil
}

func (uc *Usecase) ListVectorStores(ctx context.Context, name string) ([]*entity.VectorStore, error) {
	db, err := uc.connected(ctx, name)
	if err != nil {
		return nil, err
	}

	stores, err := uc.stores.List(ctx, db)
	if err != nil {
		return nil, err
	}
	if stores == nil {
		stores = []*entity.VectorStore{}
	}
	return stores, nil
}

// DropVectorStore removes a table created by this service; other tables are never touched.
func (uc *Usecase) DropVectorStore(ctx context.Context, name, table string) error {
	db, err := uc.connected(ctx, name)
	if err != nil {
		return err
	}

	if _, err := uc.findStore(ctx, db, table); err != nil {
		return err
	}

	if err := uc.stores.Drop(ctx, db, table); err != nil {
		return err
	}

	ctxzap.Info(ctx, "vector store dropped", zap.String("database", name), zap.String("table", table))
	return nil
}

// Embed chunks, embeds and stores files in the vector store described by vs.
func (uc *Usecase) Embed(ctx context.Context, name string, vs *entity.VectorStore, files []entity.UploadedFile) (*entity.EmbedResponse, error) {
	vectorstore.Normalize(vs)
	if err := vectorstore.Validate(vs); err != nil {
		return nil, err
	}
	vs.Table = vectorstore.TableName(vs)

	db, err := uc.connected(ctx, name)
	if err != nil {
		return nil, err
	}

	existing, err := uc.stores.List(ctx, db)
	if err != nil {
		return nil, err
	}
	if err := vectorstore.CheckConflict(vs, existing); err != nil {
		return nil, err
	}

	var chunks []entity.Chunk
	for _, f := range files {
		text, err := vectorstore.ExtractText(f)
		if err != nil {
			return nil, err
		}
		for _, piece := range vectorstore.Split(text, vs.ChunkSize, vs.ChunkOverlap) {
			chunks = append(chunks, entity.Chunk{Text: piece, Source: f.Filename})
		}
	}
	if len(chunks) == 0 {
		return nil, entity.WithDetail(entity.ErrInvalidFile, "The uploaded files contain no text.")
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	embeddings, err := uc.embedder.Embed(ctx, vs.Model, texts)
	if err != nil {
		return nil, err
	}
	if len(embeddings) != len(chunks) || len(embeddings[0]) == 0 {
		return nil, fmt.Errorf("%w: embedding model returned %d vectors for %d chunks", entity.ErrModelUnavailable, len(embeddings), len(chunks))
	}

	if err := uc.stores.Create(ctx, db, vs, len(embeddings[0])); err != nil {
		return nil, err
	}
	if err := uc.stores.Insert(ctx, db, vs.Table, chunks, embeddings); err != nil {
		return nil, err
	}

	ctxzap.Info(ctx, "documents embedded",
		zap.String("database", name),
		zap.String("table", vs.Table),
		zap.Int("files", len(files)),
		zap.Int("chunks", len(chunks)),
	)

	return &entity.EmbedResponse{
		Message:     fmt.Sprintf("Embedded %d chunks from %d files into %s.", len(chunks), len(files), vs.Table),
		VectorStore: vs.Table,
		Files:       len(files),
		Chunks:      len(chunks),
	}, nil
}

// Retrieve runs the similarity search configured in s for query.
func (uc *Usecase) Retrieve(ctx context.Context, s *entity.Settings, query string) ([]*entity.RetrievedDocument, error) {
	db, err := uc.connected(ctx, s.Database.Alias)
	if err != nil {
		return nil, err
	}

	vs, err := uc.findStore(ctx, db, s.VectorSearch.VectorStore)
	if err != nil {
		return nil, err
	}

	embeddings, err := uc.embedder.Embed(ctx, vs.Model, []string{query})
	if err != nil {
		return nil, err
	}
	if len(embeddings) != 1 {
		return nil, fmt.Errorf("%w: expected one query embedding", entity.ErrModelUnavailable)
	}

	return uc.stores.Search(ctx, db, vs, embeddings[0], s.VectorSearch.TopK)
}

func (uc *Usecase) load(ctx context.Context, name string) (*entity.Database, error) {
	db, err := uc.repo.Get(ctx, name)
	if err != nil {
		if errors.Is(err, entity.ErrDatabaseNotFound) {
			return nil, entity.WithDetail(err, "Database: %s not found.", name)
		}
		return nil, err
	}
	return db, nil
}

func (uc *Usecase) connected(ctx context.Context, name string) (*entity.Database, error) {
	db, err := uc.load(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := uc.ping(ctx, db); err != nil {
		return nil, entity.WithDetail(fmt.Errorf("%w: %w", entity.ErrDatabaseNotConnected, err),
			"Database: %s is not connected.", name)
	}
	return db, nil
}

func (uc *Usecase) findStore(ctx context.Context, db *entity.Database, table string) (*entity.VectorStore, error) {
	stores, err := uc.stores.List(ctx, db)
	if err != nil {
		return nil, err
	}
	for _, vs := range stores {
		if vs.Table == table {
			return vs, nil
		}
	}
	return nil, entity.WithDetail(entity.ErrVectorStoreNotFound, "Vector store: %s not found in %s.", table, db.Name)
}

func (uc *Usecase) ping(ctx context.Context, db *entity.Database) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return uc.stores.Ping(ctx, db)
}
