package database

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/futig/rag-console/internal/entity"
	"github.com/futig/rag-console/internal/pkg/logger"
	"github.com/futig/rag-console/internal/pkg/response"
	"github.com/futig/rag-console/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Handler struct {
	usecase   DatabaseUsecase
	validator *validator.Validator
}

func NewHandler(usecase DatabaseUsecase, validator *validator.Validator) *Handler {
	return &Handler{
		usecase:   usecase,
		validator: validator,
	}
}

// ListDatabases handles GET /v1/databases
func (h *Handler) ListDatabases(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ListDatabases")

	dbs, err := h.usecase.List(ctx)
	if err != nil {
		response.FromError(ctx, w, err)
		return
	}

	response.Success(w, &entity.ListDatabasesResponse{Databases: dbs})
}

// GetDatabase handles GET /v1/databases/{name}
func (h *Handler) GetDatabase(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	ctx := logger.AddFields(r.Context(), zap.String("action", "GetDatabase"), zap.String("database", name))

	db, err := h.usecase.Get(ctx, name)
	if err != nil {
		response.FromError(ctx, w, err)
		return
	}

	response.Success(w, db)
}

// UpdateDatabase handles PATCH /v1/databases/{name}
func (h *Handler) UpdateDatabase(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	ctx := logger.AddFields(r.Context(), zap.String("action", "UpdateDatabase"), zap.String("database", name))

	var req entity.DatabaseUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Validation(ctx, w, entity.ValidationIssue{Loc: []string{"body"}, Msg: "invalid JSON: " + err.Error()})
		return
	}
	if issues := validator.ValidateDatabaseUpdate(&req); len(issues) > 0 {
		response.Validation(ctx, w, issues...)
		return
	}

	db, err := h.usecase.Update(ctx, name, &req)
	if err != nil {
		response.FromError(ctx, w, err)
		return
	}

	response.Success(w, db)
}

// ListVectorStores handles GET /v1/databases/{name}/vector_stores
func (h *Handler) ListVectorStores(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	ctx := logger.AddFields(r.Context(), zap.String("action", "ListVectorStores"), zap.String("database", name))

	stores, err := h.usecase.ListVectorStores(ctx, name)
	if err != nil {
		response.FromError(ctx, w, err)
		return
	}

	response.Success(w, &entity.ListVectorStoresResponse{VectorStores: stores})
}

// DropVectorStore handles DELETE /v1/databases/{name}/vector_stores/{table}
func (h *Handler) DropVectorStore(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	table := chi.URLParam(r, "table")
	ctx := logger.AddFields(r.Context(),
		zap.String("action", "DropVectorStore"),
		zap.String("database", name),
		zap.String("table", table),
	)

	if err := h.usecase.DropVectorStore(ctx, name, table); err != nil {
		response.FromError(ctx, w, err)
		return
	}

	response.Message(w, fmt.Sprintf("Vector store %s dropped.", table))
}

// Embed handles POST /v1/databases/{name}/embed
func (h *Handler) Embed(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	ctx := logger.AddFields(r.Context(), zap.String("action", "Embed"), zap.String("database", name))

	vs, issues := validator.ParseVectorStoreQuery(r.URL.Query())
	if len(issues) > 0 {
		response.Validation(ctx, w, issues...)
		return
	}

	if err := r.ParseMultipartForm(h.validator.MaxUploadSize()); err != nil {
		response.Detail(ctx, w, http.StatusBadRequest, "Invalid form data or upload too large.", err)
		return
	}

	headers := r.MultipartForm.File["files"]
	if err := h.validator.ValidateUpload(headers); err != nil {
		response.FromError(ctx, w, err)
		return
	}

	files, err := validator.ReadUploads(headers)
	if err != nil {
		response.Detail(ctx, w, http.StatusBadRequest, "Unable to read uploaded files.", err)
		return
	}

	ctxzap.Info(ctx, "embedding uploaded files",
		zap.String("alias", vs.Alias),
		zap.Int("file_count", len(files)),
	)

	res, err := h.usecase.Embed(ctx, name, vs, files)
	if err != nil {
		response.FromError(ctx, w, err)
		return
	}

	response.Success(w, res)
}
