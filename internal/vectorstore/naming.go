// Package vectorstore holds the conventions shared by every embedding table:
// how tables are named, how they describe themselves, and how documents are chunked.
package vectorstore

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"

	"github.com/futig/rag-console/internal/entity"
)

// CommentPrefix marks a table comment written by this service.
const CommentPrefix = "GENAI: "

const (
	maxIdentifierLength = 63
	hashSuffixLength    = 9
)

var nonAlnum = regexp.MustCompile(`[^A-Z0-9]+`)

type DistanceMetric string

const (
	MetricCosine    DistanceMetric = "COSINE"
	MetricEuclidean DistanceMetric = "EUCLIDEAN_DISTANCE"
	MetricDot       DistanceMetric = "DOT_PRODUCT"
)

// Operator returns the pgvector distance operator.
func (m DistanceMetric) Operator() string {
	switch m {
	case MetricEuclidean:
		return "<->"
	case MetricDot:
		return "<#>"
	default:
		return "<=>"
	}
}

// OpClass returns the pgvector operator class used when indexing.
func (m DistanceMetric) OpClass() string {
	switch m {
	case MetricEuclidean:
		return "vector_l2_ops"
	case MetricDot:
		return "vector_ip_ops"
	default:
		return "vector_cosine_ops"
	}
}

type IndexType string

const (
	IndexHNSW    IndexType = "HNSW"
	IndexIVFFlat IndexType = "IVFFLAT"
)

// Normalize upper-cases the enumerated fields and fills defaults.
func Normalize(vs *entity.VectorStore) {
	vs.Alias = strings.TrimSpace(vs.Alias)
	vs.Model = strings.TrimSpace(vs.Model)
	vs.DistanceMetric = strings.ToUpper(strings.TrimSpace(vs.DistanceMetric))
	vs.IndexType = strings.ToUpper(strings.TrimSpace(vs.IndexType))
	if vs.DistanceMetric == "" {
		vs.DistanceMetric = string(MetricCosine)
	}
	if vs.IndexType == "" {
		vs.IndexType = string(IndexHNSW)
	}
}

// Validate checks a normalized description.
func Validate(vs *entity.VectorStore) error {
	if vs.Alias == "" {
		return fmt.Errorf("%w: alias", entity.ErrMissingField)
	}
	if vs.Model == "" {
		return fmt.Errorf("%w: model", entity.ErrMissingField)
	}
	if vs.ChunkSize < 1 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", entity.ErrInvalidParameter, vs.ChunkSize)
	}
	if vs.ChunkOverlap < 0 || vs.ChunkOverlap >= vs.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap must be in [0, chunk_size), got %d", entity.ErrInvalidParameter, vs.ChunkOverlap)
	}
	switch DistanceMetric(vs.DistanceMetric) {
	case MetricCosine, MetricEuclidean, MetricDot:
	default:
		return fmt.Errorf("%w: unsupported distance_metric %q", entity.ErrInvalidParameter, vs.DistanceMetric)
	}
	switch IndexType(vs.IndexType) {
	case IndexHNSW, IndexIVFFlat:
	default:
		return fmt.Errorf("%w: unsupported index_type %q", entity.ErrInvalidParameter, vs.IndexType)
	}
	return nil
}

// TableName derives the table for a store from every parameter that shapes its vectors.
// Names over the identifier limit keep a readable prefix and end with a hash of the full name.
func TableName(vs *entity.VectorStore) string {
	raw := fmt.Sprintf("%s_%s_%d_%d_%s_%s",
		vs.Alias, vs.Model, vs.ChunkSize, vs.ChunkOverlap, vs.DistanceMetric, vs.IndexType)

	name := nonAlnum.ReplaceAllString(strings.ToUpper(raw), "_")
	name = strings.Trim(name, "_")
	if name != "" && name[0] >= '0' && name[0] <= '9' {
		name = "T" + name
	}
	if len(name) <= maxIdentifierLength {
		return name
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(raw))
	prefix := strings.TrimRight(name[:maxIdentifierLength-hashSuffixLength], "_")
	return fmt.Sprintf("%s_%08X", prefix, h.Sum32())
}

// SameStore reports whether a and b describe identical vectors.
func SameStore(a, b *entity.VectorStore) bool {
	return a.Alias == b.Alias &&
		a.Model == b.Model &&
		a.ChunkSize == b.ChunkSize &&
		a.ChunkOverlap == b.ChunkOverlap &&
		a.DistanceMetric == b.DistanceMetric &&
		a.IndexType == b.IndexType
}

type comment struct {
	Alias          string `json:"alias"`
	Model          string `json:"model"`
	ChunkSize      int    `json:"chunk_size"`
	ChunkOverlap   int    `json:"chunk_overlap"`
	DistanceMetric string `json:"distance_metric"`
	IndexType      string `json:"index_type"`
}

// EncodeComment renders the table comment describing vs.
func EncodeComment(vs *entity.VectorStore) (string, error) {
	b, err := json.Marshal(comment{
		Alias:          vs.Alias,
		Model:          vs.Model,
		ChunkSize:      vs.ChunkSize,
		ChunkOverlap:   vs.ChunkOverlap,
		DistanceMetric: vs.DistanceMetric,
		IndexType:      vs.IndexType,
	})
	if err != nil {
		return "", fmt.Errorf("marshal vector store comment: %w", err)
	}
	return CommentPrefix + string(b), nil
}

// DecodeComment parses a table comment. ok is false for tables this service did not create.
func DecodeComment(table, text string) (vs *entity.VectorStore, ok bool) {
	payload, found := strings.CutPrefix(text, CommentPrefix)
	if !found {
		return nil, false
	}

	var c comment
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return nil, false
	}

	return &entity.VectorStore{
		Alias:          c.Alias,
		Model:          c.Model,
		ChunkSize:      c.ChunkSize,
		ChunkOverlap:   c.ChunkOverlap,
		DistanceMetric: c.DistanceMetric,
		IndexType:      c.IndexType,
		Table:          table,
	}, true
}

// CheckConflict returns ErrVectorStoreConflict when the table for vs already
// holds a store with a different description.
func CheckConflict(vs *entity.VectorStore, existing []*entity.VectorStore) error {
	table := TableName(vs)
	for _, e := range existing {
		if e.Table != table || SameStore(e, vs) {
			continue
		}
		if e.Alias != vs.Alias {
			return entity.WithDetail(entity.ErrVectorStoreConflict,
				"Vector store %s is already used by alias %s.", table, e.Alias)
		}
		return entity.WithDetail(entity.ErrVectorStoreConflict,
			"Vector store %s already exists with a different configuration.", table)
	}
	return nil
}
