package validator

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/futig/rag-console/internal/entity"
)

// ParseVectorStoreQuery reads an embedding store description from query parameters.
func ParseVectorStoreQuery(q url.Values) (*entity.VectorStore, []entity.ValidationIssue) {
	var issues []entity.ValidationIssue

	required := func(key string) string {
		v := strings.TrimSpace(q.Get(key))
		if v == "" {
			issues = append(issues, entity.ValidationIssue{Loc: []string{"query", key}, Msg: "field required"})
		}
		return v
	}
	integer := func(key string) int {
		raw := required(key)
		if raw == "" {
			return 0
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			issues = append(issues, entity.ValidationIssue{Loc: []string{"query", key}, Msg: "value is not a valid integer"})
		}
		return n
	}

	vs := &entity.VectorStore{
		Alias:          required("alias"),
		Model:          required("model"),
		ChunkSize:      integer("chunk_size"),
		ChunkOverlap:   integer("chunk_overlap"),
		DistanceMetric: q.Get("distance_metric"),
		IndexType:      q.Get("index_type"),
	}

	return vs, issues
}

// ValidateDatabaseUpdate reports the missing fields of a connection update.
func ValidateDatabaseUpdate(req *entity.DatabaseUpdateRequest) []entity.ValidationIssue {
	var issues []entity.ValidationIssue
	if strings.TrimSpace(req.DSN) == "" {
		issues = append(issues, entity.ValidationIssue{Loc: []string{"body", "dsn"}, Msg: "field required"})
	}
	return issues
}
