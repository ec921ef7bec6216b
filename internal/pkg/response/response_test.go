package response

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/futig/rag-console/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "detail message is surfaced",
			err:        entity.WithDetail(entity.ErrClientNotFound, "Client: %s not found.", "bob"),
			wantStatus: http.StatusNotFound,
			wantBody:   `{"detail":"Client: bob not found."}`,
		},
		{
			name:       "wrapped validation error",
			err:        fmt.Errorf("%w: top_k must be positive", entity.ErrInvalidParameter),
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"detail":"invalid parameter: top_k must be positive"}`,
		},
		{
			name:       "conflict",
			err:        entity.ErrVectorStoreConflict,
			wantStatus: http.StatusConflict,
			wantBody:   `{"detail":"vector store table already used by another alias"}`,
		},
		{
			name:       "internal errors are not leaked",
			err:        errors.New("pq: password authentication failed"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"detail":"Internal server error."}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			FromError(context.Background(), rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestValidation(t *testing.T) {
	rec := httptest.NewRecorder()
	Validation(context.Background(), rec, entity.ValidationIssue{Loc: []string{"body", "prompt"}, Msg: "field required"})

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"detail":[{"loc":["body","prompt"],"msg":"field required"}]}`, rec.Body.String())
}

func TestMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	Message(rec, "Chat history cleared.")

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"message":"Chat history cleared."}`, rec.Body.String())
}
