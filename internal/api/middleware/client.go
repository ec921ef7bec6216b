package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/futig/rag-console/internal/entity"
	"github.com/futig/rag-console/internal/pkg/logger"
	"go.uber.org/zap"
)

const ClientHeader = "Client"

type clientKey struct{}

// Client resolves the calling client from ?client=, then the Client header, then the default.
func Client(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := strings.TrimSpace(r.URL.Query().Get("client"))
		if client == "" {
			client = strings.TrimSpace(r.Header.Get(ClientHeader))
		}
		if client == "" {
			client = entity.DefaultClient
		}

		ctx := context.WithValue(r.Context(), clientKey{}, client)
		ctx = logger.AddFields(ctx, zap.String("client", client))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientFromContext returns the client resolved by the Client middleware.
func ClientFromContext(ctx context.Context) string {
	if client, ok := ctx.Value(clientKey{}).(string); ok {
		return client
	}
	return entity.DefaultClient
}
