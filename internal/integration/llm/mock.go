package llm

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"time"

	"github.com/futig/rag-console/internal/entity"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const mockDimensions = 16

// MockConnector answers deterministically without a provider.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

func (m *MockConnector) ChatModel() string  { return "mock-chat" }
func (m *MockConnector) EmbedModel() string { return "mock-embed" }

func (m *MockConnector) answer(messages []entity.ChatMessage) string {
	question := ""
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == entity.RoleUser {
			question = messages[i].Content
			break
		}
	}
	return "This is a mock answer to: " + question
}

func (m *MockConnector) Complete(ctx context.Context, params entity.CompletionParams, messages []entity.ChatMessage) (*entity.ChatCompletion, error) {
	ctxzap.Info(ctx, "[MOCK] chat completion", zap.Int("message_count", len(messages)))

	model := params.Model
	if model == "" {
		model = m.ChatModel()
	}

	return &entity.ChatCompletion{
		ID:      "chatcmpl-" + uuid.NewString(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []entity.ChatChoice{{
			Index:        0,
			Message:      entity.ChatMessage{Role: entity.RoleAssistant, Content: m.answer(messages)},
			FinishReason: "stop",
		}},
	}, nil
}

func (m *MockConnector) Stream(ctx context.Context, _ entity.CompletionParams, messages []entity.ChatMessage, fn func(string) error) error {
	ctxzap.Info(ctx, "[MOCK] streamed chat completion")

	words := strings.SplitAfter(m.answer(messages), " ")
	for _, w := range words {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(w); err != nil {
			return err
		}
	}
	return nil
}

// Embed hashes words into a small normalized bag-of-words vector.
func (m *MockConnector) Embed(ctx context.Context, _ string, texts []string) ([][]float64, error) {
	ctxzap.Info(ctx, "[MOCK] embedding texts", zap.Int("count", len(texts)))

	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		v := make([]float64, mockDimensions)
		for _, word := range strings.Fields(strings.ToLower(text)) {
			h := fnv.New32a()
			h.Write([]byte(word))
			v[h.Sum32()%mockDimensions]++
		}

		var norm float64
		for _, x := range v {
			norm += x * x
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for j := range v {
				v[j] /= norm
			}
		}
		vectors[i] = v
	}
	return vectors, nil
}
