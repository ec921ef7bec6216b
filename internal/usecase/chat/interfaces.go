package chat

import (
	"context"

	"github.com/futig/rag-console/internal/entity"
)

type LLMConnector interface {
	ChatModel() string
	Complete(ctx context.Context, params entity.CompletionParams, messages []entity.ChatMessage) (*entity.ChatCompletion, error)
	Stream(ctx context.Context, params entity.CompletionParams, messages []entity.ChatMessage, fn func(string) error) error
}

type SettingsProvider interface {
	Get(ctx context.Context, client string) (*entity.Settings, error)
}

type PromptProvider interface {
	Get(ctx context.Context, category entity.PromptCategory, name string) (*entity.Prompt, error)
}

// Retriever finds the documents relevant to a question for the given settings.
type Retriever interface {
	Retrieve(ctx context.Context, settings *entity.Settings, query string) ([]*entity.RetrievedDocument, error)
}
