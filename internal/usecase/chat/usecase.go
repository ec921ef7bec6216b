package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/futig/rag-console/internal/entity"
	"github.com/futig/rag-console/internal/pkg/formatter"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Usecase answers chat requests with the client's settings, prompts and vector store.
type Usecase struct {
	llm        LLMConnector
	settings   SettingsProvider
	prompts    PromptProvider
	retriever  Retriever
	history    *historyStore
	formatters *formatter.Factory
	now        func() time.Time
}

func NewUsecase(
	llm LLMConnector,
	settings SettingsProvider,
	prompts PromptProvider,
	retriever Retriever,
	historyTTL time.Duration,
) *Usecase {
	return &Usecase{
		llm:        llm,
		settings:   settings,
		prompts:    prompts,
		retriever:  retriever,
		history:    newHistoryStore(historyTTL),
		formatters: formatter.NewFactory(),
		now:        time.Now,
	}
}

type preparedChat struct {
	params   entity.CompletionParams
	messages []entity.ChatMessage
	question string
	record   bool
}

func (uc *Usecase) prepare(ctx context.Context, client string, req *entity.ChatRequest) (*preparedChat, error) {
	question, err := req.LastUserMessage()
	if err != nil {
		return nil, err
	}

	s, err := uc.settings.Get(ctx, client)
	if err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = s.LLModel.Model
	}
	if model == "" {
		model = uc.llm.ChatModel()
	}

	var messages []entity.ChatMessage
	if sys := uc.promptText(ctx, entity.PromptCategorySys, s.Prompts.Sys); sys != "" {
		messages = append(messages, entity.ChatMessage{Role: entity.RoleSystem, Content: sys})
	}

	if s.LLModel.ChatHistory {
		messages = append(messages, uc.history.get(client)...)
	}

	if s.VectorSearch.Enabled {
		docs, err := uc.retriever.Retrieve(ctx, s, question)
		if err != nil {
			return nil, fmt.Errorf("retrieve context: %w", err)
		}
		if len(docs) > 0 {
			messages = append(messages, entity.ChatMessage{
				Role:    entity.RoleSystem,
				Content: uc.contextMessage(ctx, s.Prompts.Ctx, docs),
			})
		}
		ctxzap.Debug(ctx, "context retrieved", zap.Int("documents", len(docs)))
	}

	for _, m := range req.Messages {
		if m.Role != entity.RoleSystem {
			messages = append(messages, m)
		}
	}

	return &preparedChat{
		params: entity.CompletionParams{
			Model:               model,
			Temperature:         s.LLModel.Temperature,
			MaxCompletionTokens: s.LLModel.MaxCompletionTokens,
			TopP:                s.LLModel.TopP,
			FrequencyPenalty:    s.LLModel.FrequencyPenalty,
			PresencePenalty:     s.LLModel.PresencePenalty,
		},
		messages: messages,
		question: question,
		record:   s.LLModel.ChatHistory,
	}, nil
}

// promptText resolves a named prompt; a missing prompt is logged and skipped.
func (uc *Usecase) promptText(ctx context.Context, category entity.PromptCategory, name string) string {
	if name == "" {
		return ""
	}
	p, err := uc.prompts.Get(ctx, category, name)
	if err != nil {
		ctxzap.Warn(ctx, "prompt unavailable",
			zap.String("category", string(category)),
			zap.String("name", name),
			zap.Error(err),
		)
		return ""
	}
	return p.Prompt
}

func (uc *Usecase) contextMessage(ctx context.Context, ctxPrompt string, docs []*entity.RetrievedDocument) string {
	var sb strings.Builder
	if text := uc.promptText(ctx, entity.PromptCategoryCtx, ctxPrompt); text != "" {
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}
	for i, d := range docs {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "[%d] %s\n%s", i+1, d.Source, d.Text)
	}
	return sb.String()
}

// Complete answers req for client and records the exchange when history is on.
func (uc *Usecase) Complete(ctx context.Context, client string, req *entity.ChatRequest) (*entity.ChatCompletion, error) {
	p, err := uc.prepare(ctx, client, req)
	if err != nil {
		return nil, err
	}

	completion, err := uc.llm.Complete(ctx, p.params, p.messages)
	if err != nil {
		return nil, err
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty completion", entity.ErrModelUnavailable)
	}

	if p.record {
		uc.history.append(client,
			entity.ChatMessage{Role: entity.RoleUser, Content: p.question},
			completion.Choices[0].Message,
		)
	}

	ctxzap.Info(ctx, "chat completed",
		zap.String("client", client),
		zap.String("model", completion.Model),
	)
	return completion, nil
}

// Stream answers req chunk by chunk through fn.
func (uc *Usecase) Stream(ctx context.Context, client string, req *entity.ChatRequest, fn func(string) error) error {
	p, err := uc.prepare(ctx, client, req)
	if err != nil {
		return err
	}

	var answer strings.Builder
	err = uc.llm.Stream(ctx, p.params, p.messages, func(chunk string) error {
		answer.WriteString(chunk)
		return fn(chunk)
	})
	if err != nil {
		return err
	}

	if p.record && answer.Len() > 0 {
		uc.history.append(client,
			entity.ChatMessage{Role: entity.RoleUser, Content: p.question},
			entity.ChatMessage{Role: entity.RoleAssistant, Content: answer.String()},
		)
	}

	ctxzap.Info(ctx, "chat streamed", zap.String("client", client), zap.Int("length", answer.Len()))
	return nil
}

func (uc *Usecase) History(_ context.Context, client string) []entity.ChatMessage {
	messages := uc.history.get(client)
	if messages == nil {
		return []entity.ChatMessage{}
	}
	return messages
}

func (uc *Usecase) ClearHistory(ctx context.Context, client string) int {
	n := uc.history.clear(client)
	ctxzap.Info(ctx, "chat history cleared", zap.String("client", client), zap.Int("messages", n))
	return n
}

// Export renders the client's history in the requested format.
func (uc *Usecase) Export(ctx context.Context, client string, format entity.ExportFormat) (*entity.ExportedFile, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}

	messages := uc.history.get(client)
	if len(messages) == 0 {
		return nil, entity.WithDetail(entity.ErrEmptyConversation, "Chat history of %s is empty.", client)
	}

	f, err := uc.formatters.Create(format)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	content, err := f.Format(&entity.Transcript{Client: client, Messages: messages, ExportedAt: now})
	if err != nil {
		return nil, fmt.Errorf("format chat history: %w", err)
	}

	ctxzap.Info(ctx, "chat history exported",
		zap.String("client", client),
		zap.String("format", string(format)),
		zap.Int("bytes", len(content)),
	)

	return &entity.ExportedFile{
		Filename:    fmt.Sprintf("chat-%s-%s%s", client, now.UTC().Format("20060102-150405"), f.FileExtension()),
		ContentType: f.ContentType(),
		Content:     content,
	}, nil
}
