package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/futig/rag-console/internal/config"
	"github.com/futig/rag-console/internal/entity"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"
)

// embedBatchSize bounds the number of inputs sent in one embeddings request.
const embedBatchSize = 96

// Connector talks to any OpenAI-compatible provider.
type Connector struct {
	cli    openai.Client
	config config.LLMConfig
	logger *zap.Logger
}

func NewConnector(cfg config.LLMConfig, logger *zap.Logger) *Connector {
	opts := []option.RequestOption{
		option.WithRequestTimeout(cfg.Timeout),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Connector{
		cli:    openai.NewClient(opts...),
		config: cfg,
		logger: logger,
	}
}

// ChatModel is the model used when neither the request nor the settings name one.
func (c *Connector) ChatModel() string {
	return c.config.ChatModel
}

// EmbedModel is the default embedding model.
func (c *Connector) EmbedModel() string {
	return c.config.EmbedModel
}

func (c *Connector) newParams(params entity.CompletionParams, messages []entity.ChatMessage) openai.ChatCompletionNewParams {
	model := params.Model
	if model == "" {
		model = c.config.ChatModel
	}

	p := openai.ChatCompletionNewParams{
		Model:    model,
		Messages: toMessageParams(messages),
	}
	if params.Temperature > 0 {
		p.Temperature = openai.Float(params.Temperature)
	}
	if params.MaxCompletionTokens > 0 {
		p.MaxCompletionTokens = openai.Int(int64(params.MaxCompletionTokens))
	}
	if params.TopP > 0 {
		p.TopP = openai.Float(params.TopP)
	}
	if params.FrequencyPenalty != 0 {
		p.FrequencyPenalty = openai.Float(params.FrequencyPenalty)
	}
	if params.PresencePenalty != 0 {
		p.PresencePenalty = openai.Float(params.PresencePenalty)
	}
	return p
}

func toMessageParams(messages []entity.ChatMessage) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case entity.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case entity.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

// Complete runs one chat completion.
func (c *Connector) Complete(ctx context.Context, params entity.CompletionParams, messages []entity.ChatMessage) (*entity.ChatCompletion, error) {
	p := c.newParams(params, messages)
	ctxzap.Info(ctx, "requesting chat completion",
		zap.String("model", p.Model),
		zap.Int("message_count", len(messages)),
	)

	res, err := c.cli.Chat.Completions.New(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrModelUnavailable, err)
	}
	if len(res.Choices) == 0 {
		return nil, fmt.Errorf("%w: provider returned no choices", entity.ErrModelUnavailable)
	}

	completion := &entity.ChatCompletion{
		ID:      res.ID,
		Object:  "chat.completion",
		Created: res.Created,
		Model:   res.Model,
	}
	if completion.ID == "" {
		completion.ID = "chatcmpl-" + uuid.NewString()
	}
	for _, choice := range res.Choices {
		completion.Choices = append(completion.Choices, entity.ChatChoice{
			Index:        int(choice.Index),
			Message:      entity.ChatMessage{Role: entity.RoleAssistant, Content: choice.Message.Content},
			FinishReason: string(choice.FinishReason),
		})
	}

	ctxzap.Info(ctx, "chat completion received", zap.String("completion_id", completion.ID))
	return completion, nil
}

// Stream runs a streaming chat completion and hands each content delta to fn.
func (c *Connector) Stream(ctx context.Context, params entity.CompletionParams, messages []entity.ChatMessage, fn func(string) error) error {
	p := c.newParams(params, messages)
	ctxzap.Info(ctx, "requesting streamed chat completion", zap.String("model", p.Model))

	stream := c.cli.Chat.Completions.NewStreaming(ctx, p)
	defer stream.Close()

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			if err := fn(delta); err != nil {
				return err
			}
		}
	}

	if err := stream.Err(); err != nil {
		return fmt.Errorf("%w: %v", entity.ErrModelUnavailable, err)
	}
	return nil
}

// Embed returns one vector per text, in input order.
func (c *Connector) Embed(ctx context.Context, model string, texts []string) ([][]float64, error) {
	if model == "" {
		model = c.config.EmbedModel
	}
	if len(texts) == 0 {
		return nil, errors.New("embed: no input")
	}

	vectors := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += embedBatchSize {
		batch := texts[start:min(start+embedBatchSize, len(texts))]

		res, err := c.cli.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Model: openai.EmbeddingModel(model),
			Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: batch},
		})
		if err != nil {
			return nil, fmt.Errorf("%w: embeddings: %v", entity.ErrModelUnavailable, err)
		}
		if len(res.Data) != len(batch) {
			return nil, fmt.Errorf("%w: expected %d embeddings, got %d", entity.ErrModelUnavailable, len(batch), len(res.Data))
		}

		ordered := make([][]float64, len(batch))
		for _, d := range res.Data {
			if int(d.Index) < len(ordered) {
				ordered[d.Index] = d.Embedding
			}
		}
		vectors = append(vectors, ordered...)
	}

	ctxzap.Debug(ctx, "texts embedded", zap.String("model", model), zap.Int("count", len(vectors)))
	return vectors, nil
}
