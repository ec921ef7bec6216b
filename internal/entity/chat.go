package entity

import (
	"fmt"
	"time"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
	Model    string        `json:"model,omitempty"`
}

// LastUserMessage returns the most recent user turn.
func (r *ChatRequest) LastUserMessage() (string, error) {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == RoleUser && r.Messages[i].Content != "" {
			return r.Messages[i].Content, nil
		}
	}
	return "", ErrEmptyConversation
}

// ChatCompletion mirrors the OpenAI chat completion object.
type ChatCompletion struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []ChatChoice `json:"choices"`
}

type ChatChoice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type ChatHistoryResponse struct {
	Messages []ChatMessage `json:"messages"`
}

// CompletionParams are the sampling knobs handed to the model provider.
type CompletionParams struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int
	TopP                float64
	FrequencyPenalty    float64
	PresencePenalty     float64
}

type ExportFormat string

const (
	ExportMarkdown ExportFormat = "md"
	ExportDOCX     ExportFormat = "docx"
	ExportPDF      ExportFormat = "pdf"
)

func (f ExportFormat) Validate() error {
	switch f {
	case ExportMarkdown, ExportDOCX, ExportPDF:
		return nil
	default:
		return fmt.Errorf("%w: unsupported export format %q", ErrInvalidParameter, string(f))
	}
}

// MessageResponse acknowledges a mutating call.
type MessageResponse struct {
	Message string `json:"message"`
}

// DetailResponse is the error body understood by the console.
type DetailResponse struct {
	Detail any `json:"detail"`
}

type ValidationIssue struct {
	Loc []string `json:"loc"`
	Msg string   `json:"msg"`
}

// Transcript is a chat history prepared for export.
type Transcript struct {
	Client     string
	Messages   []ChatMessage
	ExportedAt time.Time
}

type ExportedFile struct {
	Filename    string
	ContentType string
	Content     []byte
}
