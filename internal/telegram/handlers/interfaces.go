package handlers

import (
	"context"

	pkghttp "github.com/futig/rag-console/pkg/http"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is the part of the Telegram Bot API the handlers talk to.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// APIClient is the subset of the RAG API client used by the bot.
type APIClient interface {
	Post(ctx context.Context, endpoint string, out any, opts ...pkghttp.RequestOpt) error
	Delete(ctx context.Context, endpoint string, opts ...pkghttp.RequestOpt) error
	StreamCollect(ctx context.Context, endpoint string, payload any, opts ...pkghttp.RequestOpt) (string, error)
}

// ClientFactory builds the API client acting as one Telegram user.
type ClientFactory func(clientID string, notifier pkghttp.Notifier) (APIClient, error)

// Message is an incoming text message normalized from a Telegram update.
type Message struct {
	ChatID    int64
	UserID    int64
	MessageID int
	Text      string
}
