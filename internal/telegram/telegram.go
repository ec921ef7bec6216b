package telegram

import (
	"context"
	"fmt"

	"github.com/futig/rag-console/internal/config"
	"github.com/futig/rag-console/internal/telegram/bot"
	"github.com/futig/rag-console/internal/telegram/handlers"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Bot is the Telegram chat frontend
type Bot interface {
	Start(ctx context.Context) error
	Stop() error
}

// NewBot authorizes against Telegram and wires the chat handler.
func NewBot(cfg *config.BotConfig, clients handlers.ClientFactory, logger *zap.Logger) (Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("create bot API: %w", err)
	}

	logger.Info("telegram bot authorized",
		zap.String("username", api.Self.UserName),
		zap.Int64("id", api.Self.ID),
	)

	handler := handlers.NewHandler(api, clients, logger)
	return bot.New(cfg, api, handler, logger), nil
}
