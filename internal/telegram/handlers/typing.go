package handlers

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// typingInterval stays under the five seconds a typing action is shown for.
const typingInterval = 4 * time.Second

// showTyping keeps the "typing" indicator on until the returned stop func is called.
func showTyping(ctx context.Context, sender Sender, chatID int64, logger *zap.Logger) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)

	send := func() {
		if _, err := sender.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
			logger.Debug("failed to send typing action", zap.Error(err), zap.Int64("chat_id", chatID))
		}
	}
	send()

	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(typingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				send()
			case <-ctx.Done():
				return
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
