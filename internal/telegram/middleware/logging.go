package middleware

import (
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Next handles an update further down the chain.
type Next func(tgbotapi.Update)

// Logging logs one line per processed update.
func Logging(logger *zap.Logger) func(Next) Next {
	return func(next Next) Next {
		return func(update tgbotapi.Update) {
			start := time.Now()
			next(update)

			fields := []zap.Field{
				zap.Int("update_id", update.UpdateID),
				zap.Duration("duration", time.Since(start)),
			}
			if m := update.Message; m != nil {
				kind := "text"
				switch {
				case m.IsCommand():
					kind = "command:" + m.Command()
				case m.Text == "":
					kind = "other"
				}
				fields = append(fields,
					zap.Int64("chat_id", m.Chat.ID),
					zap.String("type", kind),
				)
				if m.From != nil {
					fields = append(fields, zap.Int64("user_id", m.From.ID))
				}
			}
			logger.Info("telegram update processed", fields...)
		}
	}
}
