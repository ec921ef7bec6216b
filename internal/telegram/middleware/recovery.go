package middleware

import (
	"runtime/debug"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Recovery turns a handler panic into a log line and an apology to the user.
func Recovery(logger *zap.Logger, notify func(chatID int64)) func(Next) Next {
	return func(next Next) Next {
		return func(update tgbotapi.Update) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				logger.Error("panic recovered in telegram handler",
					zap.Any("panic", r),
					zap.String("stack", string(debug.Stack())),
					zap.Int("update_id", update.UpdateID),
				)
				if update.Message != nil && notify != nil {
					notify(update.Message.Chat.ID)
				}
			}()

			next(update)
		}
	}
}

// Chain applies middlewares so that the first one runs outermost.
func Chain(h Next, mws ...func(Next) Next) Next {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
