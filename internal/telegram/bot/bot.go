package bot

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/futig/rag-console/internal/config"
	"github.com/futig/rag-console/internal/telegram/handlers"
	"github.com/futig/rag-console/internal/telegram/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Poller is the long-polling side of the Telegram Bot API.
type Poller interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot dispatches Telegram updates to the chat handler
type Bot struct {
	poller  Poller
	cfg     *config.BotConfig
	handler *handlers.Handler
	logger  *zap.Logger
	chain   middleware.Next

	slots    chan struct{}
	stopOnce sync.Once
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func New(cfg *config.BotConfig, poller Poller, handler *handlers.Handler, logger *zap.Logger) *Bot {
	workers := cfg.MaxConcurrentUsers
	if workers <= 0 {
		workers = 1
	}

	b := &Bot{
		poller:   poller,
		cfg:      cfg,
		handler:  handler,
		logger:   logger,
		slots:    make(chan struct{}, workers),
		stopChan: make(chan struct{}),
	}
	b.chain = middleware.Chain(b.handleUpdate,
		middleware.Logging(logger),
		middleware.Recovery(logger, func(chatID int64) {
			handler.Reply(chatID, "Something went wrong. Please try again.")
		}),
	)
	return b
}

// Start begins long polling and returns immediately.
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("starting telegram bot")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.UpdateTimeout
	updates := b.poller.GetUpdatesChan(u)

	go b.processUpdates(ctxzap.ToContext(ctx, b.logger), updates)

	b.logger.Info("telegram bot started",
		zap.Int("max_concurrent_users", cap(b.slots)),
	)
	return nil
}

// Stop stops polling and waits for in-flight updates up to the shutdown timeout.
func (b *Bot) Stop() error {
	b.logger.Info("stopping telegram bot")

	b.stopOnce.Do(func() {
		close(b.stopChan)
		b.poller.StopReceivingUpdates()
	})

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("all updates completed")
		return nil
	case <-time.After(b.cfg.ShutdownTimeout):
		b.logger.Warn("shutdown timeout exceeded", zap.Duration("timeout", b.cfg.ShutdownTimeout))
		return errors.New("shutdown timeout exceeded")
	}
}

func (b *Bot) processUpdates(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			ctxzap.Info(ctx, "context cancelled, stopping update processing")
			return
		case <-b.stopChan:
			ctxzap.Info(ctx, "stop signal received, stopping update processing")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.dispatch(update)
		}
	}
}

// dispatch runs the update on a worker slot, blocking while all slots are busy.
func (b *Bot) dispatch(update tgbotapi.Update) {
	b.slots <- struct{}{}
	b.wg.Add(1)
	go func() {
		defer func() {
			<-b.slots
			b.wg.Done()
		}()
		b.chain(update)
	}()
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	m := update.Message
	if m == nil || m.From == nil {
		return
	}

	ctx := ctxzap.ToContext(context.Background(), b.logger.With(
		zap.Int64("user_id", m.From.ID),
		zap.String("client", handlers.ClientID(m.From.ID)),
	))
	msg := &handlers.Message{
		ChatID:    m.Chat.ID,
		UserID:    m.From.ID,
		MessageID: m.MessageID,
		Text:      m.Text,
	}

	switch {
	case m.IsCommand():
		b.handleCommand(ctx, m.Command(), msg)
	case m.Text == "":
		b.handler.Unsupported(ctx, msg)
	default:
		b.handler.Chat(ctx, msg)
	}
}

func (b *Bot) handleCommand(ctx context.Context, command string, msg *handlers.Message) {
	switch command {
	case "start":
		b.handler.Start(ctx, msg)
	case "help":
		b.handler.Help(ctx, msg)
	case "reset":
		b.handler.Reset(ctx, msg)
	default:
		b.handler.Unknown(ctx, msg)
	}
}
