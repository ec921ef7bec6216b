package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/futig/rag-console/internal/entity"
	pkghttp "github.com/futig/rag-console/pkg/http"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// ClientID is the API client id of a Telegram user.
func ClientID(userID int64) string {
	return fmt.Sprintf("tg-%d", userID)
}

type userSession struct {
	mu     sync.Mutex
	client APIClient
	ready  bool
}

// Handler answers Telegram users through the RAG API, one API client per user.
type Handler struct {
	sender  Sender
	clients ClientFactory
	logger  *zap.Logger

	mu       sync.Mutex
	sessions map[int64]*userSession
}

func NewHandler(sender Sender, clients ClientFactory, logger *zap.Logger) *Handler {
	return &Handler{
		sender:   sender,
		clients:  clients,
		logger:   logger,
		sessions: make(map[int64]*userSession),
	}
}

// Start greets the user and registers their settings.
func (h *Handler) Start(ctx context.Context, msg *Message) {
	if _, err := h.session(ctx, msg); err != nil {
		h.Reply(msg.ChatID, h.explain(ctx, err))
		return
	}
	h.Reply(msg.ChatID, msgWelcome)
}

// Help shows the available commands.
func (h *Handler) Help(_ context.Context, msg *Message) {
	h.Reply(msg.ChatID, msgWelcome)
}

// Unknown answers commands the bot does not know.
func (h *Handler) Unknown(_ context.Context, msg *Message) {
	h.Reply(msg.ChatID, msgUnknown)
}

// Unsupported answers non-text messages.
func (h *Handler) Unsupported(_ context.Context, msg *Message) {
	h.Reply(msg.ChatID, msgTextOnly)
}

// Chat streams the answer to the message and replies once it is complete.
func (h *Handler) Chat(ctx context.Context, msg *Message) {
	client, err := h.session(ctx, msg)
	if err != nil {
		h.Reply(msg.ChatID, h.explain(ctx, err))
		return
	}

	stop := showTyping(ctx, h.sender, msg.ChatID, h.logger)
	answer, err := client.StreamCollect(ctx, "/v1/chat/streams", &entity.ChatRequest{
		Messages: []entity.ChatMessage{{Role: entity.RoleUser, Content: msg.Text}},
	})
	stop()
	if err != nil {
		h.Reply(msg.ChatID, h.explain(ctx, err))
		return
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		answer = msgEmptyAnswer
	}
	h.Reply(msg.ChatID, answer)
}

// Reset clears the user's chat history; the server's acknowledgment reaches the chat through the notifier.
func (h *Handler) Reset(ctx context.Context, msg *Message) {
	client, err := h.session(ctx, msg)
	if err != nil {
		h.Reply(msg.ChatID, h.explain(ctx, err))
		return
	}

	if err := client.Delete(ctx, "/v1/chat/history"); err != nil {
		h.Reply(msg.ChatID, h.explain(ctx, err))
	}
}

// session returns the user's API client, creating their settings on first use.
func (h *Handler) session(ctx context.Context, msg *Message) (APIClient, error) {
	h.mu.Lock()
	s, ok := h.sessions[msg.UserID]
	if !ok {
		s = &userSession{}
		h.sessions[msg.UserID] = s
	}
	h.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		client, err := h.clients(ClientID(msg.UserID), &chatNotifier{handler: h, chatID: msg.ChatID})
		if err != nil {
			return nil, err
		}
		s.client = client
	}

	if !s.ready {
		err := s.client.Post(ctx, "/v1/settings", nil)
		var apiErr *pkghttp.ApiError
		if err != nil && !(errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict) {
			return nil, err
		}
		s.ready = true
		ctxzap.Debug(ctx, "telegram user registered", zap.String("client", ClientID(msg.UserID)))
	}

	return s.client, nil
}

// explain turns an API error into the text shown to the user.
func (h *Handler) explain(ctx context.Context, err error) string {
	var apiErr *pkghttp.ApiError
	if !errors.As(err, &apiErr) {
		ctxzap.Error(ctx, "telegram request failed", zap.Error(err))
		return msgGeneric
	}

	switch apiErr.Kind {
	case pkghttp.KindUnavailable:
		return msgStartingUp
	case pkghttp.KindServerRejected:
		return "⚠️ " + apiErr.Message
	default:
		ctxzap.Error(ctx, "telegram request failed", zap.Error(err))
		return msgGeneric
	}
}

// Reply sends text, split into as many messages as Telegram requires.
func (h *Handler) Reply(chatID int64, text string) {
	for _, part := range splitMessage(text, maxMessageLength) {
		if _, err := h.sender.Send(tgbotapi.NewMessage(chatID, part)); err != nil {
			h.logger.Error("failed to send message", zap.Error(err), zap.Int64("chat_id", chatID))
			return
		}
	}
}

type chatNotifier struct {
	handler *Handler
	chatID  int64
}

func (n *chatNotifier) Success(message string) {
	n.handler.Reply(n.chatID, message)
}

// splitMessage cuts text into parts of at most limit runes, preferring line breaks.
func splitMessage(text string, limit int) []string {
	runes := []rune(text)
	var parts []string
	for len(runes) > limit {
		cut := limit
		for i := limit - 1; i > limit/2; i-- {
			if runes[i] == '\n' {
				cut = i + 1
				break
			}
		}
		parts = append(parts, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 || len(parts) == 0 {
		parts = append(parts, string(runes))
	}
	return parts
}
