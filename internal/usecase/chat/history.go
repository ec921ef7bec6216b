package chat

import (
	"sync"
	"time"

	"github.com/futig/rag-console/internal/entity"
	"github.com/patrickmn/go-cache"
)

// maxHistoryMessages caps how many turns are kept per client.
const maxHistoryMessages = 200

// historyStore keeps each client's conversation in memory until it is idle for ttl.
type historyStore struct {
	mu    sync.Mutex
	cache *cache.Cache
}

func newHistoryStore(ttl time.Duration) *historyStore {
	return &historyStore{cache: cache.New(ttl, ttl/2)}
}

func (h *historyStore) get(client string) []entity.ChatMessage {
	h.mu.Lock()
	defer h.mu.Unlock()

	v, ok := h.cache.Get(client)
	if !ok {
		return nil
	}
	stored := v.([]entity.ChatMessage)
	out := make([]entity.ChatMessage, len(stored))
	copy(out, stored)
	return out
}

func (h *historyStore) append(client string, messages ...entity.ChatMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var stored []entity.ChatMessage
	if v, ok := h.cache.Get(client); ok {
		stored = v.([]entity.ChatMessage)
	}

	next := make([]entity.ChatMessage, 0, len(stored)+len(messages))
	next = append(next, stored...)
	next = append(next, messages...)
	if len(next) > maxHistoryMessages {
		next = next[len(next)-maxHistoryMessages:]
	}

	h.cache.Set(client, next, cache.DefaultExpiration)
}

func (h *historyStore) clear(client string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := 0
	if v, ok := h.cache.Get(client); ok {
		n = len(v.([]entity.ChatMessage))
	}
	h.cache.Delete(client)
	return n
}
