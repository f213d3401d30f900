package loopback

import (
	"context"
	"sync"

	"github.com/gridclash/gridclash-backend/internal/gamesync"
)

// Bus - an in-process transport connecting every participant of the same
// process. Used by tests and local play; it satisfies the same contract as the
// Redis bus.
type Bus struct {
	mu       sync.Mutex
	handlers map[string][]func(*gamesync.Message)
}

func New() *Bus {
	return &Bus{
		handlers: make(map[string][]func(*gamesync.Message)),
	}
}

// Broadcast - delivers the message synchronously to every subscriber of the
// lobby, including the sender's own handler.
func (that *Bus) Broadcast(_ context.Context, msg *gamesync.Message) error {
	that.mu.Lock()
	handlers := make([]func(*gamesync.Message), len(that.handlers[msg.LobbyID]))
	copy(handlers, that.handlers[msg.LobbyID])
	that.mu.Unlock()

	for _, handler := range handlers {
		handler(msg)
	}

	return nil
}

func (that *Bus) Subscribe(_ context.Context, lobbyID string, handler func(*gamesync.Message)) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.handlers[lobbyID] = append(that.handlers[lobbyID], handler)

	return nil
}

func (that *Bus) Close() error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.handlers = make(map[string][]func(*gamesync.Message))

	return nil
}
