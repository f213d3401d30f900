package redisbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/gridclash/gridclash-backend/internal/gamesync"
)

// Bus - Redis pub/sub implementation of the transport contract. Fan-out is
// best-effort: a publish with no live subscribers is silently absorbed, and a
// malformed inbound message is logged and dropped.
type Bus struct {
	logger *slog.Logger
	client *redis.Client

	mu            sync.Mutex
	subscriptions []*redis.PubSub
}

func New(logger *slog.Logger, client *redis.Client) *Bus {
	return &Bus{
		logger: logger.With("component", "redisbus"),
		client: client,
	}
}

func channelFor(lobbyID string) string {
	return "lobby:" + lobbyID + ":events"
}

// Broadcast - publishes the message to every participant of the lobby.
func (that *Bus) Broadcast(ctx context.Context, msg *gamesync.Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err = that.client.Publish(ctx, channelFor(msg.LobbyID), body).Err(); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	return nil
}

// Subscribe - registers the handler for every message published to the lobby
// channel. Delivery runs on a dedicated goroutine until the context ends.
func (that *Bus) Subscribe(ctx context.Context, lobbyID string, handler func(*gamesync.Message)) error {
	sub := that.client.Subscribe(ctx, channelFor(lobbyID))

	// force the subscription to be established before returning
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to lobby channel: %w", err)
	}

	that.mu.Lock()
	that.subscriptions = append(that.subscriptions, sub)
	that.mu.Unlock()

	go func() {
		log := that.logger.With("lobby_id", lobbyID)

		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-sub.Channel():
				if !ok {
					return
				}

				var msg gamesync.Message
				if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
					log.Error("dropping malformed message", "error", err)
					continue
				}

				handler(&msg)
			}
		}
	}()

	return nil
}

func (that *Bus) Close() error {
	that.mu.Lock()
	subs := that.subscriptions
	that.subscriptions = nil
	that.mu.Unlock()

	for _, sub := range subs {
		if err := sub.Close(); err != nil {
			return fmt.Errorf("failed to close subscription: %w", err)
		}
	}

	return nil
}
