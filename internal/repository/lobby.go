package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/gridclash/gridclash-backend/internal/apperror"
	"github.com/gridclash/gridclash-backend/internal/entity"
)

// maxLoggedMessages bounds the per-lobby recent-message log.
const maxLoggedMessages = 100

// LobbyRecord - the shared per-lobby record, overwritten wholesale on every
// state transition.
type LobbyRecord struct {
	Lobby *entity.Lobby `json:"lobby"`
	Game  *entity.Game  `json:"game,omitempty"`
}

type LobbyRepository interface {
	CreateOrUpdate(ctx context.Context, record *LobbyRecord) error
	GetByCode(ctx context.Context, code string) (*LobbyRecord, error)
	DeleteByCode(ctx context.Context, code string) error
	AppendMessage(ctx context.Context, code string, raw []byte) error
	RecentMessages(ctx context.Context, code string) ([][]byte, error)
}

type dbLobby struct {
	client *redis.Client
}

func NewLobbyRepository(client *redis.Client) LobbyRepository {
	return &dbLobby{
		client: client,
	}
}

func (that *dbLobby) CreateOrUpdate(ctx context.Context, record *LobbyRecord) error {
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("could not marshal lobby record: %w", err)
	}

	lobbyKey := "lobby:" + record.Lobby.ID
	if err = that.client.Set(ctx, lobbyKey, recordJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to set lobby record: %w", err)
	}

	return nil
}

func (that *dbLobby) GetByCode(ctx context.Context, code string) (*LobbyRecord, error) {
	lobbyKey := "lobby:" + code

	response, err := that.client.Get(ctx, lobbyKey).Result()

	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrLobbyNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get lobby by code: %w", err)
	}

	var record LobbyRecord
	if err = json.Unmarshal([]byte(response), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal lobby record: %w", err)
	}

	return &record, nil
}

func (that *dbLobby) DeleteByCode(ctx context.Context, code string) error {
	if err := that.client.Del(ctx, "lobby:"+code, "lobby:"+code+":log").Err(); err != nil {
		return fmt.Errorf("failed to delete lobby by code: %w", err)
	}

	return nil
}

// AppendMessage - pushes a raw message onto the bounded per-lobby log used for
// at-least-once delivery.
func (that *dbLobby) AppendMessage(ctx context.Context, code string, raw []byte) error {
	logKey := "lobby:" + code + ":log"

	pipe := that.client.TxPipeline()
	pipe.LPush(ctx, logKey, raw)
	pipe.LTrim(ctx, logKey, 0, maxLoggedMessages-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append lobby message: %w", err)
	}

	return nil
}

// RecentMessages - the bounded log, most recent first.
func (that *dbLobby) RecentMessages(ctx context.Context, code string) ([][]byte, error) {
	logKey := "lobby:" + code + ":log"

	entries, err := that.client.LRange(ctx, logKey, 0, maxLoggedMessages-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read lobby messages: %w", err)
	}

	raw := make([][]byte, len(entries))
	for i, entry := range entries {
		raw[i] = []byte(entry)
	}

	return raw, nil
}
