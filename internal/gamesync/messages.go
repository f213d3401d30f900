package gamesync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gridclash/gridclash-backend/internal/entity"
)

// Message actions. Action-carrying game messages embed the full resulting
// snapshot; lobby messages carry only the changed delta.
const (
	ActionJoinLobby         = "lobby:join"
	ActionReadyState        = "lobby:ready"
	ActionStartGame         = "game:start"
	ActionClaimTile         = "game:claim"
	ActionBuildConstruct    = "game:build"
	ActionDemolishConstruct = "game:demolish"
	ActionGameState         = "game:state"
)

// Message - the envelope every participant exchanges over the transport.
type Message struct {
	LobbyID  string          `json:"lobby_id"`
	Action   string          `json:"action"`
	SenderID string          `json:"sender_id"`
	SentAt   int64           `json:"sent_at"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// NewMessage - wraps a payload into an envelope stamped with the sender and time.
func NewMessage(lobbyID, action, senderID string, payload any) (*Message, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", action, err)
	}

	return &Message{
		LobbyID:  lobbyID,
		Action:   action,
		SenderID: senderID,
		SentAt:   time.Now().UnixMilli(),
		Payload:  body,
	}, nil
}

// Transport - the two-primitive contract expected from the signaling
// substrate: best-effort fan-out to every other participant of the lobby, and
// at-least-once unordered delivery to a registered handler.
type Transport interface {
	Broadcast(ctx context.Context, msg *Message) error
	Subscribe(ctx context.Context, lobbyID string, handler func(*Message)) error
	Close() error
}

// JoinLobbyPayload - the new roster entry, merged by player id.
type JoinLobbyPayload struct {
	Player *entity.Player `json:"player"`
}

// ReadyStatePayload - delta of one player's ready flag or cosmetic choice.
type ReadyStatePayload struct {
	PlayerID string         `json:"player_id"`
	IsReady  bool           `json:"is_ready"`
	Faction  entity.Faction `json:"faction,omitempty"`
	Color    string         `json:"color,omitempty"`
}

// StartGamePayload - the started lobby plus the freshly initialized match.
type StartGamePayload struct {
	Lobby *entity.Lobby `json:"lobby"`
	Game  *entity.Game  `json:"game"`
}

// ClaimTilePayload - one claim action with the full resulting snapshot.
type ClaimTilePayload struct {
	X        int          `json:"x"`
	Y        int          `json:"y"`
	PlayerID string       `json:"player_id"`
	GoldCost float64      `json:"gold_cost"`
	UnitCost float64      `json:"unit_cost"`
	Game     *entity.Game `json:"game"`
}

// BuildConstructPayload - one build action with the full resulting snapshot.
type BuildConstructPayload struct {
	X             int                  `json:"x"`
	Y             int                  `json:"y"`
	PlayerID      string               `json:"player_id"`
	ConstructType entity.ConstructType `json:"construct_type"`
	Game          *entity.Game         `json:"game"`
}

// DemolishConstructPayload - one demolish action with the full resulting snapshot.
type DemolishConstructPayload struct {
	X        int          `json:"x"`
	Y        int          `json:"y"`
	PlayerID string       `json:"player_id"`
	Game     *entity.Game `json:"game"`
}

// GameStatePayload - a bare snapshot replacement; a nil game means the match
// was reset.
type GameStatePayload struct {
	Game *entity.Game `json:"game"`
}
