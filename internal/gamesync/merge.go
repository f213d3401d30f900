package gamesync

import (
	"encoding/json"
	"fmt"

	"github.com/gridclash/gridclash-backend/internal/entity"
	"github.com/gridclash/gridclash-backend/internal/rules"
)

// Merger folds inbound messages into the local state pair. Conflict policy:
// the host pinned at creation is re-asserted against any incoming snapshot,
// the local participant's own ready/faction/color are preserved over stale
// remote copies of themselves, and a game snapshot only replaces the local one
// when its version is strictly newer - re-delivered and stale messages fall
// through without effect.
type Merger struct {
	selfID string
}

func NewMerger(selfID string) *Merger {
	return &Merger{selfID: selfID}
}

// Apply - merges one message into the given state pair and returns the new
// pair plus whether anything changed. Malformed payloads are reported as
// errors so the caller can log and drop them.
func (that *Merger) Apply(lobby *entity.Lobby, game *entity.Game, msg *Message) (*entity.Lobby, *entity.Game, bool, error) {
	switch msg.Action {
	case ActionJoinLobby:
		next, changed, err := that.applyJoin(lobby, msg)
		return next, game, changed, err

	case ActionReadyState:
		next, changed, err := that.applyReady(lobby, msg)
		return next, game, changed, err

	case ActionStartGame:
		return that.applyStart(lobby, game, msg)

	case ActionClaimTile:
		var payload ClaimTilePayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return lobby, game, false, fmt.Errorf("failed to unmarshal claim payload: %w", err)
		}
		next, changed := replaceIfNewer(game, payload.Game)
		return lobby, next, changed, nil

	case ActionBuildConstruct:
		var payload BuildConstructPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return lobby, game, false, fmt.Errorf("failed to unmarshal build payload: %w", err)
		}
		next, changed := replaceIfNewer(game, payload.Game)
		return lobby, next, changed, nil

	case ActionDemolishConstruct:
		var payload DemolishConstructPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return lobby, game, false, fmt.Errorf("failed to unmarshal demolish payload: %w", err)
		}
		next, changed := replaceIfNewer(game, payload.Game)
		return lobby, next, changed, nil

	case ActionGameState:
		return that.applyGameState(lobby, game, msg)

	default:
		return lobby, game, false, fmt.Errorf("unknown action %q", msg.Action)
	}
}

func (that *Merger) applyJoin(lobby *entity.Lobby, msg *Message) (*entity.Lobby, bool, error) {
	var payload JoinLobbyPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return lobby, false, fmt.Errorf("failed to unmarshal join payload: %w", err)
	}

	if lobby == nil || payload.Player == nil {
		return lobby, false, nil
	}
	if lobby.PlayerByID(payload.Player.ID) != nil {
		return lobby, false, nil
	}

	next := lobby.Clone()
	next.Players = append(next.Players, payload.Player.Clone())

	return next, true, nil
}

func (that *Merger) applyReady(lobby *entity.Lobby, msg *Message) (*entity.Lobby, bool, error) {
	var payload ReadyStatePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return lobby, false, fmt.Errorf("failed to unmarshal ready payload: %w", err)
	}

	// never let a remote echo overwrite our own pending choices
	if lobby == nil || payload.PlayerID == that.selfID {
		return lobby, false, nil
	}
	if lobby.PlayerByID(payload.PlayerID) == nil {
		return lobby, false, nil
	}

	next := lobby.Clone()
	player := next.PlayerByID(payload.PlayerID)
	player.IsReady = payload.IsReady
	if payload.Faction != "" {
		player.Faction = payload.Faction
	}
	if payload.Color != "" {
		player.Color = payload.Color
	}

	return next, true, nil
}

func (that *Merger) applyStart(lobby *entity.Lobby, game *entity.Game, msg *Message) (*entity.Lobby, *entity.Game, bool, error) {
	var payload StartGamePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return lobby, game, false, fmt.Errorf("failed to unmarshal start payload: %w", err)
	}

	nextLobby := that.reconcileLobby(lobby, payload.Lobby)
	nextGame, _ := replaceIfNewer(game, payload.Game)

	return nextLobby, nextGame, true, nil
}

func (that *Merger) applyGameState(lobby *entity.Lobby, game *entity.Game, msg *Message) (*entity.Lobby, *entity.Game, bool, error) {
	var payload GameStatePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return lobby, game, false, fmt.Errorf("failed to unmarshal game state payload: %w", err)
	}

	// a nil snapshot means the match was reset; every participant recomputes
	// the same lobby defaults locally
	if payload.Game == nil {
		if game == nil && lobby != nil && !lobby.GameStarted {
			return lobby, nil, false, nil
		}
		if lobby != nil {
			lobby = rules.ResetGame(lobby)
		}
		return lobby, nil, true, nil
	}

	next, changed := replaceIfNewer(game, payload.Game)

	return lobby, next, changed, nil
}

// reconcileLobby - accepts an incoming lobby snapshot while pinning the host
// and preserving the local participant's own fields.
func (that *Merger) reconcileLobby(local, incoming *entity.Lobby) *entity.Lobby {
	if incoming == nil {
		return local
	}

	next := incoming.Clone()
	if local == nil {
		return next
	}

	next.HostID = local.HostID

	self := local.PlayerByID(that.selfID)
	remote := next.PlayerByID(that.selfID)
	if self != nil && remote != nil {
		remote.IsReady = self.IsReady
		remote.Faction = self.Faction
		remote.Color = self.Color
	}

	return next
}

// replaceIfNewer - last-write-wins gated on the monotonic snapshot version.
func replaceIfNewer(local, incoming *entity.Game) (*entity.Game, bool) {
	if incoming == nil {
		return local, false
	}
	if local != nil && incoming.Version <= local.Version {
		return local, false
	}
	return incoming, true
}
