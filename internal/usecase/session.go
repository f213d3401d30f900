package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gridclash/gridclash-backend/internal/apperror"
	"github.com/gridclash/gridclash-backend/internal/entity"
	"github.com/gridclash/gridclash-backend/internal/gamesync"
	"github.com/gridclash/gridclash-backend/internal/pkg"
	"github.com/gridclash/gridclash-backend/internal/repository"
	"github.com/gridclash/gridclash-backend/internal/rules"
	"github.com/gridclash/gridclash-backend/internal/store"
	"github.com/gridclash/gridclash-backend/internal/ticker"
)

type lobbyRepo interface {
	CreateOrUpdate(ctx context.Context, record *repository.LobbyRecord) error
	GetByCode(ctx context.Context, code string) (*repository.LobbyRecord, error)
	AppendMessage(ctx context.Context, code string, raw []byte) error
	RecentMessages(ctx context.Context, code string) ([][]byte, error)
	DeleteByCode(ctx context.Context, code string) error
}

// Session - one participant's authoritative process: it owns the local state
// store, runs the rules engine on user intents, merges inbound messages and
// drives the resource ticker. A single mutex serializes intents, inbound
// messages and ticks, so rule evaluation never races with itself.
type Session struct {
	logger *slog.Logger

	mu       sync.Mutex
	playerID string

	store  *store.Store
	merger *gamesync.Merger
	repo   lobbyRepo
	bus    gamesync.Transport

	tick       *ticker.Ticker
	tickCancel context.CancelFunc

	// subscriptions live as long as the session, not as long as the request
	// that opened them
	syncCtx    context.Context
	syncCancel context.CancelFunc
}

func NewSession(logger *slog.Logger, playerID string, st *store.Store, repo lobbyRepo, bus gamesync.Transport) *Session {
	if playerID == "" {
		playerID = pkg.GeneratePlayerID()
	}

	syncCtx, syncCancel := context.WithCancel(context.Background())

	return &Session{
		logger:     logger.With("component", "session", "player_id", playerID),
		playerID:   playerID,
		store:      st,
		merger:     gamesync.NewMerger(playerID),
		repo:       repo,
		bus:        bus,
		tick:       ticker.New(entity.TickInterval),
		syncCtx:    syncCtx,
		syncCancel: syncCancel,
	}
}

func (that *Session) PlayerID() string {
	return that.playerID
}

// Snapshot - the current local state pair for the presentation layer.
func (that *Session) Snapshot() store.Snapshot {
	return that.store.Snapshot()
}

// CreateLobby - creates a fresh lobby with the caller as pinned host and
// returns its shareable code.
func (that *Session) CreateLobby(ctx context.Context, name string) (string, error) {
	that.mu.Lock()
	code := pkg.GenerateLobbyCode()
	lobby := rules.CreateLobby(code, that.playerID, name)
	that.store.SetLobby(lobby)
	that.mu.Unlock()

	if err := that.bus.Subscribe(that.syncCtx, code, that.handleMessage); err != nil {
		return "", fmt.Errorf("failed to subscribe to lobby: %w", err)
	}

	that.persist(ctx, lobby, nil)

	return code, nil
}

// JoinLobby - joins an existing lobby by code. Fails with ErrLobbyNotFound or
// ErrLobbyFull; both are user-visible, unlike silent rule rejections.
func (that *Session) JoinLobby(ctx context.Context, code, name string) error {
	record, err := that.repo.GetByCode(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to get lobby by code: %w", err)
	}

	that.mu.Lock()
	lobby, err := rules.JoinLobby(record.Lobby, that.playerID, name)
	if err != nil {
		that.mu.Unlock()
		return err
	}
	that.store.Set(lobby, record.Game)
	joined := lobby.PlayerByID(that.playerID).Clone()
	that.mu.Unlock()

	if err = that.bus.Subscribe(that.syncCtx, code, that.handleMessage); err != nil {
		return fmt.Errorf("failed to subscribe to lobby: %w", err)
	}

	that.replayLog(ctx, code)

	snapshot := that.store.Snapshot()
	that.persist(ctx, snapshot.Lobby, snapshot.Game)
	that.broadcast(ctx, code, gamesync.ActionJoinLobby, gamesync.JoinLobbyPayload{Player: joined})

	return nil
}

// replayLog - re-applies the lobby's recent message log, oldest first. It
// covers the gap between reading the shared record and the subscription going
// live; merging is idempotent, so double delivery is harmless.
func (that *Session) replayLog(ctx context.Context, code string) {
	entries, err := that.repo.RecentMessages(ctx, code)
	if err != nil {
		that.logger.Error("failed to read message log", "lobby_id", code, "error", err)
		return
	}

	for i := len(entries) - 1; i >= 0; i-- {
		var msg gamesync.Message
		if err = json.Unmarshal(entries[i], &msg); err != nil {
			that.logger.Error("dropping malformed logged message", "lobby_id", code, "error", err)
			continue
		}

		that.handleMessage(&msg)
	}
}

// ToggleReady - flips the local player's ready flag. No-op without a lobby.
func (that *Session) ToggleReady(ctx context.Context) bool {
	that.mu.Lock()
	snapshot := that.store.Snapshot()
	if snapshot.Lobby == nil {
		that.mu.Unlock()
		return false
	}

	lobby, ok := rules.ToggleReady(snapshot.Lobby, that.playerID)
	if !ok {
		that.mu.Unlock()
		return false
	}
	that.store.SetLobby(lobby)
	self := lobby.PlayerByID(that.playerID)
	payload := gamesync.ReadyStatePayload{
		PlayerID: self.ID,
		IsReady:  self.IsReady,
		Faction:  self.Faction,
		Color:    self.Color,
	}
	that.mu.Unlock()

	that.persist(ctx, lobby, snapshot.Game)
	that.broadcast(ctx, lobby.ID, gamesync.ActionReadyState, payload)

	return true
}

// ChangeFaction - picks a faction before readying up; rejected once ready.
func (that *Session) ChangeFaction(ctx context.Context, faction entity.Faction) bool {
	that.mu.Lock()
	snapshot := that.store.Snapshot()
	if snapshot.Lobby == nil {
		that.mu.Unlock()
		return false
	}

	lobby, ok := rules.ChangeFaction(snapshot.Lobby, that.playerID, faction)
	if !ok {
		that.mu.Unlock()
		return false
	}
	that.store.SetLobby(lobby)
	self := lobby.PlayerByID(that.playerID)
	payload := gamesync.ReadyStatePayload{
		PlayerID: self.ID,
		IsReady:  self.IsReady,
		Faction:  self.Faction,
		Color:    self.Color,
	}
	that.mu.Unlock()

	that.persist(ctx, lobby, snapshot.Game)
	that.broadcast(ctx, lobby.ID, gamesync.ActionReadyState, payload)

	return true
}

// StartGame - initializes the match from the current roster and starts the
// resource ticker. Readiness preconditions are the presentation layer's job;
// initialization itself is unconditional.
func (that *Session) StartGame(ctx context.Context) error {
	that.mu.Lock()
	snapshot := that.store.Snapshot()
	if snapshot.Lobby == nil {
		that.mu.Unlock()
		return apperror.ErrNoActiveLobby
	}

	lobby, game := rules.StartGame(snapshot.Lobby, time.Now())
	that.store.Set(lobby, game)
	that.startTickerLocked()
	that.mu.Unlock()

	that.persist(ctx, lobby, game)
	that.broadcast(ctx, lobby.ID, gamesync.ActionStartGame, gamesync.StartGamePayload{Lobby: lobby, Game: game})

	return nil
}

// ClaimTile - attempts the claim and reports the outcome. A false return means
// a rule rejected it and nothing changed.
func (that *Session) ClaimTile(ctx context.Context, x, y int, goldCost, unitCost float64) bool {
	that.mu.Lock()
	snapshot := that.store.Snapshot()
	if snapshot.Game == nil || snapshot.Lobby == nil {
		that.mu.Unlock()
		return false
	}

	game, ok := rules.ClaimTile(snapshot.Game, that.playerID, x, y, goldCost, unitCost)
	if !ok {
		that.mu.Unlock()
		return false
	}
	that.store.SetGame(game)
	that.mu.Unlock()

	that.persist(ctx, snapshot.Lobby, game)
	that.broadcast(ctx, snapshot.Lobby.ID, gamesync.ActionClaimTile, gamesync.ClaimTilePayload{
		X:        x,
		Y:        y,
		PlayerID: that.playerID,
		GoldCost: goldCost,
		UnitCost: unitCost,
		Game:     game,
	})

	return true
}

// BuildConstruct - places a construct on an owned tile.
func (that *Session) BuildConstruct(ctx context.Context, x, y int, constructType entity.ConstructType) bool {
	that.mu.Lock()
	snapshot := that.store.Snapshot()
	if snapshot.Game == nil || snapshot.Lobby == nil {
		that.mu.Unlock()
		return false
	}

	game, ok := rules.BuildConstruct(snapshot.Game, that.playerID, x, y, constructType)
	if !ok {
		that.mu.Unlock()
		return false
	}
	that.store.SetGame(game)
	that.mu.Unlock()

	that.persist(ctx, snapshot.Lobby, game)
	that.broadcast(ctx, snapshot.Lobby.ID, gamesync.ActionBuildConstruct, gamesync.BuildConstructPayload{
		X:             x,
		Y:             y,
		PlayerID:      that.playerID,
		ConstructType: constructType,
		Game:          game,
	})

	return true
}

// DemolishConstruct - removes a construct from an owned tile.
func (that *Session) DemolishConstruct(ctx context.Context, x, y int) bool {
	that.mu.Lock()
	snapshot := that.store.Snapshot()
	if snapshot.Game == nil || snapshot.Lobby == nil {
		that.mu.Unlock()
		return false
	}

	game, ok := rules.DemolishConstruct(snapshot.Game, that.playerID, x, y)
	if !ok {
		that.mu.Unlock()
		return false
	}
	that.store.SetGame(game)
	that.mu.Unlock()

	that.persist(ctx, snapshot.Lobby, game)
	that.broadcast(ctx, snapshot.Lobby.ID, gamesync.ActionDemolishConstruct, gamesync.DemolishConstructPayload{
		X:        x,
		Y:        y,
		PlayerID: that.playerID,
		Game:     game,
	})

	return true
}

// ResetGame - tears down the match, restores lobby defaults and tells every
// other participant to do the same.
func (that *Session) ResetGame(ctx context.Context) error {
	that.mu.Lock()
	snapshot := that.store.Snapshot()
	if snapshot.Lobby == nil {
		that.mu.Unlock()
		return apperror.ErrNoActiveLobby
	}

	lobby := rules.ResetGame(snapshot.Lobby)
	that.store.Set(lobby, nil)
	that.stopTickerLocked()
	that.mu.Unlock()

	that.persist(ctx, lobby, nil)
	that.broadcast(ctx, lobby.ID, gamesync.ActionGameState, gamesync.GameStatePayload{Game: nil})

	return nil
}

// handleMessage - merges one inbound message. Own echoes are skipped; merge
// errors are logged and the message is dropped.
func (that *Session) handleMessage(msg *gamesync.Message) {
	if msg.SenderID == that.playerID {
		return
	}

	that.mu.Lock()
	snapshot := that.store.Snapshot()

	lobby, game, changed, err := that.merger.Apply(snapshot.Lobby, snapshot.Game, msg)
	if err != nil {
		that.mu.Unlock()
		that.logger.Error("dropping inbound message", "action", msg.Action, "error", err)
		return
	}

	if !changed {
		that.mu.Unlock()
		return
	}

	that.store.Set(lobby, game)

	switch {
	case game != nil && !game.GameOver:
		that.startTickerLocked()
	case game == nil:
		that.stopTickerLocked()
	}
	that.mu.Unlock()
}

// advance - one ticker step. Returns false once the match is gone or decided,
// which stops the driving loop.
func (that *Session) advance(now time.Time) bool {
	that.mu.Lock()
	snapshot := that.store.Snapshot()
	if snapshot.Game == nil {
		that.stopTickerLocked()
		that.mu.Unlock()
		return false
	}

	game := rules.Tick(snapshot.Game, now)
	if game == snapshot.Game {
		that.stopTickerLocked()
		that.mu.Unlock()
		return false
	}

	that.store.SetGame(game)
	over := game.GameOver
	if over {
		that.stopTickerLocked()
	}
	that.mu.Unlock()

	if over {
		if snapshot.Lobby != nil {
			ctx := context.Background()
			that.persist(ctx, snapshot.Lobby, game)
			that.broadcast(ctx, snapshot.Lobby.ID, gamesync.ActionGameState, gamesync.GameStatePayload{Game: game})
		}
		return false
	}

	return true
}

func (that *Session) startTickerLocked() {
	if that.tickCancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	that.tickCancel = cancel

	go that.tick.Run(ctx, that.advance)
}

func (that *Session) stopTickerLocked() {
	if that.tickCancel == nil {
		return
	}

	that.tickCancel()
	that.tickCancel = nil
}

// persist - overwrites the shared lobby record wholesale. Failures are logged
// and dropped; the worst outcome is a stale record, never a crash.
func (that *Session) persist(ctx context.Context, lobby *entity.Lobby, game *entity.Game) {
	if lobby == nil {
		return
	}

	record := &repository.LobbyRecord{Lobby: lobby, Game: game}
	if err := that.repo.CreateOrUpdate(ctx, record); err != nil {
		that.logger.Error("failed to persist lobby record", "lobby_id", lobby.ID, "error", err)
	}
}

// broadcast - ships one message to the other participants and appends it to
// the bounded delivery log. Failures are logged and dropped.
func (that *Session) broadcast(ctx context.Context, lobbyID, action string, payload any) {
	msg, err := gamesync.NewMessage(lobbyID, action, that.playerID, payload)
	if err != nil {
		that.logger.Error("failed to build message", "action", action, "error", err)
		return
	}

	if raw, err := json.Marshal(msg); err == nil {
		if err = that.repo.AppendMessage(ctx, lobbyID, raw); err != nil {
			that.logger.Error("failed to log message", "action", action, "error", err)
		}
	}

	if err = that.bus.Broadcast(ctx, msg); err != nil {
		that.logger.Error("failed to broadcast message", "action", action, "error", err)
	}
}

// Close - leaves the lobby: subscriptions end, the ticker stops and local
// state is dropped. The last participant out deletes the shared record.
func (that *Session) Close() {
	that.mu.Lock()
	snapshot := that.store.Snapshot()
	that.syncCancel()
	that.stopTickerLocked()
	that.store.Clear()
	that.mu.Unlock()

	if snapshot.Lobby != nil && len(snapshot.Lobby.Players) == 1 {
		if err := that.repo.DeleteByCode(context.Background(), snapshot.Lobby.ID); err != nil {
			that.logger.Error("failed to delete lobby record", "lobby_id", snapshot.Lobby.ID, "error", err)
		}
	}
}
