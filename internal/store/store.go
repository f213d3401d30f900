package store

import (
	"sync"

	"github.com/gridclash/gridclash-backend/internal/entity"
)

// Snapshot - the pair of state values a participant holds at one moment.
// Either member may be nil (no lobby joined, no match running).
type Snapshot struct {
	Lobby *entity.Lobby
	Game  *entity.Game
}

// Store - the local participant's canonical state. Writers swap whole
// snapshots; values handed out are never mutated in place, so readers can use
// them without copying.
type Store struct {
	mu       sync.RWMutex
	lobby    *entity.Lobby
	game     *entity.Game
	watchers []func(Snapshot)
}

func New() *Store {
	return &Store{}
}

// Snapshot - the current state pair.
func (that *Store) Snapshot() Snapshot {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return Snapshot{Lobby: that.lobby, Game: that.game}
}

// SetLobby - replaces the lobby snapshot and notifies watchers.
func (that *Store) SetLobby(lobby *entity.Lobby) {
	that.mu.Lock()
	that.lobby = lobby
	snapshot := Snapshot{Lobby: that.lobby, Game: that.game}
	watchers := that.watchers
	that.mu.Unlock()

	notify(watchers, snapshot)
}

// SetGame - replaces the game snapshot and notifies watchers.
func (that *Store) SetGame(game *entity.Game) {
	that.mu.Lock()
	that.game = game
	snapshot := Snapshot{Lobby: that.lobby, Game: that.game}
	watchers := that.watchers
	that.mu.Unlock()

	notify(watchers, snapshot)
}

// Set - replaces both snapshots in one swap.
func (that *Store) Set(lobby *entity.Lobby, game *entity.Game) {
	that.mu.Lock()
	that.lobby = lobby
	that.game = game
	snapshot := Snapshot{Lobby: that.lobby, Game: that.game}
	watchers := that.watchers
	that.mu.Unlock()

	notify(watchers, snapshot)
}

// Clear - drops both snapshots, as when the participant leaves the lobby.
func (that *Store) Clear() {
	that.Set(nil, nil)
}

// Watch - registers a callback invoked after every snapshot swap. Callbacks
// run outside the store lock on the writer's goroutine.
func (that *Store) Watch(watcher func(Snapshot)) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.watchers = append(that.watchers, watcher)
}

func notify(watchers []func(Snapshot), snapshot Snapshot) {
	for _, watcher := range watchers {
		watcher(snapshot)
	}
}
