package rules

import (
	"fmt"
	"time"

	"github.com/gridclash/gridclash-backend/internal/apperror"
	"github.com/gridclash/gridclash-backend/internal/entity"
)

// The engine is a set of pure functions: every operation takes the current
// snapshot, returns a fresh one and never mutates its input. Ordinary rule
// violations are reported as a false flag, not as errors; only lobby-level
// failures (full lobby) surface as errors.

// CreateLobby - a lobby holding only its creator, who is pinned as host.
func CreateLobby(lobbyID, playerID, name string) *entity.Lobby {
	return entity.NewLobby(lobbyID, entity.NewPlayer(playerID, name))
}

// JoinLobby - appends a new player to the roster, picking the first unused
// faction and the first unused base color.
func JoinLobby(lobby *entity.Lobby, playerID, name string) (*entity.Lobby, error) {
	if lobby.IsFull() {
		return nil, fmt.Errorf("%w: lobby %s", apperror.ErrLobbyFull, lobby.ID)
	}

	next := lobby.Clone()

	player := entity.NewPlayer(playerID, name)
	player.Faction = pickFaction(next)
	player.Color = pickColor(next, player.Faction)

	next.Players = append(next.Players, player)

	return next, nil
}

// pickFaction - first faction nobody holds yet, defaulting to humans.
func pickFaction(lobby *entity.Lobby) entity.Faction {
	for _, faction := range entity.FactionOrder {
		if !lobby.FactionInUse(faction) {
			return faction
		}
	}
	return entity.FactionHumans
}

// pickColor - first base color nobody displays yet; collides with the chosen
// faction's base color if the palette is exhausted.
func pickColor(lobby *entity.Lobby, chosen entity.Faction) string {
	for _, faction := range entity.FactionOrder {
		color := entity.Factions[faction].Color
		if !lobby.ColorInUse(color) {
			return color
		}
	}
	return entity.Factions[chosen].Color
}

// ToggleReady - flips the acting player's ready flag.
func ToggleReady(lobby *entity.Lobby, playerID string) (*entity.Lobby, bool) {
	if lobby.PlayerByID(playerID) == nil {
		return lobby, false
	}

	next := lobby.Clone()
	player := next.PlayerByID(playerID)
	player.IsReady = !player.IsReady

	return next, true
}

// ChangeFaction - switches faction and resets the color to the faction base.
// Rejected once the player has readied up.
func ChangeFaction(lobby *entity.Lobby, playerID string, faction entity.Faction) (*entity.Lobby, bool) {
	if _, known := entity.Factions[faction]; !known {
		return lobby, false
	}

	player := lobby.PlayerByID(playerID)
	if player == nil || player.IsReady {
		return lobby, false
	}

	next := lobby.Clone()
	player = next.PlayerByID(playerID)
	player.Faction = faction
	player.Color = entity.Factions[faction].Color

	return next, true
}

// StartGame - marks the lobby started and builds the initial match snapshot:
// empty grid, fixed starting tiles in roster order, aliens seeded with passive
// unit production, timer armed for the full match duration.
func StartGame(lobby *entity.Lobby, now time.Time) (*entity.Lobby, *entity.Game) {
	nextLobby := lobby.Clone()
	nextLobby.GameStarted = true

	game := &entity.Game{
		Version:     1,
		GameStarted: true,
		Grid:        entity.NewGrid(),
		Players:     make([]*entity.Player, len(lobby.Players)),
		GameEndTime: now.Add(entity.MatchDuration).UnixMilli(),
	}

	for i, lobbyPlayer := range lobby.Players {
		player := lobbyPlayer.Clone()
		player.Gold = 0
		player.Units = 0
		player.GoldRate = 1
		player.UnitRate = 0
		if player.Faction == entity.FactionAliens {
			player.UnitRate = 1
		}
		player.Tiles = nil
		game.Players[i] = player
	}

	for i, coord := range entity.StartingCoords {
		if i >= len(game.Players) {
			break
		}
		player := game.Players[i]
		tile := game.TileAt(coord.X, coord.Y)
		tile.OwnerID = player.ID
		tile.Color = player.Color
		player.Tiles = []entity.Coord{coord}
	}

	if len(game.Players) > 0 {
		game.CurrentTurn = game.Players[0].ID
	}

	return nextLobby, game
}

// ClaimTile - the central economic action. The caller supplies the costs it
// displayed to the user; preconditions are checked against the snapshot and a
// failed check leaves the state untouched.
func ClaimTile(game *entity.Game, playerID string, x, y int, goldCost, unitCost float64) (*entity.Game, bool) {
	tile := game.TileAt(x, y)
	acting := game.PlayerByID(playerID)
	if tile == nil || acting == nil || game.GameOver {
		return game, false
	}

	if tile.OwnerID == playerID {
		return game, false
	}
	if acting.Gold < goldCost {
		return game, false
	}
	if tile.IsContestedBy(playerID) && acting.Units < unitCost {
		return game, false
	}
	if !adjacentToOwned(game, playerID, x, y) {
		return game, false
	}

	next := game.Clone()
	tile = next.TileAt(x, y)
	acting = next.PlayerByID(playerID)

	acting.Gold -= goldCost

	if tile.IsContestedBy(playerID) {
		acting.Units -= unitCost
		if previous := next.PlayerByID(tile.OwnerID); previous != nil {
			previous.RemoveTile(tile.Coord())
			transferConstruct(tile, previous, acting)
		}
	}

	tile.OwnerID = acting.ID
	tile.Color = acting.Color
	acting.AddTile(tile.Coord())

	if active := next.ActivePlayers(); len(active) == 1 {
		next.GameOver = true
		next.Winner = active[0].ID
	}

	next.Version++

	return next, true
}

// transferConstruct - a captured construct changes hands with its tile: the
// recurring rate moves from the previous owner to the captor and any defense
// bonus stays on the tile.
func transferConstruct(tile *entity.Tile, previous, captor *entity.Player) {
	if tile.Construct == nil {
		return
	}

	switch tile.Construct.Type {
	case entity.ConstructGold:
		previous.GoldRate--
		captor.GoldRate++
	case entity.ConstructUnit:
		previous.UnitRate--
		captor.UnitRate++
	case entity.ConstructDefense:
		// bonus is tied to the tile, nothing to move
	}

	tile.Construct.OwnerID = captor.ID
}

// adjacentToOwned - 4-directional adjacency to at least one tile the player holds.
func adjacentToOwned(game *entity.Game, playerID string, x, y int) bool {
	neighbors := [4]entity.Coord{
		{X: x - 1, Y: y},
		{X: x + 1, Y: y},
		{X: x, Y: y - 1},
		{X: x, Y: y + 1},
	}

	for _, n := range neighbors {
		tile := game.TileAt(n.X, n.Y)
		if tile != nil && tile.OwnerID == playerID {
			return true
		}
	}

	return false
}

// BuildConstruct - places a construct on an owned empty tile and applies its
// recurring effect.
func BuildConstruct(game *entity.Game, playerID string, x, y int, constructType entity.ConstructType) (*entity.Game, bool) {
	tile := game.TileAt(x, y)
	acting := game.PlayerByID(playerID)
	if tile == nil || acting == nil || game.GameOver {
		return game, false
	}

	cost, known := entity.ConstructCosts[constructType]
	if !known || tile.OwnerID != playerID || tile.Construct != nil || acting.Gold < cost {
		return game, false
	}

	next := game.Clone()
	tile = next.TileAt(x, y)
	acting = next.PlayerByID(playerID)

	acting.Gold -= cost
	tile.Construct = &entity.Construct{Type: constructType, OwnerID: playerID}

	switch constructType {
	case entity.ConstructGold:
		acting.GoldRate++
	case entity.ConstructUnit:
		acting.UnitRate++
	case entity.ConstructDefense:
		tile.DefenseBonus = entity.DefenseTileBonus
	}

	next.Version++

	return next, true
}

// DemolishConstruct - removes a construct from an owned tile, reversing its effect.
func DemolishConstruct(game *entity.Game, playerID string, x, y int) (*entity.Game, bool) {
	tile := game.TileAt(x, y)
	if tile == nil || game.GameOver || tile.OwnerID != playerID || tile.Construct == nil {
		return game, false
	}
	if game.PlayerByID(playerID) == nil {
		return game, false
	}

	next := game.Clone()
	tile = next.TileAt(x, y)
	acting := next.PlayerByID(playerID)

	switch tile.Construct.Type {
	case entity.ConstructGold:
		acting.GoldRate--
	case entity.ConstructUnit:
		acting.UnitRate--
	case entity.ConstructDefense:
		tile.DefenseBonus = 0
	}

	tile.Construct = nil
	next.Version++

	return next, true
}

// ResetGame - restores every player to pre-game defaults and clears the
// started flag. The same function runs on every participant so the outcome is
// identical everywhere.
func ResetGame(lobby *entity.Lobby) *entity.Lobby {
	next := lobby.Clone()
	next.GameStarted = false

	for _, player := range next.Players {
		player.IsReady = false
		player.Tiles = nil
		player.Gold = 0
		player.Units = 0
		player.GoldRate = 1
		player.UnitRate = 0
		if player.Faction == entity.FactionAliens {
			player.UnitRate = 1
		}
	}

	return next
}

// Tick - one 100ms step of the economy: accrue resources for active players,
// or end the match once the timer runs out. The winner is the player with the
// strictly highest tile count; a tie ends the game with no winner. Ticks run
// identically on every participant, so they leave Version alone - the version
// counter orders actions, not local accrual.
func Tick(game *entity.Game, now time.Time) *entity.Game {
	if game.GameOver {
		return game
	}

	next := game.Clone()

	if next.GameEndTime > 0 && now.UnixMilli() >= next.GameEndTime {
		next.GameOver = true
		next.Winner = leaderByTiles(next)
		return next
	}

	for _, player := range next.Players {
		if player.IsEliminated() {
			continue
		}
		player.Gold += player.GoldRate / entity.TicksPerSecond
		player.Units += player.UnitRate / entity.TicksPerSecond
	}

	return next
}

// leaderByTiles - id of the player with strictly the most tiles, or empty on a tie.
func leaderByTiles(game *entity.Game) string {
	leader := ""
	best := -1
	tied := false

	for _, player := range game.Players {
		count := len(player.Tiles)
		switch {
		case count > best:
			leader = player.ID
			best = count
			tied = false
		case count == best:
			tied = true
		}
	}

	if tied {
		return ""
	}

	return leader
}
