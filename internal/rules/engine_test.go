package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridclash/gridclash-backend/internal/apperror"
	"github.com/gridclash/gridclash-backend/internal/entity"
)

// twoPlayerGame - a started match with player "a" on (3,3) and player "b" on (21,21).
func twoPlayerGame(t *testing.T) *entity.Game {
	t.Helper()

	lobby := CreateLobby("lobby1", "a", "Alice")
	lobby, err := JoinLobby(lobby, "b", "Bob")
	require.NoError(t, err)

	_, game := StartGame(lobby, time.Now())
	return game
}

// assertTilesMatchGrid - checks the central cross-entity invariant: every
// player's tile set equals the set of grid tiles they own.
func assertTilesMatchGrid(t *testing.T, game *entity.Game) {
	t.Helper()

	owned := make(map[string]map[entity.Coord]bool)
	for y := range game.Grid {
		for x := range game.Grid[y] {
			tile := &game.Grid[y][x]
			if tile.OwnerID == "" {
				assert.Empty(t, tile.Color)
				assert.Nil(t, tile.Construct)
				assert.Zero(t, tile.DefenseBonus)
				continue
			}
			if owned[tile.OwnerID] == nil {
				owned[tile.OwnerID] = make(map[entity.Coord]bool)
			}
			owned[tile.OwnerID][tile.Coord()] = true
		}
	}

	for _, player := range game.Players {
		require.Len(t, player.Tiles, len(owned[player.ID]), "player %s tile set out of sync", player.ID)
		for _, coord := range player.Tiles {
			assert.True(t, owned[player.ID][coord], "player %s missing grid ownership of %v", player.ID, coord)
		}
	}
}

func TestJoinLobby(t *testing.T) {
	t.Run("Assigns first unused faction and color in order", func(t *testing.T) {
		// Given: a lobby whose creator holds the default humans faction
		lobby := CreateLobby("lobby1", "a", "Alice")

		// When: two more players join
		lobby, err := JoinLobby(lobby, "b", "Bob")
		require.NoError(t, err)
		lobby, err = JoinLobby(lobby, "c", "Carol")
		require.NoError(t, err)

		// Then: factions are handed out in catalogue order with their base colors
		require.Equal(t, entity.FactionAliens, lobby.PlayerByID("b").Faction)
		require.Equal(t, entity.Factions[entity.FactionAliens].Color, lobby.PlayerByID("b").Color)
		require.Equal(t, entity.FactionRobots, lobby.PlayerByID("c").Faction)
		require.Equal(t, entity.Factions[entity.FactionRobots].Color, lobby.PlayerByID("c").Color)
	})

	t.Run("Rejects a fourth player", func(t *testing.T) {
		// Given: a full lobby
		lobby := CreateLobby("lobby1", "a", "Alice")
		lobby, err := JoinLobby(lobby, "b", "Bob")
		require.NoError(t, err)
		lobby, err = JoinLobby(lobby, "c", "Carol")
		require.NoError(t, err)

		// When: one player too many tries to join
		_, err = JoinLobby(lobby, "d", "Dave")

		// Then: the join fails with the lobby-full error
		require.ErrorIs(t, err, apperror.ErrLobbyFull)
	})

	t.Run("Preserves the host across joins", func(t *testing.T) {
		// Given: a lobby created by Alice
		lobby := CreateLobby("lobby1", "a", "Alice")

		// When: Bob joins
		lobby, err := JoinLobby(lobby, "b", "Bob")
		require.NoError(t, err)

		// Then: the host is still the creator
		assert.Equal(t, "a", lobby.HostID)
	})
}

func TestToggleReady(t *testing.T) {
	t.Run("Flips the ready flag back and forth", func(t *testing.T) {
		lobby := CreateLobby("lobby1", "a", "Alice")

		lobby, ok := ToggleReady(lobby, "a")
		require.True(t, ok)
		assert.True(t, lobby.PlayerByID("a").IsReady)

		lobby, ok = ToggleReady(lobby, "a")
		require.True(t, ok)
		assert.False(t, lobby.PlayerByID("a").IsReady)
	})

	t.Run("Rejects unknown players", func(t *testing.T) {
		lobby := CreateLobby("lobby1", "a", "Alice")

		_, ok := ToggleReady(lobby, "ghost")

		assert.False(t, ok)
	})
}

func TestChangeFaction(t *testing.T) {
	t.Run("Switches faction and resets color to the faction base", func(t *testing.T) {
		// Given: a fresh human player
		lobby := CreateLobby("lobby1", "a", "Alice")

		// When: they pick robots
		lobby, ok := ChangeFaction(lobby, "a", entity.FactionRobots)

		// Then: faction and base color follow
		require.True(t, ok)
		assert.Equal(t, entity.FactionRobots, lobby.PlayerByID("a").Faction)
		assert.Equal(t, entity.Factions[entity.FactionRobots].Color, lobby.PlayerByID("a").Color)
	})

	t.Run("Locks the faction once the player is ready", func(t *testing.T) {
		// Given: a player who has readied up
		lobby := CreateLobby("lobby1", "a", "Alice")
		lobby, ok := ToggleReady(lobby, "a")
		require.True(t, ok)

		// When: they try to switch faction
		next, ok := ChangeFaction(lobby, "a", entity.FactionAliens)

		// Then: the change is rejected and nothing moved
		assert.False(t, ok)
		assert.Equal(t, entity.FactionHumans, next.PlayerByID("a").Faction)
	})

	t.Run("Rejects unknown factions", func(t *testing.T) {
		lobby := CreateLobby("lobby1", "a", "Alice")

		_, ok := ChangeFaction(lobby, "a", entity.Faction("elves"))

		assert.False(t, ok)
	})
}

func TestStartGame(t *testing.T) {
	t.Run("Seeds starting tiles in roster order", func(t *testing.T) {
		// Given: a three player lobby
		lobby := CreateLobby("lobby1", "a", "Alice")
		lobby, err := JoinLobby(lobby, "b", "Bob")
		require.NoError(t, err)
		lobby, err = JoinLobby(lobby, "c", "Carol")
		require.NoError(t, err)

		// When: the game starts
		now := time.Now()
		startedLobby, game := StartGame(lobby, now)

		// Then: each player owns exactly their fixed spawn tile
		require.True(t, startedLobby.GameStarted)
		require.True(t, game.GameStarted)
		assert.Equal(t, "a", game.TileAt(3, 3).OwnerID)
		assert.Equal(t, "b", game.TileAt(21, 21).OwnerID)
		assert.Equal(t, "c", game.TileAt(3, 21).OwnerID)
		assert.Equal(t, []entity.Coord{{X: 3, Y: 3}}, game.PlayerByID("a").Tiles)
		assert.Equal(t, "a", game.CurrentTurn)
		assert.Equal(t, now.Add(entity.MatchDuration).UnixMilli(), game.GameEndTime)
		assert.False(t, game.GameOver)
		assertTilesMatchGrid(t, game)
	})

	t.Run("Aliens start with passive unit production", func(t *testing.T) {
		// Given: a lobby with an aliens player second in the roster
		lobby := CreateLobby("lobby1", "a", "Alice")
		lobby, err := JoinLobby(lobby, "b", "Bob")
		require.NoError(t, err)

		// When: the game starts
		_, game := StartGame(lobby, time.Now())

		// Then: every player earns gold, only aliens earn units
		assert.Equal(t, float64(1), game.PlayerByID("a").GoldRate)
		assert.Equal(t, float64(0), game.PlayerByID("a").UnitRate)
		assert.Equal(t, float64(1), game.PlayerByID("b").GoldRate)
		assert.Equal(t, float64(1), game.PlayerByID("b").UnitRate)
	})
}

func TestClaimTile(t *testing.T) {
	t.Run("Claims an adjacent free tile and pays gold", func(t *testing.T) {
		// Given: player a on (3,3) with exactly the claim price
		game := twoPlayerGame(t)
		game.PlayerByID("a").Gold = 10

		// When: a claims the neighboring tile
		next, ok := ClaimTile(game, "a", 4, 3, 10, 0)

		// Then: the tile changes hands and the gold is spent
		require.True(t, ok)
		assert.Equal(t, float64(0), next.PlayerByID("a").Gold)
		assert.Equal(t, "a", next.TileAt(4, 3).OwnerID)
		assert.Equal(t, next.PlayerByID("a").Color, next.TileAt(4, 3).Color)
		assert.ElementsMatch(t,
			[]entity.Coord{{X: 3, Y: 3}, {X: 4, Y: 3}},
			next.PlayerByID("a").Tiles,
		)
		assertTilesMatchGrid(t, next)
	})

	t.Run("Rejects a non-adjacent tile regardless of resources", func(t *testing.T) {
		// Given: a rich player far away from the target
		game := twoPlayerGame(t)
		game.PlayerByID("a").Gold = 1000
		game.PlayerByID("a").Units = 1000
		before := game.Clone()

		// When: they claim a tile nowhere near their territory
		next, ok := ClaimTile(game, "a", 10, 10, 10, 0)

		// Then: the claim is rejected and the snapshot is untouched
		assert.False(t, ok)
		assert.Same(t, game, next)
		assert.Equal(t, before, game)
	})

	t.Run("Rejects a claim with insufficient gold", func(t *testing.T) {
		game := twoPlayerGame(t)
		game.PlayerByID("a").Gold = 9

		_, ok := ClaimTile(game, "a", 4, 3, 10, 0)

		assert.False(t, ok)
	})

	t.Run("Rejects re-claiming an owned tile", func(t *testing.T) {
		game := twoPlayerGame(t)
		game.PlayerByID("a").Gold = 100

		_, ok := ClaimTile(game, "a", 3, 3, 10, 0)

		assert.False(t, ok)
	})

	t.Run("Contested claim spends units and eliminates the last-tile owner", func(t *testing.T) {
		// Given: b's only tile at (5,5) is defended and a sits next to it
		game := twoPlayerGame(t)
		a := game.PlayerByID("a")
		b := game.PlayerByID("b")

		moveTile(game, b, entity.Coord{X: 21, Y: 21}, entity.Coord{X: 5, Y: 5})
		game.TileAt(5, 5).DefenseBonus = 10
		moveTile(game, a, entity.Coord{X: 3, Y: 3}, entity.Coord{X: 5, Y: 4})
		a.Gold = 12
		a.Units = 16

		// When: a storms the defended tile
		next, ok := ClaimTile(game, "a", 5, 5, 12, 15)

		// Then: costs are paid, b loses their last tile and a wins the match
		require.True(t, ok)
		assert.InDelta(t, 0, next.PlayerByID("a").Gold, 1e-9)
		assert.InDelta(t, 1, next.PlayerByID("a").Units, 1e-9)
		assert.Empty(t, next.PlayerByID("b").Tiles)
		assert.Equal(t, "a", next.TileAt(5, 5).OwnerID)
		assert.True(t, next.GameOver)
		assert.Equal(t, "a", next.Winner)
		assertTilesMatchGrid(t, next)
	})

	t.Run("Contested claim without enough units is rejected", func(t *testing.T) {
		game := twoPlayerGame(t)
		a := game.PlayerByID("a")
		b := game.PlayerByID("b")

		moveTile(game, b, entity.Coord{X: 21, Y: 21}, entity.Coord{X: 4, Y: 3})
		a.Gold = 100
		a.Units = 4

		_, ok := ClaimTile(game, "a", 4, 3, 10, 5)

		assert.False(t, ok)
	})

	t.Run("Capturing a tile transfers its construct and rate", func(t *testing.T) {
		// Given: b holds a gold mine next to a's territory
		game := twoPlayerGame(t)
		a := game.PlayerByID("a")
		b := game.PlayerByID("b")

		moveTile(game, b, entity.Coord{X: 21, Y: 21}, entity.Coord{X: 4, Y: 3})
		b.AddTile(entity.Coord{X: 5, Y: 3})
		tile := game.TileAt(5, 3)
		tile.OwnerID = "b"
		tile.Color = b.Color
		game.TileAt(4, 3).Construct = &entity.Construct{Type: entity.ConstructGold, OwnerID: "b"}
		b.GoldRate = 2
		a.Gold = 100
		a.Units = 100

		// When: a captures the mine tile
		next, ok := ClaimTile(game, "a", 4, 3, 10, 5)

		// Then: the construct and its income belong to a now
		require.True(t, ok)
		captured := next.TileAt(4, 3)
		require.NotNil(t, captured.Construct)
		assert.Equal(t, "a", captured.Construct.OwnerID)
		assert.Equal(t, float64(2), next.PlayerByID("a").GoldRate)
		assert.Equal(t, float64(1), next.PlayerByID("b").GoldRate)
		assertTilesMatchGrid(t, next)
	})

	t.Run("Bumps the snapshot version", func(t *testing.T) {
		game := twoPlayerGame(t)
		game.PlayerByID("a").Gold = 10

		next, ok := ClaimTile(game, "a", 4, 3, 10, 0)

		require.True(t, ok)
		assert.Equal(t, game.Version+1, next.Version)
	})
}

// moveTile - test helper relocating a player's owned tile on the grid while
// keeping the tile set in sync.
func moveTile(game *entity.Game, player *entity.Player, from, to entity.Coord) {
	fromTile := game.TileAt(from.X, from.Y)
	fromTile.OwnerID = ""
	fromTile.Color = ""
	player.RemoveTile(from)

	toTile := game.TileAt(to.X, to.Y)
	toTile.OwnerID = player.ID
	toTile.Color = player.Color
	player.AddTile(to)
}

func TestBuildConstruct(t *testing.T) {
	t.Run("Places a gold construct and raises the gold rate", func(t *testing.T) {
		// Given: a player with enough gold for a mine
		game := twoPlayerGame(t)
		game.PlayerByID("a").Gold = 25

		// When: they build on their own tile
		next, ok := BuildConstruct(game, "a", 3, 3, entity.ConstructGold)

		// Then: gold is spent and the rate goes up
		require.True(t, ok)
		assert.InDelta(t, 5, next.PlayerByID("a").Gold, 1e-9)
		assert.Equal(t, float64(2), next.PlayerByID("a").GoldRate)
		require.NotNil(t, next.TileAt(3, 3).Construct)
		assert.Equal(t, entity.ConstructGold, next.TileAt(3, 3).Construct.Type)
		assert.Equal(t, "a", next.TileAt(3, 3).Construct.OwnerID)
	})

	t.Run("Defense construct sets a flat tile bonus", func(t *testing.T) {
		game := twoPlayerGame(t)
		game.PlayerByID("a").Gold = 25

		next, ok := BuildConstruct(game, "a", 3, 3, entity.ConstructDefense)

		require.True(t, ok)
		assert.Equal(t, entity.DefenseTileBonus, next.TileAt(3, 3).DefenseBonus)
	})

	t.Run("Rejects building on someone else's tile", func(t *testing.T) {
		game := twoPlayerGame(t)
		game.PlayerByID("a").Gold = 100

		_, ok := BuildConstruct(game, "a", 21, 21, entity.ConstructGold)

		assert.False(t, ok)
	})

	t.Run("Rejects a second construct on the same tile", func(t *testing.T) {
		game := twoPlayerGame(t)
		game.PlayerByID("a").Gold = 100

		next, ok := BuildConstruct(game, "a", 3, 3, entity.ConstructUnit)
		require.True(t, ok)

		_, ok = BuildConstruct(next, "a", 3, 3, entity.ConstructGold)
		assert.False(t, ok)
	})

	t.Run("Rejects the none sentinel", func(t *testing.T) {
		game := twoPlayerGame(t)
		game.PlayerByID("a").Gold = 100

		_, ok := BuildConstruct(game, "a", 3, 3, entity.ConstructNone)

		assert.False(t, ok)
	})

	t.Run("Rejects when gold is short", func(t *testing.T) {
		game := twoPlayerGame(t)
		game.PlayerByID("a").Gold = 14

		_, ok := BuildConstruct(game, "a", 3, 3, entity.ConstructUnit)

		assert.False(t, ok)
	})
}

func TestDemolishConstruct(t *testing.T) {
	t.Run("Build then demolish restores the rate and clears the tile", func(t *testing.T) {
		// Given: a freshly built gold mine
		game := twoPlayerGame(t)
		game.PlayerByID("a").Gold = 25
		rateBefore := game.PlayerByID("a").GoldRate

		built, ok := BuildConstruct(game, "a", 3, 3, entity.ConstructGold)
		require.True(t, ok)

		// When: it is demolished right away
		next, ok := DemolishConstruct(built, "a", 3, 3)

		// Then: the rate is back where it started and the tile is empty
		require.True(t, ok)
		assert.Equal(t, rateBefore, next.PlayerByID("a").GoldRate)
		assert.Nil(t, next.TileAt(3, 3).Construct)
	})

	t.Run("Demolishing a defense construct zeroes the bonus", func(t *testing.T) {
		game := twoPlayerGame(t)
		game.PlayerByID("a").Gold = 25

		built, ok := BuildConstruct(game, "a", 3, 3, entity.ConstructDefense)
		require.True(t, ok)

		next, ok := DemolishConstruct(built, "a", 3, 3)

		require.True(t, ok)
		assert.Zero(t, next.TileAt(3, 3).DefenseBonus)
	})

	t.Run("Rejects an empty tile", func(t *testing.T) {
		game := twoPlayerGame(t)

		_, ok := DemolishConstruct(game, "a", 3, 3)

		assert.False(t, ok)
	})
}

func TestResetGame(t *testing.T) {
	t.Run("Restores pre-game defaults for every player", func(t *testing.T) {
		// Given: a started lobby with an aliens player
		lobby := CreateLobby("lobby1", "a", "Alice")
		lobby, err := JoinLobby(lobby, "b", "Bob")
		require.NoError(t, err)
		lobby, ok := ToggleReady(lobby, "a")
		require.True(t, ok)
		startedLobby, _ := StartGame(lobby, time.Now())

		// When: the game is reset
		next := ResetGame(startedLobby)

		// Then: the lobby is back to its pre-game shape
		assert.False(t, next.GameStarted)
		for _, player := range next.Players {
			assert.False(t, player.IsReady)
			assert.Empty(t, player.Tiles)
			assert.Zero(t, player.Gold)
			assert.Zero(t, player.Units)
			assert.Equal(t, float64(1), player.GoldRate)
			if player.Faction == entity.FactionAliens {
				assert.Equal(t, float64(1), player.UnitRate)
			} else {
				assert.Zero(t, player.UnitRate)
			}
		}
	})
}

func TestTick(t *testing.T) {
	t.Run("One second of ticks accrues one gold at the base rate", func(t *testing.T) {
		// Given: a fresh match where everyone earns gold at rate 1
		game := twoPlayerGame(t)
		require.Zero(t, game.PlayerByID("a").Gold)

		// When: ten 100ms ticks pass
		now := time.Now()
		for i := 0; i < 10; i++ {
			game = Tick(game, now)
		}

		// Then: each active player holds one gold
		assert.InEpsilon(t, 1.0, game.PlayerByID("a").Gold, 1e-9)
		assert.InEpsilon(t, 1.0, game.PlayerByID("b").Gold, 1e-9)
	})

	t.Run("Eliminated players accrue nothing", func(t *testing.T) {
		// Given: b has lost their last tile
		game := twoPlayerGame(t)
		b := game.PlayerByID("b")
		tile := game.TileAt(21, 21)
		tile.OwnerID = ""
		tile.Color = ""
		b.Tiles = nil
		b.Gold = 3

		// When: a tick passes
		next := Tick(game, time.Now())

		// Then: b's resources are frozen
		assert.Equal(t, float64(3), next.PlayerByID("b").Gold)
		assert.InEpsilon(t, 0.1, next.PlayerByID("a").Gold, 1e-9)
	})

	t.Run("Timer expiry declares the tile leader the winner", func(t *testing.T) {
		// Given: the timer has run out with a ahead on tiles
		game := twoPlayerGame(t)
		a := game.PlayerByID("a")
		for x := 4; x < 13; x++ {
			coord := entity.Coord{X: x, Y: 3}
			tile := game.TileAt(x, 3)
			tile.OwnerID = "a"
			tile.Color = a.Color
			a.AddTile(coord)
		}
		game.GameEndTime = time.Now().Add(-time.Second).UnixMilli()

		// When: the next tick fires
		next := Tick(game, time.Now())

		// Then: the game ends with a as winner
		assert.True(t, next.GameOver)
		assert.Equal(t, "a", next.Winner)
	})

	t.Run("Timer expiry with tied tile counts ends in a draw", func(t *testing.T) {
		// Given: both players hold one tile when the timer runs out
		game := twoPlayerGame(t)
		game.GameEndTime = time.Now().Add(-time.Second).UnixMilli()

		// When: the next tick fires
		next := Tick(game, time.Now())

		// Then: the game is over with no winner
		assert.True(t, next.GameOver)
		assert.Empty(t, next.Winner)
	})

	t.Run("A finished game is left untouched", func(t *testing.T) {
		game := twoPlayerGame(t)
		game.GameOver = true

		next := Tick(game, time.Now())

		assert.Same(t, game, next)
	})
}

func TestCosts(t *testing.T) {
	t.Run("Tile gold cost grows with territory", func(t *testing.T) {
		player := entity.NewPlayer("a", "Alice")
		assert.Equal(t, float64(10), TileGoldCost(player))

		player.AddTile(entity.Coord{X: 3, Y: 3})
		player.AddTile(entity.Coord{X: 4, Y: 3})
		assert.Equal(t, float64(14), TileGoldCost(player))
	})

	t.Run("Contest unit cost includes the defense bonus", func(t *testing.T) {
		tile := &entity.Tile{X: 5, Y: 5, OwnerID: "b", DefenseBonus: 10}
		assert.Equal(t, float64(15), ContestUnitCost(tile))

		tile.DefenseBonus = 0
		assert.Equal(t, float64(5), ContestUnitCost(tile))
	})
}
