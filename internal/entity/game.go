package entity

// Game - one complete match snapshot. Snapshots are immutable once published;
// every mutation goes through a clone and bumps Version so receivers can
// discard superseded copies.
type Game struct {
	Version     uint64    `json:"version"`
	GameStarted bool      `json:"game_started"`
	CurrentTurn string    `json:"current_turn"`
	Grid        [][]Tile  `json:"grid"`
	Players     []*Player `json:"players"`
	GameEndTime int64     `json:"game_end_time,omitempty"`
	GameOver    bool      `json:"game_over"`
	Winner      string    `json:"winner,omitempty"`
}

// NewGrid - an empty GridSize x GridSize matrix, addressed grid[y][x].
func NewGrid() [][]Tile {
	grid := make([][]Tile, GridSize)
	for y := range grid {
		grid[y] = make([]Tile, GridSize)
		for x := range grid[y] {
			grid[y][x] = Tile{X: x, Y: y}
		}
	}
	return grid
}

func (that *Game) InBounds(x, y int) bool {
	return x >= 0 && x < GridSize && y >= 0 && y < GridSize
}

func (that *Game) TileAt(x, y int) *Tile {
	if !that.InBounds(x, y) {
		return nil
	}
	return &that.Grid[y][x]
}

func (that *Game) PlayerByID(id string) *Player {
	for _, player := range that.Players {
		if player.ID == id {
			return player
		}
	}
	return nil
}

// ActivePlayers - players still holding at least one tile.
func (that *Game) ActivePlayers() []*Player {
	active := make([]*Player, 0, len(that.Players))
	for _, player := range that.Players {
		if !player.IsEliminated() {
			active = append(active, player)
		}
	}
	return active
}

// TileCounts - owned-tile count per player id, derived from the rosters.
func (that *Game) TileCounts() map[string]int {
	counts := make(map[string]int, len(that.Players))
	for _, player := range that.Players {
		counts[player.ID] = len(player.Tiles)
	}
	return counts
}

func (that *Game) Clone() *Game {
	clone := *that
	clone.Grid = make([][]Tile, len(that.Grid))
	for y, row := range that.Grid {
		clone.Grid[y] = make([]Tile, len(row))
		for x := range row {
			clone.Grid[y][x] = row[x].Clone()
		}
	}
	clone.Players = make([]*Player, len(that.Players))
	for i, player := range that.Players {
		clone.Players[i] = player.Clone()
	}
	return &clone
}
