package entity

// Player - one participant's roster entry. Tiles always mirrors the set of
// grid tiles whose owner is this player.
type Player struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	IsReady  bool    `json:"is_ready"`
	Color    string  `json:"color"`
	Faction  Faction `json:"faction"`
	Gold     float64 `json:"gold"`
	Units    float64 `json:"units"`
	GoldRate float64 `json:"gold_rate"`
	UnitRate float64 `json:"unit_rate"`
	Tiles    []Coord `json:"tiles"`
}

// NewPlayer - a fresh lobby entry with pre-game defaults.
func NewPlayer(id, name string) *Player {
	return &Player{
		ID:       id,
		Name:     name,
		Faction:  FactionHumans,
		Color:    Factions[FactionHumans].Color,
		GoldRate: 1,
	}
}

// IsEliminated - a player with no tiles is out of the game but stays in the roster.
func (that *Player) IsEliminated() bool {
	return len(that.Tiles) == 0
}

func (that *Player) OwnsTile(coord Coord) bool {
	for _, tile := range that.Tiles {
		if tile == coord {
			return true
		}
	}
	return false
}

func (that *Player) AddTile(coord Coord) {
	if that.OwnsTile(coord) {
		return
	}
	that.Tiles = append(that.Tiles, coord)
}

func (that *Player) RemoveTile(coord Coord) {
	for i, tile := range that.Tiles {
		if tile == coord {
			that.Tiles = append(that.Tiles[:i], that.Tiles[i+1:]...)
			return
		}
	}
}

func (that *Player) Clone() *Player {
	clone := *that
	clone.Tiles = make([]Coord, len(that.Tiles))
	copy(clone.Tiles, that.Tiles)
	return &clone
}
