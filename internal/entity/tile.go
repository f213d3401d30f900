package entity

// Coord identifies a tile by its grid position.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Construct - a building placed on an owned tile. It exists only while placed
// and its owner always equals the owner of the tile it sits on.
type Construct struct {
	Type    ConstructType `json:"type"`
	OwnerID string        `json:"owner_id"`
}

// Tile - one cell of the grid. An unowned tile has no color, no construct and
// no defense bonus.
type Tile struct {
	X            int        `json:"x"`
	Y            int        `json:"y"`
	OwnerID      string     `json:"owner_id,omitempty"`
	Color        string     `json:"color,omitempty"`
	Construct    *Construct `json:"construct,omitempty"`
	DefenseBonus int        `json:"defense_bonus,omitempty"`
}

func (that *Tile) IsOwned() bool {
	return that.OwnerID != ""
}

// IsContestedBy - reports whether the tile belongs to someone other than playerID.
func (that *Tile) IsContestedBy(playerID string) bool {
	return that.OwnerID != "" && that.OwnerID != playerID
}

func (that *Tile) Coord() Coord {
	return Coord{X: that.X, Y: that.Y}
}

func (that *Tile) Clone() Tile {
	clone := *that
	if that.Construct != nil {
		construct := *that.Construct
		clone.Construct = &construct
	}
	return clone
}
