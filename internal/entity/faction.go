package entity

import "time"

const (
	GridSize      = 24
	MaxPlayers    = 3
	MatchDuration = 5 * time.Minute
	TickInterval  = 100 * time.Millisecond

	// TicksPerSecond converts a per-second accrual rate into a per-tick increment.
	TicksPerSecond = 10

	BaseTileGoldCost    = 10
	TileGoldCostStep    = 2
	BaseContestUnitCost = 5
	DefenseTileBonus    = 10
)

type Faction string

const (
	FactionHumans Faction = "humans"
	FactionAliens Faction = "aliens"
	FactionRobots Faction = "robots"
)

type ConstructType string

const (
	ConstructGold    ConstructType = "gold"
	ConstructUnit    ConstructType = "unit"
	ConstructDefense ConstructType = "defense"

	// ConstructNone is a filter sentinel; it never appears on a tile.
	ConstructNone ConstructType = ""
)

// FactionInfo - immutable reference data for one faction.
type FactionInfo struct {
	Name           string                   `json:"name"`
	Color          string                   `json:"color"`
	Description    string                   `json:"description"`
	ConstructNames map[ConstructType]string `json:"construct_names"`
}

// FactionOrder fixes the assignment order for joining players and start tiles.
var FactionOrder = []Faction{FactionHumans, FactionAliens, FactionRobots}

var Factions = map[Faction]FactionInfo{
	FactionHumans: {
		Name:        "Humans",
		Color:       "#3b82f6",
		Description: "Balanced settlers. Steady gold income and dependable armies.",
		ConstructNames: map[ConstructType]string{
			ConstructGold:    "Gold Mine",
			ConstructUnit:    "Barracks",
			ConstructDefense: "Fortress",
		},
	},
	FactionAliens: {
		Name:        "Aliens",
		Color:       "#22c55e",
		Description: "Organic swarm. Spawns units passively from the first tile.",
		ConstructNames: map[ConstructType]string{
			ConstructGold:    "Spore Harvester",
			ConstructUnit:    "Hatchery",
			ConstructDefense: "Membrane",
		},
	},
	FactionRobots: {
		Name:        "Robots",
		Color:       "#ef4444",
		Description: "Relentless machines. Cheap to maintain, hard to dislodge.",
		ConstructNames: map[ConstructType]string{
			ConstructGold:    "Extractor",
			ConstructUnit:    "Assembly Plant",
			ConstructDefense: "Firewall",
		},
	},
}

// ConstructCosts - base gold cost to place each construct type.
var ConstructCosts = map[ConstructType]float64{
	ConstructGold:    20,
	ConstructUnit:    15,
	ConstructDefense: 25,
}

// StartingCoords - fixed spawn tiles assigned in roster order at game start.
var StartingCoords = []Coord{
	{X: 3, Y: 3},
	{X: 21, Y: 21},
	{X: 3, Y: 21},
}
