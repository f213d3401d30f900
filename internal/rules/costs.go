package rules

import "github.com/gridclash/gridclash-backend/internal/entity"

// TileGoldCost - gold price of the next unowned tile for a player. Expansion
// gets more expensive with every tile already held.
func TileGoldCost(player *entity.Player) float64 {
	return entity.BaseTileGoldCost + entity.TileGoldCostStep*float64(len(player.Tiles))
}

// ContestUnitCost - unit price of taking an enemy tile, raised by any defense
// bonus sitting on it.
func ContestUnitCost(tile *entity.Tile) float64 {
	return entity.BaseContestUnitCost + float64(tile.DefenseBonus)
}
