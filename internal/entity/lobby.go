package entity

// Lobby - the pre-game roster shared by all participants of one lobby code.
// Players keep their join order; the host is pinned at creation and never
// changes while players come and go.
type Lobby struct {
	ID          string    `json:"id"`
	Players     []*Player `json:"players"`
	HostID      string    `json:"host_id"`
	GameStarted bool      `json:"game_started"`
}

// NewLobby - a lobby containing only its creator, who becomes the host.
func NewLobby(id string, host *Player) *Lobby {
	return &Lobby{
		ID:      id,
		Players: []*Player{host},
		HostID:  host.ID,
	}
}

func (that *Lobby) PlayerByID(id string) *Player {
	for _, player := range that.Players {
		if player.ID == id {
			return player
		}
	}
	return nil
}

func (that *Lobby) IsFull() bool {
	return len(that.Players) >= MaxPlayers
}

// AllReady - reports whether every player in the roster has readied up.
func (that *Lobby) AllReady() bool {
	for _, player := range that.Players {
		if !player.IsReady {
			return false
		}
	}
	return true
}

// FactionInUse - reports whether any player has picked the given faction.
func (that *Lobby) FactionInUse(faction Faction) bool {
	for _, player := range that.Players {
		if player.Faction == faction {
			return true
		}
	}
	return false
}

// ColorInUse - reports whether any player currently displays the given color.
func (that *Lobby) ColorInUse(color string) bool {
	for _, player := range that.Players {
		if player.Color == color {
			return true
		}
	}
	return false
}

func (that *Lobby) Clone() *Lobby {
	clone := *that
	clone.Players = make([]*Player, len(that.Players))
	for i, player := range that.Players {
		clone.Players[i] = player.Clone()
	}
	return &clone
}
