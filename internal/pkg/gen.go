package pkg

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

// GenerateLobbyCode - generates the short shareable identifier for a lobby.
func GenerateLobbyCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(999999))
	if err != nil {
		return "000000"
	}

	return fmt.Sprintf("%06d", n.Int64())
}

// GeneratePlayerID - generates a unique identifier for a participant.
func GeneratePlayerID() string {
	return uuid.NewString()
}
