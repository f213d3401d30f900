package apperror

import "errors"

var (
	ErrLobbyNotFound = errors.New("lobby not found")
	ErrLobbyFull     = errors.New("lobby is full")
	ErrNoActiveLobby = errors.New("no active lobby")
)
