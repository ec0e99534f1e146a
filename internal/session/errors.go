package session

import (
	"errors"
	"fmt"

	"github.com/Dmetrikx/goWrestleBot/internal/game"
)

var (
	ErrBusy          = errors.New("already in a match of this format")
	ErrNoPending     = errors.New("no pending match found")
	ErrNotInitiator  = errors.New("only the host can do that")
	ErrAlreadyJoined = errors.New("already joined")
	ErrLobbyFull     = errors.New("lobby is full")
	ErrNotEnough     = errors.New("not enough participants")
	ErrNotInLobby    = errors.New("not in the lobby")
)

// BusyError names the user that blocked a new match. It matches ErrBusy.
type BusyError struct {
	UserID string
	Format game.Format
}

func (e *BusyError) Error() string {
	return fmt.Sprintf("user %s is already in a %s match", e.UserID, e.Format)
}

func (e *BusyError) Is(target error) bool {
	return target == ErrBusy
}
