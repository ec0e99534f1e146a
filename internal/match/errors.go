package match

import "errors"

var (
	ErrMatchOver           = errors.New("match is already over")
	ErrNotParticipant      = errors.New("user is not in this match")
	ErrNotYourTurn         = errors.New("it is not your turn")
	ErrFinisherNotReady    = errors.New("not enough momentum for a finisher")
	ErrInvalidTarget       = errors.New("target is not an opponent in the ring")
	ErrInvalidParticipants = errors.New("invalid participants for format")
)
