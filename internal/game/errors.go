package game

import "errors"

// Validation rejections leave the table in its last valid state; callers
// surface them to the acting user only.
var (
	ErrWrongPhase          = errors.New("action not valid in current phase")
	ErrNotAdmin            = errors.New("requires admin")
	ErrNotYourTurn         = errors.New("not your turn")
	ErrDealerNotConfirmed  = errors.New("no dealer confirmed")
	ErrUnknownPlayer       = errors.New("unknown player")
	ErrUsernameRequired    = errors.New("username required")
	ErrUsernameTaken       = errors.New("username already taken")
	ErrNotEnoughPlayers    = errors.New("not enough players")
	ErrRoundInProgress     = errors.New("round in progress")
	ErrPlayerFolded        = errors.New("player has folded")
	ErrCannotCheck         = errors.New("must match current bet")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAlreadyDeclared     = errors.New("declaration already made")
	ErrScoreMismatch       = errors.New("declared score does not match hand")
	ErrNoWinners           = errors.New("no players with valid declarations")
	ErrDeckExhausted       = errors.New("no card values left to reveal")
)
