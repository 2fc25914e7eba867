package player

import "errors"

var (
	ErrPlayerNotFound    = errors.New("player not found")
	ErrPlayerAlreadySold = errors.New("player is already sold")
	ErrPlayerHasHistory  = errors.New("player has auction history")
	ErrInvalidPlayer     = errors.New("invalid player")
)
