package teams

import "errors"

var (
	ErrTeamNotFound   = errors.New("team not found")
	ErrTeamHasPlayers = errors.New("team still owns players")
	ErrTeamHasHistory = errors.New("team has auction history")
	ErrInvalidTeam    = errors.New("invalid team")
)
