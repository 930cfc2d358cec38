package scores

import "errors"

// Sentinel kinds for high-score errors.
var (
	ErrNotFound     = errors.New("player not found")
	ErrInvalidLimit = errors.New("invalid highscore limit")
	ErrNoPlayer     = errors.New("player name required")
)
