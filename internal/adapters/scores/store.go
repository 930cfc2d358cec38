// Package scores keeps the local high-score table. Each finished session
// reports its final score; the store keeps the best run per player.
package scores

import "context"

// Entry represents a high-score row.
type Entry struct {
	Rank   int    `json:"rank"`
	Player string `json:"player"`
	Score  int    `json:"score"`
	Runs   int    `json:"runs"`
}

// Store provides read/write access to the high-score state.
type Store interface {
	// RecordRun folds one finished session into the table. Returns true if
	// the score became the player's new best.
	RecordRun(ctx context.Context, player string, score int) (bool, error)

	// Rank returns the current rank and best score for a player.
	// Returns ErrNotFound if the player is unknown.
	Rank(ctx context.Context, player string) (Entry, error)

	// TopN returns the top-N entries ordered by best score descending.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of players tracked.
	Count(ctx context.Context) int
}
