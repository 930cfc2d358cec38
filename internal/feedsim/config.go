package feedsim

import "time"

// Config holds configuration for the synthetic shred feed.
type Config struct {
	Addr              string        // Listen address for the websocket server
	FavorableContract string        // Contract whose transfers score
	HazardContract    string        // Contract whose transfers detonate
	ShredInterval     time.Duration // Delay between shred notifications
	TxPerShred        int           // Transactions per shred
	HazardRatio       float64       // Fraction of transfers from the hazard contract
	DuplicateRatio    float64       // Fraction of transactions re-emitted with a known txid
	NoiseRatio        float64       // Fraction of log entries that must not match the filter
	LogFile           string        // Log file for simulator output
	Verbose           bool          // Enable verbose logging
}

// Stats holds feed statistics, updated by the streaming loop.
type Stats struct {
	ShredsSent     int
	EventsEmitted  int
	DuplicatesSent int
	NoiseSent      int
	StartTime      time.Time
}
