package feedsim

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/okian/tokenrain/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "feedsim_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the feed simulator.
func ShowHelp() {
	os.Stdout.WriteString(`Tokenrain Feed Simulator
========================

Serves a synthetic shred notification stream over websocket, matching the
wire format of the real feed. Point the game service at ws://<addr>/shreds.

Usage:
  go run cmd/feed-sim/main.go [options]

Options:
  -addr string
        Listen address (default ":9345")
  -interval duration
        Delay between shreds (default 400ms)
  -txs int
        Transactions per shred (default 2)
  -hazard float
        Fraction of transfers from the hazard contract (default 0.2)
  -duplicates float
        Fraction of transactions re-emitted with a known txid (default 0.1)
  -noise float
        Fraction of entries the game filter must drop (default 0.1)
  -log string
        Log file for simulator output (default: feedsim_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Serve a default mixed feed
  go run cmd/feed-sim/main.go

  # A hot feed with heavy duplicates
  go run cmd/feed-sim/main.go -interval 100ms -txs 4 -duplicates 0.3
`)
}
