package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/tokenrain/internal/config"
	"github.com/okian/tokenrain/internal/feedsim"
)

// Default configuration constants.
const (
	defaultAddr       = ":9345"
	defaultInterval   = 400 * time.Millisecond
	defaultTxPerShred = 2
	defaultHazard     = 0.2
	defaultDuplicates = 0.1
	defaultNoise      = 0.1
)

func main() {
	var (
		addr       = flag.String("addr", defaultAddr, "Listen address")
		interval   = flag.Duration("interval", defaultInterval, "Delay between shreds")
		txPerShred = flag.Int("txs", defaultTxPerShred, "Transactions per shred")
		hazard     = flag.Float64("hazard", defaultHazard, "Fraction of transfers from the hazard contract")
		duplicates = flag.Float64("duplicates", defaultDuplicates, "Fraction of transactions re-emitted with a known txid")
		noise      = flag.Float64("noise", defaultNoise, "Fraction of entries the game filter must drop")
		logFile    = flag.String("log", "", "Log file for simulator output (default: feedsim_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		feedsim.ShowHelp()
		return
	}

	if err := feedsim.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := &feedsim.Config{
		Addr:              *addr,
		FavorableContract: config.DefaultFavorableContract,
		HazardContract:    config.DefaultHazardContract,
		ShredInterval:     *interval,
		TxPerShred:        *txPerShred,
		HazardRatio:       *hazard,
		DuplicateRatio:    *duplicates,
		NoiseRatio:        *noise,
		LogFile:           *logFile,
		Verbose:           *verbose,
	}

	if err := feedsim.NewServer(cfg).Run(ctx); err != nil {
		os.Stderr.WriteString("Feed simulator failed: " + err.Error() + "\n")
	}
}
