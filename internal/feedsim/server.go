package feedsim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"nhooyr.io/websocket"

	"github.com/okian/tokenrain/pkg/logger"
)

// Server timing constants.
const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 3 * time.Second
)

// Server serves the synthetic shred feed over websocket. Every connected
// client receives its own stream at the configured rate.
type Server struct {
	cfg *Config
	log logger.Logger
}

// NewServer creates a feed server for the given configuration.
func NewServer(cfg *Config) *Server {
	return &Server{
		cfg: cfg,
		log: logger.Get().Named("feedsim"),
	}
}

// Run serves the feed until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/shreds", s.handleShreds)

	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info(ctx, "feed simulator listening",
			logger.String("addr", s.cfg.Addr),
			logger.Duration("shred_interval", s.cfg.ShredInterval),
			logger.Int("tx_per_shred", s.cfg.TxPerShred))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("feed server shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("feed server: %w", err)
	}
}

// handleShreds upgrades the connection and streams shreds until the client
// leaves or the server stops.
func (s *Server) handleShreds(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		s.log.Warn(r.Context(), "websocket accept failed", logger.Error(err))
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "stream closed")

	ctx := r.Context()
	s.log.Info(ctx, "client connected", logger.String("remote", r.RemoteAddr))

	stats := &Stats{StartTime: time.Now()}
	if err := s.stream(ctx, conn, stats); err != nil && ctx.Err() == nil {
		if websocket.CloseStatus(err) == -1 {
			s.log.Warn(ctx, "stream ended", logger.Error(err))
		}
	}

	s.log.Info(ctx, "client disconnected",
		logger.String("remote", r.RemoteAddr),
		logger.Int("shreds_sent", stats.ShredsSent),
		logger.Int("events_emitted", stats.EventsEmitted),
		logger.Int("duplicates_sent", stats.DuplicatesSent),
		logger.Int("noise_sent", stats.NoiseSent))
}

// stream pushes shred notifications on a fixed interval.
func (s *Server) stream(ctx context.Context, conn *websocket.Conn, stats *Stats) error {
	gen := newGenerator(s.cfg)
	ticker := time.NewTicker(s.cfg.ShredInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			shred := gen.nextShred(stats)
			payload, err := json.Marshal(shred)
			if err != nil {
				return fmt.Errorf("marshal shred: %w", err)
			}
			if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
				return err
			}
			if s.cfg.Verbose {
				s.log.Debug(ctx, "shred sent",
					logger.Uint64("slot", shred.Slot),
					logger.Int("transactions", len(shred.Transactions)))
			}
		}
	}
}
