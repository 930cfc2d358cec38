package chain

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"nhooyr.io/websocket"

	"github.com/okian/tokenrain/internal/domain/model"
	"github.com/okian/tokenrain/pkg/logger"
	"github.com/okian/tokenrain/pkg/metrics"
)

// Default transport configuration constants.
const (
	defaultDialTimeout = 10 * time.Second
	defaultMinBackoff  = 500 * time.Millisecond
	defaultMaxBackoff  = 15 * time.Second
	defaultBufferSize  = 256
)

// WSSource implements Source over a websocket shred feed. Connection failures
// are retried with exponential backoff for as long as the subscription
// context lives; the session upstream keeps playing with no new tokens in
// the meantime.
type WSSource struct {
	endpoint    string
	filter      *Filter
	dialTimeout time.Duration
	minBackoff  time.Duration
	maxBackoff  time.Duration
	bufferSize  int
	log         logger.Logger
}

// WSOption applies a configuration option to the WSSource.
type WSOption func(*WSSource)

// WithDialTimeout bounds each connection attempt.
func WithDialTimeout(d time.Duration) WSOption {
	return func(s *WSSource) {
		if d > 0 {
			s.dialTimeout = d
		}
	}
}

// WithBackoff sets the reconnect backoff range.
func WithBackoff(minBackoff, maxBackoff time.Duration) WSOption {
	return func(s *WSSource) {
		if minBackoff > 0 && maxBackoff >= minBackoff {
			s.minBackoff = minBackoff
			s.maxBackoff = maxBackoff
		}
	}
}

// WithBufferSize sets the subscription channel buffer.
func WithBufferSize(n int) WSOption {
	return func(s *WSSource) {
		if n > 0 {
			s.bufferSize = n
		}
	}
}

// WithWSLogger sets a custom logger for the source.
func WithWSLogger(l logger.Logger) WSOption {
	return func(s *WSSource) {
		if l != nil {
			s.log = l
		}
	}
}

// NewWSSource creates a websocket source for the given feed endpoint.
func NewWSSource(endpoint string, filter *Filter, opts ...WSOption) (*WSSource, error) {
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
		return nil, ErrBadURL
	}
	s := &WSSource{
		endpoint:    endpoint,
		filter:      filter,
		dialTimeout: defaultDialTimeout,
		minBackoff:  defaultMinBackoff,
		maxBackoff:  defaultMaxBackoff,
		bufferSize:  defaultBufferSize,
		log:         logger.Get().Named("chain"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Subscribe starts the read loop and returns the filtered event channel.
// A context that is already done yields ErrClosed instead of a dead
// subscription.
func (s *WSSource) Subscribe(ctx context.Context) (<-chan model.RawTransferEvent, context.CancelFunc, error) {
	if ctx.Err() != nil {
		return nil, nil, ErrClosed
	}
	subCtx, cancel := context.WithCancel(ctx)
	out := make(chan model.RawTransferEvent, s.bufferSize)
	go s.run(subCtx, out)
	return out, cancel, nil
}

// run dials, reads, and redials until the subscription context ends.
func (s *WSSource) run(ctx context.Context, out chan<- model.RawTransferEvent) {
	defer close(out)

	backoff := s.minBackoff
	for ctx.Err() == nil {
		conn, err := s.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			metrics.RecordTransportError()
			s.log.Warn(ctx, "feed dial failed",
				logger.String("endpoint", s.endpoint),
				logger.Duration("retry_in", backoff),
				logger.Error(err),
			)
			if !sleep(ctx, backoff) {
				return
			}
			backoff = nextBackoff(backoff, s.maxBackoff)
			continue
		}

		s.log.Info(ctx, "feed connected", logger.String("endpoint", s.endpoint))
		backoff = s.minBackoff

		if err := s.readLoop(ctx, conn, out); err != nil && ctx.Err() == nil {
			metrics.RecordTransportError()
			s.log.Warn(ctx, "feed read failed", logger.Error(err))
		}
		_ = conn.Close(websocket.StatusNormalClosure, "resubscribing")
	}
}

func (s *WSSource) dial(ctx context.Context) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, s.dialTimeout)
	defer cancel()

	conn, _, err := websocket.Dial(dialCtx, s.endpoint, nil)
	if err != nil {
		return nil, err
	}
	// A shred feed can momentarily outrun the default read limit.
	conn.SetReadLimit(1 << 22)
	return conn, nil
}

func (s *WSSource) readLoop(ctx context.Context, conn *websocket.Conn, out chan<- model.RawTransferEvent) error {
	lastRead := time.Now()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		now := time.Now()
		metrics.RecordTransportMessage()
		// Gaps between shreds stretch when the feed stalls; the histogram
		// makes a silent feed visible before tokens stop spawning.
		metrics.RecordTransportReadLag(float64(now.Sub(lastRead)) / float64(time.Millisecond))
		lastRead = now

		var shred ShredNotification
		if err := json.Unmarshal(data, &shred); err != nil {
			// Malformed payloads are dropped here, never forwarded.
			metrics.RecordTransportError()
			s.log.Debug(ctx, "malformed shred dropped", logger.Error(err))
			continue
		}

		for _, event := range s.filter.Extract(shred) {
			select {
			case out <- event:
			case <-ctx.Done():
				return ctx.Err()
			default:
				// Consumer is saturated; shed here rather than stall the
				// read loop behind a slow game tick.
				metrics.RecordEventDropped()
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func nextBackoff(cur, maxBackoff time.Duration) time.Duration {
	next := cur * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}
