package connection

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"
)

// ErrSessionEnded is reported when a session returns without an error.
var ErrSessionEnded = errors.New("session ended")

// State is the supervisor's view of the link.
type State uint8

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateReconnecting:
		return "RECONNECTING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// ConnectFunc establishes one session. On success it returns serve, which
// blocks until the session ends.
type ConnectFunc func(ctx context.Context) (serve func(ctx context.Context) error, err error)

// SupervisorConfig configures a Supervisor.
type SupervisorConfig struct {
	Backoff BackoffConfig

	// ConnectTimeout bounds each connect call. Zero means no bound.
	ConnectTimeout time.Duration

	// OnStateChange is called on every transition, from Run's goroutine.
	OnStateChange func(old, new State)

	// Logger for operational messages. Nil disables logging.
	Logger *slog.Logger
}

// Supervisor keeps a session running, reconnecting with backoff.
type Supervisor struct {
	connect ConnectFunc
	cfg     SupervisorConfig
	backoff *Backoff
	logger  *slog.Logger

	mu    sync.RWMutex
	state State
}

// NewSupervisor returns a supervisor for connect.
func NewSupervisor(connect ConnectFunc, cfg SupervisorConfig) *Supervisor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Supervisor{
		connect: connect,
		cfg:     cfg,
		backoff: NewBackoff(cfg.Backoff),
		logger:  logger,
	}
}

// State returns the current state.
func (s *Supervisor) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Attempts returns the failed attempts since the last success.
func (s *Supervisor) Attempts() int {
	return s.backoff.Attempts()
}

func (s *Supervisor) setState(next State) {
	s.mu.Lock()
	old := s.state
	s.state = next
	s.mu.Unlock()
	if old != next && s.cfg.OnStateChange != nil {
		s.cfg.OnStateChange(old, next)
	}
}

// Run connects and serves until ctx ends, then returns ctx's error.
func (s *Supervisor) Run(ctx context.Context) error {
	defer s.setState(StateClosed)

	for {
		if s.State() == StateDisconnected {
			s.setState(StateConnecting)
		}
		serve, err := s.dial(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err == nil {
			s.backoff.Reset()
			s.setState(StateConnected)
			err = serve(ctx)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err == nil {
				err = ErrSessionEnded
			}
			s.logger.Warn("session lost", "error", err)
		} else {
			s.logger.Debug("connect failed", "error", err, "attempt", s.backoff.Attempts()+1)
		}

		s.setState(StateReconnecting)
		delay := s.backoff.Next()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

func (s *Supervisor) dial(ctx context.Context) (func(context.Context) error, error) {
	if s.cfg.ConnectTimeout <= 0 {
		return s.connect(ctx)
	}
	cctx, cancel := context.WithTimeout(ctx, s.cfg.ConnectTimeout)
	defer cancel()
	return s.connect(cctx)
}
