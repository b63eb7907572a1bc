package transport

import (
	"context"
	"sync"
	"time"
)

// Keep-alive defaults for hub links.
const (
	DefaultPingInterval   = 5 * time.Second
	DefaultPongTimeout    = 2 * time.Second
	DefaultMaxMissedPongs = 3
)

// KeepAliveConfig configures liveness checking.
type KeepAliveConfig struct {
	PingInterval   time.Duration
	PongTimeout    time.Duration
	MaxMissedPongs int
}

// DefaultKeepAliveConfig returns the hub link defaults.
func DefaultKeepAliveConfig() KeepAliveConfig {
	return KeepAliveConfig{
		PingInterval:   DefaultPingInterval,
		PongTimeout:    DefaultPongTimeout,
		MaxMissedPongs: DefaultMaxMissedPongs,
	}
}

// DetectionDelay is the longest a dead peer can go unnoticed.
func (c KeepAliveConfig) DetectionDelay() time.Duration {
	return c.PingInterval*time.Duration(c.MaxMissedPongs) + c.PongTimeout
}

// KeepAlive pings a peer periodically and reports a timeout once
// MaxMissedPongs pings in a row went unanswered.
type KeepAlive struct {
	config    KeepAliveConfig
	sendPing  func(seq uint32) error
	onTimeout func()

	pongs chan uint32

	mu       sync.Mutex
	seq      uint32
	pending  bool
	sentAt   time.Time
	missed   int
	lastRTT  time.Duration
	timedOut bool
}

// NewKeepAlive returns a keep-alive. Zero config fields take defaults.
func NewKeepAlive(config KeepAliveConfig, sendPing func(seq uint32) error, onTimeout func()) *KeepAlive {
	def := DefaultKeepAliveConfig()
	if config.PingInterval <= 0 {
		config.PingInterval = def.PingInterval
	}
	if config.PongTimeout <= 0 {
		config.PongTimeout = def.PongTimeout
	}
	if config.MaxMissedPongs <= 0 {
		config.MaxMissedPongs = def.MaxMissedPongs
	}
	return &KeepAlive{
		config:    config,
		sendPing:  sendPing,
		onTimeout: onTimeout,
		pongs:     make(chan uint32, 1),
	}
}

// Run pings until ctx ends or the peer times out. onTimeout is called at
// most once, from Run's goroutine.
func (ka *KeepAlive) Run(ctx context.Context) {
	ticker := time.NewTicker(ka.config.PingInterval)
	defer ticker.Stop()

	ka.ping()
	for {
		select {
		case <-ctx.Done():
			return
		case seq := <-ka.pongs:
			ka.pong(seq)
		case <-ticker.C:
			if ka.tick() {
				if ka.onTimeout != nil {
					ka.onTimeout()
				}
				return
			}
			ka.ping()
		}
	}
}

// PongReceived feeds an answer to the loop. It never blocks.
func (ka *KeepAlive) PongReceived(seq uint32) {
	select {
	case ka.pongs <- seq:
	default:
	}
}

// RTT returns the round trip time of the last answered ping.
func (ka *KeepAlive) RTT() time.Duration {
	ka.mu.Lock()
	defer ka.mu.Unlock()
	return ka.lastRTT
}

// TimedOut reports whether the peer was declared dead.
func (ka *KeepAlive) TimedOut() bool {
	ka.mu.Lock()
	defer ka.mu.Unlock()
	return ka.timedOut
}

func (ka *KeepAlive) ping() {
	ka.mu.Lock()
	ka.seq++
	seq := ka.seq
	ka.pending = true
	ka.sentAt = time.Now()
	ka.mu.Unlock()

	// A failed send is caught by the pong timeout.
	_ = ka.sendPing(seq)
}

// tick accounts for an unanswered ping and reports whether the peer is
// dead.
func (ka *KeepAlive) tick() bool {
	ka.mu.Lock()
	defer ka.mu.Unlock()
	if ka.pending && time.Since(ka.sentAt) >= ka.config.PongTimeout {
		ka.pending = false
		ka.missed++
		if ka.missed >= ka.config.MaxMissedPongs {
			ka.timedOut = true
			return true
		}
	}
	return false
}

func (ka *KeepAlive) pong(seq uint32) {
	ka.mu.Lock()
	defer ka.mu.Unlock()
	// Late answers to earlier pings are ignored.
	if !ka.pending || seq != ka.seq {
		return
	}
	ka.pending = false
	ka.missed = 0
	ka.lastRTT = time.Since(ka.sentAt)
}
