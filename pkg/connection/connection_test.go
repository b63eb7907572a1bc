package connection

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestBackoff(t *testing.T) {
	b := NewBackoff(BackoffConfig{Initial: 100 * time.Millisecond, Max: 400 * time.Millisecond, Multiplier: 2})

	want := []time.Duration{100, 200, 400, 400}
	for i, w := range want {
		if got := b.Next(); got != w*time.Millisecond {
			t.Errorf("Next #%d: got %v, want %v", i, got, w*time.Millisecond)
		}
	}
	if b.Attempts() != 4 {
		t.Errorf("Attempts: got %d, want 4", b.Attempts())
	}

	b.Reset()
	if b.Current() != 100*time.Millisecond || b.Attempts() != 0 {
		t.Errorf("after Reset: current %v attempts %d", b.Current(), b.Attempts())
	}
}

func TestBackoffJitterBounds(t *testing.T) {
	b := NewBackoff(BackoffConfig{Initial: time.Second, Max: time.Second, Jitter: 0.5})
	for range 100 {
		d := b.Next()
		if d < time.Second || d > 1500*time.Millisecond {
			t.Fatalf("jittered delay %v out of [1s, 1.5s]", d)
		}
	}
}

func TestBackoffDefaults(t *testing.T) {
	b := NewBackoff(BackoffConfig{})
	if b.Current() != DefaultInitialBackoff {
		t.Errorf("Current: got %v, want %v", b.Current(), DefaultInitialBackoff)
	}
	if b.cfg.Max != DefaultMaxBackoff || b.cfg.Multiplier != DefaultMultiplier {
		t.Errorf("defaults not applied: %+v", b.cfg)
	}
}

func TestSupervisorReconnects(t *testing.T) {
	var mu sync.Mutex
	var states []State
	calls := 0
	served := make(chan struct{}, 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := NewSupervisor(func(context.Context) (func(context.Context) error, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 1 {
			return nil, errors.New("refused")
		}
		return func(ctx context.Context) error {
			served <- struct{}{}
			if calls == 2 {
				return errors.New("reset by peer")
			}
			<-ctx.Done()
			return nil
		}, nil
	}, SupervisorConfig{
		Backoff: BackoffConfig{Initial: time.Millisecond, Max: 2 * time.Millisecond},
		OnStateChange: func(_, next State) {
			mu.Lock()
			states = append(states, next)
			mu.Unlock()
		},
	})

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	for range 2 {
		select {
		case <-served:
		case <-time.After(2 * time.Second):
			t.Fatal("session never served")
		}
	}
	if s.State() != StateConnected {
		t.Errorf("State: got %v, want CONNECTED", s.State())
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run: got %v, want context.Canceled", err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []State{StateConnecting, StateReconnecting, StateConnected, StateReconnecting, StateConnected, StateClosed}
	if len(states) != len(want) {
		t.Fatalf("states: got %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("state %d: got %v, want %v", i, states[i], want[i])
		}
	}
}

func TestSupervisorConnectTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	timedOut := make(chan struct{}, 1)
	s := NewSupervisor(func(ctx context.Context) (func(context.Context) error, error) {
		<-ctx.Done()
		select {
		case timedOut <- struct{}{}:
		default:
		}
		return nil, ctx.Err()
	}, SupervisorConfig{ConnectTimeout: 5 * time.Millisecond, Backoff: BackoffConfig{Initial: time.Millisecond}})

	go s.Run(ctx)
	select {
	case <-timedOut:
	case <-time.After(time.Second):
		t.Fatal("connect was not bounded by ConnectTimeout")
	}
}

func TestStateString(t *testing.T) {
	tests := map[State]string{
		StateDisconnected: "DISCONNECTED",
		StateConnecting:   "CONNECTING",
		StateConnected:    "CONNECTED",
		StateReconnecting: "RECONNECTING",
		StateClosed:       "CLOSED",
		State(99):         "UNKNOWN",
	}
	for s, want := range tests {
		if s.String() != want {
			t.Errorf("%d.String() = %q, want %q", s, s.String(), want)
		}
	}
}
