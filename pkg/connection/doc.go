// Package connection keeps a link to a remote peer alive.
//
// A Supervisor runs a connect-then-serve cycle until its context ends.
// When a session fails it waits an exponentially growing, jittered delay
// before dialing again:
//
//	delay = base + random(0, base * jitter)
//	base  = min(initial * multiplier^attempt, max)
//
// The backoff resets after every successful connect. The virtual air
// client uses a Supervisor to reach its hub.
package connection
