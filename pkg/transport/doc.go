// Package transport carries radio traffic over byte streams.
//
// It is shared by the serial driver, which talks to a UART-attached
// transceiver, and by the virtual air hub, which relays frames between
// processes over TCP.
//
// # Stack
//
//	┌────────────────────────────────┐
//	│   CBOR Messages (integer keys) │
//	├────────────────────────────────┤
//	│   Length-Prefix Framing (2B)   │
//	├────────────────────────────────┤
//	│     TCP or serial line         │
//	└────────────────────────────────┘
//
// A Conn pairs a Framer with the message codec and is safe for one reader
// and any number of writers. KeepAlive detects a dead peer with
// ping/pong messages.
package transport
