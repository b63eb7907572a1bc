// Package frame implements the IEEE 802.15.4 MAC frame layout used by the
// software MAC.
//
// Only the fields the MAC inspects are modelled: frame control, sequence
// number, destination and source addressing, and the auxiliary security
// header. The payload is opaque.
//
// # Frame Layout
//
//	┌──────┬─────┬──────────┬───────────┬──────────┬──────────┬──────────┬─────────┬─────┐
//	│  FC  │ Seq │ Dst PAN  │ Dst Addr  │ Src PAN  │ Src Addr │ Aux Sec  │ Payload │ FCS │
//	│  2B  │ 1B  │  0/2B    │ 0/2/8B    │  0/2B    │ 0/2/8B   │ 0/5-14B  │   nB    │ 2B  │
//	└──────┴─────┴──────────┴───────────┴──────────┴──────────┴──────────┴─────────┴─────┘
//
// All multi-byte fields are little-endian on air. The source PAN is omitted
// when the intra-PAN (PAN id compression) bit is set.
//
// # Buffers
//
// Frame carries the raw bytes of one packet together with metadata that is
// valid for a single processing pass (parsed header, link quality, packet
// type). The buffer keeps spare headroom so drivers can prepend their own
// framing without copying.
package frame
