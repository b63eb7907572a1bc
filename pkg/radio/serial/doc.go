// Package serial drives a UART-attached 802.15.4 transceiver.
//
// The host and the transceiver exchange length-prefixed CBOR messages
// (see package transport). Every command carries a sequence number and
// is answered by a MsgResponse, or for MsgFrame by a MsgTxDone, with the
// same number. Frames the transceiver receives arrive unsolicited as
// MsgFrame with Seq zero.
//
// The driver is synchronous: Transmit blocks until the transceiver
// reports the outcome.
package serial
