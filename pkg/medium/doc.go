// Package medium shares a virtual air between processes.
//
// A Hub accepts TCP connections from radios. Each connection is one radio:
// it introduces itself with MsgHello, is assigned an ID with MsgWelcome,
// tunes with MsgTune and transmits with MsgFrame. The hub relays every
// transmitted frame to the other radios tuned to the same page and
// channel, then confirms the transmission to the sender with MsgTxDone.
//
// Client is the radio side: an asynchronous mac driver that keeps its hub
// connection alive, reconnecting with exponential backoff.
package medium
