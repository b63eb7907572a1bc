// Package loopback is an in-process virtual air, modelled on the Linux
// fakelb driver.
//
// Radios attached to the same Air hear every frame another radio sends on
// the same page and channel, with LQI 0xff. A radio does not hear itself.
// Radios are either synchronous (Transmit blocks until every listener has
// the frame) or asynchronous (TransmitAsync completes through
// Host.TransmitDone before it returns).
package loopback
