// Package mac implements the IEEE 802.15.4 software MAC that sits between a
// transceiver driver and a network stack.
//
// A Device represents one physical radio. It owns the registry of
// subinterfaces, the tuning state of the radio and two single-worker work
// queues, one for receive and one for transmit. Drivers call into the
// Device through the Host interface; the Device calls the driver through
// Driver and one of SyncTransmitter or AsyncTransmitter.
//
// # Receive
//
// Driver.ReceiveIRQSafe never blocks. It copies the frame and queues it on
// the receive queue, dropping it if the queue is full. The receive worker
// checks the FCS, strips it, hands a copy to every running monitor
// interface and dispatches the original to the first running WPAN
// interface. That interface classifies the destination, drops frames for
// other hosts, decrypts, and delivers data frames to the Stack.
//
// # Transmit
//
// Interface.Transmit admits a single frame per device at a time. While it
// is in flight the transmit queues of all interfaces are stopped and
// Transmit returns ErrQueueStopped; callers wait with WaitQueue or use Send.
// Synchronous drivers are called from the transmit worker under the PIB
// lock after retuning. Asynchronous drivers are called directly when the
// radio is already on the right channel and report completion through
// Host.TransmitDone. Completion, successful or not, wakes every queue.
//
// # Capture
//
// SetCaptureLogger attaches a pkg/log Logger that records frames at the
// radio boundary, deliveries, drops with their reason and configuration
// changes.
package mac
