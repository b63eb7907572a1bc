package mac

import "sync/atomic"

// DeviceStats are the device-wide counters.
type DeviceStats struct {
	RxFrames         uint64 `json:"rxFrames"`
	RxCRCErrors      uint64 `json:"rxCrcErrors"`
	RxMalformed      uint64 `json:"rxMalformed"`
	RxQueueOverflow  uint64 `json:"rxQueueOverflow"`
	RxNoInterface    uint64 `json:"rxNoInterface"`
	RxOtherHost      uint64 `json:"rxOtherHost"`
	RxSecurityErrors uint64 `json:"rxSecurityErrors"`
	RxNotData        uint64 `json:"rxNotData"`

	TxFrames             uint64 `json:"txFrames"`
	TxErrors             uint64 `json:"txErrors"`
	TxUnsupportedChannel uint64 `json:"txUnsupportedChannel"`
	TxSpuriousDone       uint64 `json:"txSpuriousDone"`
}

type deviceCounters struct {
	rxFrames, rxCRCErrors, rxMalformed, rxQueueOverflow     atomic.Uint64
	rxNoInterface, rxOtherHost, rxSecurityErrors, rxNotData atomic.Uint64
	txFrames, txErrors, txUnsupportedChannel, txSpurious    atomic.Uint64
}

func (c *deviceCounters) snapshot() DeviceStats {
	return DeviceStats{
		RxFrames:             c.rxFrames.Load(),
		RxCRCErrors:          c.rxCRCErrors.Load(),
		RxMalformed:          c.rxMalformed.Load(),
		RxQueueOverflow:      c.rxQueueOverflow.Load(),
		RxNoInterface:        c.rxNoInterface.Load(),
		RxOtherHost:          c.rxOtherHost.Load(),
		RxSecurityErrors:     c.rxSecurityErrors.Load(),
		RxNotData:            c.rxNotData.Load(),
		TxFrames:             c.txFrames.Load(),
		TxErrors:             c.txErrors.Load(),
		TxUnsupportedChannel: c.txUnsupportedChannel.Load(),
		TxSpuriousDone:       c.txSpurious.Load(),
	}
}

// InterfaceStats are the per-interface counters, in the spirit of netdev
// statistics.
type InterfaceStats struct {
	RxPackets uint64 `json:"rxPackets"`
	RxBytes   uint64 `json:"rxBytes"`
	RxDropped uint64 `json:"rxDropped"`
	TxPackets uint64 `json:"txPackets"`
	TxBytes   uint64 `json:"txBytes"`
	TxDropped uint64 `json:"txDropped"`
	TxErrors  uint64 `json:"txErrors"`
}

type ifaceCounters struct {
	rxPackets, rxBytes, rxDropped           atomic.Uint64
	txPackets, txBytes, txDropped, txErrors atomic.Uint64
}

func (c *ifaceCounters) snapshot() InterfaceStats {
	return InterfaceStats{
		RxPackets: c.rxPackets.Load(),
		RxBytes:   c.rxBytes.Load(),
		RxDropped: c.rxDropped.Load(),
		TxPackets: c.txPackets.Load(),
		TxBytes:   c.txBytes.Load(),
		TxDropped: c.txDropped.Load(),
		TxErrors:  c.txErrors.Load(),
	}
}

func (c *ifaceCounters) rx(n int) {
	c.rxPackets.Add(1)
	c.rxBytes.Add(uint64(n))
}

func (c *ifaceCounters) tx(n int) {
	c.txPackets.Add(1)
	c.txBytes.Add(uint64(n))
}
