// Package fcs computes and checks the 16-bit frame check sequence that
// terminates every IEEE 802.15.4 frame.
//
// The FCS is the ITU-T CRC-16 (polynomial 0x1021, reflected, initial value
// zero), appended least significant byte first. Running the same CRC over a
// frame that includes a valid FCS yields zero, which is how Verify checks it.
package fcs
