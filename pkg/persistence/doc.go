// Package persistence keeps interface configuration across restarts.
//
// A DeviceState is a JSON document with the device tuning and, per
// subinterface, its kind, addresses, channel, MAC parameters and whether
// it was up. Snapshot reads it from a running mac.Device and Restore
// applies it to a fresh one.
package persistence
