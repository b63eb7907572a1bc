// Package discovery finds wpan-air hubs on the local network with
// mDNS/DNS-SD.
//
// Hubs advertise the service type _wpan-air._tcp in the local domain.
// Instance name format: wpan-air-<first 8 characters of the hub ID>
// TXT records include: v (protocol version), id (hub ID) and optionally
// name (friendly name) and n (attached radios).
//
// A browser aggregates answers by instance name: addresses seen on
// several network interfaces are merged into one HubService.
package discovery
