// Package llsec implements IEEE 802.15.4 link-layer security.
//
// A Table holds the security parameters of one interface together with
// its key, device and security-level tables. It satisfies the mac package's
// Security contract: Encrypt secures an outgoing frame in place, Decrypt
// authenticates and unwraps a received one.
//
// Frames are protected with CCM* using AES-128, a 13-byte nonce built from
// the sender's extended address, the frame counter and the security level,
// and an integrity code of 0, 4, 8 or 16 bytes. Levels without encryption
// authenticate the header and payload together; levels with encryption
// authenticate the header and encrypt the payload.
//
// Keys can be provisioned directly or derived from a shared secret with
// DeriveKey.
package llsec
