package llsec

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// DeriveKey derives a link key from a shared secret with HKDF-SHA256. The
// info string binds the key to its purpose, for example a PAN and key index.
func DeriveKey(secret, salt, info []byte) ([KeySize]byte, error) {
	var key [KeySize]byte
	r := hkdf.New(sha256.New, secret, salt, info)
	if _, err := io.ReadFull(r, key[:]); err != nil {
		return key, err
	}
	return key, nil
}
