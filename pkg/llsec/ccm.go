package llsec

import (
	"crypto/cipher"
	"encoding/binary"
	"fmt"

	"github.com/pion/dtls/v2/pkg/crypto/ccm"
)

const (
	nonceSize = 13
	// ccmL is the size of the CCM* length field.
	ccmL = 2
)

// micLens are the integrity code sizes security levels 1-3 and 5-7 use.
var micLens = [...]int{4, 8, 16}

// nonce builds the CCM* nonce for a frame from its sender.
func nonce(src uint64, counter uint32, level uint8) [nonceSize]byte {
	var n [nonceSize]byte
	binary.BigEndian.PutUint64(n[0:], src)
	binary.BigEndian.PutUint32(n[8:], counter)
	n[12] = level
	return n
}

// ccmStar is CCM* over AES with a 2-byte length field. Levels with an
// integrity code use CCM; encryption-only levels are CTR from block A_1.
type ccmStar struct {
	block cipher.Block
	aeads map[int]cipher.AEAD
}

func newCCMStar(block cipher.Block) (*ccmStar, error) {
	c := &ccmStar{block: block, aeads: make(map[int]cipher.AEAD, len(micLens))}
	for _, n := range micLens {
		aead, err := ccm.NewCCM(block, n, nonceSize)
		if err != nil {
			return nil, fmt.Errorf("ccm mic %d: %w", n, err)
		}
		c.aeads[n] = aead
	}
	return c, nil
}

// counterBlock returns A_i.
func counterBlock(n *[nonceSize]byte, i uint16) [16]byte {
	var a [16]byte
	a[0] = ccmL - 1
	copy(a[1:], n[:])
	binary.BigEndian.PutUint16(a[14:], i)
	return a
}

// ctr applies the keystream S_1, S_2, ... to data in place.
func (c *ccmStar) ctr(n *[nonceSize]byte, data []byte) {
	iv := counterBlock(n, 1)
	cipher.NewCTR(c.block, iv[:]).XORKeyStream(data, data)
}

// seal encrypts m in place and returns the encrypted tag, authenticating
// a as well.
func (c *ccmStar) seal(n *[nonceSize]byte, a, m []byte, micLen int) []byte {
	if micLen == 0 {
		c.ctr(n, m)
		return nil
	}
	out := c.aeads[micLen].Seal(nil, n[:], m, a)
	copy(m, out[:len(m)])
	return out[len(m):]
}

// open decrypts m in place and checks tag. On failure m is unchanged.
func (c *ccmStar) open(n *[nonceSize]byte, a, m, tag []byte) bool {
	if len(tag) == 0 {
		c.ctr(n, m)
		return true
	}
	aead, ok := c.aeads[len(tag)]
	if !ok {
		return false
	}
	sealed := make([]byte, 0, len(m)+len(tag))
	sealed = append(append(sealed, m...), tag...)
	plain, err := aead.Open(nil, n[:], sealed, a)
	if err != nil {
		return false
	}
	copy(m, plain)
	return true
}
