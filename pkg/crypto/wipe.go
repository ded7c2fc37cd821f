package crypto

import "math/big"

// Wipe overwrites b with zeros.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Wipe32 zeroes a fixed 32-byte secret.
func Wipe32(b *[32]byte) {
	if b != nil {
		Wipe(b[:])
	}
}

// WipeInt zeroes the limbs backing n and sets it to zero.
func WipeInt(n *big.Int) {
	if n == nil {
		return
	}
	words := n.Bits()
	for i := range words {
		words[i] = 0
	}
	n.SetInt64(0)
}

// IsZero reports whether every byte of b is zero.
func IsZero(b []byte) bool {
	var acc byte
	for _, v := range b {
		acc |= v
	}
	return acc == 0
}
