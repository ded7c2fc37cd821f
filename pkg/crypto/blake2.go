// Package crypto holds the host-side primitives the signer builds on:
// personalized BLAKE2b, secret wiping, HD paths, device key sources and the
// text encodings used when exporting addresses.
package crypto

import (
	"hash"
	"math/big"

	blake2b "github.com/minio/blake2b-simd"
)

// Personalizations used across the signer. All are exactly 16 bytes.
const (
	ExpandSeedPersonalization    = "Zcash_ExpandSeed"
	RedJubjubHPersonalization    = "Zcash_RedJubjubH"
	SaplingMasterPersonalization = "ZcashIP32Sapling"
)

// NewBlake2b creates a BLAKE2b hash of the given size with a personalization.
// The personalization is a distinct parameter of the hash function, not a
// key.
func NewBlake2b(size uint8, personalization string) hash.Hash {
	h, err := blake2b.New(&blake2b.Config{
		Size:   size,
		Person: []byte(personalization),
	})
	if err != nil {
		// Only reachable with a size or personalization outside BLAKE2b's
		// parameter limits, which are compile-time constants here.
		panic(err)
	}
	return h
}

// Blake2b512 hashes the concatenation of parts with BLAKE2b-512.
func Blake2b512(personalization string, parts ...[]byte) [64]byte {
	h := NewBlake2b(64, personalization)
	for _, p := range parts {
		h.Write(p)
	}
	var out [64]byte
	copy(out[:], h.Sum(nil))
	return out
}

// PRFExpand is PRF^expand(sk, t) = BLAKE2b-512("Zcash_ExpandSeed", sk || t).
func PRFExpand(sk []byte, t ...byte) [64]byte {
	return Blake2b512(ExpandSeedPersonalization, sk, t)
}

// LEToInt interprets b as a little-endian unsigned integer.
func LEToInt(b []byte) *big.Int {
	be := make([]byte, len(b))
	for i := range b {
		be[len(b)-1-i] = b[i]
	}
	n := new(big.Int).SetBytes(be)
	Wipe(be)
	return n
}

// IntToLE32 writes n as 32 little-endian bytes. n must be non-negative and
// below 2^256.
func IntToLE32(n *big.Int) [32]byte {
	var out [32]byte
	var be [32]byte
	n.FillBytes(be[:])
	for i := range be {
		out[i] = be[31-i]
	}
	Wipe(be[:])
	return out
}
