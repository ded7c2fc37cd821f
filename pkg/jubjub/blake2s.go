package jubjub

import (
	"github.com/dchest/blake2s"
)

// Blake2s256 returns BLAKE2s-256 over the concatenation of parts.
// personalization must be at most 8 bytes; shorter values are zero padded.
func Blake2s256(personalization string, parts ...[]byte) [32]byte {
	var person [8]byte
	copy(person[:], personalization)

	// Size and personalization length are fixed, so New cannot fail.
	h, err := blake2s.New(&blake2s.Config{Size: blake2s.Size, Person: person[:]})
	if err != nil {
		panic(err)
	}
	for _, p := range parts {
		h.Write(p)
	}
	var out [32]byte
	h.Sum(out[:0])
	return out
}
