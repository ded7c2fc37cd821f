package signer

import (
	"bytes"

	"github.com/pkg/errors"
	"github.com/suffix-labs/namada-signer/pkg/tx"
	"github.com/suffix-labs/namada-signer/pkg/txerr"
)

// MaxHashes bounds the hashes a signature section built here can list:
// header, raw signature, code, data, memo, up to four prior signature
// sections and the type-specific extras.
const MaxHashes = 10

// Origin sentinels.
const (
	HeaderOrigin  byte = 255 // raw header, inner level
	WrapperOrigin byte = 0   // fee header, wrapper level
)

// accumulator is an ordered, fixed-capacity list of section hashes with the
// origin index of each.
type accumulator struct {
	hashes  [MaxHashes][tx.HashSize]byte
	origins [MaxHashes]byte
	n       int
}

// Append adds h with its origin, failing once MaxHashes are held.
func (a *accumulator) Append(h [tx.HashSize]byte, origin byte) error {
	if a.n == MaxHashes {
		return errors.Wrapf(txerr.ErrCapacityExceeded, "%d hashes", MaxHashes)
	}
	a.hashes[a.n] = h
	a.origins[a.n] = origin
	a.n++
	return nil
}

// Replace overwrites entry i in place.
func (a *accumulator) Replace(i int, h [tx.HashSize]byte, origin byte) error {
	if i < 0 || i >= a.n {
		return errors.Wrapf(txerr.ErrOutOfBounds, "hash %d of %d", i, a.n)
	}
	a.hashes[i] = h
	a.origins[i] = origin
	return nil
}

// Contains reports whether h is held, by byte equality.
func (a *accumulator) Contains(h [tx.HashSize]byte) bool {
	for i := 0; i < a.n; i++ {
		if bytes.Equal(a.hashes[i][:], h[:]) {
			return true
		}
	}
	return false
}

// ContainsAll reports whether every hash of hs is held.
func (a *accumulator) ContainsAll(hs [][tx.HashSize]byte) bool {
	for _, h := range hs {
		if !a.Contains(h) {
			return false
		}
	}
	return true
}

// Len returns the number of held hashes.
func (a *accumulator) Len() int {
	return a.n
}

// Hashes returns the held hashes. The slice aliases the accumulator.
func (a *accumulator) Hashes() [][tx.HashSize]byte {
	return a.hashes[:a.n]
}

// Origins returns a copy of the held origin indices.
func (a *accumulator) Origins() []byte {
	return append([]byte(nil), a.origins[:a.n]...)
}
