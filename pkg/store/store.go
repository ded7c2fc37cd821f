// Package store keeps the device-resident MASP state between commands: the
// randomness generated for each spend, output and convert, and the spend
// authorization signatures waiting to be streamed to the host.
//
// Indices are assigned in append order and never reused until the store is
// cleared.
package store

import (
	"github.com/pkg/errors"
	"github.com/suffix-labs/namada-signer/pkg/txerr"
)

// MaxItemsPerKind bounds each item list and the signature list.
const MaxItemsPerKind = 64

// SignatureSize is the length of a stored spend authorization signature.
const SignatureSize = 64

// ItemKind selects one of the item lists.
type ItemKind byte

const (
	KindSpend ItemKind = iota
	KindOutput
	KindConvert
)

func (k ItemKind) String() string {
	switch k {
	case KindSpend:
		return "spend"
	case KindOutput:
		return "output"
	case KindConvert:
		return "convert"
	default:
		return "unknown"
	}
}

// Valid reports whether k names an item list.
func (k ItemKind) Valid() bool {
	return k <= KindConvert
}

// SpendItem holds the value commitment trapdoor and the key randomizer of
// one spend, as canonical little-endian scalars.
type SpendItem struct {
	Rcv   [32]byte
	Alpha [32]byte
}

// OutputItem holds the value commitment trapdoor and the note commitment
// trapdoor of one output.
type OutputItem struct {
	Rcv [32]byte
	Rcm [32]byte
}

// ConvertItem holds the value commitment trapdoor of one convert.
type ConvertItem struct {
	Rcv [32]byte
}

// ItemStore records randomness per shielded item.
type ItemStore interface {
	AppendSpend(item SpendItem) error
	AppendOutput(item OutputItem) error
	AppendConvert(item ConvertItem) error

	// Spend, Output and Convert return txerr.ErrOutOfBounds for an index
	// that was never appended.
	Spend(i int) (SpendItem, error)
	Output(i int) (OutputItem, error)
	Convert(i int) (ConvertItem, error)

	Count(kind ItemKind) (int, error)
	ClearItems() error
}

// SignatureStore is a single-producer, single-consumer queue of spend
// signatures.
type SignatureStore interface {
	AppendSignature(sig [SignatureSize]byte) error

	// NextSignature returns the oldest signature not yet extracted, or
	// txerr.ErrNoMoreSignatures.
	NextSignature() ([SignatureSize]byte, error)
	HasMoreSignatures() (bool, error)
	SignatureCount() (int, error)

	// TruncateSignatures drops every signature at index n and above.
	TruncateSignatures(n int) error
	ClearSignatures() error
}

// Store is the full device state.
type Store interface {
	ItemStore
	SignatureStore
	Close() error
}

func checkIndex(kind string, i, count int) error {
	if i < 0 || i >= count {
		return errors.Wrapf(txerr.ErrOutOfBounds, "%s index %d of %d", kind, i, count)
	}
	return nil
}

func checkCapacity(kind string, count int) error {
	if count >= MaxItemsPerKind {
		return errors.Wrapf(txerr.ErrCapacityExceeded, "%s list holds %d", kind, count)
	}
	return nil
}

func encodeSpend(item SpendItem) []byte {
	out := make([]byte, 64)
	copy(out, item.Rcv[:])
	copy(out[32:], item.Alpha[:])
	return out
}

func decodeSpend(b []byte) (SpendItem, error) {
	var item SpendItem
	if len(b) != 64 {
		return item, errors.Wrapf(txerr.ErrUnknown, "spend record length %d", len(b))
	}
	copy(item.Rcv[:], b)
	copy(item.Alpha[:], b[32:])
	return item, nil
}

func encodeOutput(item OutputItem) []byte {
	out := make([]byte, 64)
	copy(out, item.Rcv[:])
	copy(out[32:], item.Rcm[:])
	return out
}

func decodeOutput(b []byte) (OutputItem, error) {
	var item OutputItem
	if len(b) != 64 {
		return item, errors.Wrapf(txerr.ErrUnknown, "output record length %d", len(b))
	}
	copy(item.Rcv[:], b)
	copy(item.Rcm[:], b[32:])
	return item, nil
}

func decodeConvert(b []byte) (ConvertItem, error) {
	var item ConvertItem
	if len(b) != 32 {
		return item, errors.Wrapf(txerr.ErrUnknown, "convert record length %d", len(b))
	}
	copy(item.Rcv[:], b)
	return item, nil
}
