// Package txerr defines the error kinds surfaced by the signing core.
//
// Every operation in the signer is all-or-nothing: the first failure aborts
// the enclosing call and is returned to the caller unchanged apart from added
// context. Callers match kinds with errors.Is; context is attached with
// errors.Wrap so the kind survives.
package txerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error kinds.
var (
	// ErrInvalidSettings is returned for malformed arguments or sizes,
	// including unknown key/signature tags inside a signature section.
	ErrInvalidSettings = errors.New("invalid crypto settings")

	// ErrBufferTooSmall is returned when an output buffer cannot hold the
	// response the operation would produce.
	ErrBufferTooSmall = errors.New("buffer too small")

	// ErrNoData is returned when a required input is missing.
	ErrNoData = errors.New("no data")

	// ErrUnknown signals an unexpected internal state.
	ErrUnknown = errors.New("unknown error")

	// ErrCapacityExceeded is returned when a fixed-capacity container is full.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	ErrInvalidNumberOfSpends  = errors.New("invalid number of spends")
	ErrInvalidNumberOfOutputs = errors.New("invalid number of outputs")

	// ErrInvalidCv is returned when a value commitment recomputed from
	// device-held randomness differs from the one in the transaction.
	ErrInvalidCv = errors.New("invalid value commitment")

	// ErrInvalidRk is returned when a randomized verification key recomputed
	// from the device key and alpha differs from the one in the transaction.
	ErrInvalidRk = errors.New("invalid randomized verification key")

	ErrEncodingFailed = errors.New("encoding failed")
	ErrOutOfBounds    = errors.New("index out of bounds")

	// ErrNoMoreSignatures is returned when extracting from an exhausted
	// spend-signature store.
	ErrNoMoreSignatures = errors.New("no more spend signatures")
)

// ItemError reports a failure tied to a single shielded item.
type ItemError struct {
	Item  string // "spend", "output" or "convert"
	Index int    // Position of the failing item
	Err   error  // One of the error kinds above
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s %d: %v", e.Item, e.Index, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}
