package masp

import (
	"github.com/pkg/errors"
	"github.com/suffix-labs/namada-signer/pkg/txerr"
)

// Wire sizes of the shielded descriptions.
const (
	SpendRecordSize   = 96  // cv | nullifier | rk
	ConvertRecordSize = 32  // cv
	OutputRecordSize  = 788 // cv | cmu | epk | enc_ciphertext | out_ciphertext

	EncCiphertextSize = 612
	OutCiphertextSize = 80
	ProofSize         = 192
	SignatureSize     = 64

	cvOffset = 0
	rkOffset = 64
)

// Bundle is a read-only view of the shielded descriptions exactly as they
// appear on the wire.
type Bundle struct {
	spends   []byte
	converts []byte
	outputs  []byte
}

// NewBundle wraps the three description regions. Each must be a whole
// number of records.
func NewBundle(spends, converts, outputs []byte) (*Bundle, error) {
	if len(spends)%SpendRecordSize != 0 {
		return nil, errors.Wrapf(txerr.ErrInvalidSettings, "spend region length %d", len(spends))
	}
	if len(converts)%ConvertRecordSize != 0 {
		return nil, errors.Wrapf(txerr.ErrInvalidSettings, "convert region length %d", len(converts))
	}
	if len(outputs)%OutputRecordSize != 0 {
		return nil, errors.Wrapf(txerr.ErrInvalidSettings, "output region length %d", len(outputs))
	}
	return &Bundle{spends: spends, converts: converts, outputs: outputs}, nil
}

func (b *Bundle) SpendCount() int   { return len(b.spends) / SpendRecordSize }
func (b *Bundle) ConvertCount() int { return len(b.converts) / ConvertRecordSize }
func (b *Bundle) OutputCount() int  { return len(b.outputs) / OutputRecordSize }

func field(region []byte, record, count, i, off int) ([]byte, error) {
	if i < 0 || i >= count {
		return nil, errors.Wrapf(txerr.ErrOutOfBounds, "record %d of %d", i, count)
	}
	start := i*record + off
	return region[start : start+32], nil
}

// SpendCv returns the value commitment of spend i.
func (b *Bundle) SpendCv(i int) ([]byte, error) {
	return field(b.spends, SpendRecordSize, b.SpendCount(), i, cvOffset)
}

// SpendRk returns the randomized verification key of spend i.
func (b *Bundle) SpendRk(i int) ([]byte, error) {
	return field(b.spends, SpendRecordSize, b.SpendCount(), i, rkOffset)
}

// ConvertCv returns the value commitment of convert i.
func (b *Bundle) ConvertCv(i int) ([]byte, error) {
	return field(b.converts, ConvertRecordSize, b.ConvertCount(), i, cvOffset)
}

// OutputCv returns the value commitment in output slot i, which starts at
// i * OutputRecordSize.
func (b *Bundle) OutputCv(i int) ([]byte, error) {
	return field(b.outputs, OutputRecordSize, b.OutputCount(), i, cvOffset)
}
