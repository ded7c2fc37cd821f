package masp

import (
	"bytes"

	"github.com/pkg/errors"
	"github.com/suffix-labs/namada-signer/pkg/crypto"
	"github.com/suffix-labs/namada-signer/pkg/jubjub"
	"github.com/suffix-labs/namada-signer/pkg/sapling"
	"github.com/suffix-labs/namada-signer/pkg/store"
	"github.com/suffix-labs/namada-signer/pkg/txerr"
	"go.uber.org/zap"
)

// Verifier recomputes every shielded commitment from device-held randomness
// and compares it with the untrusted bundle before anything is signed.
type Verifier struct {
	items  store.ItemStore
	logger *zap.Logger

	// SkipRkCheck disables the randomized key comparison. Testing builds
	// only.
	SkipRkCheck bool
}

// NewVerifier checks bundles against items. A nil logger is replaced by a no-op.
func NewVerifier(items store.ItemStore, logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{items: items, logger: logger}
}

func itemErr(item string, i int, err error) error {
	return &txerr.ItemError{Item: item, Index: i, Err: err}
}

// Verify runs the spend, output and convert checks in that order and stops
// at the first failure.
func (v *Verifier) Verify(ak jubjub.Point, b *Builder, bundle *Bundle) error {
	if b == nil || bundle == nil {
		return errors.Wrap(txerr.ErrNoData, "masp builder or bundle")
	}
	if err := v.CheckSpends(ak, b, bundle); err != nil {
		return err
	}
	if err := v.CheckOutputs(b, bundle); err != nil {
		return err
	}
	return v.CheckConverts(b, bundle)
}

// CheckSpends verifies cv and rk of every spend.
func (v *Verifier) CheckSpends(ak jubjub.Point, b *Builder, bundle *Bundle) error {
	if len(b.Spends) != bundle.SpendCount() {
		return errors.Wrapf(txerr.ErrInvalidNumberOfSpends,
			"builder %d, bundle %d", len(b.Spends), bundle.SpendCount())
	}

	for i, spend := range b.Spends {
		item, err := v.items.Spend(i)
		if err != nil {
			return itemErr("spend", i, err)
		}
		err = v.checkSpend(ak, spend, item, bundle, i)
		if err != nil {
			return err
		}
		v.logger.Debug("spend verified", zap.Int("index", i))
	}
	return nil
}

func (v *Verifier) checkSpend(ak jubjub.Point, spend SpendInfo, item store.SpendItem, bundle *Bundle, i int) error {
	base, err := spend.Asset.ValueBase()
	if err != nil {
		return itemErr("spend", i, err)
	}
	wire, err := bundle.SpendCv(i)
	if err != nil {
		return itemErr("spend", i, err)
	}
	if err := compareCommitment(base, spend.Value, item.Rcv, wire); err != nil {
		return itemErr("spend", i, err)
	}

	if v.SkipRkCheck {
		return nil
	}
	alpha, err := jubjub.ScalarFromBytes(item.Alpha)
	if err != nil {
		return itemErr("spend", i, err)
	}
	defer crypto.WipeInt(alpha)
	rk := sapling.RandomizedKey(ak, alpha).Encode()
	wireRk, err := bundle.SpendRk(i)
	if err != nil {
		return itemErr("spend", i, err)
	}
	if !bytes.Equal(rk[:], wireRk) {
		return itemErr("spend", i, txerr.ErrInvalidRk)
	}
	return nil
}

// CheckOutputs verifies cv of every output. OutputIndices[i] names the
// builder output checked at step i; the bundle slot and the randomness item
// share that index because output randomness is generated in builder order.
func (v *Verifier) CheckOutputs(b *Builder, bundle *Bundle) error {
	n := len(b.Outputs)
	if n != len(b.OutputIndices) {
		return errors.Wrapf(txerr.ErrInvalidNumberOfOutputs,
			"builder %d, indices %d", n, len(b.OutputIndices))
	}
	if n != bundle.OutputCount() {
		return errors.Wrapf(txerr.ErrInvalidNumberOfOutputs,
			"builder %d, bundle %d", n, bundle.OutputCount())
	}

	seen := make([]bool, n)
	for i, raw := range b.OutputIndices {
		idx := int(raw)
		if raw >= uint32(n) {
			return itemErr("output", i, errors.Wrapf(txerr.ErrOutOfBounds, "index %d", raw))
		}
		if seen[idx] {
			return itemErr("output", i, errors.Wrapf(txerr.ErrInvalidNumberOfOutputs, "index %d repeated", raw))
		}
		seen[idx] = true

		item, err := v.items.Output(idx)
		if err != nil {
			return itemErr("output", idx, err)
		}
		out := b.Outputs[idx]
		base, err := out.Asset.ValueBase()
		if err != nil {
			return itemErr("output", idx, err)
		}
		wire, err := bundle.OutputCv(idx)
		if err != nil {
			return itemErr("output", idx, err)
		}
		err = compareCommitment(base, out.Value, item.Rcv, wire)
		if err != nil {
			return itemErr("output", idx, err)
		}
		v.logger.Debug("output verified", zap.Int("index", idx))
	}
	return nil
}

// CheckConverts verifies cv of every convert, in order.
func (v *Verifier) CheckConverts(b *Builder, bundle *Bundle) error {
	if len(b.Converts) != bundle.ConvertCount() {
		return errors.Wrapf(txerr.ErrInvalidNumberOfOutputs,
			"builder converts %d, bundle %d", len(b.Converts), bundle.ConvertCount())
	}

	for i, conv := range b.Converts {
		item, err := v.items.Convert(i)
		if err != nil {
			return itemErr("convert", i, err)
		}
		base, err := ConversionBase(conv.Conversion)
		if err != nil {
			return itemErr("convert", i, err)
		}
		wire, err := bundle.ConvertCv(i)
		if err != nil {
			return itemErr("convert", i, err)
		}
		err = compareCommitment(base, conv.Value, item.Rcv, wire)
		if err != nil {
			return itemErr("convert", i, err)
		}
		v.logger.Debug("convert verified", zap.Int("index", i))
	}
	return nil
}

func compareCommitment(base jubjub.Point, value uint64, rcvBytes [32]byte, wire []byte) error {
	rcv, err := jubjub.ScalarFromBytes(rcvBytes)
	if err != nil {
		return err
	}
	defer crypto.WipeInt(rcv)
	cv := sapling.ValueCommitment(base, value, rcv).Encode()
	if !bytes.Equal(cv[:], wire) {
		return txerr.ErrInvalidCv
	}
	return nil
}
