// Package sapling derives the shielded key chain from a spending key and
// produces the value commitments and RedJubjub spend authorizations that a
// MASP transaction needs from the device.
package sapling

import (
	"encoding/binary"
	"math/big"

	"github.com/pkg/errors"
	"github.com/suffix-labs/namada-signer/pkg/crypto"
	"github.com/suffix-labs/namada-signer/pkg/jubjub"
	"github.com/suffix-labs/namada-signer/pkg/txerr"
)

// PaymentAddressSize is diversifier || pk_d.
const PaymentAddressSize = DiversifierSize + jubjub.PointSize

// maxDiversifierIndex bounds the default diversifier search. Roughly half of
// all indices are valid, so this is never reached in practice.
const maxDiversifierIndex = 1 << 16

// PRF^expand domain separators.
const (
	expandAsk byte = 0x00
	expandNsk byte = 0x01
	expandOvk byte = 0x02
	expandDk  byte = 0x10
)

// Keys is the full derivation chain of one spending key. It is created per
// operation and must be wiped by the caller.
type Keys struct {
	SpendingKey [32]byte
	Ask         [jubjub.ScalarSize]byte
	Nsk         [jubjub.ScalarSize]byte
	Ovk         [32]byte
	Dk          [32]byte
	Ak          [jubjub.PointSize]byte
	Nk          [jubjub.PointSize]byte
	Ivk         [jubjub.ScalarSize]byte
	Diversifier [DiversifierSize]byte
	PkD         [jubjub.PointSize]byte
}

// Wipe zeroes every field.
func (k *Keys) Wipe() {
	if k == nil {
		return
	}
	*k = Keys{}
}

// Address returns the default payment address d || pk_d.
func (k *Keys) Address() [PaymentAddressSize]byte {
	var out [PaymentAddressSize]byte
	copy(out[:DiversifierSize], k.Diversifier[:])
	copy(out[DiversifierSize:], k.PkD[:])
	return out
}

// AskScalar returns ask as an integer. The caller wipes it with
// crypto.WipeInt.
func (k *Keys) AskScalar() *big.Int {
	return crypto.LEToInt(k.Ask[:])
}

// AkPoint decodes ak.
func (k *Keys) AkPoint() (jubjub.Point, error) {
	return jubjub.Decode(k.Ak)
}

// ToScalar reduces PRF^expand output to a Jubjub scalar.
func ToScalar(wide [64]byte) *big.Int {
	return jubjub.ScalarFromWide(wide[:])
}

// DeriveKeys expands sk into the full key chain. On failure the partially
// filled Keys is wiped and nil is returned.
func DeriveKeys(sk *[32]byte) (*Keys, error) {
	if sk == nil {
		return nil, errors.Wrap(txerr.ErrInvalidSettings, "nil spending key")
	}
	k := &Keys{SpendingKey: *sk}
	if err := k.derive(); err != nil {
		k.Wipe()
		return nil, err
	}
	return k, nil
}

func (k *Keys) derive() error {
	wide := crypto.PRFExpand(k.SpendingKey[:], expandAsk)
	ask := ToScalar(wide)
	defer crypto.WipeInt(ask)
	k.Ask = jubjub.ScalarToBytes(ask)

	wide = crypto.PRFExpand(k.SpendingKey[:], expandNsk)
	nsk := ToScalar(wide)
	defer crypto.WipeInt(nsk)
	k.Nsk = jubjub.ScalarToBytes(nsk)

	wide = crypto.PRFExpand(k.SpendingKey[:], expandOvk)
	copy(k.Ovk[:], wide[:32])

	wide = crypto.PRFExpand(k.SpendingKey[:], expandDk)
	copy(k.Dk[:], wide[:32])
	crypto.Wipe(wide[:])

	k.Ak = jubjub.SpendAuthBase().ScalarMul(ask).Encode()
	k.Nk = jubjub.ProofGenBase().ScalarMul(nsk).Encode()

	k.Ivk = jubjub.Blake2s256(jubjub.IvkPersonalization, k.Ak[:], k.Nk[:])
	k.Ivk[31] &= 0x07
	if crypto.IsZero(k.Ivk[:]) {
		return errors.Wrap(txerr.ErrUnknown, "zero incoming viewing key")
	}

	d, gd, err := DefaultDiversifier(k.Dk[:])
	if err != nil {
		return err
	}
	k.Diversifier = d

	ivk := crypto.LEToInt(k.Ivk[:])
	defer crypto.WipeInt(ivk)
	k.PkD = gd.ScalarMul(ivk).Encode()
	return nil
}

// DiversifiedBase returns g_d = GH("Zcash_gd", d).
func DiversifiedBase(d [DiversifierSize]byte) (jubjub.Point, bool) {
	return jubjub.GroupHash(jubjub.DiversifierPersonalization, d[:])
}

// DefaultDiversifier returns the first valid diversifier FF1(dk, j) for
// j = 0, 1, ... together with its base point.
func DefaultDiversifier(dk []byte) ([DiversifierSize]byte, jubjub.Point, error) {
	var d [DiversifierSize]byte
	f, err := NewFF1(dk)
	if err != nil {
		return d, jubjub.Point{}, err
	}
	var j [DiversifierSize]byte
	for i := uint64(0); i < maxDiversifierIndex; i++ {
		binary.LittleEndian.PutUint64(j[:8], i)
		if d, err = f.Encrypt(j); err != nil {
			return [DiversifierSize]byte{}, jubjub.Point{}, err
		}
		if gd, ok := DiversifiedBase(d); ok {
			return d, gd, nil
		}
	}
	return [DiversifierSize]byte{}, jubjub.Point{}, errors.Wrap(txerr.ErrUnknown, "no valid diversifier")
}
