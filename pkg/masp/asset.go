// Package masp implements the device side of the multi-asset shielded pool:
// asset value generators, the MASP v5 transaction codec and sighash, and the
// cross-check of builder-supplied commitments against device randomness.
package masp

import (
	"encoding/hex"
	"math/big"

	"github.com/pkg/errors"
	"github.com/suffix-labs/namada-signer/pkg/jubjub"
	"github.com/suffix-labs/namada-signer/pkg/txerr"
)

// AssetTypeSize is the length of an asset identifier.
const AssetTypeSize = 32

// AssetType identifies an asset. Only identifiers whose value generator
// exists are valid.
type AssetType [AssetTypeSize]byte

// NewAssetType derives the identifier of a named asset, trying nonces until
// the identifier has a value generator.
func NewAssetType(name []byte) (AssetType, error) {
	for nonce := 0; nonce < 256; nonce++ {
		id := jubjub.Blake2s256(jubjub.AssetIdentifierPersonalization,
			[]byte(jubjub.URS), name, []byte{byte(nonce)})
		a := AssetType(id)
		if _, err := a.ValueBase(); err == nil {
			return a, nil
		}
	}
	return AssetType{}, errors.Wrapf(txerr.ErrUnknown, "no asset identifier for %q", name)
}

// ValueBase returns the asset's value commitment generator
// GH("MASP__v_", identifier).
func (a AssetType) ValueBase() (jubjub.Point, error) {
	p, ok := jubjub.GroupHash(jubjub.AssetValuePersonalization, a[:])
	if !ok {
		return jubjub.Point{}, errors.Wrapf(txerr.ErrInvalidSettings, "asset type %s has no generator", a)
	}
	return p, nil
}

func (a AssetType) String() string {
	return hex.EncodeToString(a[:])
}

func (a AssetType) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *AssetType) UnmarshalText(text []byte) error {
	b, err := hex.DecodeString(string(text))
	if err != nil || len(b) != AssetTypeSize {
		return errors.Wrapf(txerr.ErrInvalidSettings, "asset type %q", text)
	}
	copy(a[:], b)
	return nil
}

// AssetValue is a signed amount of one asset.
type AssetValue struct {
	Asset  AssetType
	Amount int64
}

// ConversionBase returns sum(amount_i * vb_i), the generator a convert
// commits its value against.
func ConversionBase(allowed []AssetValue) (jubjub.Point, error) {
	acc := jubjub.Identity()
	for _, av := range allowed {
		vb, err := av.Asset.ValueBase()
		if err != nil {
			return jubjub.Point{}, err
		}
		acc = acc.Add(vb.ScalarMul(big.NewInt(av.Amount)))
	}
	return acc, nil
}
