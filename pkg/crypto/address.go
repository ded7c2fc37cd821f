package crypto

import (
	"crypto/sha256"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/pkg/errors"
	"github.com/suffix-labs/namada-signer/pkg/txerr"
)

// Default human-readable parts.
const (
	DefaultAddressHRP     = "tnam"
	DefaultPubKeyHRP      = "tpknam"
	DefaultMaspAddressHRP = "znam"
)

// ImplicitAddressDiscriminant prefixes the public key hash of an implicit
// account address.
const ImplicitAddressDiscriminant byte = 0x00

// PubKeyHashLen is the length of an implicit address public key hash.
const PubKeyHashLen = 20

// EncodeBech32m encodes data as bech32m under hrp.
func EncodeBech32m(hrp string, data []byte) (string, error) {
	conv, err := bech32.ConvertBits(data, 8, 5, true)
	if err != nil {
		return "", errors.Wrap(txerr.ErrEncodingFailed, err.Error())
	}
	s, err := bech32.EncodeM(hrp, conv)
	if err != nil {
		return "", errors.Wrap(txerr.ErrEncodingFailed, err.Error())
	}
	return s, nil
}

// ImplicitAddress returns discriminant || SHA-256(taggedPubKey)[:20].
func ImplicitAddress(taggedPubKey []byte) [1 + PubKeyHashLen]byte {
	var out [1 + PubKeyHashLen]byte
	digest := sha256.Sum256(taggedPubKey)
	out[0] = ImplicitAddressDiscriminant
	copy(out[1:], digest[:PubKeyHashLen])
	return out
}
