package crypto

import (
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/pkg/errors"
	"github.com/suffix-labs/namada-signer/pkg/txerr"
)

// Secp256k1PubKeyLen is the length of a compressed secp256k1 public key.
const Secp256k1PubKeyLen = 33

// Secp256k1PublicKey returns the compressed public key of a raw private
// scalar. The intermediate key object is zeroed before returning.
func Secp256k1PublicKey(secret *[32]byte) ([Secp256k1PubKeyLen]byte, error) {
	var pub [Secp256k1PubKeyLen]byte
	if secret == nil || IsZero(secret[:]) {
		return pub, errors.Wrap(txerr.ErrInvalidSettings, "empty secp256k1 key")
	}
	key := secp256k1.PrivKeyFromBytes(secret[:])
	defer key.Zero()
	copy(pub[:], key.PubKey().SerializeCompressed())
	return pub, nil
}
