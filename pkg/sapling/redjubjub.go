package sapling

import (
	"io"
	"math/big"

	"github.com/pkg/errors"
	"github.com/suffix-labs/namada-signer/pkg/crypto"
	"github.com/suffix-labs/namada-signer/pkg/jubjub"
	"github.com/suffix-labs/namada-signer/pkg/txerr"
)

// SignatureSize is the length of a RedJubjub signature Rbar || Sbar.
const SignatureSize = 2 * jubjub.PointSize

// nonceEntropySize is the number of random bytes mixed into each nonce.
const nonceEntropySize = 80

// HStar is H*(a || b) = BLAKE2b-512("Zcash_RedJubjubH", a || b) mod r_J.
func HStar(a, b []byte) *big.Int {
	wide := crypto.Blake2b512(crypto.RedJubjubHPersonalization, a, b)
	defer crypto.Wipe(wide[:])
	return jubjub.ScalarFromWide(wide[:])
}

// SignSpend authorizes one spend with the randomized key rsk = ask + alpha
// over the transaction sighash. Nonce entropy is read from rng.
func SignSpend(ask, alpha *big.Int, sighash []byte, rng io.Reader) ([SignatureSize]byte, error) {
	var sig [SignatureSize]byte
	if ask == nil || alpha == nil || rng == nil {
		return sig, errors.Wrap(txerr.ErrInvalidSettings, "missing spend signing input")
	}

	rsk := jubjub.AddScalars(ask, alpha)
	defer crypto.WipeInt(rsk)

	g := jubjub.SpendAuthBase()
	rk := g.ScalarMul(rsk).Encode()
	msg := make([]byte, 0, jubjub.PointSize+len(sighash))
	msg = append(msg, rk[:]...)
	msg = append(msg, sighash...)

	var entropy [nonceEntropySize]byte
	defer crypto.Wipe(entropy[:])
	if _, err := io.ReadFull(rng, entropy[:]); err != nil {
		return sig, errors.Wrap(txerr.ErrUnknown, err.Error())
	}

	r := HStar(entropy[:], msg)
	defer crypto.WipeInt(r)
	rBar := g.ScalarMul(r).Encode()

	c := HStar(rBar[:], msg)
	s := jubjub.AddScalars(r, jubjub.MulScalars(c, rsk))
	defer crypto.WipeInt(s)
	sBar := jubjub.ScalarToBytes(s)

	copy(sig[:jubjub.PointSize], rBar[:])
	copy(sig[jubjub.PointSize:], sBar[:])
	return sig, nil
}

// VerifySpend checks a spend authorization signature against rk.
func VerifySpend(rk jubjub.Point, sighash []byte, sig [SignatureSize]byte) bool {
	var rBar, sBar [jubjub.PointSize]byte
	copy(rBar[:], sig[:jubjub.PointSize])
	copy(sBar[:], sig[jubjub.PointSize:])

	r, err := jubjub.Decode(rBar)
	if err != nil {
		return false
	}
	s, err := jubjub.ScalarFromBytes(sBar)
	if err != nil {
		return false
	}

	rkBytes := rk.Encode()
	c := HStar(rBar[:], append(rkBytes[:], sighash...))

	// [8]([S]G - R - [c]rk) == O
	lhs := jubjub.SpendAuthBase().ScalarMul(s)
	rhs := r.Add(rk.ScalarMul(c))
	return lhs.Add(rhs.Neg()).MulCofactor().IsIdentity()
}

// SpendVerificationKey returns rk = [ask + alpha]G.
func SpendVerificationKey(ask, alpha *big.Int) jubjub.Point {
	rsk := jubjub.AddScalars(ask, alpha)
	defer crypto.WipeInt(rsk)
	return jubjub.SpendAuthBase().ScalarMul(rsk)
}
