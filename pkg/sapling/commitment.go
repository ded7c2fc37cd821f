package sapling

import (
	"math/big"

	"github.com/suffix-labs/namada-signer/pkg/jubjub"
)

// ValueCommitment returns cv = [value]base + [rcv]R, where base is the value
// generator of an asset type or of a conversion.
func ValueCommitment(base jubjub.Point, value uint64, rcv *big.Int) jubjub.Point {
	v := new(big.Int).SetUint64(value)
	return base.ScalarMul(v).Add(jubjub.ValueRandomnessBase().ScalarMul(rcv))
}

// RandomizedKey returns rk = ak + [alpha]G.
func RandomizedKey(ak jubjub.Point, alpha *big.Int) jubjub.Point {
	return ak.Add(jubjub.SpendAuthBase().ScalarMul(alpha))
}
