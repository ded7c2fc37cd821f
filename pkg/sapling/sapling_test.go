package sapling

import (
	"bytes"
	"math/big"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suffix-labs/namada-signer/pkg/crypto"
	"github.com/suffix-labs/namada-signer/pkg/jubjub"
	"github.com/suffix-labs/namada-signer/pkg/txerr"
)

func testSpendingKey() *[32]byte {
	var sk [32]byte
	for i := range sk {
		sk[i] = byte(i + 1)
	}
	return &sk
}

func TestFF1Invertible(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, 32)
	f, err := NewFF1(key)
	require.NoError(t, err)

	seen := map[[DiversifierSize]byte]bool{}
	for i := 0; i < 64; i++ {
		var in [DiversifierSize]byte
		in[0] = byte(i)
		in[10] = byte(i * 7)
		out, err := f.Encrypt(in)
		require.NoError(t, err)
		back, err := f.Decrypt(out)
		require.NoError(t, err)
		assert.Equal(t, in, back)
		assert.False(t, seen[out])
		seen[out] = true
	}

	g, err := NewFF1(key)
	require.NoError(t, err)
	var zero [DiversifierSize]byte
	x, err := f.Encrypt(zero)
	require.NoError(t, err)
	y, err := g.Encrypt(zero)
	require.NoError(t, err)
	assert.Equal(t, x, y)

	_, err = NewFF1(key[:16])
	assert.True(t, errors.Is(err, txerr.ErrInvalidSettings))
}

func TestNumeralPacking(t *testing.T) {
	var in [DiversifierSize]byte
	in[0] = 0x01
	in[10] = 0x80
	s := toNumerals(in)
	require.Len(t, s, diversifierBits)
	assert.Equal(t, byte('1'), s[0])
	assert.Equal(t, byte('1'), s[diversifierBits-1])
	assert.Equal(t, 2, strings.Count(s, "1"))

	back, err := fromNumerals(s)
	require.NoError(t, err)
	assert.Equal(t, in, back)

	_, err = fromNumerals(s[1:])
	assert.True(t, errors.Is(err, txerr.ErrUnknown))
	_, err = fromNumerals(strings.Replace(s, "0", "2", 1))
	assert.True(t, errors.Is(err, txerr.ErrUnknown))
}

func TestDeriveKeys(t *testing.T) {
	k, err := DeriveKeys(testSpendingKey())
	require.NoError(t, err)
	defer k.Wipe()

	ask := k.AskScalar()
	ak := jubjub.SpendAuthBase().ScalarMul(ask)
	assert.Equal(t, ak.Encode(), k.Ak)
	assert.Equal(t, byte(0), k.Ivk[31]&0xf8)

	gd, ok := DiversifiedBase(k.Diversifier)
	require.True(t, ok)
	assert.Equal(t, gd.ScalarMul(crypto.LEToInt(k.Ivk[:])).Encode(), k.PkD)

	again, err := DeriveKeys(testSpendingKey())
	require.NoError(t, err)
	assert.Equal(t, k.Address(), again.Address())

	other := testSpendingKey()
	other[0] ^= 1
	diff, err := DeriveKeys(other)
	require.NoError(t, err)
	assert.NotEqual(t, k.Address(), diff.Address())
	assert.NotEqual(t, k.Ovk, diff.Ovk)

	again.Wipe()
	assert.Equal(t, Keys{}, *again)

	_, err = DeriveKeys(nil)
	assert.True(t, errors.Is(err, txerr.ErrInvalidSettings))
}

func TestValueCommitmentHomomorphic(t *testing.T) {
	base, ok := jubjub.GroupHash(jubjub.AssetValuePersonalization, bytes.Repeat([]byte{7}, 32))
	if !ok {
		base = jubjub.ProofGenBase()
	}
	r1, r2 := big.NewInt(11), big.NewInt(31)
	sum := ValueCommitment(base, 5, r1).Add(ValueCommitment(base, 9, r2))
	assert.True(t, sum.Equal(ValueCommitment(base, 14, big.NewInt(42))))
	assert.False(t, ValueCommitment(base, 5, r1).Equal(ValueCommitment(base, 5, r2)))
}

func TestSignSpendVerifies(t *testing.T) {
	k, err := DeriveKeys(testSpendingKey())
	require.NoError(t, err)
	defer k.Wipe()

	ask := k.AskScalar()
	alpha := big.NewInt(123456789)
	sighash := bytes.Repeat([]byte{0xab}, 32)
	rng := bytes.NewReader(bytes.Repeat([]byte{0x5a}, 2*nonceEntropySize))

	sig, err := SignSpend(ask, alpha, sighash, rng)
	require.NoError(t, err)

	ak, err := k.AkPoint()
	require.NoError(t, err)
	rk := RandomizedKey(ak, alpha)
	assert.True(t, rk.Equal(SpendVerificationKey(ask, alpha)))
	assert.True(t, VerifySpend(rk, sighash, sig))

	tampered := sig
	tampered[40] ^= 1
	assert.False(t, VerifySpend(rk, sighash, tampered))
	assert.False(t, VerifySpend(rk, bytes.Repeat([]byte{0xac}, 32), sig))
	assert.False(t, VerifySpend(ak, sighash, sig))

	// Same entropy, same signature.
	again, err := SignSpend(ask, alpha, sighash, bytes.NewReader(bytes.Repeat([]byte{0x5a}, nonceEntropySize)))
	require.NoError(t, err)
	assert.Equal(t, sig, again)
}

func TestSignSpendShortEntropy(t *testing.T) {
	_, err := SignSpend(big.NewInt(1), big.NewInt(2), nil, bytes.NewReader(make([]byte, 10)))
	assert.True(t, errors.Is(err, txerr.ErrUnknown))

	_, err = SignSpend(nil, big.NewInt(2), nil, bytes.NewReader(nil))
	assert.True(t, errors.Is(err, txerr.ErrInvalidSettings))
}
