package jubjub

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suffix-labs/namada-signer/pkg/txerr"
	"golang.org/x/crypto/blake2s"
)

func TestBlake2sMatchesUnpersonalized(t *testing.T) {
	for _, n := range []int{0, 1, 31, 63, 64, 65, 127, 128, 129, 1000} {
		msg := bytes.Repeat([]byte{0xa5}, n)
		for i := range msg {
			msg[i] ^= byte(i)
		}
		want := blake2s.Sum256(msg)
		assert.Equal(t, want, Blake2s256("", msg), "len %d", n)

		if n > 1 {
			// Splitting the input across parts must not change the digest.
			assert.Equal(t, want, Blake2s256("", msg[:n/3], msg[n/3:n/2], msg[n/2:]), "split len %d", n)
		}
	}
}

func TestBlake2sPersonalizationSeparates(t *testing.T) {
	a := Blake2s256("Zcash_G_", []byte("m"))
	b := Blake2s256("Zcash_H_", []byte("m"))
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, Blake2s256("Zcash_G_", []byte("m")))
}

func hexInt(t *testing.T, s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 16)
	require.True(t, ok)
	return n
}

func TestSpendAuthBaseMatchesSapling(t *testing.T) {
	g := SpendAuthBase()
	assert.Equal(t, 0, g.p.X.BigInt(new(big.Int)).Cmp(
		hexInt(t, "0926d4f32059c712d418a7ff26753b6ad5b9a7d3ef8e282747bf46920a95a753")))
	assert.Equal(t, 0, g.p.Y.BigInt(new(big.Int)).Cmp(
		hexInt(t, "57a1019e6de9b67553bb37d0c21cfd056d65674dcedbddbc305632adaaf2b530")))
}

func TestGeneratorsInPrimeOrderSubgroup(t *testing.T) {
	for name, g := range map[string]Point{
		"G": SpendAuthBase(),
		"H": ProofGenBase(),
		"R": ValueRandomnessBase(),
	} {
		assert.True(t, g.p.IsOnCurve(), name)
		assert.False(t, g.IsIdentity(), name)
		assert.True(t, g.ScalarMul(Order()).IsIdentity(), name)
	}
	assert.False(t, SpendAuthBase().Equal(ProofGenBase()))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	g := SpendAuthBase()
	for _, k := range []int64{1, 2, 3, 7, 1 << 40, -5} {
		p := g.ScalarMul(big.NewInt(k))
		enc := p.Encode()
		q, err := Decode(enc)
		require.NoError(t, err)
		assert.True(t, p.Equal(q), "k=%d", k)
		assert.Equal(t, enc, q.Encode())
	}

	id := Identity()
	enc := id.Encode()
	assert.Equal(t, byte(1), enc[0])
	q, err := Decode(enc)
	require.NoError(t, err)
	assert.True(t, q.IsIdentity())
}

func TestDecodeRejectsInvalid(t *testing.T) {
	// v = 1 with the sign bit set would need u = 0 to be odd.
	var b [PointSize]byte
	b[0] = 1
	b[31] = 0x80
	_, err := Decode(b)
	assert.True(t, errors.Is(err, txerr.ErrInvalidSettings))

	// v >= q is non-canonical.
	for i := range b {
		b[i] = 0xff
	}
	b[31] = 0x7f
	_, err = Decode(b)
	assert.True(t, errors.Is(err, txerr.ErrInvalidSettings))

	_, err = DecodeSlice(make([]byte, 31))
	assert.True(t, errors.Is(err, txerr.ErrInvalidSettings))
}

func TestNegationAndAddition(t *testing.T) {
	g := SpendAuthBase()
	two := g.Add(g)
	assert.True(t, two.Equal(g.ScalarMul(big.NewInt(2))))
	assert.True(t, g.Add(g.Neg()).IsIdentity())
	assert.True(t, g.ScalarMul(big.NewInt(-1)).Equal(g.Neg()))
}

func TestScalarEncoding(t *testing.T) {
	r := Order()
	k := ScalarFromWide(append(make([]byte, 63), 0xff))
	assert.True(t, k.Cmp(r) < 0)

	enc := ScalarToBytes(big.NewInt(0x0102))
	assert.Equal(t, byte(0x02), enc[0])
	assert.Equal(t, byte(0x01), enc[1])
	back, err := ScalarFromBytes(enc)
	require.NoError(t, err)
	assert.Equal(t, int64(0x0102), back.Int64())

	var rBytes [ScalarSize]byte
	be := r.Bytes()
	for i := range be {
		rBytes[i] = be[len(be)-1-i]
	}
	_, err = ScalarFromBytes(rBytes)
	assert.True(t, errors.Is(err, txerr.ErrInvalidSettings))

	assert.Equal(t, int64(1), AddScalars(new(big.Int).Sub(r, big.NewInt(1)), big.NewInt(2)).Int64())
	assert.Equal(t, int64(6), MulScalars(big.NewInt(2), big.NewInt(3)).Int64())
}

func TestGroupHashDeterministic(t *testing.T) {
	p, ok := FindGroupHash(AssetValuePersonalization, []byte("asset"))
	require.True(t, ok)
	q, ok := FindGroupHash(AssetValuePersonalization, []byte("asset"))
	require.True(t, ok)
	assert.True(t, p.Equal(q))
	assert.False(t, p.IsSmallOrder())
}
