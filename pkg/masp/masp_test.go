package masp_test

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suffix-labs/namada-signer/pkg/jubjub"
	"github.com/suffix-labs/namada-signer/pkg/masp"
	"github.com/suffix-labs/namada-signer/pkg/masp/masptest"
	"github.com/suffix-labs/namada-signer/pkg/sapling"
	"github.com/suffix-labs/namada-signer/pkg/store"
	"github.com/suffix-labs/namada-signer/pkg/txerr"
)

type fixture struct {
	items   *store.Memory
	keys    *sapling.Keys
	ak      jubjub.Point
	builder *masp.Builder
	tx      *masp.Transaction
}

func newFixture(t *testing.T, spends, outputs, converts int) *fixture {
	t.Helper()
	var seed [32]byte
	seed[0] = 7
	rng, err := masp.NewDeterministicSource(seed)
	require.NoError(t, err)

	items := store.NewMemory()
	gen := masp.NewRandomnessGenerator(items, rng, nil)
	buf := make([]byte, 64)

	nam := masptest.Asset("nam")
	btc := masptest.Asset("btc")
	b := &masp.Builder{}
	for i := 0; i < spends; i++ {
		_, err := gen.Compute(store.KindSpend, buf)
		require.NoError(t, err)
		b.Spends = append(b.Spends, masp.SpendInfo{Asset: nam, Value: uint64(100 + i)})
	}
	for i := 0; i < outputs; i++ {
		_, err := gen.Compute(store.KindOutput, buf)
		require.NoError(t, err)
		b.Outputs = append(b.Outputs, masp.OutputInfo{Asset: btc, Value: uint64(50 + i)})
		b.OutputIndices = append(b.OutputIndices, uint32(i))
	}
	for i := 0; i < converts; i++ {
		_, err := gen.Compute(store.KindConvert, buf)
		require.NoError(t, err)
		b.Converts = append(b.Converts, masp.ConvertInfo{
			Conversion: []masp.AssetValue{{Asset: nam, Amount: -1}, {Asset: btc, Amount: 2}},
			Value:      uint64(3 + i),
		})
	}

	sk := [32]byte{1, 2, 3}
	keys, err := sapling.DeriveKeys(&sk)
	require.NoError(t, err)
	t.Cleanup(keys.Wipe)
	ak, err := keys.AkPoint()
	require.NoError(t, err)

	tx, err := masptest.Transaction(ak, b, items)
	require.NoError(t, err)
	return &fixture{items: items, keys: keys, ak: ak, builder: b, tx: tx}
}

func TestNewAssetType(t *testing.T) {
	a, err := masp.NewAssetType([]byte("nam"))
	require.NoError(t, err)
	b, err := masp.NewAssetType([]byte("nam"))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	_, err = a.ValueBase()
	require.NoError(t, err)

	c := masptest.Asset("btc")
	assert.NotEqual(t, a, c)

	text, err := a.MarshalText()
	require.NoError(t, err)
	var back masp.AssetType
	require.NoError(t, back.UnmarshalText(text))
	assert.Equal(t, a, back)
	assert.True(t, errors.Is(back.UnmarshalText([]byte("zz")), txerr.ErrInvalidSettings))
}

func TestConversionBaseLinear(t *testing.T) {
	nam := masptest.Asset("nam")
	vb, err := nam.ValueBase()
	require.NoError(t, err)

	base, err := masp.ConversionBase([]masp.AssetValue{{Asset: nam, Amount: 3}, {Asset: nam, Amount: -1}})
	require.NoError(t, err)
	assert.True(t, base.Equal(vb.Add(vb)))

	empty, err := masp.ConversionBase(nil)
	require.NoError(t, err)
	assert.True(t, empty.IsIdentity())
}

func TestBundleOffsets(t *testing.T) {
	outputs := make([]byte, 2*masp.OutputRecordSize)
	outputs[masp.OutputRecordSize] = 0xee
	spends := make([]byte, masp.SpendRecordSize)
	spends[64] = 0xdd
	b, err := masp.NewBundle(spends, nil, outputs)
	require.NoError(t, err)

	assert.Equal(t, 1, b.SpendCount())
	assert.Equal(t, 0, b.ConvertCount())
	assert.Equal(t, 2, b.OutputCount())

	cv, err := b.OutputCv(1)
	require.NoError(t, err)
	assert.Equal(t, byte(0xee), cv[0])
	rk, err := b.SpendRk(0)
	require.NoError(t, err)
	assert.Equal(t, byte(0xdd), rk[0])

	_, err = b.OutputCv(2)
	assert.True(t, errors.Is(err, txerr.ErrOutOfBounds))
	_, err = b.ConvertCv(0)
	assert.True(t, errors.Is(err, txerr.ErrOutOfBounds))

	_, err = masp.NewBundle(make([]byte, 95), nil, nil)
	assert.True(t, errors.Is(err, txerr.ErrInvalidSettings))
}

func TestTransactionCodecRoundTrip(t *testing.T) {
	f := newFixture(t, 2, 2, 1)
	f.tx.TransparentInputs = []masp.TxIn{{Asset: masptest.Asset("nam"), Value: 5}}
	f.tx.Spends[1].SpendAuthSig[3] = 9
	f.tx.Outputs[0].Proof[0] = 4

	raw := masp.SerializeTransaction(f.tx)
	parsed, err := masp.ParseTransaction(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, masp.SerializeTransaction(parsed))
	assert.Equal(t, masp.TxID(f.tx), masp.TxID(parsed))
	assert.Equal(t, f.tx.Spends[1].SpendAuthSig, parsed.Spends[1].SpendAuthSig)

	_, err = masp.ParseTransaction(append(raw, 0))
	assert.True(t, errors.Is(err, txerr.ErrInvalidSettings))
	_, err = masp.ParseTransaction(raw[:len(raw)-1])
	assert.True(t, errors.Is(err, txerr.ErrInvalidSettings))
	_, err = masp.ParseTransaction(nil)
	assert.True(t, errors.Is(err, txerr.ErrInvalidSettings))
}

func TestParseRejectsHugeCount(t *testing.T) {
	raw := masp.SerializeTransaction(&masp.Transaction{Version: masp.TxVersion})
	// Replace the transparent input count with a 0xffffffff compact size.
	header := raw[:20]
	hostile := append(append([]byte{}, header...), 254, 0xff, 0xff, 0xff, 0xff)
	_, err := masp.ParseTransaction(hostile)
	assert.True(t, errors.Is(err, txerr.ErrInvalidSettings))
}

func TestSigHashCoversShieldedData(t *testing.T) {
	f := newFixture(t, 1, 1, 0)
	base := masp.SigHash(f.tx)
	assert.Equal(t, base, masp.SigHash(f.tx))

	f.tx.Outputs[0].EncCiphertext[600] ^= 1
	changed := masp.SigHash(f.tx)
	assert.NotEqual(t, base, changed)

	f.tx.ConsensusBranchID++
	assert.NotEqual(t, changed, masp.SigHash(f.tx))

	empty := &masp.Transaction{Version: masp.TxVersion}
	assert.NotEqual(t, base, masp.TxID(empty))
}

func TestRandomnessGenerator(t *testing.T) {
	var seed [32]byte
	rngA, err := masp.NewDeterministicSource(seed)
	require.NoError(t, err)
	rngB, err := masp.NewDeterministicSource(seed)
	require.NoError(t, err)

	a := store.NewMemory()
	b := store.NewMemory()
	genA := masp.NewRandomnessGenerator(a, rngA, nil)
	genB := masp.NewRandomnessGenerator(b, rngB, nil)

	outA := make([]byte, 64)
	outB := make([]byte, 64)
	n, err := genA.Compute(store.KindSpend, outA)
	require.NoError(t, err)
	assert.Equal(t, masp.SpendRandomnessSize, n)
	_, err = genB.Compute(store.KindSpend, outB)
	require.NoError(t, err)
	assert.Equal(t, outA, outB)

	item, err := a.Spend(0)
	require.NoError(t, err)
	assert.Equal(t, outA[:32], item.Rcv[:])
	assert.Equal(t, outA[32:], item.Alpha[:])
	_, err = jubjub.ScalarFromBytes(item.Alpha)
	require.NoError(t, err)

	conv := make([]byte, 40)
	n, err = genA.Compute(store.KindConvert, conv)
	require.NoError(t, err)
	assert.Equal(t, masp.ConvertRandomnessSize, n)
	assert.Equal(t, make([]byte, 8), conv[32:])

	_, err = genA.Compute(store.KindOutput, make([]byte, 63))
	assert.True(t, errors.Is(err, txerr.ErrBufferTooSmall))
	count, err := a.Count(store.KindOutput)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	_, err = genA.Compute(store.ItemKind(7), outA)
	assert.True(t, errors.Is(err, txerr.ErrInvalidSettings))
}

func TestRandomnessShortSourceZeroesOutput(t *testing.T) {
	gen := masp.NewRandomnessGenerator(store.NewMemory(), bytes.NewReader(make([]byte, 70)), nil)
	out := bytes.Repeat([]byte{0xff}, 64)
	_, err := gen.Compute(store.KindOutput, out)
	assert.True(t, errors.Is(err, txerr.ErrUnknown))
	assert.Equal(t, make([]byte, 64), out)
}

func TestVerifyAccepts(t *testing.T) {
	f := newFixture(t, 2, 3, 2)
	v := masp.NewVerifier(f.items, nil)
	require.NoError(t, v.Verify(f.ak, f.builder, f.tx.Bundle()))

	f.builder.OutputIndices = []uint32{2, 0, 1}
	require.NoError(t, v.Verify(f.ak, f.builder, f.tx.Bundle()))
}

func TestVerifyTamperedSpendCv(t *testing.T) {
	f := newFixture(t, 2, 1, 0)
	f.tx.Spends[1].Cv[5] ^= 0x01

	err := masp.NewVerifier(f.items, nil).Verify(f.ak, f.builder, f.tx.Bundle())
	assert.True(t, errors.Is(err, txerr.ErrInvalidCv))
	var ie *txerr.ItemError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "spend", ie.Item)
	assert.Equal(t, 1, ie.Index)
}

func TestVerifySpendCountMismatchFirst(t *testing.T) {
	f := newFixture(t, 1, 0, 0)
	f.builder.Spends = append(f.builder.Spends, f.builder.Spends[0])
	// Spend 0 is also tampered, but the count check runs first.
	f.tx.Spends[0].Cv[0] ^= 1

	err := masp.NewVerifier(f.items, nil).Verify(f.ak, f.builder, f.tx.Bundle())
	assert.True(t, errors.Is(err, txerr.ErrInvalidNumberOfSpends))
}

func TestVerifyRk(t *testing.T) {
	f := newFixture(t, 1, 0, 0)
	other := f.ak.Add(jubjub.SpendAuthBase())

	v := masp.NewVerifier(f.items, nil)
	err := v.Verify(other, f.builder, f.tx.Bundle())
	assert.True(t, errors.Is(err, txerr.ErrInvalidRk))

	v.SkipRkCheck = true
	assert.NoError(t, v.Verify(other, f.builder, f.tx.Bundle()))
}

func TestVerifyOutputs(t *testing.T) {
	f := newFixture(t, 0, 2, 0)
	v := masp.NewVerifier(f.items, nil)

	f.tx.Outputs[1].Cv[0] ^= 1
	err := v.Verify(f.ak, f.builder, f.tx.Bundle())
	assert.True(t, errors.Is(err, txerr.ErrInvalidCv))
	f.tx.Outputs[1].Cv[0] ^= 1

	f.builder.OutputIndices = []uint32{0}
	err = v.Verify(f.ak, f.builder, f.tx.Bundle())
	assert.True(t, errors.Is(err, txerr.ErrInvalidNumberOfOutputs))

	f.builder.OutputIndices = []uint32{0, 2}
	err = v.Verify(f.ak, f.builder, f.tx.Bundle())
	assert.True(t, errors.Is(err, txerr.ErrOutOfBounds))

	f.builder.OutputIndices = []uint32{1, 1}
	err = v.Verify(f.ak, f.builder, f.tx.Bundle())
	assert.True(t, errors.Is(err, txerr.ErrInvalidNumberOfOutputs))
}

func TestVerifyOutputItemFollowsIndex(t *testing.T) {
	f := newFixture(t, 0, 2, 0)
	v := masp.NewVerifier(f.items, nil)
	f.builder.OutputIndices = []uint32{1, 0}

	// Builder output 0 is reached at step 1 and still pairs with item 0.
	f.builder.Outputs[0].Value++
	err := v.Verify(f.ak, f.builder, f.tx.Bundle())
	assert.True(t, errors.Is(err, txerr.ErrInvalidCv))
	var item *txerr.ItemError
	require.True(t, errors.As(err, &item))
	assert.Equal(t, "output", item.Item)
	assert.Equal(t, 0, item.Index)
}

func TestVerifyConverts(t *testing.T) {
	f := newFixture(t, 0, 0, 2)
	v := masp.NewVerifier(f.items, nil)

	f.builder.Converts[1].Value++
	err := v.Verify(f.ak, f.builder, f.tx.Bundle())
	assert.True(t, errors.Is(err, txerr.ErrInvalidCv))

	f.builder.Converts = f.builder.Converts[:1]
	err = v.Verify(f.ak, f.builder, f.tx.Bundle())
	assert.True(t, errors.Is(err, txerr.ErrInvalidNumberOfOutputs))
}

func TestVerifyMissingRandomness(t *testing.T) {
	f := newFixture(t, 1, 0, 0)
	require.NoError(t, f.items.ClearItems())
	err := masp.NewVerifier(f.items, nil).Verify(f.ak, f.builder, f.tx.Bundle())
	assert.True(t, errors.Is(err, txerr.ErrOutOfBounds))

	err = masp.NewVerifier(f.items, nil).Verify(f.ak, nil, f.tx.Bundle())
	assert.True(t, errors.Is(err, txerr.ErrNoData))
}
