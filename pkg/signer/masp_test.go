package signer

import (
	"crypto/sha256"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suffix-labs/namada-signer/pkg/crypto"
	"github.com/suffix-labs/namada-signer/pkg/jubjub"
	"github.com/suffix-labs/namada-signer/pkg/masp"
	"github.com/suffix-labs/namada-signer/pkg/masp/masptest"
	"github.com/suffix-labs/namada-signer/pkg/sapling"
	"github.com/suffix-labs/namada-signer/pkg/store"
	"github.com/suffix-labs/namada-signer/pkg/tx"
	"github.com/suffix-labs/namada-signer/pkg/txerr"
)

func newMaspSigner(t *testing.T) (*Signer, *recordingKeys, *store.Memory) {
	t.Helper()
	src, err := crypto.NewSeedKeySource(testMnemonic, "")
	require.NoError(t, err)
	rng, err := masp.NewDeterministicSource([32]byte{42})
	require.NoError(t, err)

	keys := &recordingKeys{KeySource: src}
	st := store.NewMemory()
	s, err := New(Config{
		Keys:  keys,
		Path:  crypto.DefaultHDPath(),
		HRP:   DefaultHRP(),
		Store: st,
		Rand:  rng,
	})
	require.NoError(t, err)
	return s, keys, st
}

// maspTx draws randomness through s and returns a transaction whose
// commitments match it.
func maspTx(t *testing.T, s *Signer, spends, outputs int) *tx.Transaction {
	t.Helper()
	buf := make([]byte, 64)
	b := &masp.Builder{}
	for i := 0; i < spends; i++ {
		_, err := s.ComputeRandomness(store.KindSpend, buf)
		require.NoError(t, err)
		b.Spends = append(b.Spends, masp.SpendInfo{Asset: masptest.Asset("nam"), Value: uint64(1000 * (i + 1))})
	}
	for i := 0; i < outputs; i++ {
		_, err := s.ComputeRandomness(store.KindOutput, buf)
		require.NoError(t, err)
		b.Outputs = append(b.Outputs, masp.OutputInfo{Asset: masptest.Asset("nam"), Value: uint64(900 + i)})
		b.OutputIndices = append(b.OutputIndices, uint32(i))
	}

	keys, err := s.saplingKeys()
	require.NoError(t, err)
	defer keys.Wipe()
	ak, err := keys.AkPoint()
	require.NoError(t, err)

	mtx, err := masptest.Transaction(ak, b, s.store)
	require.NoError(t, err)
	return &tx.Transaction{
		Raw:  []byte("serialized namada transaction"),
		Kind: tx.Transfer{},
		Masp: &tx.MaspPayload{Builder: b, Tx: mtx},
	}
}

func TestFillAddressEd25519(t *testing.T) {
	s, keys := newTestSigner(t)
	pub := devicePublicKey(t)

	out := make([]byte, 256)
	n, err := s.FillAddress(tx.Ed25519, out)
	require.NoError(t, err)
	keys.requireWiped(t)

	assert.Equal(t, byte(tx.Ed25519), out[0])
	assert.Equal(t, []byte(pub), out[1:33])

	pubLen := int(out[33])
	pubText := string(out[34 : 34+pubLen])
	addrLen := int(out[34+pubLen])
	addrText := string(out[35+pubLen : 35+pubLen+addrLen])
	assert.Equal(t, 35+pubLen+addrLen, n)

	hrp, data, version, err := bech32.DecodeGeneric(pubText)
	require.NoError(t, err)
	assert.Equal(t, bech32.VersionM, version)
	assert.Equal(t, crypto.DefaultPubKeyHRP, hrp)
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	require.NoError(t, err)
	assert.Equal(t, out[:33], raw)

	implicit := crypto.ImplicitAddress(out[:33])
	want, err := crypto.EncodeBech32m(crypto.DefaultAddressHRP, implicit[:])
	require.NoError(t, err)
	assert.Equal(t, want, addrText)
}

func TestFillAddressSecp256k1(t *testing.T) {
	s, _ := newTestSigner(t)
	out := make([]byte, 256)
	n, err := s.FillAddress(tx.Secp256k1, out)
	require.NoError(t, err)
	assert.Equal(t, byte(tx.Secp256k1), out[0])
	assert.Contains(t, []byte{0x02, 0x03}, out[1])
	assert.True(t, strings.HasPrefix(string(out[35:35+int(out[34])]), crypto.DefaultPubKeyHRP+"1"))
	assert.Greater(t, n, 35)
}

func TestFillAddressRejects(t *testing.T) {
	s, _ := newTestSigner(t)

	out := make([]byte, 256)
	out[0] = 0xff
	_, err := s.FillAddress(tx.KeyKind(5), out)
	assert.True(t, errors.Is(err, txerr.ErrInvalidSettings))
	assert.True(t, crypto.IsZero(out))

	out = make([]byte, 40)
	_, err = s.FillAddress(tx.Ed25519, out)
	assert.True(t, errors.Is(err, txerr.ErrBufferTooSmall))
	assert.True(t, crypto.IsZero(out))
}

func TestFillMaspAddress(t *testing.T) {
	s, keys := newTestSigner(t)
	out := make([]byte, 200)
	n, err := s.FillMaspAddress(out)
	require.NoError(t, err)
	keys.requireWiped(t)

	d := [sapling.DiversifierSize]byte(out[:sapling.DiversifierSize])
	_, ok := sapling.DiversifiedBase(d)
	assert.True(t, ok)
	_, err = jubjub.DecodeSlice(out[sapling.DiversifierSize:sapling.PaymentAddressSize])
	require.NoError(t, err)

	textLen := int(out[sapling.PaymentAddressSize])
	text := string(out[sapling.PaymentAddressSize+1 : sapling.PaymentAddressSize+1+textLen])
	assert.True(t, strings.HasPrefix(text, crypto.DefaultMaspAddressHRP+"1"))
	assert.Equal(t, sapling.PaymentAddressSize+1+textLen, n)
}

func TestSignMasp(t *testing.T) {
	s, keys, st := newMaspSigner(t)
	txn := maspTx(t, s, 2, 2)

	out := make([]byte, MaspDigestSize)
	n, err := s.SignMasp(txn, out)
	require.NoError(t, err)
	assert.Equal(t, MaspDigestSize, n)
	want := sha256.Sum256(txn.Raw)
	assert.Equal(t, want[:], out)
	keys.requireWiped(t)

	count, err := st.SignatureCount()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	sighash := masp.SigHash(txn.Masp.Tx)
	sig := make([]byte, store.SignatureSize)
	for i := 0; i < 2; i++ {
		more, err := s.HasMoreSpendSignatures()
		require.NoError(t, err)
		require.True(t, more)

		_, err = s.ExtractSpendSignature(sig)
		require.NoError(t, err)
		rk, err := jubjub.Decode(txn.Masp.Tx.Spends[i].Rk)
		require.NoError(t, err)
		assert.True(t, sapling.VerifySpend(rk, sighash[:], [64]byte(sig)), "spend %d", i)
	}

	more, err := s.HasMoreSpendSignatures()
	require.NoError(t, err)
	assert.False(t, more)
	_, err = s.ExtractSpendSignature(sig)
	assert.True(t, errors.Is(err, txerr.ErrNoMoreSignatures))
}

func TestSignMaspReplacesStaleSignatures(t *testing.T) {
	s, _, st := newMaspSigner(t)
	txn := maspTx(t, s, 1, 0)

	out := make([]byte, MaspDigestSize)
	_, err := s.SignMasp(txn, out)
	require.NoError(t, err)
	_, err = s.SignMasp(txn, out)
	require.NoError(t, err)

	count, err := st.SignatureCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSignMaspTamperedCv(t *testing.T) {
	s, keys, st := newMaspSigner(t)
	txn := maspTx(t, s, 2, 1)
	txn.Masp.Tx.Spends[1].Cv[0] ^= 0x80

	out := make([]byte, MaspDigestSize)
	n, err := s.SignMasp(txn, out)
	assert.True(t, errors.Is(err, txerr.ErrInvalidCv))
	assert.Zero(t, n)
	assert.True(t, crypto.IsZero(out))
	keys.requireWiped(t)

	count, err := st.SignatureCount()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSignMaspVerifiesSignedTransaction(t *testing.T) {
	s, _, st := newMaspSigner(t)
	txn := maspTx(t, s, 1, 0)
	txn.Masp.Tx.Spends[0].Cv[0] ^= 0x80

	out := make([]byte, MaspDigestSize)
	_, err := s.SignMasp(txn, out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, txerr.ErrInvalidCv))
	var item *txerr.ItemError
	require.True(t, errors.As(err, &item))
	assert.Equal(t, 0, item.Index)

	more, err := st.HasMoreSignatures()
	require.NoError(t, err)
	assert.False(t, more)
}

func TestSignMaspSpendCountMismatch(t *testing.T) {
	s, _, st := newMaspSigner(t)
	txn := maspTx(t, s, 1, 0)
	txn.Masp.Builder.Spends = append(txn.Masp.Builder.Spends, txn.Masp.Builder.Spends[0])

	out := make([]byte, MaspDigestSize)
	_, err := s.SignMasp(txn, out)
	assert.True(t, errors.Is(err, txerr.ErrInvalidNumberOfSpends))

	more, err := st.HasMoreSignatures()
	require.NoError(t, err)
	assert.False(t, more)
}

func TestSignMaspRejects(t *testing.T) {
	s, _, _ := newMaspSigner(t)

	_, err := s.SignMasp(&tx.Transaction{}, make([]byte, MaspDigestSize-1))
	assert.True(t, errors.Is(err, txerr.ErrBufferTooSmall))

	_, err = s.SignMasp(&tx.Transaction{}, make([]byte, MaspDigestSize))
	assert.True(t, errors.Is(err, txerr.ErrNoData))

	_, err = s.ExtractSpendSignature(make([]byte, 10))
	assert.True(t, errors.Is(err, txerr.ErrBufferTooSmall))

	plain, _ := newTestSigner(t)
	_, err = plain.SignMasp(&tx.Transaction{}, make([]byte, MaspDigestSize))
	assert.True(t, errors.Is(err, txerr.ErrInvalidSettings))
	_, err = plain.ComputeRandomness(store.KindSpend, make([]byte, 64))
	assert.True(t, errors.Is(err, txerr.ErrInvalidSettings))
}
