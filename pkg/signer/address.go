package signer

import (
	"crypto/ed25519"

	"github.com/pkg/errors"
	"github.com/suffix-labs/namada-signer/pkg/crypto"
	"github.com/suffix-labs/namada-signer/pkg/sapling"
	"github.com/suffix-labs/namada-signer/pkg/tx"
	"github.com/suffix-labs/namada-signer/pkg/txerr"
)

// taggedPublicKey derives the device public key of kind, prefixed by its
// tag. Private material is wiped before returning.
func (s *Signer) taggedPublicKey(kind tx.KeyKind) ([]byte, error) {
	var secret [32]byte
	defer crypto.Wipe32(&secret)

	switch kind {
	case tx.Ed25519:
		if err := s.keys.Ed25519Seed(s.path, &secret); err != nil {
			return nil, err
		}
		priv := ed25519.NewKeyFromSeed(secret[:])
		defer crypto.Wipe(priv)
		return append([]byte{byte(kind)}, priv.Public().(ed25519.PublicKey)...), nil
	case tx.Secp256k1:
		if err := s.keys.Secp256k1Key(s.path, &secret); err != nil {
			return nil, err
		}
		pub, err := crypto.Secp256k1PublicKey(&secret)
		if err != nil {
			return nil, err
		}
		return append([]byte{byte(kind)}, pub[:]...), nil
	default:
		return nil, errors.Wrapf(txerr.ErrInvalidSettings, "key kind %d", kind)
	}
}

// FillAddress writes the device public key of kind and its text encodings:
//
//	tag || pubkey | len || bech32m(pubkey hrp, tag || pubkey) |
//	len || bech32m(address hrp, implicit address)
//
// On failure out is zeroed.
func (s *Signer) FillAddress(kind tx.KeyKind, out []byte) (n int, err error) {
	crypto.Wipe(out)
	defer func() {
		if err != nil {
			crypto.Wipe(out)
			n = 0
		}
	}()

	pub, err := s.taggedPublicKey(kind)
	if err != nil {
		return 0, err
	}
	pubText, err := crypto.EncodeBech32m(s.hrp.PubKey, pub)
	if err != nil {
		return 0, err
	}
	addr := crypto.ImplicitAddress(pub)
	addrText, err := crypto.EncodeBech32m(s.hrp.Address, addr[:])
	if err != nil {
		return 0, err
	}

	return writeFields(out, pub, []byte(pubText), []byte(addrText))
}

// FillMaspAddress writes the default Sapling payment address of the device
// and its text encoding:
//
//	diversifier || pk_d (43) | len || bech32m(masp hrp, address)
//
// On failure out is zeroed.
func (s *Signer) FillMaspAddress(out []byte) (n int, err error) {
	crypto.Wipe(out)
	defer func() {
		if err != nil {
			crypto.Wipe(out)
			n = 0
		}
	}()

	keys, err := s.saplingKeys()
	if err != nil {
		return 0, err
	}
	defer keys.Wipe()

	addr := keys.Address()
	text, err := crypto.EncodeBech32m(s.hrp.MaspAddress, addr[:])
	if err != nil {
		return 0, err
	}
	return writeFields(out, addr[:], []byte(text))
}

func (s *Signer) saplingKeys() (*sapling.Keys, error) {
	var sk [32]byte
	defer crypto.Wipe32(&sk)
	if err := s.keys.SaplingSpendingKey(s.path, &sk); err != nil {
		return nil, err
	}
	return sapling.DeriveKeys(&sk)
}

// writeFields writes head followed by each of lp as a one-byte length and
// its bytes.
func writeFields(out, head []byte, lp ...[]byte) (int, error) {
	size := len(head)
	for _, f := range lp {
		if len(f) > 0xff {
			return 0, errors.Wrapf(txerr.ErrEncodingFailed, "field of %d bytes", len(f))
		}
		size += 1 + len(f)
	}
	if len(out) < size {
		return 0, errors.Wrapf(txerr.ErrBufferTooSmall, "need %d bytes, have %d", size, len(out))
	}

	off := copy(out, head)
	for _, f := range lp {
		out[off] = byte(len(f))
		off += 1 + copy(out[off+1:], f)
	}
	return off, nil
}
