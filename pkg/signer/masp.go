package signer

import (
	"crypto/sha256"
	"math/big"

	"github.com/pkg/errors"
	"github.com/suffix-labs/namada-signer/pkg/crypto"
	"github.com/suffix-labs/namada-signer/pkg/jubjub"
	"github.com/suffix-labs/namada-signer/pkg/masp"
	"github.com/suffix-labs/namada-signer/pkg/sapling"
	"github.com/suffix-labs/namada-signer/pkg/store"
	"github.com/suffix-labs/namada-signer/pkg/tx"
	"github.com/suffix-labs/namada-signer/pkg/txerr"
	"go.uber.org/zap"
)

// MaspDigestSize is the length of the SignMasp response.
const MaspDigestSize = sha256.Size

func (s *Signer) maspReady() error {
	if s.store == nil || s.rng == nil {
		return errors.Wrap(txerr.ErrInvalidSettings, "signer has no masp store or randomness")
	}
	return nil
}

// SignMasp verifies the shielded part of t against the randomness held in
// the store, then signs every spend in order and queues the signatures for
// ExtractSpendSignature. It writes SHA-256(t.Raw) to out.
//
// Signatures left from an earlier call are discarded first. On failure out
// is zeroed and no signature from this call remains queued.
func (s *Signer) SignMasp(t *tx.Transaction, out []byte) (n int, err error) {
	if err := s.maspReady(); err != nil {
		return 0, err
	}
	if len(out) < MaspDigestSize {
		return 0, errors.Wrapf(txerr.ErrBufferTooSmall, "need %d bytes, have %d", MaspDigestSize, len(out))
	}
	crypto.Wipe(out)
	defer func() {
		if err != nil {
			crypto.Wipe(out)
			n = 0
		}
	}()
	if t == nil || t.Masp == nil || t.Masp.Builder == nil || t.Masp.Tx == nil {
		return 0, errors.Wrap(txerr.ErrNoData, "masp transaction")
	}

	if err := s.store.ClearSignatures(); err != nil {
		return 0, err
	}
	base, err := s.store.SignatureCount()
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if terr := s.store.TruncateSignatures(base); terr != nil {
				s.logger.Error("dropping spend signatures", zap.Error(terr))
			}
		}
	}()

	keys, err := s.saplingKeys()
	if err != nil {
		return 0, err
	}
	defer keys.Wipe()
	ak, err := keys.AkPoint()
	if err != nil {
		return 0, err
	}

	// The verified bundle and the sighash come from the same transaction.
	if err := s.verifier.Verify(ak, t.Masp.Builder, t.Masp.Tx.Bundle()); err != nil {
		return 0, err
	}

	sighash := masp.SigHash(t.Masp.Tx)
	ask := keys.AskScalar()
	defer crypto.WipeInt(ask)

	for i := range t.Masp.Builder.Spends {
		if err := s.signSpend(ask, i, sighash[:]); err != nil {
			return 0, err
		}
	}

	digest := sha256.Sum256(t.Raw)
	s.logger.Debug("masp transaction signed", zap.Int("spends", len(t.Masp.Builder.Spends)))
	return copy(out, digest[:]), nil
}

// signSpend signs spend i with rsk = ask + alpha_i and queues the signature.
func (s *Signer) signSpend(ask *big.Int, i int, sighash []byte) error {
	item, err := s.store.Spend(i)
	if err != nil {
		return &txerr.ItemError{Item: "spend", Index: i, Err: err}
	}
	alpha, err := jubjub.ScalarFromBytes(item.Alpha)
	crypto.Wipe32(&item.Alpha)
	crypto.Wipe32(&item.Rcv)
	if err != nil {
		return &txerr.ItemError{Item: "spend", Index: i, Err: err}
	}
	defer crypto.WipeInt(alpha)

	sig, err := sapling.SignSpend(ask, alpha, sighash, s.rng)
	if err != nil {
		return &txerr.ItemError{Item: "spend", Index: i, Err: err}
	}
	return s.store.AppendSignature(sig)
}

// ExtractSpendSignature writes the next queued spend signature to out.
func (s *Signer) ExtractSpendSignature(out []byte) (int, error) {
	if err := s.maspReady(); err != nil {
		return 0, err
	}
	if len(out) < store.SignatureSize {
		return 0, errors.Wrapf(txerr.ErrBufferTooSmall, "need %d bytes, have %d", store.SignatureSize, len(out))
	}
	sig, err := s.store.NextSignature()
	if err != nil {
		return 0, err
	}
	return copy(out, sig[:]), nil
}

// HasMoreSpendSignatures reports whether ExtractSpendSignature would succeed.
func (s *Signer) HasMoreSpendSignatures() (bool, error) {
	if err := s.maspReady(); err != nil {
		return false, err
	}
	return s.store.HasMoreSignatures()
}

// ComputeRandomness draws the randomness of a new item of kind, records it
// and writes it to out.
func (s *Signer) ComputeRandomness(kind store.ItemKind, out []byte) (int, error) {
	if err := s.maspReady(); err != nil {
		return 0, err
	}
	return masp.NewRandomnessGenerator(s.store, s.rng, s.logger.Named("randomness")).Compute(kind, out)
}
