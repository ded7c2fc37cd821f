// Package signer assembles Namada transaction signatures on the device: the
// raw signature over the inner section hashes and the wrapper signature over
// the fee header and the signed raw section. It also signs MASP spends once
// their commitments check out against device-held randomness.
package signer

import (
	"crypto/ed25519"
	"io"

	"github.com/pkg/errors"
	"github.com/suffix-labs/namada-signer/pkg/crypto"
	"github.com/suffix-labs/namada-signer/pkg/masp"
	"github.com/suffix-labs/namada-signer/pkg/store"
	"github.com/suffix-labs/namada-signer/pkg/tx"
	"github.com/suffix-labs/namada-signer/pkg/txerr"
	"go.uber.org/zap"
)

// HRP holds the human-readable parts of exported text encodings.
type HRP struct {
	Address     string
	PubKey      string
	MaspAddress string
}

// DefaultHRP returns the testnet prefixes.
func DefaultHRP() HRP {
	return HRP{
		Address:     crypto.DefaultAddressHRP,
		PubKey:      crypto.DefaultPubKeyHRP,
		MaspAddress: crypto.DefaultMaspAddressHRP,
	}
}

// Config wires a Signer.
type Config struct {
	Keys crypto.KeySource
	Path crypto.HDPath
	HRP  HRP

	// Store and Rand back the MASP operations. Both may be nil when only
	// Sign and FillAddress are used.
	Store store.Store
	Rand  io.Reader

	// SkipRkCheck disables the randomized key check. Testing builds only.
	SkipRkCheck bool

	Logger *zap.Logger
}

// Signer runs the device signing operations. It is not safe for concurrent
// use.
type Signer struct {
	keys     crypto.KeySource
	path     crypto.HDPath
	hrp      HRP
	store    store.Store
	rng      io.Reader
	verifier *masp.Verifier
	logger   *zap.Logger
}

// New checks cfg and builds a Signer. The MASP operations are available
// only when both cfg.Store and cfg.Rand are set.
func New(cfg Config) (*Signer, error) {
	if cfg.Keys == nil {
		return nil, errors.Wrap(txerr.ErrInvalidSettings, "no key source")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Signer{
		keys:   cfg.Keys,
		path:   cfg.Path,
		hrp:    cfg.HRP,
		store:  cfg.Store,
		rng:    cfg.Rand,
		logger: logger,
	}
	if cfg.Store != nil {
		s.verifier = masp.NewVerifier(cfg.Store, logger.Named("verifier"))
		s.verifier.SkipRkCheck = cfg.SkipRkCheck
	}
	return s, nil
}

// deviceKey derives the ed25519 signing key. The caller must wipe it.
func (s *Signer) deviceKey() (ed25519.PrivateKey, error) {
	var seed [32]byte
	defer crypto.Wipe32(&seed)
	if err := s.keys.Ed25519Seed(s.path, &seed); err != nil {
		return nil, err
	}
	return ed25519.NewKeyFromSeed(seed[:]), nil
}

// extraHashes returns the section hashes a transaction kind adds to the
// inner hash list.
func extraHashes(k tx.Kind) ([]tx.SectionRef, error) {
	switch k := k.(type) {
	case tx.InitAccount:
		return []tx.SectionRef{k.VP}, nil
	case tx.UpdateVP:
		return []tx.SectionRef{k.VP}, nil
	case tx.InitProposal:
		refs := []tx.SectionRef{k.Content}
		if k.ProposalCode != nil {
			refs = append(refs, *k.ProposalCode)
		}
		return refs, nil
	case tx.Transfer, tx.Other:
		return nil, nil
	default:
		return nil, errors.Wrapf(txerr.ErrUnknown, "transaction kind %T", k)
	}
}

func origin(index uint32) (byte, error) {
	if index >= uint32(HeaderOrigin) {
		return 0, errors.Wrapf(txerr.ErrOutOfBounds, "section index %d", index)
	}
	return byte(index), nil
}

// Sign produces the raw and wrapper signatures of t and writes a Response
// to out. The salt is supplied by the caller and copied into the raw
// signature section unchanged. On failure out is zeroed.
func (s *Signer) Sign(t *tx.Transaction, salt [SaltSize]byte, out []byte) (n int, err error) {
	if len(out) < MinResponseSize {
		return 0, errors.Wrapf(txerr.ErrBufferTooSmall, "need %d bytes, have %d", MinResponseSize, len(out))
	}
	crypto.Wipe(out)
	defer func() {
		if err != nil {
			crypto.Wipe(out)
			n = 0
		}
	}()
	if t == nil {
		return 0, errors.Wrap(txerr.ErrNoData, "transaction")
	}

	priv, err := s.deviceKey()
	if err != nil {
		return 0, err
	}
	defer crypto.Wipe(priv)

	resp := Response{Salt: salt}
	resp.PubKey[0] = byte(tx.Ed25519)
	copy(resp.PubKey[1:], priv.Public().(ed25519.PublicKey))

	var acc accumulator
	if err := acc.Append(HashRawHeader(&t.Header), HeaderOrigin); err != nil {
		return 0, err
	}

	extras, err := extraHashes(t.Kind)
	if err != nil {
		return 0, err
	}
	for _, ref := range extras {
		o, err := origin(ref.Index)
		if err != nil {
			return 0, err
		}
		if err := acc.Append(ref.Hash, o); err != nil {
			return 0, err
		}
	}

	devicePub := tx.PublicKey{Kind: tx.Ed25519, Key: resp.PubKey[1:]}
	raw := tx.SignatureSection{
		Salt:   salt,
		Hashes: acc.Hashes(),
		Signer: tx.PubKeys{Keys: []tx.PublicKey{devicePub}},
	}
	digest, err := HashSignatureSection(&raw, nil)
	if err != nil {
		return 0, err
	}
	resp.RawSignature[0] = byte(tx.Ed25519)
	copy(resp.RawSignature[1:], ed25519.Sign(priv, digest[:]))

	raw.Signatures = []tx.IndexedSignature{{Index: 0, Kind: tx.Ed25519, Sig: resp.RawSignature[1:]}}
	prefix := SignedPrefix
	signed, err := HashSignatureSection(&raw, &prefix)
	if err != nil {
		return 0, err
	}
	rawOrigin, err := origin(t.Sections.Count)
	if err != nil {
		return 0, err
	}
	if err := acc.Append(signed, rawOrigin); err != nil {
		return 0, err
	}
	resp.RawIndices = acc.Origins()

	sections := []*tx.Section{&t.Sections.Code, &t.Sections.Data}
	if t.Sections.Memo != nil {
		sections = append(sections, t.Sections.Memo)
	}
	for _, sec := range sections {
		o, err := origin(sec.Index)
		if err != nil {
			return 0, err
		}
		if err := acc.Append(sec.Hash(), o); err != nil {
			return 0, err
		}
	}

	for i := range t.Sections.Signatures {
		prior := &t.Sections.Signatures[i]
		if !acc.ContainsAll(prior.Section.Hashes) {
			s.logger.Debug("skipping signature section", zap.Uint32("index", prior.Index))
			continue
		}
		h, err := HashSignatureSection(&prior.Section, &prefix)
		if err != nil {
			return 0, errors.Wrapf(err, "signature section %d", prior.Index)
		}
		o, err := origin(prior.Index)
		if err != nil {
			return 0, err
		}
		if err := acc.Append(h, o); err != nil {
			return 0, err
		}
	}

	if err := acc.Replace(0, HashFeeHeader(&t.Header), WrapperOrigin); err != nil {
		return 0, err
	}

	wrapper := tx.SignatureSection{
		Salt:   salt,
		Hashes: acc.Hashes(),
		Signer: tx.PubKeys{},
	}
	digest, err = HashSignatureSection(&wrapper, nil)
	if err != nil {
		return 0, err
	}
	resp.WrapperSignature[0] = byte(tx.Ed25519)
	copy(resp.WrapperSignature[1:], ed25519.Sign(priv, digest[:]))
	resp.FinalIndices = acc.Origins()

	s.logger.Debug("transaction signed",
		zap.Int("raw_hashes", len(resp.RawIndices)),
		zap.Int("wrapper_hashes", len(resp.FinalIndices)))
	return resp.MarshalTo(out)
}
