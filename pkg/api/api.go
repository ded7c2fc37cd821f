// Package api is the device facade. It wires configuration, key source,
// stores and randomness into a signer and serializes calls so one Device can
// be shared by a host process.
//
// Operations:
//
//  1. FillAddress / FillMaspAddress - export device keys and addresses
//  2. Sign - raw and wrapper signatures of a transaction
//  3. ComputeRandomness - per-item MASP randomness, recorded on the device
//  4. SignMasp - verify shielded commitments and sign every spend
//  5. ExtractSpendSignature - stream the spend signatures to the host
package api

import (
	"io"
	"sync"

	"github.com/pkg/errors"
	"github.com/suffix-labs/namada-signer/pkg/config"
	"github.com/suffix-labs/namada-signer/pkg/crypto"
	"github.com/suffix-labs/namada-signer/pkg/masp"
	"github.com/suffix-labs/namada-signer/pkg/signer"
	"github.com/suffix-labs/namada-signer/pkg/store"
	"github.com/suffix-labs/namada-signer/pkg/tx"
	"github.com/suffix-labs/namada-signer/pkg/txerr"
	"go.uber.org/zap"
)

// Device owns one signer and its state.
type Device struct {
	mu     sync.Mutex
	signer *signer.Signer
	store  store.Store
	wipe   func()
	logger *zap.Logger
}

// Open builds a Device from cfg: key source from the mnemonic, store from
// the configured backend and the configured randomness source.
func Open(cfg *config.Config, logger *zap.Logger) (*Device, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	mnemonic, err := cfg.LoadMnemonic()
	if err != nil {
		return nil, err
	}
	keys, err := crypto.NewSeedKeySource(mnemonic, cfg.Passphrase)
	if err != nil {
		return nil, err
	}

	st, err := openStore(cfg, logger)
	if err != nil {
		keys.Wipe()
		return nil, err
	}

	d, err := New(cfg, keys, st, logger)
	if err != nil {
		st.Close()
		keys.Wipe()
		return nil, err
	}
	d.wipe = keys.Wipe
	return d, nil
}

func openStore(cfg *config.Config, logger *zap.Logger) (store.Store, error) {
	switch cfg.Store.Backend {
	case config.StorePebble:
		return store.NewPebble(cfg.Store.Path, nil, logger.Named("store"))
	case config.StoreMemory:
		return store.NewMemory(), nil
	default:
		return nil, errors.Wrapf(txerr.ErrInvalidSettings, "store backend %q", cfg.Store.Backend)
	}
}

func randomness(cfg *config.Config) (io.Reader, error) {
	if cfg.Randomness.Mode != config.RandomnessDeterministic {
		return masp.SystemSource(), nil
	}
	seed, err := cfg.Seed()
	if err != nil {
		return nil, err
	}
	return masp.NewDeterministicSource(seed)
}

// New builds a Device over an existing key source and store. The Device
// takes ownership of st.
func New(cfg *config.Config, keys crypto.KeySource, st store.Store, logger *zap.Logger) (*Device, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	path, err := cfg.Path()
	if err != nil {
		return nil, err
	}
	rng, err := randomness(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Masp.SkipRkCheck {
		logger.Warn("randomized key check disabled")
	}

	s, err := signer.New(signer.Config{
		Keys:        keys,
		Path:        path,
		HRP:         cfg.HRP(),
		Store:       st,
		Rand:        rng,
		SkipRkCheck: cfg.Masp.SkipRkCheck,
		Logger:      logger.Named("signer"),
	})
	if err != nil {
		return nil, err
	}
	return &Device{signer: s, store: st, logger: logger}, nil
}

// FillAddress writes the device public key and its encodings for kind.
func (d *Device) FillAddress(kind tx.KeyKind, out []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.signer.FillAddress(kind, out)
}

// FillMaspAddress writes the default shielded payment address.
func (d *Device) FillMaspAddress(out []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.signer.FillMaspAddress(out)
}

// Sign writes a signer.Response for t. The salt is the caller's.
func (d *Device) Sign(t *tx.Transaction, salt [signer.SaltSize]byte, out []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.signer.Sign(t, salt, out)
	if err != nil {
		d.logger.Info("sign failed", zap.Error(err))
	}
	return n, err
}

// ComputeRandomness generates and records randomness for a new item.
func (d *Device) ComputeRandomness(kind store.ItemKind, out []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.signer.ComputeRandomness(kind, out)
}

// SignMasp verifies t and queues one signature per spend.
func (d *Device) SignMasp(t *tx.Transaction, out []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.signer.SignMasp(t, out)
	if err != nil {
		d.logger.Info("masp sign failed", zap.Error(err))
	}
	return n, err
}

// ExtractSpendSignature writes the next queued spend signature.
func (d *Device) ExtractSpendSignature(out []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.signer.ExtractSpendSignature(out)
}

// HasMoreSpendSignatures reports whether a spend signature is queued.
func (d *Device) HasMoreSpendSignatures() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.signer.HasMoreSpendSignatures()
}

// Reset drops all recorded randomness and queued signatures.
func (d *Device) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.store.ClearItems(); err != nil {
		return err
	}
	return d.store.ClearSignatures()
}

// Close releases the store and wipes the key source it opened.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.wipe != nil {
		d.wipe()
		d.wipe = nil
	}
	return d.store.Close()
}
