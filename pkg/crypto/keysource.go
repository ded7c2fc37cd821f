package crypto

import (
	"encoding/binary"

	slip10 "github.com/anyproto/go-slip10"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/pkg/errors"
	"github.com/suffix-labs/namada-signer/pkg/txerr"
	"github.com/tyler-smith/go-bip39"
)

// KeySource is the host crypto engine's key derivation. Every method writes
// secret material into a buffer owned by the caller, who must wipe it.
type KeySource interface {
	// Ed25519Seed writes the 32-byte ed25519 private seed for path.
	Ed25519Seed(path HDPath, out *[32]byte) error

	// Secp256k1Key writes the 32-byte secp256k1 private scalar for path.
	Secp256k1Key(path HDPath, out *[32]byte) error

	// SaplingSpendingKey writes the 32-byte Sapling spending key for path.
	SaplingSpendingKey(path HDPath, out *[32]byte) error
}

// SeedKeySource derives every key from a single BIP-39 seed.
type SeedKeySource struct {
	seed []byte
}

// NewSeedKeySource validates mnemonic and derives the BIP-39 seed.
func NewSeedKeySource(mnemonic, passphrase string) (*SeedKeySource, error) {
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, errors.Wrap(txerr.ErrInvalidSettings, err.Error())
	}
	return &SeedKeySource{seed: seed}, nil
}

// NewSeedKeySourceFromSeed uses seed directly. The slice is copied.
func NewSeedKeySourceFromSeed(seed []byte) (*SeedKeySource, error) {
	if len(seed) < 16 || len(seed) > 64 {
		return nil, errors.Wrapf(txerr.ErrInvalidSettings, "seed length %d", len(seed))
	}
	return &SeedKeySource{seed: append([]byte(nil), seed...)}, nil
}

// Wipe zeroes the seed. The source is unusable afterwards.
func (s *SeedKeySource) Wipe() {
	Wipe(s.seed)
	s.seed = nil
}

// Ed25519Seed implements SLIP-10 ed25519 derivation. Only hardened
// components are defined for ed25519.
func (s *SeedKeySource) Ed25519Seed(path HDPath, out *[32]byte) error {
	if out == nil || s.seed == nil {
		return txerr.ErrInvalidSettings
	}
	if !path.AllHardened() {
		return errors.Wrap(txerr.ErrInvalidSettings, "ed25519 derivation requires hardened path")
	}

	node, err := slip10.DeriveForPath(path.String(), s.seed)
	if err != nil {
		return errors.Wrap(txerr.ErrInvalidSettings, err.Error())
	}
	_, priv := node.Keypair()
	copy(out[:], priv.Seed())
	Wipe(priv)
	return nil
}

// Secp256k1Key implements BIP-32 derivation on secp256k1.
func (s *SeedKeySource) Secp256k1Key(path HDPath, out *[32]byte) error {
	if out == nil || s.seed == nil {
		return txerr.ErrInvalidSettings
	}
	key, err := hdkeychain.NewMaster(s.seed, &chaincfg.MainNetParams)
	if err != nil {
		return errors.Wrap(txerr.ErrInvalidSettings, err.Error())
	}
	for _, c := range path {
		key, err = key.Derive(c)
		if err != nil {
			return errors.Wrap(txerr.ErrInvalidSettings, err.Error())
		}
	}
	priv, err := key.ECPrivKey()
	if err != nil {
		return errors.Wrap(txerr.ErrUnknown, err.Error())
	}
	raw := priv.Serialize()
	copy(out[:], raw)
	Wipe(raw)
	priv.Zero()
	return nil
}

// SaplingSpendingKey derives sk = BLAKE2b-512("ZcashIP32Sapling",
// seed || LE32(path...))[:32].
func (s *SeedKeySource) SaplingSpendingKey(path HDPath, out *[32]byte) error {
	if out == nil || s.seed == nil {
		return txerr.ErrInvalidSettings
	}
	var encoded [HDPathLen * 4]byte
	for i, c := range path {
		binary.LittleEndian.PutUint32(encoded[i*4:], c)
	}
	wide := Blake2b512(SaplingMasterPersonalization, s.seed, encoded[:])
	copy(out[:], wide[:32])
	Wipe(wide[:])
	return nil
}

var _ KeySource = (*SeedKeySource)(nil)
