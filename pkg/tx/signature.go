package tx

import (
	"github.com/pkg/errors"
	"github.com/suffix-labs/namada-signer/pkg/txerr"
)

// KeyKind tags public keys and signatures inside signature sections.
type KeyKind byte

const (
	Ed25519 KeyKind = iota
	Secp256k1
)

func (k KeyKind) String() string {
	switch k {
	case Ed25519:
		return "ed25519"
	case Secp256k1:
		return "secp256k1"
	default:
		return "unknown"
	}
}

// PublicKeySize returns the raw public key length of k.
func (k KeyKind) PublicKeySize() (int, error) {
	switch k {
	case Ed25519:
		return 32, nil
	case Secp256k1:
		return 33, nil
	default:
		return 0, errors.Wrapf(txerr.ErrInvalidSettings, "key kind %d", k)
	}
}

// SignatureSize returns the raw signature length of k.
func (k KeyKind) SignatureSize() (int, error) {
	switch k {
	case Ed25519:
		return 64, nil
	case Secp256k1:
		return 65, nil
	default:
		return 0, errors.Wrapf(txerr.ErrInvalidSettings, "key kind %d", k)
	}
}

// PublicKey is a tagged public key.
type PublicKey struct {
	Kind KeyKind
	Key  []byte
}

// IndexedSignature is one signature of a signature section. Index is the
// slot of the signing key in the signer's key list.
type IndexedSignature struct {
	Index uint8
	Kind  KeyKind
	Sig   []byte
}

// Signer identifies who signs a section. Implementations are PubKeys and
// AddressSigner.
type Signer interface {
	// Discriminant is the byte hashed ahead of the signer payload.
	Discriminant() byte
	sealed()
}

// Signer discriminants.
const (
	SignerAddress byte = 0
	SignerPubKeys byte = 1
)

// PubKeys signs with an explicit key list.
type PubKeys struct {
	Keys []PublicKey
}

func (PubKeys) Discriminant() byte { return SignerPubKeys }
func (PubKeys) sealed()            {}

// AddressSigner signs on behalf of an established account.
type AddressSigner struct {
	Address []byte
}

func (AddressSigner) Discriminant() byte { return SignerAddress }
func (AddressSigner) sealed()            {}

// SignatureSection commits to a list of section hashes. Without signatures it
// is the form that gets signed; with signatures it is the form folded into an
// outer hash list.
//
// The salt travels with the section but is not part of its hash.
type SignatureSection struct {
	Salt       [32]byte
	Hashes     [][HashSize]byte
	Signer     Signer
	Signatures []IndexedSignature
}

// PriorSignature is a signature section already present in a transaction.
type PriorSignature struct {
	Index   uint32
	Section SignatureSection
}
