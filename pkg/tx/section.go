// Package tx holds the parsed Namada transaction consumed by the signer:
// typed sections, signature sections, the transaction kind and the optional
// MASP payload. Parsing raw transaction bytes happens outside this module;
// Load reads the already-parsed form from a JSON document.
package tx

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/pkg/errors"
	"github.com/suffix-labs/namada-signer/pkg/txerr"
)

// HashSize is the length of every section hash.
const HashSize = sha256.Size

// SectionKind is the discriminant of a transaction section.
type SectionKind byte

const (
	SectionData SectionKind = iota
	SectionExtraData
	SectionCode
	SectionSignature
	SectionMaspTx
	SectionMaspBuilder
	SectionHeader
)

func (k SectionKind) String() string {
	switch k {
	case SectionData:
		return "data"
	case SectionExtraData:
		return "extra_data"
	case SectionCode:
		return "code"
	case SectionSignature:
		return "signature"
	case SectionMaspTx:
		return "masp_tx"
	case SectionMaspBuilder:
		return "masp_builder"
	case SectionHeader:
		return "header"
	default:
		return "unknown"
	}
}

// Section is one section of a parsed transaction. Index is its position in
// the transaction and doubles as its origin index in signature sections.
type Section struct {
	Index uint32      `json:"index"`
	Kind  SectionKind `json:"kind"`
	Raw   Hex         `json:"raw"`
}

// Hash returns SHA-256(kind || raw).
func (s *Section) Hash() [HashSize]byte {
	h := sha256.New()
	h.Write([]byte{byte(s.Kind)})
	h.Write(s.Raw)
	var out [HashSize]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Hex is a byte string carried as hex text in documents.
type Hex []byte

func (h Hex) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(h)), nil
}

func (h *Hex) UnmarshalText(text []byte) error {
	b, err := hex.DecodeString(string(text))
	if err != nil {
		return errors.Wrap(txerr.ErrInvalidSettings, err.Error())
	}
	*h = b
	return nil
}

// Hash is a 32-byte digest carried as hex text in documents.
type Hash [HashSize]byte

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(h[:])), nil
}

func (h *Hash) UnmarshalText(text []byte) error {
	b, err := hex.DecodeString(string(text))
	if err != nil || len(b) != HashSize {
		return errors.Wrapf(txerr.ErrInvalidSettings, "hash %q", text)
	}
	copy(h[:], b)
	return nil
}
