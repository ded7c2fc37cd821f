package signer

import (
	"crypto/sha256"
	"encoding/binary"
	"hash"

	"github.com/pkg/errors"
	"github.com/suffix-labs/namada-signer/pkg/tx"
	"github.com/suffix-labs/namada-signer/pkg/txerr"
)

// SignedPrefix marks the hash of a signature section that carries its
// signatures and is itself listed by an outer section.
const SignedPrefix byte = 0x03

// Header hash discriminants.
const (
	headerDiscriminant byte = 0x07
	rawHeaderMarker    byte = 0x00
)

// HashSignatureSection hashes sec, preceded by prefix when non-nil:
//
//	SHA-256([prefix] || u32le(#hashes) || hashes || discriminant ||
//	        signer payload || u32le(#sigs) || (slot || tag || sig)*)
//
// PubKeys payload is u32le(#keys) || (tag || key)*; an address signer
// contributes its raw bytes. Unknown tags and mis-sized keys or signatures
// fail with txerr.ErrInvalidSettings.
func HashSignatureSection(sec *tx.SignatureSection, prefix *byte) ([tx.HashSize]byte, error) {
	var out [tx.HashSize]byte
	if sec == nil {
		return out, errors.Wrap(txerr.ErrNoData, "signature section")
	}

	h := sha256.New()
	if prefix != nil {
		h.Write([]byte{*prefix})
	}
	writeU32(h, len(sec.Hashes))
	for _, sh := range sec.Hashes {
		h.Write(sh[:])
	}

	switch s := sec.Signer.(type) {
	case tx.PubKeys:
		h.Write([]byte{s.Discriminant()})
		writeU32(h, len(s.Keys))
		for i, k := range s.Keys {
			size, err := k.Kind.PublicKeySize()
			if err != nil {
				return out, errors.Wrapf(err, "key %d", i)
			}
			if len(k.Key) != size {
				return out, errors.Wrapf(txerr.ErrInvalidSettings, "key %d is %d bytes", i, len(k.Key))
			}
			h.Write([]byte{byte(k.Kind)})
			h.Write(k.Key)
		}
	case tx.AddressSigner:
		h.Write([]byte{s.Discriminant()})
		h.Write(s.Address)
	default:
		return out, errors.Wrapf(txerr.ErrInvalidSettings, "signer %T", s)
	}

	writeU32(h, len(sec.Signatures))
	for i, sig := range sec.Signatures {
		size, err := sig.Kind.SignatureSize()
		if err != nil {
			return out, errors.Wrapf(err, "signature %d", i)
		}
		if len(sig.Sig) != size {
			return out, errors.Wrapf(txerr.ErrInvalidSettings, "signature %d is %d bytes", i, len(sig.Sig))
		}
		h.Write([]byte{sig.Index, byte(sig.Kind)})
		h.Write(sig.Sig)
	}

	copy(out[:], h.Sum(nil))
	return out, nil
}

// HashRawHeader is SHA-256(0x07 || raw || 0x00).
func HashRawHeader(hdr *tx.Header) [tx.HashSize]byte {
	h := sha256.New()
	h.Write([]byte{headerDiscriminant})
	h.Write(hdr.Raw)
	h.Write([]byte{rawHeaderMarker})
	var out [tx.HashSize]byte
	copy(out[:], h.Sum(nil))
	return out
}

// HashFeeHeader is SHA-256(0x07 || ext).
func HashFeeHeader(hdr *tx.Header) [tx.HashSize]byte {
	h := sha256.New()
	h.Write([]byte{headerDiscriminant})
	h.Write(hdr.Ext)
	var out [tx.HashSize]byte
	copy(out[:], h.Sum(nil))
	return out
}

func writeU32(h hash.Hash, n int) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(n))
	h.Write(b[:])
}
