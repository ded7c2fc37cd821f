package signer

import (
	"github.com/pkg/errors"
	"github.com/suffix-labs/namada-signer/pkg/txerr"
)

// Response field sizes.
const (
	TaggedPubKeySize    = 1 + 32
	SaltSize            = 32
	TaggedSignatureSize = 1 + 64
)

// Response field offsets.
const (
	PubKeyOffset           = 0
	SaltOffset             = PubKeyOffset + TaggedPubKeySize
	RawSignatureOffset     = SaltOffset + SaltSize
	WrapperSignatureOffset = RawSignatureOffset + TaggedSignatureSize
	IndicesOffset          = WrapperSignatureOffset + TaggedSignatureSize
)

// MinResponseSize covers both index lists at full capacity.
const MinResponseSize = IndicesOffset + 2*(1+MaxHashes)

// Response is the output of Sign:
//
//	tag || pubkey (33) | salt (32) | tag || raw sig (65) |
//	tag || wrapper sig (65) | n || raw indices (n) | m || final indices (m)
type Response struct {
	PubKey           [TaggedPubKeySize]byte
	Salt             [SaltSize]byte
	RawSignature     [TaggedSignatureSize]byte
	WrapperSignature [TaggedSignatureSize]byte
	RawIndices       []byte
	FinalIndices     []byte
}

// Size is the number of bytes MarshalTo writes.
func (r *Response) Size() int {
	return IndicesOffset + 1 + len(r.RawIndices) + 1 + len(r.FinalIndices)
}

// MarshalTo writes r to the front of out and returns the bytes written.
func (r *Response) MarshalTo(out []byte) (int, error) {
	if len(r.RawIndices) > MaxHashes || len(r.FinalIndices) > MaxHashes {
		return 0, errors.Wrap(txerr.ErrCapacityExceeded, "index list")
	}
	size := r.Size()
	if len(out) < size {
		return 0, errors.Wrapf(txerr.ErrBufferTooSmall, "need %d bytes, have %d", size, len(out))
	}

	copy(out[PubKeyOffset:], r.PubKey[:])
	copy(out[SaltOffset:], r.Salt[:])
	copy(out[RawSignatureOffset:], r.RawSignature[:])
	copy(out[WrapperSignatureOffset:], r.WrapperSignature[:])

	off := IndicesOffset
	out[off] = byte(len(r.RawIndices))
	off += 1 + copy(out[off+1:], r.RawIndices)
	out[off] = byte(len(r.FinalIndices))
	off += 1 + copy(out[off+1:], r.FinalIndices)
	return off, nil
}

// ParseResponse is the inverse of MarshalTo. Bytes past the final index
// list are ignored.
func ParseResponse(b []byte) (*Response, error) {
	r := &Response{}
	if len(b) < IndicesOffset+2 {
		return nil, errors.Wrapf(txerr.ErrInvalidSettings, "response of %d bytes", len(b))
	}
	copy(r.PubKey[:], b[PubKeyOffset:])
	copy(r.Salt[:], b[SaltOffset:])
	copy(r.RawSignature[:], b[RawSignatureOffset:])
	copy(r.WrapperSignature[:], b[WrapperSignatureOffset:])

	rest := b[IndicesOffset:]
	var err error
	if r.RawIndices, rest, err = readIndices(rest); err != nil {
		return nil, errors.Wrap(err, "raw indices")
	}
	if r.FinalIndices, _, err = readIndices(rest); err != nil {
		return nil, errors.Wrap(err, "final indices")
	}
	return r, nil
}

func readIndices(b []byte) ([]byte, []byte, error) {
	if len(b) < 1 {
		return nil, nil, txerr.ErrInvalidSettings
	}
	n := int(b[0])
	if n > MaxHashes || len(b) < 1+n {
		return nil, nil, errors.Wrapf(txerr.ErrInvalidSettings, "%d indices", n)
	}
	return append([]byte{}, b[1:1+n]...), b[1+n:], nil
}
