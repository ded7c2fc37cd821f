package sapling

import (
	"github.com/capitalone/fpe/ff1"
	"github.com/pkg/errors"
	"github.com/suffix-labs/namada-signer/pkg/txerr"
)

// DiversifierSize is the length of a diversifier: an 88-bit numeral string.
const DiversifierSize = 11

const diversifierBits = DiversifierSize * 8

// FF1 is the diversifier permutation keyed by dk: FF1-AES256 over radix 2
// with an empty tweak.
type FF1 struct {
	cipher ff1.Cipher
}

// NewFF1 keys the permutation with a 32-byte AES-256 key.
func NewFF1(key []byte) (*FF1, error) {
	if len(key) != 32 {
		return nil, errors.Wrapf(txerr.ErrInvalidSettings, "ff1 key length %d", len(key))
	}
	c, err := ff1.NewCipher(2, 0, key, nil)
	if err != nil {
		return nil, errors.Wrap(txerr.ErrUnknown, err.Error())
	}
	return &FF1{cipher: c}, nil
}

// Encrypt permutes an 88-bit diversifier index.
func (f *FF1) Encrypt(in [DiversifierSize]byte) ([DiversifierSize]byte, error) {
	out, err := f.cipher.Encrypt(toNumerals(in))
	if err != nil {
		return [DiversifierSize]byte{}, errors.Wrap(txerr.ErrUnknown, err.Error())
	}
	return fromNumerals(out)
}

// Decrypt inverts Encrypt.
func (f *FF1) Decrypt(in [DiversifierSize]byte) ([DiversifierSize]byte, error) {
	out, err := f.cipher.Decrypt(toNumerals(in))
	if err != nil {
		return [DiversifierSize]byte{}, errors.Wrap(txerr.ErrUnknown, err.Error())
	}
	return fromNumerals(out)
}

// Numeral k is bit k%8 of byte k/8, least significant bit first.
func toNumerals(in [DiversifierSize]byte) string {
	s := make([]byte, diversifierBits)
	for k := range s {
		s[k] = '0' + in[k/8]>>(k%8)&1
	}
	return string(s)
}

func fromNumerals(s string) ([DiversifierSize]byte, error) {
	var out [DiversifierSize]byte
	if len(s) != diversifierBits {
		return out, errors.Wrapf(txerr.ErrUnknown, "ff1 output length %d", len(s))
	}
	for k := 0; k < diversifierBits; k++ {
		switch s[k] {
		case '0':
		case '1':
			out[k/8] |= 1 << (k % 8)
		default:
			return [DiversifierSize]byte{}, errors.Wrapf(txerr.ErrUnknown, "ff1 numeral %q", s[k])
		}
	}
	return out, nil
}
