package masp

import (
	"crypto/rand"
	"io"

	"github.com/pkg/errors"
	"github.com/suffix-labs/namada-signer/pkg/crypto"
	"github.com/suffix-labs/namada-signer/pkg/jubjub"
	"github.com/suffix-labs/namada-signer/pkg/store"
	"github.com/suffix-labs/namada-signer/pkg/txerr"
	"go.uber.org/zap"
	"golang.org/x/crypto/chacha20"
)

// Randomness response sizes.
const (
	SpendRandomnessSize   = 2 * jubjub.ScalarSize // rcv || alpha
	OutputRandomnessSize  = 2 * jubjub.ScalarSize // rcv || rcm
	ConvertRandomnessSize = jubjub.ScalarSize     // rcv
)

// wideScalarSize is the number of random bytes reduced into each scalar.
const wideScalarSize = 64

// SystemSource returns the operating system's secure random source.
func SystemSource() io.Reader {
	return rand.Reader
}

// deterministicSource is a ChaCha20 keystream with an all-zero nonce.
type deterministicSource struct {
	c *chacha20.Cipher
}

// NewDeterministicSource returns a reproducible byte stream for tests and
// fixture generation. It must never back a production device.
func NewDeterministicSource(seed [32]byte) (io.Reader, error) {
	var nonce [chacha20.NonceSize]byte
	c, err := chacha20.NewUnauthenticatedCipher(seed[:], nonce[:])
	if err != nil {
		return nil, errors.Wrap(txerr.ErrInvalidSettings, err.Error())
	}
	return &deterministicSource{c: c}, nil
}

func (d *deterministicSource) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	d.c.XORKeyStream(p, p)
	return len(p), nil
}

// RandomnessGenerator draws per-item scalars and records them in the item
// store.
type RandomnessGenerator struct {
	items  store.ItemStore
	rng    io.Reader
	logger *zap.Logger
}

// NewRandomnessGenerator draws scalars from rng and records them in items.
func NewRandomnessGenerator(items store.ItemStore, rng io.Reader, logger *zap.Logger) *RandomnessGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RandomnessGenerator{items: items, rng: rng, logger: logger}
}

// RandomnessSize returns the response length for kind.
func RandomnessSize(kind store.ItemKind) (int, error) {
	switch kind {
	case store.KindSpend:
		return SpendRandomnessSize, nil
	case store.KindOutput:
		return OutputRandomnessSize, nil
	case store.KindConvert:
		return ConvertRandomnessSize, nil
	default:
		return 0, errors.Wrapf(txerr.ErrInvalidSettings, "item kind %d", kind)
	}
}

func (g *RandomnessGenerator) scalar() ([jubjub.ScalarSize]byte, error) {
	var wide [wideScalarSize]byte
	defer crypto.Wipe(wide[:])
	if _, err := io.ReadFull(g.rng, wide[:]); err != nil {
		return [jubjub.ScalarSize]byte{}, errors.Wrap(txerr.ErrUnknown, err.Error())
	}
	k := jubjub.ScalarFromWide(wide[:])
	defer crypto.WipeInt(k)
	return jubjub.ScalarToBytes(k), nil
}

// Compute generates the randomness of one new item, records it and writes
// it to out. On failure out is zeroed and nothing is recorded.
func (g *RandomnessGenerator) Compute(kind store.ItemKind, out []byte) (n int, err error) {
	size, err := RandomnessSize(kind)
	if err != nil {
		return 0, err
	}
	if len(out) < size {
		return 0, errors.Wrapf(txerr.ErrBufferTooSmall, "need %d bytes", size)
	}
	defer func() {
		if err != nil {
			crypto.Wipe(out)
		}
	}()

	first, err := g.scalar()
	if err != nil {
		return 0, err
	}
	defer crypto.Wipe32(&first)

	var second [jubjub.ScalarSize]byte
	defer crypto.Wipe32(&second)
	if kind != store.KindConvert {
		if second, err = g.scalar(); err != nil {
			return 0, err
		}
	}

	switch kind {
	case store.KindSpend:
		err = g.items.AppendSpend(store.SpendItem{Rcv: first, Alpha: second})
	case store.KindOutput:
		err = g.items.AppendOutput(store.OutputItem{Rcv: first, Rcm: second})
	case store.KindConvert:
		err = g.items.AppendConvert(store.ConvertItem{Rcv: first})
	}
	if err != nil {
		return 0, err
	}

	copy(out, first[:])
	if kind != store.KindConvert {
		copy(out[jubjub.ScalarSize:], second[:])
	}
	g.logger.Debug("randomness generated", zap.Stringer("kind", kind))
	return size, nil
}
