// Package jubjub implements the Jubjub curve operations used by Sapling and
// MASP: the canonical point encoding, group hashing into the prime-order
// subgroup and scalar reduction. Curve arithmetic is delegated to
// gnark-crypto's twisted Edwards implementation over the BLS12-381 scalar
// field.
package jubjub

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/twistededwards"
	"github.com/pkg/errors"
	"github.com/suffix-labs/namada-signer/pkg/txerr"
)

// PointSize is the length of an encoded point.
const PointSize = 32

// ScalarSize is the length of an encoded scalar.
const ScalarSize = 32

// Cofactor is the Jubjub cofactor h_J.
const Cofactor = 8

var curve = twistededwards.GetEdwardsCurve()

// Order returns r_J, the order of the prime-order subgroup.
func Order() *big.Int {
	return new(big.Int).Set(&curve.Order)
}

// Point is an affine Jubjub point.
type Point struct {
	p twistededwards.PointAffine
}

// Identity returns the neutral element (0, 1).
func Identity() Point {
	var pt Point
	pt.p.Y.SetOne()
	return pt
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	var r Point
	r.p.Add(&p.p, &q.p)
	return r
}

// Neg returns -p.
func (p Point) Neg() Point {
	var r Point
	r.p.Neg(&p.p)
	return r
}

// ScalarMul returns [k]p. Negative scalars are accepted.
func (p Point) ScalarMul(k *big.Int) Point {
	var r Point
	r.p.ScalarMultiplication(&p.p, k)
	return r
}

// MulCofactor returns [8]p.
func (p Point) MulCofactor() Point {
	r := p
	for i := 0; i < 3; i++ {
		r.p.Double(&r.p)
	}
	return r
}

// Equal reports whether p and q are the same point.
func (p Point) Equal(q Point) bool {
	return p.p.Equal(&q.p)
}

// IsIdentity reports whether p is the neutral element.
func (p Point) IsIdentity() bool {
	return p.p.IsZero()
}

// IsSmallOrder reports whether [8]p is the identity.
func (p Point) IsSmallOrder() bool {
	return p.MulCofactor().IsIdentity()
}

// Encode returns repr_J(p): v in little-endian with the top bit carrying the
// parity of u.
func (p Point) Encode() [PointSize]byte {
	var out [PointSize]byte
	fr.LittleEndian.PutElement(&out, p.p.Y)
	if p.p.X.Bits()[0]&1 == 1 {
		out[31] |= 0x80
	}
	return out
}

// Decode is abst_J. Non-canonical v, points off the curve and u = 0 with
// the sign bit set are rejected.
func Decode(b [PointSize]byte) (Point, error) {
	var pt Point
	sign := b[31] >> 7
	b[31] &= 0x7f

	y, err := fr.LittleEndian.Element(&b)
	if err != nil {
		return pt, errors.Wrap(txerr.ErrInvalidSettings, "jubjub: non-canonical point encoding")
	}

	// u^2 = (v^2 - 1) / (d*v^2 + 1) for a = -1.
	var one, num, den, x fr.Element
	one.SetOne()
	num.Square(&y)
	den.Mul(&num, &curve.D)
	num.Sub(&num, &one)
	den.Add(&den, &one)
	if den.IsZero() {
		return pt, errors.Wrap(txerr.ErrInvalidSettings, "jubjub: point not on curve")
	}
	x.Div(&num, &den)
	if x.Sqrt(&x) == nil {
		return pt, errors.Wrap(txerr.ErrInvalidSettings, "jubjub: point not on curve")
	}
	if x.IsZero() && sign == 1 {
		return pt, errors.Wrap(txerr.ErrInvalidSettings, "jubjub: invalid sign for u = 0")
	}
	if byte(x.Bits()[0]&1) != sign {
		x.Neg(&x)
	}

	pt.p.X = x
	pt.p.Y = y
	return pt, nil
}

// DecodeSlice decodes a point from the first PointSize bytes of b.
func DecodeSlice(b []byte) (Point, error) {
	if len(b) < PointSize {
		return Point{}, errors.Wrap(txerr.ErrInvalidSettings, "jubjub: short point encoding")
	}
	var arr [PointSize]byte
	copy(arr[:], b)
	return Decode(arr)
}

// ScalarFromWide reduces a little-endian byte string modulo r_J.
func ScalarFromWide(b []byte) *big.Int {
	n := leToInt(b)
	return n.Mod(n, &curve.Order)
}

// ScalarFromBytes parses a canonical little-endian scalar.
func ScalarFromBytes(b [ScalarSize]byte) (*big.Int, error) {
	n := leToInt(b[:])
	if n.Cmp(&curve.Order) >= 0 {
		return nil, errors.Wrap(txerr.ErrInvalidSettings, "jubjub: non-canonical scalar")
	}
	return n, nil
}

// ScalarToBytes writes k mod r_J as 32 little-endian bytes.
func ScalarToBytes(k *big.Int) [ScalarSize]byte {
	n := new(big.Int).Mod(k, &curve.Order)
	var be, out [ScalarSize]byte
	n.FillBytes(be[:])
	for i := range be {
		out[i] = be[ScalarSize-1-i]
	}
	return out
}

// AddScalars returns a + b mod r_J.
func AddScalars(a, b *big.Int) *big.Int {
	n := new(big.Int).Add(a, b)
	return n.Mod(n, &curve.Order)
}

// MulScalars returns a * b mod r_J.
func MulScalars(a, b *big.Int) *big.Int {
	n := new(big.Int).Mul(a, b)
	return n.Mod(n, &curve.Order)
}

func leToInt(b []byte) *big.Int {
	be := make([]byte, len(b))
	for i := range b {
		be[len(b)-1-i] = b[i]
	}
	n := new(big.Int).SetBytes(be)
	for i := range be {
		be[i] = 0
	}
	return n
}
