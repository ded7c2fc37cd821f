package jubjub

import "sync"

// URS is the uniform random string prepended to every group hash input.
const URS = "096b36a5804bfacef1691e173c366a47ff5ba84a44f26ddd7e8d9f79d5b42df0"

// Group hash personalizations.
const (
	SpendAuthPersonalization       = "Zcash_G_"
	ProofGenPersonalization        = "Zcash_H_"
	ValueCommitPersonalization     = "Zcash_cv"
	DiversifierPersonalization     = "Zcash_gd"
	AssetValuePersonalization      = "MASP__v_"
	AssetIdentifierPersonalization = "MASP__t_"
	IvkPersonalization             = "Zcashivk"
)

// GroupHash is GH(D, M): BLAKE2s-256(D, URS || M) decoded as a point and
// multiplied by the cofactor. ok is false when the digest is not a point or
// the result is the identity.
func GroupHash(personalization string, msg []byte) (Point, bool) {
	digest := Blake2s256(personalization, []byte(URS), msg)
	p, err := Decode(digest)
	if err != nil {
		return Point{}, false
	}
	q := p.MulCofactor()
	if q.IsIdentity() {
		return Point{}, false
	}
	return q, true
}

// FindGroupHash returns GH(D, M || i) for the first byte i that succeeds.
func FindGroupHash(personalization string, msg []byte) (Point, bool) {
	buf := make([]byte, len(msg)+1)
	copy(buf, msg)
	for i := 0; i < 256; i++ {
		buf[len(msg)] = byte(i)
		if p, ok := GroupHash(personalization, buf); ok {
			return p, true
		}
	}
	return Point{}, false
}

var (
	generatorsOnce      sync.Once
	spendAuthBase       Point
	proofGenBase        Point
	valueRandomnessBase Point
)

func initGenerators() {
	var ok bool
	if spendAuthBase, ok = FindGroupHash(SpendAuthPersonalization, nil); !ok {
		panic("jubjub: spend authorization generator")
	}
	if proofGenBase, ok = FindGroupHash(ProofGenPersonalization, nil); !ok {
		panic("jubjub: proof generation generator")
	}
	if valueRandomnessBase, ok = FindGroupHash(ValueCommitPersonalization, []byte("r")); !ok {
		panic("jubjub: value commitment randomness generator")
	}
}

// SpendAuthBase is the spend authorization generator G.
func SpendAuthBase() Point {
	generatorsOnce.Do(initGenerators)
	return spendAuthBase
}

// ProofGenBase is the proof generation key generator H.
func ProofGenBase() Point {
	generatorsOnce.Do(initGenerators)
	return proofGenBase
}

// ValueRandomnessBase is the value commitment randomness generator R.
func ValueRandomnessBase() Point {
	generatorsOnce.Do(initGenerators)
	return valueRandomnessBase
}
