package crypto

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/suffix-labs/namada-signer/pkg/txerr"
)

// HDPathLen is the number of components in a device derivation path.
const HDPathLen = 5

// Hardened marks a hardened path component.
const Hardened uint32 = 0x80000000

// SLIP-44 coin types.
const (
	CoinTypeNamada  uint32 = 877
	CoinTypeTestnet uint32 = 1
)

// HDPath is an explicit derivation path, e.g. m/44'/877'/0'/0'/0'.
type HDPath [HDPathLen]uint32

// DefaultHDPath returns m/44'/877'/0'/0'/0'.
func DefaultHDPath() HDPath {
	return HDPath{
		44 | Hardened,
		CoinTypeNamada | Hardened,
		0 | Hardened,
		0 | Hardened,
		0 | Hardened,
	}
}

// ParseHDPath parses "m/44'/877'/0'/0'/0'". Both ' and h mark hardening.
func ParseHDPath(s string) (HDPath, error) {
	var p HDPath
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != HDPathLen+1 || parts[0] != "m" {
		return p, errors.Wrapf(txerr.ErrInvalidSettings, "hd path %q", s)
	}
	for i, part := range parts[1:] {
		hardened := strings.HasSuffix(part, "'") || strings.HasSuffix(part, "h")
		if hardened {
			part = part[:len(part)-1]
		}
		v, err := strconv.ParseUint(part, 10, 31)
		if err != nil {
			return p, errors.Wrapf(txerr.ErrInvalidSettings, "hd path component %d: %v", i, err)
		}
		p[i] = uint32(v)
		if hardened {
			p[i] |= Hardened
		}
	}
	return p, nil
}

// CoinType returns the unhardened SLIP-44 coin type component.
func (p HDPath) CoinType() uint32 {
	return p[1] &^ Hardened
}

// IsTestnet reports whether the path uses the testnet coin type.
func (p HDPath) IsTestnet() bool {
	return p.CoinType() == CoinTypeTestnet
}

// AllHardened reports whether every component is hardened.
func (p HDPath) AllHardened() bool {
	for _, c := range p {
		if c&Hardened == 0 {
			return false
		}
	}
	return true
}

func (p HDPath) String() string {
	var b strings.Builder
	b.WriteString("m")
	for _, c := range p {
		if c&Hardened != 0 {
			fmt.Fprintf(&b, "/%d'", c&^Hardened)
		} else {
			fmt.Fprintf(&b, "/%d", c)
		}
	}
	return b.String()
}
