// Package hdpath parses BIP32/BIP44 derivation paths and the per-chain path
// templates that carry one {index} placeholder.
package hdpath

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/weisyn/keyring/pkg/types"
)

const (
	// HardenedOffset is added to a component index to mark it hardened.
	HardenedOffset uint32 = 0x80000000

	// BIP44Purpose is the purpose component of BIP44 paths.
	BIP44Purpose uint32 = 44

	// IndexPlaceholder marks the account index component of a template.
	IndexPlaceholder = "{index}"
)

// SLIP-0044 coin types.
const (
	CoinTypeTestnet  uint32 = 1
	CoinTypeEthereum uint32 = 60
	CoinTypeFilecoin uint32 = 461
	CoinTypeSolana   uint32 = 501
)

// Default templates per chain.
const (
	EVMTemplate             = "m/44'/60'/0'/0/{index}"
	FilecoinMainnetTemplate = "m/44'/461'/0'/0/{index}"
	FilecoinTestnetTemplate = "m/44'/1'/0'/0/{index}"
	SolanaTemplate          = "m/44'/501'/{index}'/0'"
)

// Path is an ordered list of BIP32 child indices; hardened components carry
// HardenedOffset.
type Path []uint32

// Parse parses "m/44'/60'/0'/0/0". The leading "m/" is optional; ', h and H
// all mark a hardened component.
func Parse(s string) (Path, error) {
	parts, err := splitPath(s)
	if err != nil {
		return nil, err
	}
	path := make(Path, 0, len(parts))
	for i, part := range parts {
		c, err := parseComponent(part)
		if err != nil {
			return nil, types.Errorf(types.ErrValidation, "parse derivation path", "component %d: %v", i, err)
		}
		path = append(path, c)
	}
	return path, nil
}

func splitPath(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "m" || s == "M":
		return nil, nil
	case strings.HasPrefix(s, "m/") || strings.HasPrefix(s, "M/"):
		s = s[2:]
	}
	if s == "" {
		return nil, types.Errorf(types.ErrValidation, "parse derivation path", "empty path")
	}
	return strings.Split(s, "/"), nil
}

func parseComponent(component string) (uint32, error) {
	hardened := false
	if n := len(component); n > 0 {
		switch component[n-1] {
		case '\'', 'h', 'H':
			hardened = true
			component = component[:n-1]
		}
	}
	value, err := strconv.ParseUint(component, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", component)
	}
	if uint32(value) >= HardenedOffset {
		return 0, fmt.Errorf("index %d out of range", value)
	}
	if hardened {
		return uint32(value) + HardenedOffset, nil
	}
	return uint32(value), nil
}

// IsHardened reports whether component c is hardened.
func IsHardened(c uint32) bool { return c >= HardenedOffset }

// String renders the path with ' as the hardened marker.
func (p Path) String() string {
	var b strings.Builder
	b.WriteString("m")
	for _, c := range p {
		b.WriteByte('/')
		if IsHardened(c) {
			b.WriteString(strconv.FormatUint(uint64(c-HardenedOffset), 10))
			b.WriteByte('\'')
		} else {
			b.WriteString(strconv.FormatUint(uint64(c), 10))
		}
	}
	return b.String()
}

// CoinType returns the unhardened second component of a BIP44 path.
func (p Path) CoinType() (uint32, bool) {
	if len(p) < 2 || p[0] != BIP44Purpose+HardenedOffset {
		return 0, false
	}
	return p[1] &^ HardenedOffset, true
}

// AllHardened reports whether every component is hardened, which ed25519
// derivation requires.
func (p Path) AllHardened() bool {
	for _, c := range p {
		if !IsHardened(c) {
			return false
		}
	}
	return true
}

// Template is a derivation path with exactly one {index} component. The
// components before it form the root path that is derived once; the index
// and the components after it are derived per account.
type Template struct {
	raw           string
	prefix        Path
	indexHardened bool
	suffix        Path
}

// ParseTemplate parses a template such as "m/44'/501'/{index}'/0'".
func ParseTemplate(s string) (*Template, error) {
	const op = "parse path template"
	parts, err := splitPath(s)
	if err != nil {
		return nil, err
	}

	t := &Template{raw: strings.TrimSpace(s)}
	seen := false
	for i, part := range parts {
		if strings.HasPrefix(part, IndexPlaceholder) {
			if seen {
				return nil, types.Errorf(types.ErrValidation, op, "more than one %s component", IndexPlaceholder)
			}
			switch rest := strings.TrimPrefix(part, IndexPlaceholder); rest {
			case "":
			case "'", "h", "H":
				t.indexHardened = true
			default:
				return nil, types.Errorf(types.ErrValidation, op, "component %d: invalid suffix %q", i, rest)
			}
			seen = true
			continue
		}
		c, err := parseComponent(part)
		if err != nil {
			return nil, types.Errorf(types.ErrValidation, op, "component %d: %v", i, err)
		}
		if seen {
			t.suffix = append(t.suffix, c)
		} else {
			t.prefix = append(t.prefix, c)
		}
	}
	if !seen {
		return nil, types.Errorf(types.ErrValidation, op, "missing %s component in %q", IndexPlaceholder, s)
	}
	return t, nil
}

// MustParseTemplate is ParseTemplate for compile-time constants.
func MustParseTemplate(s string) *Template {
	t, err := ParseTemplate(s)
	if err != nil {
		panic(err)
	}
	return t
}

// String returns the template as written.
func (t *Template) String() string { return t.raw }

// Root returns the fixed prefix applied to the seed once.
func (t *Template) Root() Path { return append(Path(nil), t.prefix...) }

// Relative returns the components applied to the root key for index.
func (t *Template) Relative(index uint32) (Path, error) {
	if index >= HardenedOffset {
		return nil, types.Errorf(types.ErrValidation, "derive path", "account index %d out of range", index)
	}
	c := index
	if t.indexHardened {
		c += HardenedOffset
	}
	out := make(Path, 0, 1+len(t.suffix))
	out = append(out, c)
	return append(out, t.suffix...), nil
}

// Account returns the full path for index.
func (t *Template) Account(index uint32) (Path, error) {
	rel, err := t.Relative(index)
	if err != nil {
		return nil, err
	}
	return append(t.Root(), rel...), nil
}

// CoinType returns the coin type of the template's root, if it is BIP44.
func (t *Template) CoinType() (uint32, bool) {
	return t.prefix.CoinType()
}

// Hardened reports whether the template's components are all hardened.
func (t *Template) Hardened() bool {
	return t.indexHardened && t.prefix.AllHardened() && t.suffix.AllHardened()
}
