// Package mnemonic implements BIP39 mnemonic generation, validation and seed
// derivation.
package mnemonic

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"

	"github.com/tyler-smith/go-bip39"
	"golang.org/x/text/unicode/norm"

	"github.com/weisyn/keyring/pkg/types"
)

// Strength is the entropy size in bits.
type Strength int

const (
	Words12 Strength = 128
	Words15 Strength = 160
	Words18 Strength = 192
	Words21 Strength = 224
	Words24 Strength = 256

	// SeedSize is the BIP39 seed length in bytes.
	SeedSize = 64
)

// Valid reports whether s is one of the BIP39 entropy sizes.
func (s Strength) Valid() bool {
	return s >= Words12 && s <= Words24 && s%32 == 0
}

// WordCount returns the number of words a mnemonic of this strength has.
func (s Strength) WordCount() int {
	return int(s) * 33 / 32 / 11
}

// Generator draws entropy from a secure source and encodes it as words.
type Generator struct {
	entropy io.Reader
}

// NewGenerator returns a Generator reading from crypto/rand.
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// NewGeneratorWithReader returns a Generator reading from r. A failing r
// surfaces as an entropy error; it is never replaced by a weaker source.
func NewGeneratorWithReader(r io.Reader) *Generator {
	return &Generator{entropy: r}
}

// Generate returns a new mnemonic of the given strength.
func (g *Generator) Generate(strength Strength) (string, error) {
	const op = "generate mnemonic"
	if !strength.Valid() {
		return "", types.Errorf(types.ErrValidation, op,
			"invalid strength %d, must be 128, 160, 192, 224 or 256", strength)
	}

	entropy := make([]byte, int(strength)/8)
	defer wipe(entropy)
	if _, err := io.ReadFull(g.entropy, entropy); err != nil {
		return "", types.NewError(types.ErrEntropy, op, fmt.Errorf("read secure random source: %w", err))
	}
	return FromEntropy(entropy)
}

// Generate returns a new mnemonic from crypto/rand.
func Generate(strength Strength) (string, error) {
	return NewGenerator().Generate(strength)
}

// FromEntropy encodes 16..32 bytes of entropy (a multiple of 4) as a mnemonic.
func FromEntropy(entropy []byte) (string, error) {
	words, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", types.NewError(types.ErrValidation, "mnemonic from entropy", err)
	}
	return words, nil
}

// Normalize applies NFKD and collapses whitespace to single spaces.
func Normalize(mnemonic string) string {
	return strings.Join(strings.Fields(norm.NFKD.String(mnemonic)), " ")
}

// Validate recomputes the checksum from the words. It never fails loudly.
func Validate(mnemonic string) bool {
	normalized := Normalize(mnemonic)
	if normalized == "" {
		return false
	}
	return bip39.IsMnemonicValid(normalized)
}

// ToSeed derives the 64-byte seed with PBKDF2-HMAC-SHA512, 2048 rounds, over
// the NFKD mnemonic with salt "mnemonic"+passphrase. The mnemonic must be valid.
func ToSeed(mnemonic, passphrase string) ([]byte, error) {
	normalized := Normalize(mnemonic)
	if !bip39.IsMnemonicValid(normalized) {
		return nil, types.Errorf(types.ErrValidation, "mnemonic to seed", "invalid mnemonic")
	}
	return bip39.NewSeed(normalized, norm.NFKD.String(passphrase)), nil
}

// ToEntropy decodes a valid mnemonic back to its entropy bytes.
func ToEntropy(mnemonic string) ([]byte, error) {
	entropy, err := bip39.EntropyFromMnemonic(Normalize(mnemonic))
	if err != nil {
		return nil, types.NewError(types.ErrValidation, "mnemonic to entropy", err)
	}
	return entropy, nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
