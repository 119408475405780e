package address

import (
	"github.com/mr-tron/base58"
)

// SolanaCodec renders the raw ed25519 public key as base58.
type SolanaCodec struct{}

var _ Codec = SolanaCodec{}

// Encode returns base58(publicKey).
func (SolanaCodec) Encode(publicKey []byte) (string, error) {
	if len(publicKey) != Ed25519PublicKeyLength {
		return "", invalidKey("encode solana address", "expected 32-byte ed25519 key, got %d bytes", len(publicKey))
	}
	return base58.Encode(publicKey), nil
}

// Validate checks that addr decodes to 32 bytes.
func (SolanaCodec) Validate(addr string) error {
	raw, err := base58.Decode(addr)
	if err != nil {
		return invalidAddress("validate solana address", ErrInvalidAddress, "base58: %v", err)
	}
	if len(raw) != Ed25519PublicKeyLength {
		return invalidAddress("validate solana address", ErrInvalidAddress, "decoded length %d", len(raw))
	}
	return nil
}

// Equal compares base58 addresses exactly.
func (SolanaCodec) Equal(a, b string) bool { return a == b }
