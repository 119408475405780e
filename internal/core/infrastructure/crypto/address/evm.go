package address

import (
	"encoding/hex"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// EVMCodec renders EIP-55 mixed-case checksummed hex addresses.
type EVMCodec struct{}

var _ Codec = EVMCodec{}

// Encode takes the last 20 bytes of keccak256 over the 64-byte X||Y key.
func (EVMCodec) Encode(publicKey []byte) (string, error) {
	raw, err := evmKeyBytes(publicKey)
	if err != nil {
		return "", err
	}
	hash := crypto.Keccak256(raw)
	return ToChecksumAddress(hex.EncodeToString(hash[12:]))
}

func evmKeyBytes(publicKey []byte) ([]byte, error) {
	switch {
	case len(publicKey) == UncompressedPublicKeyLength && publicKey[0] == 0x04:
		return publicKey[1:], nil
	case len(publicKey) == UncompressedPublicKeyLength-1:
		return publicKey, nil
	default:
		return nil, invalidKey("encode evm address", "expected 65-byte uncompressed key, got %d bytes", len(publicKey))
	}
}

// ToChecksumAddress applies EIP-55: hex digit k is uppercased iff nibble k of
// keccak256(lowercase hex) is 8 or more.
func ToChecksumAddress(addr string) (string, error) {
	lower := strings.ToLower(stripHexPrefix(addr))
	if len(lower) != 40 {
		return "", invalidAddress("checksum evm address", ErrInvalidAddress, "expected 40 hex digits, got %d", len(lower))
	}
	if _, err := hex.DecodeString(lower); err != nil {
		return "", invalidAddress("checksum evm address", ErrInvalidAddress, "not hex")
	}

	hash := crypto.Keccak256([]byte(lower))
	out := []byte(lower)
	for i, c := range out {
		if c < 'a' || c > 'f' {
			continue
		}
		nibble := hash[i/2]
		if i%2 == 0 {
			nibble >>= 4
		} else {
			nibble &= 0x0f
		}
		if nibble >= 8 {
			out[i] = c - 'a' + 'A'
		}
	}
	return "0x" + string(out), nil
}

// Validate accepts all-lowercase and all-uppercase addresses as unchecksummed;
// mixed case must match the EIP-55 checksum.
func (EVMCodec) Validate(addr string) error {
	body := stripHexPrefix(addr)
	if len(body) == len(addr) {
		return invalidAddress("validate evm address", ErrInvalidAddress, "missing 0x prefix")
	}
	checksummed, err := ToChecksumAddress(addr)
	if err != nil {
		return err
	}
	if body == strings.ToLower(body) || body == strings.ToUpper(body) {
		return nil
	}
	if body != checksummed[2:] {
		return invalidAddress("validate evm address", ErrInvalidChecksum, "%s", addr)
	}
	return nil
}

// Equal compares hex addresses case-insensitively.
func (EVMCodec) Equal(a, b string) bool {
	return strings.EqualFold(stripHexPrefix(a), stripHexPrefix(b))
}

// stripHexPrefix removes one leading 0x or 0X.
func stripHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
