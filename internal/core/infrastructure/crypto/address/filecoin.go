package address

import (
	"bytes"
	"encoding/base32"

	"golang.org/x/crypto/blake2b"

	"github.com/weisyn/keyring/pkg/types"
)

const (
	// FilecoinProtocolSecp256k1 is the protocol byte of f1/t1 addresses.
	FilecoinProtocolSecp256k1 byte = 1

	filecoinPayloadLength  = 20
	filecoinChecksumLength = 4

	MainnetPrefix = "f"
	TestnetPrefix = "t"
)

// filecoinEncoding is RFC 4648 base32, lowercase, no padding.
var filecoinEncoding = base32.NewEncoding("abcdefghijklmnopqrstuvwxyz234567").WithPadding(base32.NoPadding)

// FilecoinCodec encodes secp256k1 protocol addresses for one network.
type FilecoinCodec struct {
	prefix string
}

var _ Codec = FilecoinCodec{}

// NewFilecoinCodec returns a codec emitting "t" addresses on testnet and
// "f" addresses otherwise.
func NewFilecoinCodec(network types.Network) FilecoinCodec {
	if network == types.NetworkTestnet {
		return FilecoinCodec{prefix: TestnetPrefix}
	}
	return FilecoinCodec{prefix: MainnetPrefix}
}

// Prefix returns the network prefix, "f" or "t".
func (c FilecoinCodec) Prefix() string {
	if c.prefix == "" {
		return MainnetPrefix
	}
	return c.prefix
}

// Encode computes prefix + "1" + base32(blake2b-160(key) || blake2b-32(0x01 || payload)).
func (c FilecoinCodec) Encode(publicKey []byte) (string, error) {
	if len(publicKey) != UncompressedPublicKeyLength || publicKey[0] != 0x04 {
		return "", invalidKey("encode filecoin address", "expected 65-byte uncompressed key, got %d bytes", len(publicKey))
	}
	payload := blake2bSum(filecoinPayloadLength, publicKey)
	checksum := filecoinChecksum(payload)
	return c.Prefix() + "1" + filecoinEncoding.EncodeToString(append(payload, checksum...)), nil
}

func filecoinChecksum(payload []byte) []byte {
	return blake2bSum(filecoinChecksumLength, []byte{FilecoinProtocolSecp256k1}, payload)
}

func blake2bSum(size int, parts ...[]byte) []byte {
	h, err := blake2b.New(size, nil)
	if err != nil {
		// only reachable with a size outside 1..64
		panic(err)
	}
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}

// Validate checks prefix, protocol, length and checksum. Either network
// prefix is accepted.
func (c FilecoinCodec) Validate(addr string) error {
	_, err := DecodeFilecoin(addr)
	return err
}

// DecodeFilecoin returns the 20-byte payload of an f1/t1 address.
func DecodeFilecoin(addr string) ([]byte, error) {
	const op = "validate filecoin address"
	if len(addr) < 3 {
		return nil, invalidAddress(op, ErrInvalidAddress, "too short")
	}
	if p := addr[:1]; p != MainnetPrefix && p != TestnetPrefix {
		return nil, invalidAddress(op, ErrInvalidAddress, "unknown network prefix %q", p)
	}
	if addr[1] != '0'+FilecoinProtocolSecp256k1 {
		return nil, invalidAddress(op, ErrInvalidAddress, "unsupported protocol %q", addr[1])
	}
	raw, err := filecoinEncoding.DecodeString(addr[2:])
	if err != nil {
		return nil, invalidAddress(op, ErrInvalidAddress, "base32: %v", err)
	}
	if len(raw) != filecoinPayloadLength+filecoinChecksumLength {
		return nil, invalidAddress(op, ErrInvalidAddress, "payload length %d", len(raw))
	}
	payload, checksum := raw[:filecoinPayloadLength], raw[filecoinPayloadLength:]
	if !bytes.Equal(checksum, filecoinChecksum(payload)) {
		return nil, invalidAddress(op, ErrInvalidChecksum, "%s", addr)
	}
	return payload, nil
}

// Equal compares Filecoin addresses exactly.
func (FilecoinCodec) Equal(a, b string) bool {
	return a == b
}
