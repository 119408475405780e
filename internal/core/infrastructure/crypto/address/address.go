// Package address encodes public keys as chain-native address strings and
// validates those strings.
package address

import (
	"errors"
	"fmt"

	keyringintf "github.com/weisyn/keyring/pkg/interfaces/keyring"
	"github.com/weisyn/keyring/pkg/types"
)

const (
	// UncompressedPublicKeyLength is a SEC1 uncompressed secp256k1 key with
	// its 0x04 prefix.
	UncompressedPublicKeyLength = 65

	// Ed25519PublicKeyLength is a raw ed25519 public key.
	Ed25519PublicKeyLength = 32
)

var (
	// ErrInvalidPublicKey public key has the wrong length or format.
	ErrInvalidPublicKey = errors.New("invalid public key format")
	// ErrInvalidAddress address does not parse for the chain.
	ErrInvalidAddress = errors.New("invalid address format")
	// ErrInvalidChecksum address parses but its checksum does not match.
	ErrInvalidChecksum = errors.New("invalid checksum")
)

// Codec maps public keys to addresses for one chain.
type Codec = keyringintf.Codec

// ForChain returns the codec for chain. network only matters for Filecoin.
func ForChain(chain types.Chain, network types.Network) (Codec, error) {
	switch chain {
	case types.ChainEVM:
		return EVMCodec{}, nil
	case types.ChainFilecoin:
		return NewFilecoinCodec(network), nil
	case types.ChainSolana:
		return SolanaCodec{}, nil
	default:
		return nil, types.Errorf(types.ErrValidation, "address codec", "unknown chain %q", chain)
	}
}

func invalidKey(op string, format string, args ...interface{}) error {
	return types.NewError(types.ErrValidation, op, fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidPublicKey}, args...)...))
}

func invalidAddress(op string, cause error, format string, args ...interface{}) error {
	return types.NewError(types.ErrValidation, op, fmt.Errorf("%w: "+format, append([]interface{}{cause}, args...)...))
}
