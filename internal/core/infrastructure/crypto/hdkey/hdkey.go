// Package hdkey derives hierarchical deterministic key nodes from a BIP39 seed:
// BIP32 for secp256k1 and SLIP-0010 for ed25519.
package hdkey

import (
	"fmt"

	"github.com/weisyn/keyring/internal/core/infrastructure/crypto/hdpath"
	"github.com/weisyn/keyring/pkg/types"
)

// Node is a private extended key at some position of the tree.
type Node interface {
	// Curve returns the curve the node's key lives on.
	Curve() types.Curve

	// Derive walks path from this node and returns the resulting node. The
	// receiver is left untouched.
	Derive(path hdpath.Path) (Node, error)

	// KeyMaterial returns a fresh copy of the node's key pair.
	KeyMaterial() (types.KeyMaterial, error)

	// Wipe zeroes the node's private key and chain code.
	Wipe()
}

// NewMaster builds the master node for curve from seed.
func NewMaster(curve types.Curve, seed []byte) (Node, error) {
	switch curve {
	case types.CurveSecp256k1:
		return newSecp256k1Master(seed)
	case types.CurveEd25519:
		return newEd25519Master(seed)
	default:
		return nil, types.Errorf(types.ErrValidation, "new master key", "unsupported curve %q", curve)
	}
}

// DeriveKeyMaterial derives path from seed in one step.
func DeriveKeyMaterial(curve types.Curve, seed []byte, path hdpath.Path) (types.KeyMaterial, error) {
	master, err := NewMaster(curve, seed)
	if err != nil {
		return types.KeyMaterial{}, err
	}
	defer master.Wipe()

	child, err := master.Derive(path)
	if err != nil {
		return types.KeyMaterial{}, err
	}
	defer child.Wipe()
	return child.KeyMaterial()
}

func deriveError(path hdpath.Path, step int, err error) error {
	return types.NewError(types.ErrCrypto, "derive key",
		fmt.Errorf("component %d of %d: %w", step, len(path), err))
}
