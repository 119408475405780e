package hdkey

import (
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/weisyn/keyring/internal/core/infrastructure/crypto/hdpath"
	"github.com/weisyn/keyring/pkg/types"
)

type secp256k1Node struct {
	key *hdkeychain.ExtendedKey
}

func newSecp256k1Master(seed []byte) (Node, error) {
	// the network params only affect the xprv serialization, never the keys
	key, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, types.NewError(types.ErrCrypto, "new master key", err)
	}
	return &secp256k1Node{key: key}, nil
}

func (n *secp256k1Node) Curve() types.Curve { return types.CurveSecp256k1 }

func (n *secp256k1Node) Derive(path hdpath.Path) (Node, error) {
	key := n.key
	for i, index := range path {
		child, err := key.Derive(index)
		if err != nil {
			return nil, deriveError(path, i, err)
		}
		key = child
	}
	if len(path) == 0 {
		// hand out a node that can be wiped without touching the receiver
		clone, err := hdkeychain.NewKeyFromString(key.String())
		if err != nil {
			return nil, types.NewError(types.ErrCrypto, "derive key", err)
		}
		key = clone
	}
	return &secp256k1Node{key: key}, nil
}

func (n *secp256k1Node) KeyMaterial() (types.KeyMaterial, error) {
	priv, err := n.key.ECPrivKey()
	if err != nil {
		return types.KeyMaterial{}, types.NewError(types.ErrCrypto, "key material", err)
	}
	return types.KeyMaterial{
		Curve:      types.CurveSecp256k1,
		PrivateKey: priv.Serialize(),
		PublicKey:  priv.PubKey().SerializeUncompressed(),
	}, nil
}

func (n *secp256k1Node) Wipe() {
	n.key.Zero()
}
