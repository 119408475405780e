package hdkey

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"fmt"

	"github.com/weisyn/keyring/internal/core/infrastructure/crypto/hdpath"
	"github.com/weisyn/keyring/pkg/types"
)

// SLIP-0010 master key HMAC key for ed25519.
var ed25519SeedKey = []byte("ed25519 seed")

type ed25519Node struct {
	key       [32]byte
	chainCode [32]byte
}

func newEd25519Master(seed []byte) (Node, error) {
	if len(seed) < 16 || len(seed) > 64 {
		return nil, types.Errorf(types.ErrValidation, "new master key", "seed length %d outside 16..64", len(seed))
	}
	mac := hmac.New(sha512.New, ed25519SeedKey)
	mac.Write(seed)
	return splitNode(mac.Sum(nil)), nil
}

func splitNode(sum []byte) *ed25519Node {
	n := &ed25519Node{}
	copy(n.key[:], sum[:32])
	copy(n.chainCode[:], sum[32:])
	for i := range sum {
		sum[i] = 0
	}
	return n
}

func (n *ed25519Node) Curve() types.Curve { return types.CurveEd25519 }

// Derive only supports hardened components; SLIP-0010 defines no public
// derivation for ed25519.
func (n *ed25519Node) Derive(path hdpath.Path) (Node, error) {
	cur := &ed25519Node{key: n.key, chainCode: n.chainCode}
	for i, index := range path {
		if !hdpath.IsHardened(index) {
			cur.Wipe()
			return nil, deriveError(path, i, fmt.Errorf("ed25519 requires hardened index, got %d", index))
		}
		var data [37]byte
		copy(data[1:33], cur.key[:])
		binary.BigEndian.PutUint32(data[33:], index)

		mac := hmac.New(sha512.New, cur.chainCode[:])
		mac.Write(data[:])
		next := splitNode(mac.Sum(nil))
		cur.Wipe()
		for j := range data {
			data[j] = 0
		}
		cur = next
	}
	return cur, nil
}

func (n *ed25519Node) KeyMaterial() (types.KeyMaterial, error) {
	priv := ed25519.NewKeyFromSeed(n.key[:])
	pub := priv.Public().(ed25519.PublicKey)
	return types.KeyMaterial{
		Curve:      types.CurveEd25519,
		PrivateKey: []byte(priv),
		PublicKey:  append([]byte(nil), pub...),
	}, nil
}

func (n *ed25519Node) Wipe() {
	n.key = [32]byte{}
	n.chainCode = [32]byte{}
}
