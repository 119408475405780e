// Package signature signs digests and messages with chain key material:
// recoverable secp256k1 ECDSA, ed25519, and the EVM message conventions built
// on top of them.
package signature

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"github.com/weisyn/keyring/pkg/types"
)

const (
	// DigestLength is the length of a secp256k1 signing digest.
	DigestLength = 32
	// RecoverableSignatureLength is r(32) || s(32) || v(1).
	RecoverableSignatureLength = 65
	// PrivateKeyLength is a secp256k1 scalar.
	PrivateKeyLength = 32

	// compactHeaderBase is the header of a btcec compact signature for an
	// uncompressed key with recovery id 0.
	compactHeaderBase = 27
)

// SignDigest signs a 32-byte digest and returns r || s || v with v in {0, 1}.
// The signature is deterministic (RFC 6979) and low-S.
func SignDigest(privateKey, digest []byte) ([]byte, error) {
	const op = "sign digest"
	if len(digest) != DigestLength {
		return nil, types.Errorf(types.ErrValidation, op, "digest must be %d bytes, got %d", DigestLength, len(digest))
	}
	if len(privateKey) != PrivateKeyLength {
		return nil, types.Errorf(types.ErrCrypto, op, "private key must be %d bytes", PrivateKeyLength)
	}

	priv, pub := btcec.PrivKeyFromBytes(privateKey)
	defer priv.Zero()

	// header || r || s, header = 27 + recovery id
	compact := btcecdsa.SignCompact(priv, digest, false)
	if len(compact) != RecoverableSignatureLength {
		return nil, types.Errorf(types.ErrCrypto, op, "unexpected compact signature length %d", len(compact))
	}
	out := make([]byte, RecoverableSignatureLength)
	copy(out, compact[1:])
	out[64] = compact[0] - compactHeaderBase

	// the recovery id must lead back to the signing key
	recovered, err := RecoverPublicKey(digest, out)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(recovered, pub.SerializeUncompressed()) {
		return nil, types.Errorf(types.ErrCrypto, op, "recovered public key mismatch")
	}
	return out, nil
}

// RecoverPublicKey returns the 65-byte uncompressed key that produced sig over
// digest. v may be 0/1 or 27/28.
func RecoverPublicKey(digest, sig []byte) ([]byte, error) {
	const op = "recover public key"
	if len(digest) != DigestLength {
		return nil, types.Errorf(types.ErrValidation, op, "digest must be %d bytes, got %d", DigestLength, len(digest))
	}
	if len(sig) != RecoverableSignatureLength {
		return nil, types.Errorf(types.ErrValidation, op, "signature must be %d bytes, got %d", RecoverableSignatureLength, len(sig))
	}
	v := sig[64]
	if v >= compactHeaderBase {
		v -= compactHeaderBase
	}
	if v > 3 {
		return nil, types.Errorf(types.ErrValidation, op, "invalid recovery id %d", sig[64])
	}

	compact := make([]byte, RecoverableSignatureLength)
	compact[0] = compactHeaderBase + v
	copy(compact[1:], sig[:64])
	pub, _, err := btcecdsa.RecoverCompact(compact, digest)
	if err != nil {
		return nil, types.NewError(types.ErrCrypto, op, err)
	}
	return pub.SerializeUncompressed(), nil
}

// VerifyDigest checks the r || s part of sig against publicKey. publicKey may
// be compressed or uncompressed SEC1.
func VerifyDigest(publicKey, digest, sig []byte) bool {
	if len(digest) != DigestLength || len(sig) < 64 {
		return false
	}
	pub, err := btcec.ParsePubKey(publicKey)
	if err != nil {
		return false
	}
	var r, s btcec.ModNScalar
	if overflow := r.SetByteSlice(sig[:32]); overflow || r.IsZero() {
		return false
	}
	if overflow := s.SetByteSlice(sig[32:64]); overflow || s.IsZero() {
		return false
	}
	return btcecdsa.NewSignature(&r, &s).Verify(digest, pub)
}

// PublicKeyFromPrivate returns the 65-byte uncompressed public key.
func PublicKeyFromPrivate(privateKey []byte) ([]byte, error) {
	if len(privateKey) != PrivateKeyLength {
		return nil, types.NewError(types.ErrValidation, "public key from private",
			fmt.Errorf("private key must be %d bytes, got %d", PrivateKeyLength, len(privateKey)))
	}
	priv, pub := btcec.PrivKeyFromBytes(privateKey)
	defer priv.Zero()
	return pub.SerializeUncompressed(), nil
}
