package signature

import (
	"crypto/ed25519"

	"github.com/weisyn/keyring/pkg/types"
)

// SignEd25519 signs message with a 64-byte ed25519 secret key.
func SignEd25519(privateKey, message []byte) ([]byte, error) {
	if len(privateKey) != ed25519.PrivateKeySize {
		return nil, types.Errorf(types.ErrCrypto, "sign ed25519", "private key must be %d bytes", ed25519.PrivateKeySize)
	}
	return ed25519.Sign(ed25519.PrivateKey(privateKey), message), nil
}

// VerifyEd25519 checks sig over message against a 32-byte public key.
func VerifyEd25519(publicKey, message, sig []byte) bool {
	if len(publicKey) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(publicKey), message, sig)
}
