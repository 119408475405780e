package signature

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/nacl/box"

	"github.com/weisyn/keyring/pkg/types"
)

// EncryptionVersion is the only scheme eth_decryptMessage understands.
const EncryptionVersion = "x25519-xsalsa20-poly1305"

// EncryptedData is the eth_decryptMessage payload. Byte fields are base64.
type EncryptedData struct {
	Version        string `json:"version"`
	Nonce          string `json:"nonce"`
	EphemPublicKey string `json:"ephemPublicKey"`
	Ciphertext     string `json:"ciphertext"`
}

// EncryptionPublicKey returns the base64 x25519 public key for a secp256k1
// private key, which doubles as the x25519 secret.
func EncryptionPublicKey(privateKey []byte) (string, error) {
	if len(privateKey) != curve25519.ScalarSize {
		return "", types.Errorf(types.ErrCrypto, "encryption public key", "private key must be %d bytes", curve25519.ScalarSize)
	}
	pub, err := curve25519.X25519(privateKey, curve25519.Basepoint)
	if err != nil {
		return "", types.NewError(types.ErrCrypto, "encryption public key", err)
	}
	return base64.StdEncoding.EncodeToString(pub), nil
}

// Encrypt seals plaintext to a base64 encryption public key with a fresh
// ephemeral key pair.
func Encrypt(recipientPublicKey string, plaintext []byte) (*EncryptedData, error) {
	return encryptWithRand(rand.Reader, recipientPublicKey, plaintext)
}

func encryptWithRand(random io.Reader, recipientPublicKey string, plaintext []byte) (*EncryptedData, error) {
	const op = "encrypt message"
	recipient, err := decode32(recipientPublicKey)
	if err != nil {
		return nil, types.NewError(types.ErrValidation, op, fmt.Errorf("recipient public key: %w", err))
	}
	ephemPub, ephemPriv, err := box.GenerateKey(random)
	if err != nil {
		return nil, types.NewError(types.ErrEntropy, op, err)
	}
	var nonce [24]byte
	if _, err := io.ReadFull(random, nonce[:]); err != nil {
		return nil, types.NewError(types.ErrEntropy, op, err)
	}
	sealed := box.Seal(nil, plaintext, &nonce, recipient, ephemPriv)
	return &EncryptedData{
		Version:        EncryptionVersion,
		Nonce:          base64.StdEncoding.EncodeToString(nonce[:]),
		EphemPublicKey: base64.StdEncoding.EncodeToString(ephemPub[:]),
		Ciphertext:     base64.StdEncoding.EncodeToString(sealed),
	}, nil
}

// Decrypt opens an eth_decryptMessage payload given as JSON.
func Decrypt(privateKey, payload []byte) ([]byte, error) {
	const op = "decrypt message"
	var data EncryptedData
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, types.NewError(types.ErrValidation, op, err)
	}
	if data.Version != EncryptionVersion {
		return nil, types.Errorf(types.ErrValidation, op, "unsupported encryption version %q", data.Version)
	}
	if len(privateKey) != 32 {
		return nil, types.Errorf(types.ErrCrypto, op, "private key must be 32 bytes")
	}

	nonceBytes, err := base64.StdEncoding.DecodeString(data.Nonce)
	if err != nil || len(nonceBytes) != 24 {
		return nil, types.Errorf(types.ErrValidation, op, "nonce must be 24 base64 bytes")
	}
	ephemPub, err := decode32(data.EphemPublicKey)
	if err != nil {
		return nil, types.NewError(types.ErrValidation, op, fmt.Errorf("ephemeral public key: %w", err))
	}
	ciphertext, err := base64.StdEncoding.DecodeString(data.Ciphertext)
	if err != nil {
		return nil, types.NewError(types.ErrValidation, op, fmt.Errorf("ciphertext: %w", err))
	}

	var nonce [24]byte
	copy(nonce[:], nonceBytes)
	var secret [32]byte
	copy(secret[:], privateKey)
	defer func() { secret = [32]byte{} }()

	plaintext, ok := box.Open(nil, ciphertext, &nonce, ephemPub, &secret)
	if !ok {
		return nil, types.NewError(types.ErrDecryption, op, nil)
	}
	return plaintext, nil
}

func decode32(s string) (*[32]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("expected 32 bytes, got %d", len(raw))
	}
	var out [32]byte
	copy(out[:], raw)
	return &out, nil
}
