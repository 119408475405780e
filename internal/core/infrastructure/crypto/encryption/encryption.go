// Package encryption implements the password-based state encryptor: PBKDF2
// key derivation, AES-256-CBC with PKCS#7 padding and, for current envelopes,
// an HMAC-SHA256 tag over iv || ciphertext.
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"

	"github.com/weisyn/keyring/pkg/types"
)

const (
	// CurrentVersion is written by Encrypt.
	CurrentVersion = 2

	// KDFPBKDF2SHA256 is the key derivation of version 2 envelopes.
	KDFPBKDF2SHA256 = "pbkdf2-sha256"
	// KDFLegacy names the unversioned envelope parameters. Decrypt only.
	KDFLegacy = "pbkdf2-sha1-legacy"

	DefaultIterations = 600000
	DefaultSaltSize   = 32
	MinIterations     = 5000
	MinSaltSize       = 16

	// maxIterations caps the work an envelope can ask Decrypt to do.
	maxIterations = 10000000

	legacyIterations = 5000
	ivSize           = aes.BlockSize
	aesKeySize       = 32
	macKeySize       = 32
)

var (
	// ErrEmptyPassword the password is empty.
	ErrEmptyPassword = errors.New("password must not be empty")
	// errDecrypt is the only cause Decrypt reports, whatever went wrong.
	errDecrypt = errors.New("incorrect password or corrupted envelope")
)

// Options tunes envelopes produced by Encrypt.
type Options struct {
	Iterations int
	SaltSize   int
}

// DefaultOptions returns the version 2 defaults.
func DefaultOptions() Options {
	return Options{Iterations: DefaultIterations, SaltSize: DefaultSaltSize}
}

// Validate enforces the iteration and salt floors.
func (o Options) Validate() error {
	if o.Iterations < MinIterations {
		return types.Errorf(types.ErrValidation, "encryptor options", "iterations %d below minimum %d", o.Iterations, MinIterations)
	}
	if o.Iterations > maxIterations {
		return types.Errorf(types.ErrValidation, "encryptor options", "iterations %d above maximum %d", o.Iterations, maxIterations)
	}
	if o.SaltSize < MinSaltSize {
		return types.Errorf(types.ErrValidation, "encryptor options", "salt size %d below minimum %d", o.SaltSize, MinSaltSize)
	}
	return nil
}

// Encryptor encrypts and decrypts serialized keyring state under a password.
// It holds no secrets and is safe for concurrent use.
type Encryptor struct {
	opts   Options
	random io.Reader
}

// New returns an Encryptor producing envelopes with opts.
func New(opts Options) (*Encryptor, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Encryptor{opts: opts, random: rand.Reader}, nil
}

// WithRandom returns a copy drawing salts and IVs from r.
func (e *Encryptor) WithRandom(r io.Reader) *Encryptor {
	return &Encryptor{opts: e.opts, random: r}
}

// Options returns the envelope parameters.
func (e *Encryptor) Options() Options { return e.opts }

// Encrypt seals plaintext into a version 2 envelope.
func (e *Encryptor) Encrypt(password string, plaintext []byte) (*types.EncryptedEnvelope, error) {
	const op = "encrypt state"
	if password == "" {
		return nil, types.NewError(types.ErrValidation, op, ErrEmptyPassword)
	}

	salt := make([]byte, e.opts.SaltSize)
	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(e.random, salt); err != nil {
		return nil, types.NewError(types.ErrEntropy, op, fmt.Errorf("salt: %w", err))
	}
	if _, err := io.ReadFull(e.random, iv); err != nil {
		return nil, types.NewError(types.ErrEntropy, op, fmt.Errorf("iv: %w", err))
	}

	encKey, macKey := deriveKeys(password, salt, e.opts.Iterations)
	defer wipe(encKey)
	defer wipe(macKey)

	ciphertext, err := encryptCBC(encKey, iv, plaintext)
	if err != nil {
		return nil, types.NewError(types.ErrCrypto, op, err)
	}
	return &types.EncryptedEnvelope{
		Version:    CurrentVersion,
		KDF:        KDFPBKDF2SHA256,
		Iterations: e.opts.Iterations,
		Salt:       hex.EncodeToString(salt),
		IV:         hex.EncodeToString(iv),
		Data:       base64.StdEncoding.EncodeToString(ciphertext),
		MAC:        hex.EncodeToString(tag(macKey, iv, ciphertext)),
	}, nil
}

// Decrypt opens env. Every failure is reported as the same decryption error
// so callers cannot tell a wrong password from damaged data.
func (e *Encryptor) Decrypt(password string, env *types.EncryptedEnvelope) ([]byte, error) {
	plaintext, err := decrypt(password, env)
	if err != nil {
		return nil, types.NewError(types.ErrDecryption, "decrypt state", errDecrypt)
	}
	return plaintext, nil
}

func decrypt(password string, env *types.EncryptedEnvelope) ([]byte, error) {
	if env == nil {
		return nil, errDecrypt
	}
	iv, err := hex.DecodeString(env.IV)
	if err != nil || len(iv) != ivSize {
		return nil, errDecrypt
	}
	ciphertext, err := base64.StdEncoding.DecodeString(env.Data)
	if err != nil {
		return nil, errDecrypt
	}

	switch env.Version {
	case 0:
		// salt is used as the literal hex text, SHA-1, fixed iterations
		if env.Salt == "" {
			return nil, errDecrypt
		}
		key := pbkdf2.Key([]byte(password), []byte(env.Salt), legacyIterations, aesKeySize, sha1.New)
		defer wipe(key)
		return decryptCBC(key, iv, ciphertext)

	case CurrentVersion:
		if env.KDF != KDFPBKDF2SHA256 || env.Iterations < MinIterations || env.Iterations > maxIterations {
			return nil, errDecrypt
		}
		salt, err := hex.DecodeString(env.Salt)
		if err != nil || len(salt) < MinSaltSize {
			return nil, errDecrypt
		}
		mac, err := hex.DecodeString(env.MAC)
		if err != nil {
			return nil, errDecrypt
		}
		encKey, macKey := deriveKeys(password, salt, env.Iterations)
		defer wipe(encKey)
		defer wipe(macKey)
		if !hmac.Equal(mac, tag(macKey, iv, ciphertext)) {
			return nil, errDecrypt
		}
		return decryptCBC(encKey, iv, ciphertext)

	default:
		return nil, errDecrypt
	}
}

// EncryptJSON marshals v, encrypts it and returns the envelope's JSON form.
func (e *Encryptor) EncryptJSON(password string, v interface{}) ([]byte, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return nil, types.NewError(types.ErrValidation, "encrypt state", err)
	}
	defer wipe(plaintext)
	env, err := e.Encrypt(password, plaintext)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// DecryptJSON parses an envelope, decrypts it and unmarshals the plaintext
// into v. Unparseable plaintext is a decryption failure.
func (e *Encryptor) DecryptJSON(password string, blob []byte, v interface{}) error {
	env, err := ParseEnvelope(blob)
	if err != nil {
		return err
	}
	plaintext, err := e.Decrypt(password, env)
	if err != nil {
		return err
	}
	defer wipe(plaintext)
	if err := json.Unmarshal(plaintext, v); err != nil {
		return types.NewError(types.ErrDecryption, "decrypt state", errDecrypt)
	}
	return nil
}

// ParseEnvelope decodes the envelope wire form.
func ParseEnvelope(blob []byte) (*types.EncryptedEnvelope, error) {
	var env types.EncryptedEnvelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return nil, types.NewError(types.ErrDecryption, "parse envelope", errDecrypt)
	}
	return &env, nil
}

func deriveKeys(password string, salt []byte, iterations int) (encKey, macKey []byte) {
	material := pbkdf2.Key([]byte(password), salt, iterations, aesKeySize+macKeySize, sha256.New)
	return material[:aesKeySize], material[aesKeySize:]
}

func tag(macKey, iv, ciphertext []byte) []byte {
	h := hmac.New(sha256.New, macKey)
	h.Write(iv)
	h.Write(ciphertext)
	return h.Sum(nil)
}

func encryptCBC(key, iv, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	padded := pkcs7Pad(plaintext, aes.BlockSize)
	defer wipe(padded)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
	return out, nil
}

func decryptCBC(key, iv, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, errDecrypt
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errDecrypt
	}
	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ciphertext)
	plaintext, err := pkcs7Unpad(out, aes.BlockSize)
	if err != nil {
		wipe(out)
		return nil, errDecrypt
	}
	return plaintext, nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	out := make([]byte, len(data)+n)
	copy(out, data)
	for i := len(data); i < len(out); i++ {
		out[i] = byte(n)
	}
	return out
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errDecrypt
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize {
		return nil, errDecrypt
	}
	var bad byte
	for _, b := range data[len(data)-n:] {
		bad |= b ^ byte(n)
	}
	if bad != 0 {
		return nil, errDecrypt
	}
	return data[:len(data)-n], nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
