package keyring

import (
	"encoding/json"
	"time"

	vaultconfig "github.com/weisyn/keyring/internal/config/vault"
	"github.com/weisyn/keyring/internal/core/infrastructure/crypto/encryption"
	"github.com/weisyn/keyring/internal/core/infrastructure/metrics"
	keyringintf "github.com/weisyn/keyring/pkg/interfaces/keyring"
	"github.com/weisyn/keyring/pkg/types"
)

const (
	opEncrypt = "encrypt"
	opDecrypt = "decrypt"
)

// meteredEncryptor times every envelope operation and counts failed decrypts.
type meteredEncryptor struct {
	next    keyringintf.Encryptor
	metrics *metrics.Metrics
}

// NewEncryptor builds the envelope encryptor from vault options.
func NewEncryptor(opts *vaultconfig.VaultOptions, m *metrics.Metrics) (keyringintf.Encryptor, error) {
	eopts := encryption.DefaultOptions()
	if opts != nil {
		if opts.KDFIterations != 0 {
			eopts.Iterations = opts.KDFIterations
		}
		if opts.SaltSize != 0 {
			eopts.SaltSize = opts.SaltSize
		}
	}
	enc, err := encryption.New(eopts)
	if err != nil {
		return nil, err
	}
	return &meteredEncryptor{next: enc, metrics: m}, nil
}

func (e *meteredEncryptor) Encrypt(password string, plaintext []byte) (env *types.EncryptedEnvelope, err error) {
	start := time.Now()
	defer func() { e.metrics.EnvelopeDone(opEncrypt, start, err) }()
	return e.next.Encrypt(password, plaintext)
}

func (e *meteredEncryptor) Decrypt(password string, env *types.EncryptedEnvelope) (out []byte, err error) {
	start := time.Now()
	defer func() { e.metrics.EnvelopeDone(opDecrypt, start, err) }()
	return e.next.Decrypt(password, env)
}

func (e *meteredEncryptor) EncryptJSON(password string, v interface{}) (out []byte, err error) {
	start := time.Now()
	defer func() { e.metrics.EnvelopeDone(opEncrypt, start, err) }()
	return e.next.EncryptJSON(password, v)
}

func (e *meteredEncryptor) DecryptJSON(password string, blob []byte, v interface{}) (err error) {
	start := time.Now()
	defer func() { e.metrics.EnvelopeDone(opDecrypt, start, err) }()
	return e.next.DecryptJSON(password, blob, v)
}

// Seal serializes kr and encrypts it under password.
func Seal(enc keyringintf.Encryptor, password string, kr keyringintf.Keyring) (*types.EncryptedEnvelope, error) {
	state, err := kr.Serialize()
	if err != nil {
		return nil, err
	}
	plaintext, err := json.Marshal(state)
	wipe(state.Mnemonic)
	if err != nil {
		return nil, types.NewError(types.ErrValidation, "seal keyring", err)
	}
	defer wipe(plaintext)
	return enc.Encrypt(password, plaintext)
}

// Open decrypts env and restores it into the uninitialized keyring kr.
func Open(enc keyringintf.Encryptor, password string, env *types.EncryptedEnvelope, kr keyringintf.Keyring) error {
	plaintext, err := enc.Decrypt(password, env)
	if err != nil {
		return err
	}
	defer wipe(plaintext)

	var state types.SerializedKeyring
	if err := json.Unmarshal(plaintext, &state); err != nil {
		// legacy envelopes carry no MAC; a wrong key can still unpad cleanly
		return types.Errorf(types.ErrDecryption, "open keyring", "incorrect password or corrupted envelope")
	}
	defer wipe(state.Mnemonic)
	return kr.Deserialize(&state)
}
