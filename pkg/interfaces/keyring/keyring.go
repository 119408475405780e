// Package keyring defines the public contracts of the multi-chain HD keyring.
package keyring

import (
	"context"

	"github.com/weisyn/keyring/pkg/types"
)

// Keyring owns the root key of one chain variant and the accounts derived
// from it. Mutating calls are serialized; readers see a consistent snapshot.
type Keyring interface {
	// Chain returns the chain variant the keyring serves.
	Chain() types.Chain
	// State returns the current lifecycle state.
	State() types.KeyringState
	// Capabilities returns the signing kinds the chain variant supports.
	Capabilities() types.CapabilitySet

	// Initialize derives the root key from a BIP39 mnemonic. It fails with a
	// state error once the keyring is seeded.
	Initialize(mnemonic string) error
	// InitializeFromSeed derives the root key from a raw 64-byte seed.
	InitializeFromSeed(seed []byte) error
	// GenerateRandomMnemonic draws a fresh mnemonic and initializes from it.
	GenerateRandomMnemonic() (string, error)

	// DeriveAccount appends the account at index unless it already exists and
	// returns its address.
	DeriveAccount(index uint32) (string, error)
	// AddAccounts derives the next n unused indices in ascending order. It
	// commits all n or none.
	AddAccounts(ctx context.Context, n int) ([]string, error)
	// ListAccounts returns addresses in insertion order.
	ListAccounts() []string
	// RemoveAccount removes exactly one account.
	RemoveAccount(address string) error

	// ExportPrivateKey returns the chain-native encoding of the account's secret.
	ExportPrivateKey(address string) (string, error)
	// Sign signs payload as kind with the account's key.
	Sign(address string, payload []byte, kind types.SignKind) ([]byte, error)
	// EncryptionPublicKey returns the account's x25519 encryption key.
	EncryptionPublicKey(address string) (string, error)

	// Serialize returns the state needed to rebuild the keyring.
	Serialize() (*types.SerializedKeyring, error)
	// Deserialize seeds an uninitialized keyring from serialized state.
	Deserialize(state *types.SerializedKeyring) error
}

// Codec maps public keys to addresses for one chain.
type Codec interface {
	// Encode returns the address of publicKey.
	Encode(publicKey []byte) (string, error)
	// Validate checks that address is well formed, including any checksum.
	Validate(address string) error
	// Equal reports whether two address strings name the same account.
	Equal(a, b string) bool
}

// Encryptor seals serialized keyring state under a password.
type Encryptor interface {
	Encrypt(password string, plaintext []byte) (*types.EncryptedEnvelope, error)
	Decrypt(password string, envelope *types.EncryptedEnvelope) ([]byte, error)
	EncryptJSON(password string, v interface{}) ([]byte, error)
	DecryptJSON(password string, blob []byte, v interface{}) error
}

// VaultStore persists named encrypted envelopes. It never sees plaintext.
type VaultStore interface {
	Save(ctx context.Context, name string, envelope *types.EncryptedEnvelope) error
	Load(ctx context.Context, name string) (*types.EncryptedEnvelope, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) error
	Close() error
}
