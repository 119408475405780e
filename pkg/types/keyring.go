// Package types defines the value types shared by the keyring packages.
package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Chain identifies a chain variant served by a keyring.
type Chain string

const (
	ChainEVM      Chain = "evm"
	ChainFilecoin Chain = "filecoin"
	ChainSolana   Chain = "solana"
)

// ParseChain maps a user supplied chain name to a Chain.
func ParseChain(s string) (Chain, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "evm", "eth", "ethereum":
		return ChainEVM, nil
	case "filecoin", "fil":
		return ChainFilecoin, nil
	case "solana", "sol":
		return ChainSolana, nil
	default:
		return "", NewError(ErrValidation, "parse chain", fmt.Errorf("unknown chain %q", s))
	}
}

// KeyringState is the lifecycle state of a keyring.
type KeyringState int

const (
	// StateUninitialized has no root key.
	StateUninitialized KeyringState = iota
	// StateSeeded has a root key and no accounts.
	StateSeeded
	// StatePopulated has a root key and at least one account.
	StatePopulated
)

func (s KeyringState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateSeeded:
		return "seeded"
	case StatePopulated:
		return "populated"
	default:
		return fmt.Sprintf("keyring_state(%d)", int(s))
	}
}

// Curve is the elliptic curve backing a chain's key material.
type Curve string

const (
	CurveSecp256k1 Curve = "secp256k1"
	CurveEd25519   Curve = "ed25519"
)

// Network selects Filecoin address prefixes. Other chains ignore it.
type Network string

const (
	// NetworkUnspecified lets the keyring infer the network from the path coin type.
	NetworkUnspecified Network = ""
	NetworkMainnet     Network = "mainnet"
	NetworkTestnet     Network = "testnet"
)

// ParseNetwork maps a user supplied network name to a Network.
func ParseNetwork(s string) (Network, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return NetworkUnspecified, nil
	case "mainnet", "main", "f":
		return NetworkMainnet, nil
	case "testnet", "test", "t":
		return NetworkTestnet, nil
	default:
		return "", NewError(ErrValidation, "parse network", fmt.Errorf("unknown network %q", s))
	}
}

// SignKind is the kind of signing request passed to Keyring.Sign.
type SignKind uint8

const (
	SignTransaction SignKind = 1 << iota
	SignPersonalMessage
	SignTypedData
	SignDecrypt
)

// AllSignKinds lists every kind in declaration order.
var AllSignKinds = []SignKind{SignTransaction, SignPersonalMessage, SignTypedData, SignDecrypt}

func (k SignKind) String() string {
	switch k {
	case SignTransaction:
		return "transaction"
	case SignPersonalMessage:
		return "personal_message"
	case SignTypedData:
		return "typed_data"
	case SignDecrypt:
		return "decrypt"
	default:
		return fmt.Sprintf("sign_kind(%d)", uint8(k))
	}
}

// ParseSignKind maps a user supplied kind name to a SignKind.
func ParseSignKind(s string) (SignKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "transaction", "tx":
		return SignTransaction, nil
	case "personal_message", "personal", "message":
		return SignPersonalMessage, nil
	case "typed_data", "typed":
		return SignTypedData, nil
	case "decrypt":
		return SignDecrypt, nil
	default:
		return 0, NewError(ErrValidation, "parse sign kind", fmt.Errorf("unknown sign kind %q", s))
	}
}

// CapabilitySet is a bit set of supported SignKinds.
type CapabilitySet uint8

// NewCapabilitySet builds a set from the given kinds.
func NewCapabilitySet(kinds ...SignKind) CapabilitySet {
	var c CapabilitySet
	for _, k := range kinds {
		c |= CapabilitySet(k)
	}
	return c
}

// Supports reports whether kind is in the set.
func (c CapabilitySet) Supports(kind SignKind) bool {
	return kind != 0 && c&CapabilitySet(kind) == CapabilitySet(kind)
}

// Kinds returns the members of the set in declaration order.
func (c CapabilitySet) Kinds() []SignKind {
	out := make([]SignKind, 0, len(AllSignKinds))
	for _, k := range AllSignKinds {
		if c.Supports(k) {
			out = append(out, k)
		}
	}
	return out
}

// KeyMaterial is a private/public key pair on one curve.
//
// PublicKey is 65-byte uncompressed SEC1 for secp256k1 and the raw 32-byte key
// for ed25519. PrivateKey is the 32-byte scalar for secp256k1 and the 64-byte
// seed||public form for ed25519.
type KeyMaterial struct {
	Curve      Curve
	PrivateKey []byte
	PublicKey  []byte
}

// Clone returns a deep copy.
func (k KeyMaterial) Clone() KeyMaterial {
	return KeyMaterial{
		Curve:      k.Curve,
		PrivateKey: append([]byte(nil), k.PrivateKey...),
		PublicKey:  append([]byte(nil), k.PublicKey...),
	}
}

// Wipe zeroes the private key bytes in place.
func (k *KeyMaterial) Wipe() {
	for i := range k.PrivateKey {
		k.PrivateKey[i] = 0
	}
}

// MnemonicBytes marshals as a JSON array of byte values, the layout the
// browser keyrings persisted, and unmarshals from either that array or a string.
type MnemonicBytes []byte

// MarshalJSON implements json.Marshaler.
func (m MnemonicBytes) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	values := make([]int, len(m))
	for i, b := range m {
		values[i] = int(b)
	}
	return json.Marshal(values)
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *MnemonicBytes) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*m = MnemonicBytes(s)
		return nil
	}
	var values []int
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("mnemonic must be a string or a byte array: %w", err)
	}
	out := make([]byte, len(values))
	for i, v := range values {
		if v < 0 || v > 255 {
			return fmt.Errorf("mnemonic byte %d out of range: %d", i, v)
		}
		out[i] = byte(v)
	}
	*m = out
	return nil
}

// SerializedKeyring is the plaintext persisted inside an EncryptedEnvelope.
type SerializedKeyring struct {
	Mnemonic               MnemonicBytes `json:"mnemonic"`
	NumberOfAccounts       int           `json:"numberOfAccounts"`
	DerivationPathTemplate string        `json:"derivationPathTemplate,omitempty"`
	Chain                  Chain         `json:"chain,omitempty"`
	Network                Network       `json:"network,omitempty"`
	AccountIndices         []uint32      `json:"accountIndices,omitempty"`

	// LegacyHDPath is the key older keyrings wrote the template under.
	LegacyHDPath string `json:"hdPath,omitempty"`
}

// PathTemplate returns the template, falling back to the legacy key.
func (s *SerializedKeyring) PathTemplate() string {
	if s.DerivationPathTemplate != "" {
		return s.DerivationPathTemplate
	}
	return s.LegacyHDPath
}

// EncryptedEnvelope is the password-encrypted form of a serialized keyring.
//
// Salt, IV and MAC are hex, Data is base64. Version 0 marks a legacy envelope
// that carried no version field and no MAC.
type EncryptedEnvelope struct {
	Version    int    `json:"version,omitempty"`
	KDF        string `json:"kdf,omitempty"`
	Iterations int    `json:"iterations,omitempty"`
	Salt       string `json:"salt"`
	IV         string `json:"iv"`
	Data       string `json:"data"`
	MAC        string `json:"mac,omitempty"`
}
