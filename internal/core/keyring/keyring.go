// Package keyring implements the multi-chain HD keyring: one root key per
// chain variant and the ordered accounts derived from it.
package keyring

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/weisyn/keyring/internal/core/infrastructure/crypto/address"
	"github.com/weisyn/keyring/internal/core/infrastructure/crypto/hdkey"
	"github.com/weisyn/keyring/internal/core/infrastructure/crypto/hdpath"
	"github.com/weisyn/keyring/internal/core/infrastructure/crypto/mnemonic"
	"github.com/weisyn/keyring/internal/core/infrastructure/crypto/signature"
	logimpl "github.com/weisyn/keyring/internal/core/infrastructure/log"
	"github.com/weisyn/keyring/internal/core/infrastructure/metrics"
	"github.com/weisyn/keyring/pkg/interfaces/infrastructure/log"
	keyringintf "github.com/weisyn/keyring/pkg/interfaces/keyring"
	"github.com/weisyn/keyring/pkg/types"
)

// BIP32 seed bounds.
const (
	minSeedSize = 16
	maxSeedSize = 64
)

// Options configures a Keyring.
type Options struct {
	// Network selects Filecoin address prefixes. Unspecified infers it from
	// the template's coin type.
	Network types.Network
	// HDPath overrides the chain's default template. Legacy root and first
	// account paths are accepted as well.
	HDPath string
	// Passphrase is the optional BIP39 passphrase. It is never serialized.
	Passphrase string
	// Strength of generated mnemonics, Words12 when zero.
	Strength mnemonic.Strength
	// Entropy replaces crypto/rand for mnemonic generation.
	Entropy io.Reader

	Logger  log.Logger
	Metrics *metrics.Metrics
}

type account struct {
	index   uint32
	address string
	key     types.KeyMaterial
}

// Keyring is the generic keyring; everything chain specific comes from its
// Variant. Mutations hold the write lock, reads work on a snapshot taken
// under the read lock.
type Keyring struct {
	variant    *Variant
	passphrase string
	strength   mnemonic.Strength
	explicit   types.Network
	generator  *mnemonic.Generator
	logger     log.Logger
	metrics    *metrics.Metrics

	mu       sync.RWMutex
	template *hdpath.Template
	network  types.Network
	codec    address.Codec
	mnemonic []byte
	root     hdkey.Node
	accounts []*account
}

var _ keyringintf.Keyring = (*Keyring)(nil)

// New returns an uninitialized keyring for chain.
func New(chain types.Chain, opts Options) (*Keyring, error) {
	variant, err := VariantFor(chain)
	if err != nil {
		return nil, err
	}
	template, err := variant.resolveTemplate(opts.HDPath, opts.Network)
	if err != nil {
		return nil, err
	}
	network := variant.resolveNetwork(opts.Network, template)
	codec, err := variant.codec(network)
	if err != nil {
		return nil, err
	}

	strength := opts.Strength
	if strength == 0 {
		strength = mnemonic.Words12
	}
	if !strength.Valid() {
		return nil, types.Errorf(types.ErrValidation, "new keyring", "invalid mnemonic strength %d", strength)
	}
	generator := mnemonic.NewGenerator()
	if opts.Entropy != nil {
		generator = mnemonic.NewGeneratorWithReader(opts.Entropy)
	}

	return &Keyring{
		variant:    variant,
		passphrase: opts.Passphrase,
		strength:   strength,
		explicit:   opts.Network,
		generator:  generator,
		logger:     logimpl.OrNop(opts.Logger).With("component", "keyring", "chain", string(chain)),
		metrics:    opts.Metrics,
		template:   template,
		network:    network,
		codec:      codec,
	}, nil
}

// Chain returns the keyring's chain.
func (k *Keyring) Chain() types.Chain { return k.variant.Chain }

// Capabilities returns the signing kinds the chain supports.
func (k *Keyring) Capabilities() types.CapabilitySet { return k.variant.Capabilities }

// State returns the lifecycle state.
func (k *Keyring) State() types.KeyringState {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.stateLocked()
}

func (k *Keyring) stateLocked() types.KeyringState {
	switch {
	case k.root == nil:
		return types.StateUninitialized
	case len(k.accounts) == 0:
		return types.StateSeeded
	default:
		return types.StatePopulated
	}
}

// PathTemplate returns the derivation template in use.
func (k *Keyring) PathTemplate() string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.template.String()
}

// Network returns the resolved network. Only Filecoin keyrings always carry one.
func (k *Keyring) Network() types.Network {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.network
}

// Initialize derives the root key from mnemonic.
func (k *Keyring) Initialize(phrase string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.initializeLocked("initialize", phrase)
}

func (k *Keyring) initializeLocked(op, phrase string) error {
	if k.root != nil {
		return alreadyInitialized(op)
	}
	root, normalized, err := k.rootFromMnemonic(op, phrase, k.template)
	if err != nil {
		return err
	}
	k.root = root
	k.mnemonic = []byte(normalized)
	k.logger.With("template", k.template.String()).Info("keyring initialized from mnemonic")
	return nil
}

// InitializeFromSeed derives the root key from a raw BIP39 seed. Such a
// keyring cannot be serialized.
func (k *Keyring) InitializeFromSeed(seed []byte) error {
	const op = "initialize from seed"
	if len(seed) < minSeedSize || len(seed) > maxSeedSize {
		return types.Errorf(types.ErrValidation, op, "seed must be %d to %d bytes, got %d", minSeedSize, maxSeedSize, len(seed))
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if k.root != nil {
		return alreadyInitialized(op)
	}
	root, err := k.rootFromSeed(seed, k.template)
	if err != nil {
		return err
	}
	k.root = root
	k.logger.With("template", k.template.String()).Info("keyring initialized from seed")
	return nil
}

// GenerateRandomMnemonic draws a new mnemonic, initializes the keyring from
// it and returns it. Nothing changes when the entropy source fails.
func (k *Keyring) GenerateRandomMnemonic() (string, error) {
	const op = "generate mnemonic"
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.root != nil {
		return "", alreadyInitialized(op)
	}
	phrase, err := k.generator.Generate(k.strength)
	if err != nil {
		return "", err
	}
	if err := k.initializeLocked(op, phrase); err != nil {
		return "", err
	}
	return phrase, nil
}

func (k *Keyring) rootFromMnemonic(op, phrase string, template *hdpath.Template) (hdkey.Node, string, error) {
	normalized := mnemonic.Normalize(phrase)
	if !mnemonic.Validate(normalized) {
		return nil, "", types.Errorf(types.ErrValidation, op, "invalid mnemonic")
	}
	seed, err := mnemonic.ToSeed(normalized, k.passphrase)
	if err != nil {
		return nil, "", err
	}
	defer wipe(seed)
	root, err := k.rootFromSeed(seed, template)
	if err != nil {
		return nil, "", err
	}
	return root, normalized, nil
}

// rootFromSeed derives the template's fixed prefix once; accounts derive the
// remaining components from the returned node.
func (k *Keyring) rootFromSeed(seed []byte, template *hdpath.Template) (hdkey.Node, error) {
	master, err := hdkey.NewMaster(k.variant.Curve, seed)
	if err != nil {
		return nil, err
	}
	defer master.Wipe()
	return master.Derive(template.Root())
}

func deriveAccount(root hdkey.Node, template *hdpath.Template, codec address.Codec, index uint32) (*account, error) {
	rel, err := template.Relative(index)
	if err != nil {
		return nil, err
	}
	child, err := root.Derive(rel)
	if err != nil {
		return nil, err
	}
	defer child.Wipe()

	key, err := child.KeyMaterial()
	if err != nil {
		return nil, err
	}
	addr, err := codec.Encode(key.PublicKey)
	if err != nil {
		key.Wipe()
		return nil, err
	}
	return &account{index: index, address: addr, key: key}, nil
}

// DeriveAccount adds the account at index and returns its address. An index
// that is already present returns the existing address.
func (k *Keyring) DeriveAccount(index uint32) (string, error) {
	const op = "derive account"
	k.mu.Lock()
	defer k.mu.Unlock()
	if err := k.requireSeeded(op); err != nil {
		return "", err
	}
	for _, acc := range k.accounts {
		if acc.index == index {
			return acc.address, nil
		}
	}

	acc, err := deriveAccount(k.root, k.template, k.codec, index)
	if err != nil {
		return "", err
	}
	k.accounts = append(k.accounts, acc)
	k.metrics.AccountsDerived(k.variant.Chain, 1)
	k.logger.With("index", index, "address", acc.address).Info("account derived")
	return acc.address, nil
}

// AddAccounts derives n accounts at the lowest unused indices from the current
// account count upwards. Cancellation between derivations discards the batch.
func (k *Keyring) AddAccounts(ctx context.Context, n int) ([]string, error) {
	const op = "add accounts"
	if n < 0 {
		return nil, types.Errorf(types.ErrValidation, op, "count must not be negative, got %d", n)
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if err := k.requireSeeded(op); err != nil {
		return nil, err
	}
	if free := int64(hdpath.HardenedOffset) - int64(len(k.accounts)); int64(n) > free {
		return nil, types.Errorf(types.ErrValidation, op, "count %d exceeds the %d indices left", n, free)
	}

	// n may span most of the index space; nothing is sized by it.
	used := make(map[uint32]struct{}, len(k.accounts))
	for _, acc := range k.accounts {
		used[acc.index] = struct{}{}
	}

	var fresh []*account
	next := uint32(len(k.accounts))
	for len(fresh) < n {
		if err := ctx.Err(); err != nil {
			wipeAccounts(fresh)
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		for {
			if _, ok := used[next]; !ok {
				break
			}
			next++
		}
		acc, err := deriveAccount(k.root, k.template, k.codec, next)
		if err != nil {
			wipeAccounts(fresh)
			return nil, err
		}
		fresh = append(fresh, acc)
		used[next] = struct{}{}
		next++
	}

	k.accounts = append(k.accounts, fresh...)
	addrs := make([]string, len(fresh))
	for i, acc := range fresh {
		addrs[i] = acc.address
	}
	k.metrics.AccountsDerived(k.variant.Chain, len(fresh))
	k.logger.With("count", len(fresh), "total", len(k.accounts)).Info("accounts added")
	return addrs, nil
}

// ListAccounts returns the addresses in insertion order.
func (k *Keyring) ListAccounts() []string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := make([]string, len(k.accounts))
	for i, acc := range k.accounts {
		out[i] = acc.address
	}
	return out
}

// AccountPath returns the full derivation path of address.
func (k *Keyring) AccountPath(addr string) (string, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	acc, err := k.lookup("account path", addr)
	if err != nil {
		return "", err
	}
	p, err := k.template.Account(acc.index)
	if err != nil {
		return "", err
	}
	return p.String(), nil
}

// RemoveAccount removes the account matching addr. Hex addresses match
// case-insensitively.
func (k *Keyring) RemoveAccount(addr string) error {
	const op = "remove account"
	k.mu.Lock()
	defer k.mu.Unlock()

	i := k.indexOf(addr)
	if i < 0 {
		return notFound(op, addr)
	}
	removed := k.accounts[i]
	removed.key.Wipe()

	accounts := make([]*account, 0, len(k.accounts)-1)
	accounts = append(accounts, k.accounts[:i]...)
	k.accounts = append(accounts, k.accounts[i+1:]...)
	k.logger.With("index", removed.index, "address", removed.address).Info("account removed")
	return nil
}

// ExportPrivateKey returns the chain-native encoding of the account's secret.
func (k *Keyring) ExportPrivateKey(addr string) (string, error) {
	const op = "export private key"
	k.mu.RLock()
	defer k.mu.RUnlock()
	acc, err := k.lookup(op, addr)
	if err != nil {
		return "", err
	}
	out, err := k.variant.export(acc.key)
	if err != nil {
		return "", err
	}
	k.logger.With("address", acc.address).Warn("private key exported")
	return out, nil
}

// Sign signs payload as kind. Transactions on secp256k1 chains take a 32-byte
// digest; Solana signs the raw bytes.
func (k *Keyring) Sign(addr string, payload []byte, kind types.SignKind) ([]byte, error) {
	const op = "sign"
	if !k.variant.Supports(kind) {
		err := unsupported(k.variant.Chain, kind)
		k.metrics.Signed(k.variant.Chain, kind, err)
		return nil, err
	}

	k.mu.RLock()
	defer k.mu.RUnlock()
	acc, err := k.lookup(op, addr)
	if err != nil {
		k.metrics.Signed(k.variant.Chain, kind, err)
		return nil, err
	}
	out, err := k.variant.sign(acc.key, payload, kind)
	k.metrics.Signed(k.variant.Chain, kind, err)
	if err != nil {
		k.logger.With("address", acc.address, "kind", kind.String()).Debugf("sign failed: %v", types.KindOf(err))
		return nil, err
	}
	k.logger.With("address", acc.address, "kind", kind.String()).Debug("payload signed")
	return out, nil
}

// EncryptionPublicKey returns the base64 x25519 key other parties encrypt to.
func (k *Keyring) EncryptionPublicKey(addr string) (string, error) {
	const op = "encryption public key"
	if !k.variant.Supports(types.SignDecrypt) {
		return "", types.Errorf(types.ErrUnsupportedOperation, op, "%s keyrings cannot decrypt", k.variant.Chain)
	}
	k.mu.RLock()
	defer k.mu.RUnlock()
	acc, err := k.lookup(op, addr)
	if err != nil {
		return "", err
	}
	return signature.EncryptionPublicKey(acc.key.PrivateKey)
}

// Serialize returns the state Deserialize needs to rebuild the keyring.
func (k *Keyring) Serialize() (*types.SerializedKeyring, error) {
	const op = "serialize"
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.root == nil {
		return nil, types.Errorf(types.ErrState, op, "keyring is not initialized")
	}
	if k.mnemonic == nil {
		return nil, types.Errorf(types.ErrState, op, "keyring was initialized from a seed and has no mnemonic")
	}

	indices := make([]uint32, len(k.accounts))
	for i, acc := range k.accounts {
		indices[i] = acc.index
	}
	return &types.SerializedKeyring{
		Mnemonic:               append(types.MnemonicBytes(nil), k.mnemonic...),
		NumberOfAccounts:       len(k.accounts),
		DerivationPathTemplate: k.template.String(),
		Chain:                  k.variant.Chain,
		Network:                k.network,
		AccountIndices:         indices,
	}, nil
}

// Deserialize restores state into an uninitialized keyring. Either the whole
// state is restored or the keyring is left untouched.
func (k *Keyring) Deserialize(state *types.SerializedKeyring) error {
	const op = "deserialize"
	if state == nil {
		return types.Errorf(types.ErrValidation, op, "state is nil")
	}
	if state.Chain != "" && state.Chain != k.variant.Chain {
		return types.Errorf(types.ErrValidation, op, "state belongs to %s, keyring is %s", state.Chain, k.variant.Chain)
	}
	if state.NumberOfAccounts < 0 {
		return types.Errorf(types.ErrValidation, op, "numberOfAccounts must not be negative")
	}
	if int64(state.NumberOfAccounts) > int64(hdpath.HardenedOffset) {
		return types.Errorf(types.ErrValidation, op, "numberOfAccounts %d exceeds the index space", state.NumberOfAccounts)
	}
	if int64(len(state.AccountIndices)) > int64(hdpath.HardenedOffset) {
		return types.Errorf(types.ErrValidation, op, "%d account indices exceed the index space", len(state.AccountIndices))
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if k.root != nil {
		return alreadyInitialized(op)
	}
	if len(state.Mnemonic) == 0 {
		if state.NumberOfAccounts > 0 || len(state.AccountIndices) > 0 {
			return types.Errorf(types.ErrValidation, op, "accounts present without a mnemonic")
		}
		return nil
	}

	network := state.Network
	if network == types.NetworkUnspecified {
		network = k.explicit
	}
	template := k.template
	if raw := state.PathTemplate(); raw != "" {
		t, err := k.variant.resolveTemplate(raw, network)
		if err != nil {
			return err
		}
		template = t
	}
	network = k.variant.resolveNetwork(network, template)
	codec, err := k.variant.codec(network)
	if err != nil {
		return err
	}

	indices, count, err := restoredIndices(op, state)
	if err != nil {
		return err
	}

	root, normalized, err := k.rootFromMnemonic(op, string(state.Mnemonic), template)
	if err != nil {
		return err
	}
	var accounts []*account
	for i := 0; i < count; i++ {
		index := uint32(i)
		if indices != nil {
			index = indices[i]
		}
		acc, err := deriveAccount(root, template, codec, index)
		if err != nil {
			wipeAccounts(accounts)
			root.Wipe()
			return err
		}
		accounts = append(accounts, acc)
	}

	k.template = template
	k.network = network
	k.codec = codec
	k.root = root
	k.mnemonic = []byte(normalized)
	k.accounts = accounts
	k.metrics.AccountsDerived(k.variant.Chain, len(accounts))
	k.logger.With("accounts", len(accounts), "template", template.String()).Info("keyring restored")
	return nil
}

// restoredIndices returns the explicit account indices of state and how many
// accounts to restore. Nil indices mean the dense range [0, count).
func restoredIndices(op string, state *types.SerializedKeyring) ([]uint32, int, error) {
	if len(state.AccountIndices) == 0 {
		return nil, state.NumberOfAccounts, nil
	}
	if state.NumberOfAccounts != 0 && state.NumberOfAccounts != len(state.AccountIndices) {
		return nil, 0, types.Errorf(types.ErrValidation, op,
			"numberOfAccounts %d does not match %d account indices", state.NumberOfAccounts, len(state.AccountIndices))
	}
	seen := make(map[uint32]struct{}, len(state.AccountIndices))
	for _, index := range state.AccountIndices {
		if _, ok := seen[index]; ok {
			return nil, 0, types.Errorf(types.ErrValidation, op, "duplicate account index %d", index)
		}
		seen[index] = struct{}{}
	}
	return append([]uint32(nil), state.AccountIndices...), len(state.AccountIndices), nil
}

// Wipe zeroes all key material and returns the keyring to uninitialized.
func (k *Keyring) Wipe() {
	k.mu.Lock()
	defer k.mu.Unlock()
	wipeAccounts(k.accounts)
	k.accounts = nil
	if k.root != nil {
		k.root.Wipe()
		k.root = nil
	}
	wipe(k.mnemonic)
	k.mnemonic = nil
}

func (k *Keyring) requireSeeded(op string) error {
	if k.root == nil {
		return types.Errorf(types.ErrState, op, "keyring is not initialized")
	}
	return nil
}

func (k *Keyring) indexOf(addr string) int {
	for i, acc := range k.accounts {
		if k.codec.Equal(acc.address, addr) {
			return i
		}
	}
	return -1
}

func (k *Keyring) lookup(op, addr string) (*account, error) {
	i := k.indexOf(addr)
	if i < 0 {
		return nil, notFound(op, addr)
	}
	return k.accounts[i], nil
}

func alreadyInitialized(op string) error {
	return types.Errorf(types.ErrState, op, "keyring is already initialized")
}

func notFound(op, addr string) error {
	return types.Errorf(types.ErrAccountNotFound, op, "no account for address %s", addr)
}

func wipeAccounts(accounts []*account) {
	for _, acc := range accounts {
		acc.key.Wipe()
	}
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
