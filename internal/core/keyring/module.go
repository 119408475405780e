package keyring

import (
	keyringconfig "github.com/weisyn/keyring/internal/config/keyring"
	vaultconfig "github.com/weisyn/keyring/internal/config/vault"
	"github.com/weisyn/keyring/internal/core/infrastructure/crypto/mnemonic"
	logimpl "github.com/weisyn/keyring/internal/core/infrastructure/log"
	"github.com/weisyn/keyring/internal/core/infrastructure/metrics"
	"github.com/weisyn/keyring/pkg/interfaces/infrastructure/log"
	keyringintf "github.com/weisyn/keyring/pkg/interfaces/keyring"
	"github.com/weisyn/keyring/pkg/types"
	"go.uber.org/fx"
)

// Factory builds keyrings from the configured options.
type Factory struct {
	options *keyringconfig.KeyringOptions
	logger  log.Logger
	metrics *metrics.Metrics
}

// NewFactory returns a Factory. A nil options value uses the defaults.
func NewFactory(options *keyringconfig.KeyringOptions, logger log.Logger, m *metrics.Metrics) *Factory {
	if options == nil {
		options = &keyringconfig.KeyringOptions{Chain: types.ChainEVM, MnemonicStrength: int(mnemonic.Words12)}
	}
	return &Factory{options: options, logger: logger, metrics: m}
}

// New returns an uninitialized keyring for the configured chain.
func (f *Factory) New() (*Keyring, error) {
	return f.NewForChain(f.options.Chain)
}

// NewForChain returns an uninitialized keyring for chain. The configured path
// override only applies to the configured chain.
func (f *Factory) NewForChain(chain types.Chain) (*Keyring, error) {
	opts := Options{
		Network:    f.options.Network,
		Passphrase: f.options.BIP39Passphrase,
		Strength:   mnemonic.Strength(f.options.MnemonicStrength),
		Logger:     f.logger,
		Metrics:    f.metrics,
	}
	if chain == f.options.Chain {
		opts.HDPath = f.options.HDPath
	}
	return New(chain, opts)
}

// ModuleParams keyring module inputs.
type ModuleParams struct {
	fx.In

	Keyring *keyringconfig.KeyringOptions
	Vault   *vaultconfig.VaultOptions
	Logger  log.Logger       `optional:"true"`
	Metrics *metrics.Metrics `optional:"true"`
}

// ModuleOutput keyring module outputs.
type ModuleOutput struct {
	fx.Out

	Factory   *Factory
	Encryptor keyringintf.Encryptor
}

// Module returns the keyring fx module.
func Module() fx.Option {
	return fx.Module("keyring",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices builds the Factory and the envelope Encryptor.
func ProvideServices(params ModuleParams) (ModuleOutput, error) {
	enc, err := NewEncryptor(params.Vault, params.Metrics)
	if err != nil {
		return ModuleOutput{}, err
	}
	logger := logimpl.NewModuleLogger(params.Logger, "keyring")
	return ModuleOutput{
		Factory:   NewFactory(params.Keyring, logger, params.Metrics),
		Encryptor: enc,
	}, nil
}
