// Package config provides application configuration management.
package config

import (
	keyringconfig "github.com/weisyn/keyring/internal/config/keyring"
	vaultconfig "github.com/weisyn/keyring/internal/config/vault"
	"github.com/weisyn/keyring/pkg/interfaces/config"
	"github.com/weisyn/keyring/pkg/types"
	"go.uber.org/fx"
)

// ConfigParams config module inputs.
type ConfigParams struct {
	fx.In

	AppConfig *types.AppConfig `optional:"true"`
}

// ConfigOutput config module outputs.
type ConfigOutput struct {
	fx.Out

	Provider config.Provider
}

// Module returns the config fx module.
func Module() fx.Option {
	return fx.Module("config",
		fx.Provide(
			ProvideConfigServices,
			func(provider config.Provider) *keyringconfig.KeyringOptions {
				return provider.GetKeyring()
			},
			func(provider config.Provider) *vaultconfig.VaultOptions {
				return provider.GetVault()
			},
		),
	)
}

// ProvideConfigServices builds the Provider from the supplied AppConfig.
func ProvideConfigServices(params ConfigParams) (ConfigOutput, error) {
	provider, err := NewProvider(params.AppConfig)
	if err != nil {
		return ConfigOutput{}, err
	}
	return ConfigOutput{Provider: provider}, nil
}
