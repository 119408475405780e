// Package storage wires the envelope vault into the application graph.
package storage

import (
	"context"

	vaultconfig "github.com/weisyn/keyring/internal/config/vault"
	"github.com/weisyn/keyring/internal/core/infrastructure/storage/badger"
	"github.com/weisyn/keyring/pkg/interfaces/infrastructure/log"
	keyringintf "github.com/weisyn/keyring/pkg/interfaces/keyring"
	"go.uber.org/fx"
)

// ModuleParams storage module inputs.
type ModuleParams struct {
	fx.In

	Options *vaultconfig.VaultOptions
	Logger  log.Logger `optional:"true"`
}

// ModuleOutput storage module outputs.
type ModuleOutput struct {
	fx.Out

	Store      *badger.Store
	VaultStore keyringintf.VaultStore
}

// Module returns the storage fx module.
func Module() fx.Option {
	return fx.Module("storage",
		fx.Provide(ProvideServices),
		fx.Invoke(func(lc fx.Lifecycle, store *badger.Store, logger log.Logger) {
			lc.Append(fx.Hook{
				OnStop: func(ctx context.Context) error {
					logger.Debug("closing vault store")
					return store.Close()
				},
			})
		}),
	)
}

// ProvideServices opens the vault store.
func ProvideServices(params ModuleParams) (ModuleOutput, error) {
	logger := params.Logger
	if logger != nil {
		logger = logger.With("module", "storage")
	}
	store, err := badger.New(params.Options, logger)
	if err != nil {
		return ModuleOutput{}, err
	}
	return ModuleOutput{Store: store, VaultStore: store}, nil
}
