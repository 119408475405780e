package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/weisyn/keyring/client/core/output"
	"github.com/weisyn/keyring/internal/config"
	logmod "github.com/weisyn/keyring/internal/core/infrastructure/log"
	"github.com/weisyn/keyring/internal/core/infrastructure/metrics"
	"github.com/weisyn/keyring/internal/core/infrastructure/storage"
	"github.com/weisyn/keyring/internal/core/infrastructure/storage/badger"
	"github.com/weisyn/keyring/internal/core/keyring"
	"github.com/weisyn/keyring/pkg/interfaces/infrastructure/log"
	keyringintf "github.com/weisyn/keyring/pkg/interfaces/keyring"
	"github.com/weisyn/keyring/pkg/types"
)

// GlobalFlags global flags.
type GlobalFlags struct {
	ConfigPath   string
	OutputFormat string
	Silent       bool
	Chain        string
	Network      string
	HDPath       string
	MnemonicFile string
}

var (
	globalFlags GlobalFlags
	formatter   *output.Formatter
)

var rootCmd = &cobra.Command{
	Use:   "keyring",
	Short: "Multi-chain HD keyring",
	Long: `keyring derives EVM, Filecoin and Solana accounts from one BIP39 mnemonic,
signs with them and keeps the mnemonic in a password-encrypted vault.

Secrets are read from KEYRING_MNEMONIC, KEYRING_PASSWORD and
KEYRING_BIP39_PASSPHRASE when set, otherwise prompted for.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(globalFlags.OutputFormat)
		if err != nil {
			return err
		}
		formatter = output.NewFormatter(format, cmd.OutOrStdout())
		formatter.SetLogWriter(cmd.ErrOrStderr())
		formatter.SetSilent(globalFlags.Silent)
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&globalFlags.ConfigPath, "config", "c", "", "JSON configuration file")
	flags.StringVarP(&globalFlags.OutputFormat, "output", "o", "json", "output format: json|pretty|table|text")
	flags.BoolVar(&globalFlags.Silent, "silent", false, "print errors only")
	flags.StringVar(&globalFlags.Chain, "chain", "", "chain: evm|filecoin|solana (overrides config)")
	flags.StringVar(&globalFlags.Network, "network", "", "filecoin network: mainnet|testnet (overrides config)")
	flags.StringVar(&globalFlags.HDPath, "hd-path", "", "derivation path template, e.g. m/44'/60'/0'/0/{index}")
	flags.StringVar(&globalFlags.MnemonicFile, "mnemonic-file", "", "read the mnemonic from this file")

	rootCmd.AddCommand(mnemonicCmd)
	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(signCmd)
	rootCmd.AddCommand(vaultCmd)
	rootCmd.AddCommand(configCmd)
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if formatter == nil {
			formatter = output.NewFormatter(output.FormatJSON, os.Stdout)
		}
		formatter.PrintError(err)
		return exitCode(err)
	}
	return 0
}

// exitCode maps error kinds to distinct exit statuses for scripting.
func exitCode(err error) int {
	switch types.KindOf(err) {
	case types.ErrValidation:
		return 2
	case types.ErrAccountNotFound:
		return 3
	case types.ErrUnsupportedOperation:
		return 4
	case types.ErrDecryption:
		return 5
	}
	if errors.Is(err, badger.ErrEntryNotFound) {
		return 3
	}
	return 1
}

// services is what a command needs from the application graph.
type services struct {
	factory   *keyring.Factory
	encryptor keyringintf.Encryptor
	logger    log.Logger
	store     *badger.Store
}

// startServices loads configuration, applies flag overrides and starts the
// application graph. The vault store is only opened when withVault is set.
func startServices(ctx context.Context, withVault bool) (*services, func(), error) {
	appConfig, err := config.LoadAppConfig(globalFlags.ConfigPath)
	if err != nil {
		return nil, nil, err
	}
	applyOverrides(appConfig)

	svc := &services{}
	opts := []fx.Option{
		fx.NopLogger,
		fx.Supply(appConfig),
		fx.Provide(func() prometheus.Registerer { return prometheus.NewRegistry() }),
		config.Module(),
		logmod.Module(),
		metrics.Module(),
		keyring.Module(),
		fx.Invoke(func(f *keyring.Factory, e keyringintf.Encryptor, l log.Logger) {
			svc.factory, svc.encryptor, svc.logger = f, e, l
		}),
	}
	if withVault {
		opts = append(opts,
			storage.Module(),
			fx.Invoke(func(s *badger.Store) { svc.store = s }),
		)
	}

	app := fx.New(opts...)
	if err := app.Start(ctx); err != nil {
		return nil, nil, fmt.Errorf("start services: %w", err)
	}
	stop := func() {
		if err := app.Stop(context.Background()); err != nil {
			formatter.PrintWarning(fmt.Sprintf("shutdown: %v", err))
		}
	}
	return svc, stop, nil
}

func applyOverrides(appConfig *types.AppConfig) {
	if appConfig.Keyring == nil {
		appConfig.Keyring = &types.UserKeyringConfig{}
	}
	k := appConfig.Keyring
	if globalFlags.Chain != "" {
		k.Chain = &globalFlags.Chain
	}
	if globalFlags.Network != "" {
		k.Network = &globalFlags.Network
	}
	if globalFlags.HDPath != "" {
		k.HDPath = &globalFlags.HDPath
	}
	if pass, ok := os.LookupEnv(envPassphrase); ok {
		k.BIP39Passphrase = &pass
	}
}
