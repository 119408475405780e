package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weisyn/keyring/internal/core/infrastructure/storage/badger"
	"github.com/weisyn/keyring/internal/core/keyring"
	"github.com/weisyn/keyring/pkg/types"
)

var (
	vaultGenerate bool
	vaultForce    bool
	vaultAccounts int
)

var vaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Manage password-encrypted keyrings on disk",
}

var vaultCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Encrypt a keyring and save it under name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc, stop, err := startServices(ctx, true)
		if err != nil {
			return err
		}
		defer stop()

		name := args[0]
		if !vaultForce {
			if _, err := svc.store.Load(ctx, name); err == nil {
				return types.Errorf(types.ErrValidation, "create vault", "vault %q exists, use --force to replace it", name)
			} else if !errors.Is(err, badger.ErrEntryNotFound) {
				return err
			}
		}

		kr, err := svc.factory.New()
		if err != nil {
			return err
		}
		defer kr.Wipe()

		if vaultGenerate {
			if _, err := kr.GenerateRandomMnemonic(); err != nil {
				return err
			}
			formatter.PrintInfo("generated a new mnemonic, back it up with: keyring vault reveal " + name)
		} else if err := initFromMnemonic(kr); err != nil {
			return err
		}
		if _, err := kr.AddAccounts(ctx, vaultAccounts); err != nil {
			return err
		}

		password, err := readPassword(true)
		if err != nil {
			return err
		}
		if err := sealAndSave(ctx, svc, name, password, kr); err != nil {
			return err
		}
		return formatter.Print(vaultSummary(name, kr))
	},
}

var vaultAddAccountsCmd = &cobra.Command{
	Use:   "add-accounts <name>",
	Short: "Derive more accounts into a saved keyring",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVault(cmd.Context(), args[0], func(svc *services, kr *keyring.Keyring, password string) error {
			if _, err := kr.AddAccounts(cmd.Context(), vaultAccounts); err != nil {
				return err
			}
			if err := sealAndSave(cmd.Context(), svc, args[0], password, kr); err != nil {
				return err
			}
			return formatter.Print(vaultSummary(args[0], kr))
		})
	},
}

var vaultPasswdCmd = &cobra.Command{
	Use:   "passwd <name>",
	Short: "Re-encrypt a saved keyring under a new password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVault(cmd.Context(), args[0], func(svc *services, kr *keyring.Keyring, _ string) error {
			formatter.PrintInfo("enter the new password")
			password, err := readPassword(true)
			if err != nil {
				return err
			}
			if err := sealAndSave(cmd.Context(), svc, args[0], password, kr); err != nil {
				return err
			}
			formatter.PrintSuccess("password changed")
			return nil
		})
	},
}

var vaultRevealCmd = &cobra.Command{
	Use:   "reveal <name>",
	Short: "Print the mnemonic held by a saved keyring",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVault(cmd.Context(), args[0], func(_ *services, kr *keyring.Keyring, _ string) error {
			state, err := kr.Serialize()
			if err != nil {
				return err
			}
			formatter.PrintWarning("anyone holding this mnemonic controls every account derived from it")
			return formatter.Print(map[string]interface{}{
				"name":     args[0],
				"mnemonic": string(state.Mnemonic),
			})
		})
	},
}

var vaultListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved keyrings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, stop, err := startServices(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer stop()

		names, err := svc.store.List(cmd.Context())
		if err != nil {
			return err
		}
		if names == nil {
			names = []string{}
		}
		return formatter.Print(names)
	},
}

var vaultDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved keyring",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, stop, err := startServices(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer stop()

		if err := svc.store.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		formatter.PrintSuccess(fmt.Sprintf("vault %q deleted", args[0]))
		return nil
	},
}

var vaultBackupCmd = &cobra.Command{
	Use:   "backup <file>",
	Short: "Write every saved keyring to a backup file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, stop, err := startServices(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer stop()

		meta, err := svc.store.BackupToFile(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return formatter.Print(meta)
	},
}

var vaultRestoreCmd = &cobra.Command{
	Use:   "restore <file>",
	Short: "Load saved keyrings from a backup file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, stop, err := startServices(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer stop()

		meta, err := svc.store.RestoreFromFile(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return formatter.Print(meta)
	},
}

// withVault opens the named vault and hands the restored keyring and the
// password that opened it to fn.
func withVault(ctx context.Context, name string, fn func(*services, *keyring.Keyring, string) error) error {
	svc, stop, err := startServices(ctx, true)
	if err != nil {
		return err
	}
	defer stop()

	env, err := svc.store.Load(ctx, name)
	if err != nil {
		return err
	}
	password, err := readPassword(false)
	if err != nil {
		return err
	}
	kr, err := svc.factory.New()
	if err != nil {
		return err
	}
	defer kr.Wipe()
	if err := keyring.Open(svc.encryptor, password, env, kr); err != nil {
		return fmt.Errorf("open vault %q: %w", name, err)
	}
	return fn(svc, kr, password)
}

func sealAndSave(ctx context.Context, svc *services, name, password string, kr *keyring.Keyring) error {
	env, err := keyring.Seal(svc.encryptor, password, kr)
	if err != nil {
		return err
	}
	return svc.store.Save(ctx, name, env)
}

func vaultSummary(name string, kr *keyring.Keyring) map[string]interface{} {
	return map[string]interface{}{
		"name":     name,
		"chain":    string(kr.Chain()),
		"network":  string(kr.Network()),
		"path":     kr.PathTemplate(),
		"accounts": kr.ListAccounts(),
	}
}

func init() {
	vaultCreateCmd.Flags().BoolVar(&vaultGenerate, "generate", false, "generate a new mnemonic instead of reading one")
	vaultCreateCmd.Flags().BoolVar(&vaultForce, "force", false, "replace an existing vault with the same name")
	vaultCreateCmd.Flags().IntVar(&vaultAccounts, "accounts", 1, "accounts to derive")
	vaultAddAccountsCmd.Flags().IntVar(&vaultAccounts, "count", 1, "accounts to add")

	vaultCmd.AddCommand(vaultCreateCmd)
	vaultCmd.AddCommand(vaultAddAccountsCmd)
	vaultCmd.AddCommand(vaultPasswdCmd)
	vaultCmd.AddCommand(vaultRevealCmd)
	vaultCmd.AddCommand(vaultListCmd)
	vaultCmd.AddCommand(vaultDeleteCmd)
	vaultCmd.AddCommand(vaultBackupCmd)
	vaultCmd.AddCommand(vaultRestoreCmd)
}
