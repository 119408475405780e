package main

import (
	"github.com/spf13/cobra"

	"github.com/weisyn/keyring/internal/core/keyring"
)

var (
	accountIndex uint32
	accountCount int
	exportScan   int
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Derive and export accounts",
}

var accountDeriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "Derive accounts starting at --index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, kr, closeAll, err := openKeyring(cmd.Context())
		if err != nil {
			return err
		}
		defer closeAll()

		rows := make([]map[string]interface{}, 0, accountCount)
		for i := 0; i < accountCount; i++ {
			index := accountIndex + uint32(i)
			addr, err := kr.DeriveAccount(index)
			if err != nil {
				return err
			}
			row, err := accountRow(kr, addr)
			if err != nil {
				return err
			}
			row["index"] = index
			rows = append(rows, row)
		}
		return formatter.Print(rows)
	},
}

var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the accounts held by a vault",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, kr, closeAll, err := openKeyring(cmd.Context())
		if err != nil {
			return err
		}
		defer closeAll()

		rows := make([]map[string]interface{}, 0)
		for _, addr := range kr.ListAccounts() {
			row, err := accountRow(kr, addr)
			if err != nil {
				return err
			}
			rows = append(rows, row)
		}
		return formatter.Print(rows)
	},
}

var accountExportCmd = &cobra.Command{
	Use:   "export <address>",
	Short: "Print the private key of an account",
	Long: `Print the private key of an account in the chain's native export format:
hex for EVM, hex-encoded Lotus key info for Filecoin, base58 for Solana.

Without --vault the first --scan indices are derived to find the address.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, kr, closeAll, err := openKeyring(cmd.Context())
		if err != nil {
			return err
		}
		defer closeAll()

		if vaultName == "" {
			if _, err := kr.AddAccounts(cmd.Context(), exportScan); err != nil {
				return err
			}
		}
		key, err := kr.ExportPrivateKey(args[0])
		if err != nil {
			return err
		}
		formatter.PrintWarning("anyone holding this key controls the account")
		return formatter.Print(map[string]interface{}{
			"address":    args[0],
			"privateKey": key,
		})
	},
}

var accountEncryptionKeyCmd = &cobra.Command{
	Use:   "encryption-key <address>",
	Short: "Print the x25519 public key others encrypt to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, kr, closeAll, err := openKeyring(cmd.Context())
		if err != nil {
			return err
		}
		defer closeAll()

		if vaultName == "" {
			if _, err := kr.AddAccounts(cmd.Context(), exportScan); err != nil {
				return err
			}
		}
		key, err := kr.EncryptionPublicKey(args[0])
		if err != nil {
			return err
		}
		return formatter.Print(map[string]interface{}{
			"address":             args[0],
			"encryptionPublicKey": key,
		})
	},
}

func accountRow(kr *keyring.Keyring, addr string) (map[string]interface{}, error) {
	path, err := kr.AccountPath(addr)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"address": addr,
		"path":    path,
		"chain":   string(kr.Chain()),
	}, nil
}

func init() {
	accountDeriveCmd.Flags().Uint32Var(&accountIndex, "index", 0, "first index to derive")
	accountDeriveCmd.Flags().IntVar(&accountCount, "count", 1, "number of consecutive accounts")
	for _, c := range []*cobra.Command{accountExportCmd, accountEncryptionKeyCmd} {
		c.Flags().IntVar(&exportScan, "scan", 20, "indices to derive when searching for the address")
	}

	for _, c := range []*cobra.Command{accountDeriveCmd, accountListCmd, accountExportCmd, accountEncryptionKeyCmd} {
		c.Flags().StringVar(&vaultName, "vault", "", "use the keyring saved under this vault name")
	}

	accountCmd.AddCommand(accountDeriveCmd)
	accountCmd.AddCommand(accountListCmd)
	accountCmd.AddCommand(accountExportCmd)
	accountCmd.AddCommand(accountEncryptionKeyCmd)
}
