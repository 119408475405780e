package main

import (
	"encoding/hex"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/weisyn/keyring/internal/core/infrastructure/crypto/mnemonic"
)

var mnemonicStrength int

var mnemonicCmd = &cobra.Command{
	Use:   "mnemonic",
	Short: "Generate and inspect BIP39 mnemonics",
}

var mnemonicNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Generate a new mnemonic",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		phrase, err := mnemonic.Generate(mnemonic.Strength(mnemonicStrength))
		if err != nil {
			return err
		}
		formatter.PrintWarning("anyone holding this mnemonic controls every account derived from it")
		return formatter.Print(map[string]interface{}{
			"mnemonic": phrase,
			"words":    len(strings.Fields(phrase)),
		})
	},
}

var mnemonicValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a mnemonic's words and checksum",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		phrase, err := readMnemonic()
		if err != nil {
			return err
		}
		return formatter.Print(map[string]interface{}{"valid": mnemonic.Validate(phrase)})
	},
}

var mnemonicSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Print the 64-byte BIP39 seed of a mnemonic",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		phrase, err := readMnemonic()
		if err != nil {
			return err
		}
		seed, err := mnemonic.ToSeed(phrase, os.Getenv(envPassphrase))
		if err != nil {
			return err
		}
		return formatter.Print(map[string]interface{}{"seed": hex.EncodeToString(seed)})
	},
}

func init() {
	mnemonicNewCmd.Flags().IntVar(&mnemonicStrength, "strength", int(mnemonic.Words12), "entropy bits: 128, 160, 192, 224 or 256")

	mnemonicCmd.AddCommand(mnemonicNewCmd)
	mnemonicCmd.AddCommand(mnemonicValidateCmd)
	mnemonicCmd.AddCommand(mnemonicSeedCmd)
}
