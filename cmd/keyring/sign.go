package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/weisyn/keyring/pkg/types"
)

var (
	signKind string
	signData string
	signHex  string
	signFile string
	signScan int
)

var signCmd = &cobra.Command{
	Use:   "sign <address>",
	Short: "Sign a payload with an account",
	Long: `Sign a payload with an account.

Kinds: transaction (a 32-byte digest on EVM and Filecoin, the raw message on
Solana), personal_message, typed_data (EIP-712 JSON) and decrypt (a MetaMask
encrypted JSON envelope; prints the plaintext).

Exactly one of --data, --hex or --file supplies the payload.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := types.ParseSignKind(signKind)
		if err != nil {
			return err
		}
		payload, err := readPayload()
		if err != nil {
			return err
		}

		_, kr, closeAll, err := openKeyring(cmd.Context())
		if err != nil {
			return err
		}
		defer closeAll()

		if vaultName == "" {
			if _, err := kr.AddAccounts(cmd.Context(), signScan); err != nil {
				return err
			}
		}
		out, err := kr.Sign(args[0], payload, kind)
		if err != nil {
			return err
		}

		result := map[string]interface{}{
			"address": args[0],
			"kind":    kind.String(),
		}
		if kind == types.SignDecrypt {
			result["plaintext"] = string(out)
		} else {
			result["signature"] = "0x" + hex.EncodeToString(out)
		}
		return formatter.Print(result)
	},
}

func readPayload() ([]byte, error) {
	set := 0
	for _, s := range []string{signData, signHex, signFile} {
		if s != "" {
			set++
		}
	}
	if set != 1 {
		return nil, types.Errorf(types.ErrValidation, "read payload", "exactly one of --data, --hex or --file is required")
	}

	switch {
	case signData != "":
		return []byte(signData), nil
	case signHex != "":
		b, err := hex.DecodeString(strings.TrimPrefix(strings.TrimPrefix(signHex, "0x"), "0X"))
		if err != nil {
			return nil, types.NewError(types.ErrValidation, "read payload", err)
		}
		return b, nil
	default:
		b, err := os.ReadFile(signFile)
		if err != nil {
			return nil, fmt.Errorf("read payload file: %w", err)
		}
		return b, nil
	}
}

func init() {
	flags := signCmd.Flags()
	flags.StringVar(&signKind, "kind", "transaction", "transaction|personal_message|typed_data|decrypt")
	flags.StringVar(&signData, "data", "", "payload as a UTF-8 string")
	flags.StringVar(&signHex, "hex", "", "payload as hex, 0x prefix optional")
	flags.StringVar(&signFile, "file", "", "read the payload from this file")
	flags.IntVar(&signScan, "scan", 20, "indices to derive when searching for the address")
	flags.StringVar(&vaultName, "vault", "", "use the keyring saved under this vault name")
}
