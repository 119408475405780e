package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pterm/pterm"
)

const (
	envMnemonic   = "KEYRING_MNEMONIC"
	envPassword   = "KEYRING_PASSWORD"
	envPassphrase = "KEYRING_BIP39_PASSPHRASE"
)

// readSecret returns the environment value when set, otherwise prompts with
// masked input.
func readSecret(env, prompt string) (string, error) {
	if v, ok := os.LookupEnv(env); ok {
		return v, nil
	}
	v, err := pterm.DefaultInteractiveTextInput.WithMask("*").Show(prompt)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(prompt), err)
	}
	return v, nil
}

func readMnemonic() (string, error) {
	if globalFlags.MnemonicFile != "" {
		data, err := os.ReadFile(globalFlags.MnemonicFile)
		if err != nil {
			return "", fmt.Errorf("read mnemonic file: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	return readSecret(envMnemonic, "Mnemonic")
}

// readPassword prompts twice when confirm is set and the password does not
// come from the environment.
func readPassword(confirm bool) (string, error) {
	if v, ok := os.LookupEnv(envPassword); ok {
		return v, nil
	}
	password, err := readSecret(envPassword, "Password")
	if err != nil || !confirm {
		return password, err
	}
	again, err := readSecret(envPassword, "Repeat password")
	if err != nil {
		return "", err
	}
	if again != password {
		return "", fmt.Errorf("passwords do not match")
	}
	return password, nil
}
