package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/weisyn/keyring/configs"
	"github.com/weisyn/keyring/pkg/types"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and create configuration files",
}

var configInitCmd = &cobra.Command{
	Use:   "init <file>",
	Short: "Write the default configuration to file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if _, err := os.Stat(path); err == nil && !configForce {
			return types.Errorf(types.ErrValidation, "config init", "%s exists, use --force to replace it", path)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
		if err := os.WriteFile(path, configs.DefaultConfig(), 0o600); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		formatter.PrintSuccess("configuration written to " + path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "replace an existing file")
	configCmd.AddCommand(configInitCmd)
}
