// Package config provides the configuration provider interface.
package config

import (
	keyringconfig "github.com/weisyn/keyring/internal/config/keyring"
	logconfig "github.com/weisyn/keyring/internal/config/log"
	vaultconfig "github.com/weisyn/keyring/internal/config/vault"
)

// Provider exposes resolved configuration sections.
type Provider interface {
	// GetAppName returns the application name.
	GetAppName() string

	// GetDataDir returns the directory holding local state.
	GetDataDir() string

	// GetLog returns logger options.
	GetLog() *logconfig.LogOptions

	// GetKeyring returns keyring options.
	GetKeyring() *keyringconfig.KeyringOptions

	// GetVault returns envelope encryption and store options.
	GetVault() *vaultconfig.VaultOptions
}
