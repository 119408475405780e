package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	keyringconfig "github.com/weisyn/keyring/internal/config/keyring"
	logconfig "github.com/weisyn/keyring/internal/config/log"
	vaultconfig "github.com/weisyn/keyring/internal/config/vault"
	"github.com/weisyn/keyring/pkg/interfaces/config"
	"github.com/weisyn/keyring/pkg/types"
)

const defaultDataDirName = ".keyring"

// Provider implements config.Provider on top of a user AppConfig.
type Provider struct {
	appConfig *types.AppConfig
	keyring   *keyringconfig.Config
	vault     *vaultconfig.Config
}

var _ config.Provider = (*Provider)(nil)

// NewProvider resolves every section against its defaults. Invalid sections
// are reported here so later getters cannot fail.
func NewProvider(appConfig *types.AppConfig) (*Provider, error) {
	if appConfig == nil {
		appConfig = &types.AppConfig{}
	}
	p := &Provider{appConfig: appConfig}

	kc, err := keyringconfig.New(appConfig.Keyring)
	if err != nil {
		return nil, fmt.Errorf("keyring config: %w", err)
	}
	p.keyring = kc

	vc, err := vaultconfig.New(appConfig.Vault, p.GetDataDir())
	if err != nil {
		return nil, fmt.Errorf("vault config: %w", err)
	}
	p.vault = vc
	return p, nil
}

// GetAppName returns the configured application name.
func (p *Provider) GetAppName() string {
	if p.appConfig.AppName != nil && *p.appConfig.AppName != "" {
		return *p.appConfig.AppName
	}
	return "keyring"
}

// GetDataDir returns the data directory, defaulting to ~/.keyring.
func (p *Provider) GetDataDir() string {
	if p.appConfig.DataDir != nil && strings.TrimSpace(*p.appConfig.DataDir) != "" {
		return strings.TrimSpace(*p.appConfig.DataDir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return defaultDataDirName
	}
	return filepath.Join(home, defaultDataDirName)
}

// GetLog returns the logger options.
func (p *Provider) GetLog() *logconfig.LogOptions {
	return logconfig.New(p.appConfig.Log).GetOptions()
}

// GetKeyring returns the keyring options.
func (p *Provider) GetKeyring() *keyringconfig.KeyringOptions {
	return p.keyring.GetOptions()
}

// GetVault returns the vault options.
func (p *Provider) GetVault() *vaultconfig.VaultOptions {
	return p.vault.GetOptions()
}

// LoadAppConfig reads a JSON configuration file. An empty path yields an empty
// configuration so every section falls back to its defaults.
func LoadAppConfig(path string) (*types.AppConfig, error) {
	cfg := &types.AppConfig{}
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}
