// Package vault holds configuration for envelope encryption and the envelope store.
package vault

import (
	"path/filepath"
	"strings"

	"github.com/weisyn/keyring/pkg/types"
)

// KDF names accepted in configuration.
const (
	KDFPBKDF2SHA256 = "pbkdf2-sha256"
)

const (
	defaultKDF           = KDFPBKDF2SHA256
	defaultKDFIterations = 600000
	defaultSaltSize      = 32
	defaultVaultDir      = "vault"

	// floors below which a new envelope is refused
	minKDFIterations = 5000
	minSaltSize      = 16
)

// VaultOptions vault options.
type VaultOptions struct {
	Path          string `json:"path"`
	InMemory      bool   `json:"in_memory"`
	KDF           string `json:"kdf"`
	KDFIterations int    `json:"kdf_iterations"`
	SaltSize      int    `json:"salt_size"`
}

// Config wraps VaultOptions.
type Config struct {
	options *VaultOptions
}

// New builds a Config from defaults overlaid with the user configuration.
// dataDir anchors the default store path.
func New(userConfig *types.UserVaultConfig, dataDir string) (*Config, error) {
	options := &VaultOptions{
		Path:          filepath.Join(dataDir, defaultVaultDir),
		KDF:           defaultKDF,
		KDFIterations: defaultKDFIterations,
		SaltSize:      defaultSaltSize,
	}
	if userConfig != nil {
		if userConfig.Path != nil {
			options.Path = strings.TrimSpace(*userConfig.Path)
		}
		if userConfig.InMemory != nil {
			options.InMemory = *userConfig.InMemory
		}
		if userConfig.KDF != nil {
			options.KDF = strings.ToLower(strings.TrimSpace(*userConfig.KDF))
		}
		if userConfig.KDFIterations != nil {
			options.KDFIterations = *userConfig.KDFIterations
		}
		if userConfig.SaltSize != nil {
			options.SaltSize = *userConfig.SaltSize
		}
	}
	c := &Config{options: options}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the KDF settings.
func (c *Config) Validate() error {
	if c.options.KDF != KDFPBKDF2SHA256 {
		return types.Errorf(types.ErrValidation, "vault config", "unsupported kdf %q", c.options.KDF)
	}
	if c.options.KDFIterations < minKDFIterations {
		return types.Errorf(types.ErrValidation, "vault config",
			"kdf_iterations must be at least %d, got %d", minKDFIterations, c.options.KDFIterations)
	}
	if c.options.SaltSize < minSaltSize {
		return types.Errorf(types.ErrValidation, "vault config",
			"salt_size must be at least %d, got %d", minSaltSize, c.options.SaltSize)
	}
	if !c.options.InMemory && c.options.Path == "" {
		return types.Errorf(types.ErrValidation, "vault config", "path is required unless in_memory is set")
	}
	return nil
}

// GetOptions returns the resolved options.
func (c *Config) GetOptions() *VaultOptions {
	return c.options
}

// GetPath returns the store directory.
func (c *Config) GetPath() string { return c.options.Path }

// IsInMemory reports whether the store is memory backed.
func (c *Config) IsInMemory() bool { return c.options.InMemory }

// GetKDFIterations returns the PBKDF2 iteration count for new envelopes.
func (c *Config) GetKDFIterations() int { return c.options.KDFIterations }

// GetSaltSize returns the salt length for new envelopes.
func (c *Config) GetSaltSize() int { return c.options.SaltSize }
