// Package keyring holds keyring configuration and its defaults.
package keyring

import (
	"strings"

	"github.com/weisyn/keyring/pkg/types"
)

const (
	defaultChain            = types.ChainEVM
	defaultMnemonicStrength = 128
)

// KeyringOptions keyring options.
type KeyringOptions struct {
	Chain            types.Chain   `json:"chain"`
	Network          types.Network `json:"network"`           // empty: infer from the path coin type
	HDPath           string        `json:"hd_path"`           // empty: chain default template
	MnemonicStrength int           `json:"mnemonic_strength"` // entropy bits
	BIP39Passphrase  string        `json:"-"`
}

// Config wraps KeyringOptions.
type Config struct {
	options *KeyringOptions
}

// New builds a Config from defaults overlaid with the user configuration.
// Unparseable chain or network names are reported by Validate.
func New(userConfig *types.UserKeyringConfig) (*Config, error) {
	options := &KeyringOptions{
		Chain:            defaultChain,
		MnemonicStrength: defaultMnemonicStrength,
	}
	if userConfig != nil {
		if userConfig.Chain != nil {
			chain, err := types.ParseChain(*userConfig.Chain)
			if err != nil {
				return nil, err
			}
			options.Chain = chain
		}
		if userConfig.Network != nil {
			network, err := types.ParseNetwork(*userConfig.Network)
			if err != nil {
				return nil, err
			}
			options.Network = network
		}
		if userConfig.HDPath != nil {
			options.HDPath = strings.TrimSpace(*userConfig.HDPath)
		}
		if userConfig.MnemonicStrength != nil {
			options.MnemonicStrength = *userConfig.MnemonicStrength
		}
		if userConfig.BIP39Passphrase != nil {
			options.BIP39Passphrase = *userConfig.BIP39Passphrase
		}
	}
	c := &Config{options: options}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks option ranges.
func (c *Config) Validate() error {
	switch c.options.MnemonicStrength {
	case 128, 160, 192, 224, 256:
	default:
		return types.Errorf(types.ErrValidation, "keyring config",
			"mnemonic_strength must be 128, 160, 192, 224 or 256, got %d", c.options.MnemonicStrength)
	}
	return nil
}

// GetOptions returns the resolved options.
func (c *Config) GetOptions() *KeyringOptions {
	return c.options
}
