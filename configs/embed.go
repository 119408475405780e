// Package configs embeds the default configuration file.
package configs

import _ "embed"

//go:embed keyring.json
var defaultConfig []byte

// DefaultConfig returns a copy of the embedded default configuration.
func DefaultConfig() []byte {
	out := make([]byte, len(defaultConfig))
	copy(out, defaultConfig)
	return out
}
