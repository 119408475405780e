package types

// AppConfig is the user configuration file. Only fields present in the JSON
// file are set; defaults are applied by internal/config.
type AppConfig struct {
	AppName *string `json:"app_name,omitempty"`
	DataDir *string `json:"data_dir,omitempty"`

	Log     *UserLogConfig     `json:"log,omitempty"`
	Keyring *UserKeyringConfig `json:"keyring,omitempty"`
	Vault   *UserVaultConfig   `json:"vault,omitempty"`
}

// UserLogConfig user log configuration.
type UserLogConfig struct {
	Level     *string `json:"level,omitempty"`      // debug, info, warn, error, fatal
	FilePath  *string `json:"file_path,omitempty"`  // log file path, "stderr" for console only
	ToConsole *bool   `json:"to_console,omitempty"` // also write to stderr
}

// UserKeyringConfig user keyring configuration.
type UserKeyringConfig struct {
	Chain            *string `json:"chain,omitempty"`             // evm | filecoin | solana
	Network          *string `json:"network,omitempty"`           // mainnet | testnet, empty to infer from path
	HDPath           *string `json:"hd_path,omitempty"`           // path template override, e.g. m/44'/60'/0'/0/{index}
	MnemonicStrength *int    `json:"mnemonic_strength,omitempty"` // entropy bits, 128..256
	BIP39Passphrase  *string `json:"bip39_passphrase,omitempty"`
}

// UserVaultConfig user vault (encrypted envelope store) configuration.
type UserVaultConfig struct {
	Path          *string `json:"path,omitempty"`
	InMemory      *bool   `json:"in_memory,omitempty"`
	KDF           *string `json:"kdf,omitempty"`
	KDFIterations *int    `json:"kdf_iterations,omitempty"`
	SaltSize      *int    `json:"salt_size,omitempty"`
}
