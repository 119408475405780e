package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/keyring/pkg/types"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestNewProvider_Defaults(t *testing.T) {
	p, err := NewProvider(nil)
	require.NoError(t, err)

	assert.Equal(t, "keyring", p.GetAppName())
	assert.Equal(t, types.ChainEVM, p.GetKeyring().Chain)
	assert.Equal(t, types.NetworkUnspecified, p.GetKeyring().Network)
	assert.Equal(t, 128, p.GetKeyring().MnemonicStrength)
	assert.Equal(t, 600000, p.GetVault().KDFIterations)
	assert.Equal(t, 32, p.GetVault().SaltSize)
	assert.Equal(t, "warn", p.GetLog().Level)
}

func TestNewProvider_UserOverrides(t *testing.T) {
	dir := t.TempDir()
	p, err := NewProvider(&types.AppConfig{
		DataDir: strPtr(dir),
		Keyring: &types.UserKeyringConfig{
			Chain:            strPtr("fil"),
			Network:          strPtr("testnet"),
			MnemonicStrength: intPtr(256),
		},
		Vault: &types.UserVaultConfig{KDFIterations: intPtr(10000)},
		Log:   &types.UserLogConfig{Level: strPtr("DEBUG")},
	})
	require.NoError(t, err)

	assert.Equal(t, types.ChainFilecoin, p.GetKeyring().Chain)
	assert.Equal(t, types.NetworkTestnet, p.GetKeyring().Network)
	assert.Equal(t, 256, p.GetKeyring().MnemonicStrength)
	assert.Equal(t, 10000, p.GetVault().KDFIterations)
	assert.Equal(t, filepath.Join(dir, "vault"), p.GetVault().Path)
	assert.Equal(t, "debug", p.GetLog().Level)
}

func TestNewProvider_RejectsInvalidSections(t *testing.T) {
	tests := []struct {
		name string
		cfg  *types.AppConfig
	}{
		{"unknown chain", &types.AppConfig{Keyring: &types.UserKeyringConfig{Chain: strPtr("bitcoin")}}},
		{"bad strength", &types.AppConfig{Keyring: &types.UserKeyringConfig{MnemonicStrength: intPtr(100)}}},
		{"weak kdf", &types.AppConfig{Vault: &types.UserVaultConfig{KDFIterations: intPtr(1000)}}},
		{"short salt", &types.AppConfig{Vault: &types.UserVaultConfig{SaltSize: intPtr(8)}}},
		{"unknown kdf", &types.AppConfig{Vault: &types.UserVaultConfig{KDF: strPtr("scrypt")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProvider(tt.cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrValidation)
		})
	}
}

func TestLoadAppConfig(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		cfg, err := LoadAppConfig("")
		require.NoError(t, err)
		assert.Nil(t, cfg.Keyring)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"keyring":{"chain":"solana"},"vault":{"in_memory":true}}`), 0600))
		cfg, err := LoadAppConfig(path)
		require.NoError(t, err)
		require.NotNil(t, cfg.Keyring)
		assert.Equal(t, "solana", *cfg.Keyring.Chain)
		require.NotNil(t, cfg.Vault)
		assert.True(t, *cfg.Vault.InMemory)
	})

	t.Run("unknown field", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"keyrings":{}}`), 0600))
		_, err := LoadAppConfig(path)
		require.Error(t, err)
	})
}
