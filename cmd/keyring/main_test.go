package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/keyring/internal/core/infrastructure/storage/badger"
	"github.com/weisyn/keyring/pkg/types"
)

const (
	testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	evmAddr0     = "0x9858EfFD232B4033E47d90003D41EC34EcaEda94"
	evmAddr1     = "0x6Fac4D18c912343BF86fa7049364Dd4E424Ab9C0"
	solAddr0     = "HAgk14JpMQLgt6rVgv7cBQFJWFto5Dqxi472uT3DKpqk"
)

// resetFlags restores every flag variable, since cobra only writes the flags
// present on the command line.
func resetFlags() {
	globalFlags = GlobalFlags{OutputFormat: "json"}
	formatter = nil
	mnemonicStrength = 128
	accountIndex, accountCount, exportScan = 0, 1, 20
	signKind, signData, signHex, signFile, signScan = "transaction", "", "", "", 20
	vaultName = ""
	vaultGenerate, vaultForce, vaultAccounts = false, false, 1
	configForce = false
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg := fmt.Sprintf(`{
  "data_dir": %q,
  "vault": {"kdf_iterations": 5000, "salt_size": 16}
}`, dir)
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return path
}

func TestAccountDerive(t *testing.T) {
	t.Setenv(envMnemonic, testMnemonic)

	out, err := run(t, "account", "derive", "--count", "2")
	require.NoError(t, err)

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, evmAddr0, rows[0]["address"])
	assert.Equal(t, "m/44'/60'/0'/0/0", rows[0]["path"])
	assert.Equal(t, evmAddr1, rows[1]["address"])
	assert.EqualValues(t, 1, rows[1]["index"])
}

func TestAccountDerive_Solana(t *testing.T) {
	t.Setenv(envMnemonic, testMnemonic)

	out, err := run(t, "--chain", "solana", "account", "derive")
	require.NoError(t, err)

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, solAddr0, rows[0]["address"])
	assert.Equal(t, "solana", rows[0]["chain"])
}

func TestAccountDerive_InvalidMnemonic(t *testing.T) {
	t.Setenv(envMnemonic, "abandon abandon abandon")

	_, err := run(t, "account", "derive")
	require.Error(t, err)
	assert.Equal(t, 2, exitCode(err))
}

func TestSignPersonalMessage(t *testing.T) {
	t.Setenv(envMnemonic, testMnemonic)

	out, err := run(t, "sign", evmAddr0, "--kind", "personal", "--data", "hello")
	require.NoError(t, err)

	var result map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "personal_message", result["kind"])
	assert.Len(t, result["signature"], 2+65*2)
}

func TestSign_PayloadFlags(t *testing.T) {
	t.Setenv(envMnemonic, testMnemonic)

	_, err := run(t, "sign", evmAddr0)
	require.ErrorIs(t, err, types.ErrValidation)

	_, err = run(t, "sign", evmAddr0, "--data", "a", "--hex", "0x00")
	require.ErrorIs(t, err, types.ErrValidation)

	_, err = run(t, "sign", evmAddr0, "--hex", "0xzz")
	require.ErrorIs(t, err, types.ErrValidation)
}

func TestSign_UnsupportedKind(t *testing.T) {
	t.Setenv(envMnemonic, testMnemonic)

	_, err := run(t, "--chain", "filecoin", "sign", "f1qode47ievxlxzk6z2viuovedabmn3tq6t57uqhq",
		"--kind", "typed_data", "--data", "{}")
	require.Error(t, err)
	assert.Equal(t, 4, exitCode(err))
}

func TestVaultLifecycle(t *testing.T) {
	cfg := writeConfig(t)
	t.Setenv(envMnemonic, testMnemonic)
	t.Setenv(envPassword, "correct horse")

	out, err := run(t, "-c", cfg, "vault", "create", "main", "--accounts", "2")
	require.NoError(t, err)
	var summary map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, []interface{}{evmAddr0, evmAddr1}, summary["accounts"])

	_, err = run(t, "-c", cfg, "vault", "create", "main")
	require.ErrorIs(t, err, types.ErrValidation, "existing vault needs --force")

	out, err = run(t, "-c", cfg, "vault", "list")
	require.NoError(t, err)
	assert.JSONEq(t, `["main"]`, out)

	out, err = run(t, "-c", cfg, "account", "list", "--vault", "main")
	require.NoError(t, err)
	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, evmAddr1, rows[1]["address"])

	out, err = run(t, "-c", cfg, "vault", "add-accounts", "main", "--count", "1")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Len(t, summary["accounts"], 3)

	out, err = run(t, "-c", cfg, "vault", "reveal", "main")
	require.NoError(t, err)
	assert.Contains(t, out, testMnemonic)

	t.Setenv(envPassword, "wrong")
	_, err = run(t, "-c", cfg, "account", "list", "--vault", "main")
	require.ErrorIs(t, err, types.ErrDecryption)
	assert.Equal(t, 5, exitCode(err))

	_, err = run(t, "-c", cfg, "vault", "delete", "main")
	require.NoError(t, err)

	out, err = run(t, "-c", cfg, "vault", "list")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, out)

	_, err = run(t, "-c", cfg, "vault", "delete", "main")
	require.ErrorIs(t, err, badger.ErrEntryNotFound)
	assert.Equal(t, 3, exitCode(err))
}

func TestVaultBackupRestore(t *testing.T) {
	cfg := writeConfig(t)
	t.Setenv(envMnemonic, testMnemonic)
	t.Setenv(envPassword, "correct horse")

	_, err := run(t, "-c", cfg, "vault", "create", "main")
	require.NoError(t, err)

	backup := filepath.Join(t.TempDir(), "vault.bak")
	_, err = run(t, "-c", cfg, "vault", "backup", backup)
	require.NoError(t, err)

	_, err = run(t, "-c", cfg, "vault", "delete", "main")
	require.NoError(t, err)

	out, err := run(t, "-c", cfg, "vault", "restore", backup)
	require.NoError(t, err)
	var meta badger.BackupMetadata
	require.NoError(t, json.Unmarshal([]byte(out), &meta))
	assert.Equal(t, []string{"main"}, meta.Entries)

	out, err = run(t, "-c", cfg, "vault", "list")
	require.NoError(t, err)
	assert.JSONEq(t, `["main"]`, out)
}

func TestConfigInit(t *testing.T) {
	t.Setenv(envMnemonic, testMnemonic)
	path := filepath.Join(t.TempDir(), "nested", "keyring.json")

	_, err := run(t, "config", "init", path)
	require.NoError(t, err)

	out, err := run(t, "-c", path, "account", "derive")
	require.NoError(t, err)
	assert.Contains(t, out, evmAddr0)

	_, err = run(t, "config", "init", path)
	require.ErrorIs(t, err, types.ErrValidation)

	_, err = run(t, "config", "init", path, "--force")
	require.NoError(t, err)
}

func TestMnemonicValidate(t *testing.T) {
	t.Setenv(envMnemonic, testMnemonic)
	out, err := run(t, "mnemonic", "validate")
	require.NoError(t, err)
	assert.JSONEq(t, `{"valid":true}`, out)
}

func TestMnemonicNew(t *testing.T) {
	out, err := run(t, "mnemonic", "new", "--strength", "256")
	require.NoError(t, err)
	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.EqualValues(t, 24, result["words"])
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{types.Errorf(types.ErrValidation, "op", "bad"), 2},
		{types.Errorf(types.ErrAccountNotFound, "op", "missing"), 3},
		{fmt.Errorf("load: %w", badger.ErrEntryNotFound), 3},
		{types.Errorf(types.ErrUnsupportedOperation, "op", "no"), 4},
		{fmt.Errorf("open: %w", types.NewError(types.ErrDecryption, "op", nil)), 5},
		{fmt.Errorf("other"), 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, exitCode(tt.err), tt.err.Error())
	}
}
