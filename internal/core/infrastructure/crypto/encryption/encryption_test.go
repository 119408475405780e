package encryption

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/keyring/pkg/types"
)

// fast keeps PBKDF2 cheap in tests.
func fast(t *testing.T) *Encryptor {
	t.Helper()
	e, err := New(Options{Iterations: MinIterations, SaltSize: MinSaltSize})
	require.NoError(t, err)
	return e
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	e := fast(t)
	for _, plaintext := range [][]byte{
		{},
		[]byte("x"),
		bytes.Repeat([]byte{0xab}, 16),
		[]byte(`{"mnemonic":[97,98],"numberOfAccounts":2}`),
	} {
		for _, password := range []string{"pw", "pässwörd ключ", strings.Repeat("p", 200)} {
			env, err := e.Encrypt(password, plaintext)
			require.NoError(t, err)
			assert.Equal(t, CurrentVersion, env.Version)
			assert.Equal(t, KDFPBKDF2SHA256, env.KDF)
			assert.Equal(t, MinIterations, env.Iterations)
			assert.Len(t, env.Salt, 2*MinSaltSize)
			assert.Len(t, env.IV, 2*ivSize)

			got, err := e.Decrypt(password, env)
			require.NoError(t, err)
			assert.Equal(t, plaintext, got)
		}
	}
}

func TestEncrypt_FreshSaltAndIV(t *testing.T) {
	e := fast(t)
	a, err := e.Encrypt("pw", []byte("same"))
	require.NoError(t, err)
	b, err := e.Encrypt("pw", []byte("same"))
	require.NoError(t, err)
	assert.NotEqual(t, a.Salt, b.Salt)
	assert.NotEqual(t, a.IV, b.IV)
	assert.NotEqual(t, a.Data, b.Data)
}

func TestDecrypt_WrongPassword(t *testing.T) {
	e := fast(t)
	env, err := e.Encrypt("pw1", []byte("secret state"))
	require.NoError(t, err)

	for _, pw := range []string{"pw2", "PW1", "pw1 ", ""} {
		_, err := e.Decrypt(pw, env)
		require.Error(t, err)
		assert.ErrorIs(t, err, types.ErrDecryption)
	}
}

func TestDecrypt_TamperedCiphertext(t *testing.T) {
	e := fast(t)
	env, err := e.Encrypt("pw", []byte(strings.Repeat("keyring state ", 5)))
	require.NoError(t, err)
	raw, err := base64.StdEncoding.DecodeString(env.Data)
	require.NoError(t, err)

	for i := range raw {
		tampered := bytes.Clone(raw)
		tampered[i] ^= 0x01
		bad := *env
		bad.Data = base64.StdEncoding.EncodeToString(tampered)
		_, err := e.Decrypt("pw", &bad)
		require.ErrorIs(t, err, types.ErrDecryption, "byte %d", i)
	}
}

func TestDecrypt_TamperedFields(t *testing.T) {
	e := fast(t)
	env, err := e.Encrypt("pw", []byte("state"))
	require.NoError(t, err)

	mutations := map[string]func(*types.EncryptedEnvelope){
		"iv":         func(v *types.EncryptedEnvelope) { v.IV = strings.Repeat("00", ivSize) },
		"salt":       func(v *types.EncryptedEnvelope) { v.Salt = strings.Repeat("11", MinSaltSize) },
		"mac":        func(v *types.EncryptedEnvelope) { v.MAC = strings.Repeat("00", 32) },
		"no mac":     func(v *types.EncryptedEnvelope) { v.MAC = "" },
		"iterations": func(v *types.EncryptedEnvelope) { v.Iterations++ },
		"weak iters": func(v *types.EncryptedEnvelope) { v.Iterations = 1 },
		"kdf":        func(v *types.EncryptedEnvelope) { v.KDF = "scrypt" },
		"version":    func(v *types.EncryptedEnvelope) { v.Version = 3 },
		"short salt": func(v *types.EncryptedEnvelope) { v.Salt = "abcd" },
		"bad base64": func(v *types.EncryptedEnvelope) { v.Data = "!!" },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			bad := *env
			mutate(&bad)
			_, err := e.Decrypt("pw", &bad)
			assert.ErrorIs(t, err, types.ErrDecryption)
		})
	}

	_, err = e.Decrypt("pw", nil)
	assert.ErrorIs(t, err, types.ErrDecryption)
}

func TestDecrypt_ErrorDoesNotLeakCause(t *testing.T) {
	e := fast(t)
	env, err := e.Encrypt("pw", []byte("state"))
	require.NoError(t, err)

	_, wrongPassword := e.Decrypt("other", env)
	bad := *env
	bad.MAC = strings.Repeat("00", 32)
	_, corrupted := e.Decrypt("pw", &bad)

	require.Error(t, wrongPassword)
	require.Error(t, corrupted)
	assert.Equal(t, wrongPassword.Error(), corrupted.Error())
}

// Envelope produced with the browser encryptor's parameters: PBKDF2-SHA1,
// 5000 iterations, the salt's hex text as salt bytes.
const legacyEnvelope = `{"salt": "9f3c2a41d07b6e58a1c4f2e9b3d6a7c8e1f0a2b4c6d8e0f1a3b5c7d9e1f3a5b7", "iv": "4a8e1b2c3d4e5f60718293a4b5c6d7e8", "data": "9wNTELHxK0BFOR663mxmBr3P23Va4tdCUeeoLvkSqHY++ttVnL4wGuPqXfPrQ6aEbhM5ziUadRwSRZijMQmS2QneZgE8q/scc4QKrfBeMTTGqzB1vF1gWQsyyTSz93HbO1ItTV3rpn+6Cm45oJEXM+6gh1NHowRL9XtCtSbxPD0jnk2ZaFPRRbYq9NNREXN4RR0sKKq9s7xxPfpZ17gdmQ=="}`

func TestDecrypt_LegacyEnvelope(t *testing.T) {
	e := fast(t)
	env, err := ParseEnvelope([]byte(legacyEnvelope))
	require.NoError(t, err)
	assert.Equal(t, 0, env.Version)

	plaintext, err := e.Decrypt("correct horse battery staple", env)
	require.NoError(t, err)
	assert.Equal(t,
		`{"mnemonic":"abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about","numberOfAccounts":1,"hdPath":"m/44'/60'/0'/0"}`,
		string(plaintext))

	var state types.SerializedKeyring
	require.NoError(t, e.DecryptJSON("correct horse battery staple", []byte(legacyEnvelope), &state))
	assert.Equal(t, 1, state.NumberOfAccounts)
	assert.Equal(t, "m/44'/60'/0'/0", state.PathTemplate())

	err = e.DecryptJSON("wrong", []byte(legacyEnvelope), &state)
	assert.ErrorIs(t, err, types.ErrDecryption)
}

func TestEncryptJSON_RoundTrip(t *testing.T) {
	e := fast(t)
	in := types.SerializedKeyring{
		Mnemonic:               types.MnemonicBytes("abandon about"),
		NumberOfAccounts:       2,
		DerivationPathTemplate: "m/44'/60'/0'/0/{index}",
		Chain:                  types.ChainEVM,
		AccountIndices:         []uint32{0, 2},
	}
	blob, err := e.EncryptJSON("pw", in)
	require.NoError(t, err)

	var wire map[string]interface{}
	require.NoError(t, json.Unmarshal(blob, &wire))
	for _, k := range []string{"version", "kdf", "iterations", "salt", "iv", "data", "mac"} {
		assert.Contains(t, wire, k)
	}
	assert.NotContains(t, string(blob), "abandon")

	var out types.SerializedKeyring
	require.NoError(t, e.DecryptJSON("pw", blob, &out))
	assert.Equal(t, in, out)
}

func TestDecryptJSON_NonJSONPlaintext(t *testing.T) {
	e := fast(t)
	env, err := e.Encrypt("pw", []byte("not json"))
	require.NoError(t, err)
	blob, err := json.Marshal(env)
	require.NoError(t, err)

	var out types.SerializedKeyring
	assert.ErrorIs(t, e.DecryptJSON("pw", blob, &out), types.ErrDecryption)
	assert.ErrorIs(t, e.DecryptJSON("pw", []byte("{{"), &out), types.ErrDecryption)
}

func TestEncrypt_Errors(t *testing.T) {
	e := fast(t)
	_, err := e.Encrypt("", []byte("x"))
	assert.ErrorIs(t, err, types.ErrValidation)

	_, err = e.WithRandom(bytes.NewReader(nil)).Encrypt("pw", []byte("x"))
	assert.ErrorIs(t, err, types.ErrEntropy)
}

func TestEncrypt_DeterministicWithFixedRandom(t *testing.T) {
	random := bytes.Repeat([]byte{7}, MinSaltSize+ivSize)
	env, err := fast(t).WithRandom(bytes.NewReader(random)).Encrypt("pw", []byte("state"))
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString(random[:MinSaltSize]), env.Salt)
	assert.Equal(t, hex.EncodeToString(random[MinSaltSize:]), env.IV)
}

func TestOptions_Validate(t *testing.T) {
	assert.NoError(t, DefaultOptions().Validate())
	for _, o := range []Options{
		{Iterations: MinIterations - 1, SaltSize: MinSaltSize},
		{Iterations: MinIterations, SaltSize: MinSaltSize - 1},
		{Iterations: maxIterations + 1, SaltSize: MinSaltSize},
	} {
		_, err := New(o)
		assert.True(t, errors.Is(err, types.ErrValidation), "%+v", o)
	}
}

func TestPKCS7(t *testing.T) {
	for n := 0; n < 40; n++ {
		data := bytes.Repeat([]byte{1}, n)
		padded := pkcs7Pad(data, 16)
		assert.Zero(t, len(padded)%16)
		out, err := pkcs7Unpad(padded, 16)
		require.NoError(t, err)
		assert.Equal(t, data, out)
	}
	_, err := pkcs7Unpad(append(bytes.Repeat([]byte{1}, 15), 0), 16)
	assert.Error(t, err)
	_, err = pkcs7Unpad(append(bytes.Repeat([]byte{1}, 15), 17), 16)
	assert.Error(t, err)
}
