package hdkey

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/keyring/internal/core/infrastructure/crypto/hdpath"
	"github.com/weisyn/keyring/internal/core/infrastructure/crypto/mnemonic"
	"github.com/weisyn/keyring/pkg/types"
)

const vectorSeed = "000102030405060708090a0b0c0d0e0f"

func seedBytes(t *testing.T) []byte {
	t.Helper()
	seed, err := hex.DecodeString(vectorSeed)
	require.NoError(t, err)
	return seed
}

// BIP32 test vector 1.
func TestSecp256k1_BIP32Vector(t *testing.T) {
	tests := []struct {
		path string
		priv string
	}{
		{"m", "e8f32e723decf4051aefac8e2c93c9c5b214313817cdb01a1494b917c8436b35"},
		{"m/0'", "edb2e14f9ee77d26dd93b4ecede8d16ed408ce149b6cd80b0715a2d911a0afea"},
		{"m/0'/1", "3c6cb8d0f6a264c91ea8b5030fadaa8e538b020f0a387421a12de9319dc93368"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			path, err := hdpath.Parse(tt.path)
			require.NoError(t, err)
			km, err := DeriveKeyMaterial(types.CurveSecp256k1, seedBytes(t), path)
			require.NoError(t, err)
			assert.Equal(t, tt.priv, hex.EncodeToString(km.PrivateKey))
			assert.Len(t, km.PublicKey, 65)
			assert.Equal(t, byte(0x04), km.PublicKey[0])
		})
	}
}

// SLIP-0010 ed25519 test vector 1.
func TestEd25519_SLIP10Vector(t *testing.T) {
	tests := []struct {
		path string
		priv string
		pub  string
	}{
		{"m", "2b4be7f19ee27bbf30c667b642d5f4aa69fd169872f8fc3059c08ebae2eb19e7", "a4b2856bfec510abab89753fac1ac0e1112364e7d250545963f135f2a33188ed"},
		{"m/0'", "68e0fe46dfb67e368c75379acec591dad19df3cde26e63b93a8e704f1dade7a3", "8c8a13df77a28f3445213a0f432fde644acaa215fc72dcdf300d5efaa85d350c"},
		{"m/0'/1'", "b1d0bad404bf35da785a64ca1ac54b2617211d2777696fbffaf208f746ae84f2", "1932a5270f335bed617d5b935c80aedb1a35bd9fc1e31acafd5372c30f5c1187"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			path, err := hdpath.Parse(tt.path)
			require.NoError(t, err)
			km, err := DeriveKeyMaterial(types.CurveEd25519, seedBytes(t), path)
			require.NoError(t, err)
			require.Len(t, km.PrivateKey, 64)
			assert.Equal(t, tt.priv, hex.EncodeToString(km.PrivateKey[:32]))
			assert.Equal(t, tt.pub, hex.EncodeToString(km.PublicKey))
			assert.Equal(t, km.PublicKey, km.PrivateKey[32:])
		})
	}
}

func TestEd25519_RejectsNonHardened(t *testing.T) {
	master, err := NewMaster(types.CurveEd25519, seedBytes(t))
	require.NoError(t, err)
	_, err = master.Derive(hdpath.Path{hdpath.HardenedOffset, 1})
	assert.ErrorIs(t, err, types.ErrCrypto)
}

// Deriving the root once and then the relative path must equal deriving the
// full path from the master.
func TestDerive_RootThenRelative(t *testing.T) {
	seed, err := mnemonic.ToSeed("abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about", "")
	require.NoError(t, err)

	for _, c := range []struct {
		curve    types.Curve
		template string
	}{
		{types.CurveSecp256k1, hdpath.EVMTemplate},
		{types.CurveSecp256k1, hdpath.FilecoinTestnetTemplate},
		{types.CurveEd25519, hdpath.SolanaTemplate},
	} {
		t.Run(c.template, func(t *testing.T) {
			tmpl := hdpath.MustParseTemplate(c.template)
			master, err := NewMaster(c.curve, seed)
			require.NoError(t, err)
			root, err := master.Derive(tmpl.Root())
			require.NoError(t, err)

			for i := uint32(0); i < 3; i++ {
				rel, err := tmpl.Relative(i)
				require.NoError(t, err)
				viaRoot, err := root.Derive(rel)
				require.NoError(t, err)
				a, err := viaRoot.KeyMaterial()
				require.NoError(t, err)

				full, err := tmpl.Account(i)
				require.NoError(t, err)
				b, err := DeriveKeyMaterial(c.curve, seed, full)
				require.NoError(t, err)
				assert.Equal(t, b, a)
			}
		})
	}
}

func TestDerive_LeavesReceiverIntact(t *testing.T) {
	for _, curve := range []types.Curve{types.CurveSecp256k1, types.CurveEd25519} {
		master, err := NewMaster(curve, seedBytes(t))
		require.NoError(t, err)
		before, err := master.KeyMaterial()
		require.NoError(t, err)

		child, err := master.Derive(nil)
		require.NoError(t, err)
		child.Wipe()

		after, err := master.KeyMaterial()
		require.NoError(t, err)
		assert.Equal(t, before, after, curve)
	}
}

func TestNewMaster_Errors(t *testing.T) {
	_, err := NewMaster("p256", seedBytes(t))
	assert.ErrorIs(t, err, types.ErrValidation)

	_, err = NewMaster(types.CurveEd25519, []byte{1, 2, 3})
	assert.ErrorIs(t, err, types.ErrValidation)

	_, err = NewMaster(types.CurveSecp256k1, []byte{1, 2, 3})
	assert.ErrorIs(t, err, types.ErrCrypto)
}
