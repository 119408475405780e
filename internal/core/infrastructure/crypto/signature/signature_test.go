package signature

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/keyring/pkg/types"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

// keccak256("cow"), the signer of the EIP-712 reference example.
const cowKey = "c85ef7d79691fe79573b1a7064c19c1a9819ebdbd1faaab1a8ec92344438aaf4"

func TestSignDigest_RecoverAndVerify(t *testing.T) {
	priv := mustHex(t, cowKey)
	pub, err := PublicKeyFromPrivate(priv)
	require.NoError(t, err)

	for _, msg := range []string{"", "transfer 1 FIL", "another digest"} {
		digest := crypto.Keccak256([]byte(msg))
		sig, err := SignDigest(priv, digest)
		require.NoError(t, err)
		require.Len(t, sig, RecoverableSignatureLength)
		assert.LessOrEqual(t, sig[64], byte(1))

		recovered, err := RecoverPublicKey(digest, sig)
		require.NoError(t, err)
		assert.Equal(t, pub, recovered)
		assert.True(t, VerifyDigest(pub, digest, sig))

		// go-ethereum agrees on the recovery
		gethPub, err := crypto.Ecrecover(digest, sig)
		require.NoError(t, err)
		assert.Equal(t, pub, gethPub)

		again, err := SignDigest(priv, digest)
		require.NoError(t, err)
		assert.Equal(t, sig, again, "signatures are deterministic")
	}
}

func TestSignDigest_Errors(t *testing.T) {
	priv := mustHex(t, cowKey)
	_, err := SignDigest(priv, []byte("short"))
	assert.ErrorIs(t, err, types.ErrValidation)

	_, err = SignDigest(priv[:31], make([]byte, 32))
	assert.ErrorIs(t, err, types.ErrCrypto)

	_, err = RecoverPublicKey(make([]byte, 32), make([]byte, 64))
	assert.ErrorIs(t, err, types.ErrValidation)

	sig := make([]byte, 65)
	sig[64] = 9
	_, err = RecoverPublicKey(make([]byte, 32), sig)
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestVerifyDigest_RejectsTampering(t *testing.T) {
	priv := mustHex(t, cowKey)
	pub, err := PublicKeyFromPrivate(priv)
	require.NoError(t, err)
	digest := crypto.Keccak256([]byte("payload"))
	sig, err := SignDigest(priv, digest)
	require.NoError(t, err)

	bad := bytes.Clone(sig)
	bad[10] ^= 0xff
	assert.False(t, VerifyDigest(pub, digest, bad))
	assert.False(t, VerifyDigest(pub, crypto.Keccak256([]byte("other")), sig))
	assert.False(t, VerifyDigest([]byte{1, 2, 3}, digest, sig))
}

// The EIP-712 reference "Mail" example and its published signature.
const mailTypedData = `{
  "types": {
    "EIP712Domain": [
      {"name": "name", "type": "string"},
      {"name": "version", "type": "string"},
      {"name": "chainId", "type": "uint256"},
      {"name": "verifyingContract", "type": "address"}
    ],
    "Person": [
      {"name": "name", "type": "string"},
      {"name": "wallet", "type": "address"}
    ],
    "Mail": [
      {"name": "from", "type": "Person"},
      {"name": "to", "type": "Person"},
      {"name": "contents", "type": "string"}
    ]
  },
  "primaryType": "Mail",
  "domain": {
    "name": "Ether Mail",
    "version": "1",
    "chainId": "1",
    "verifyingContract": "0xCcCCccccCCCCcCCCCCCcCcCccCcCCCcCcccccccC"
  },
  "message": {
    "from": {"name": "Cow", "wallet": "0xCD2a3d9F938E13CD947Ec05AbC7FE734Df8DD826"},
    "to": {"name": "Bob", "wallet": "0xbBbBBBBbbBBBbbbBbbBbbbbBBbBbbbbBbBbbBBbB"},
    "contents": "Hello, Bob!"
  }
}`

func TestTypedData_EIP712Vector(t *testing.T) {
	hash, err := TypedDataHash([]byte(mailTypedData))
	require.NoError(t, err)
	assert.Equal(t, "be609aee343fb3c4b28e1df9e632fca64fcfaede20f02e86244efddf30957bd2", hex.EncodeToString(hash))

	sig, err := SignTypedData(mustHex(t, cowKey), []byte(mailTypedData))
	require.NoError(t, err)
	assert.Equal(t,
		"4355c47d63924e8a72e509b65029052eb6c299d53a04e167c5775fd466751c9d"+
			"07299936d304c153f6443dfa05f40ff007d72911b6f72307f996231605b91562"+"1c",
		hex.EncodeToString(sig))
}

func TestTypedData_Invalid(t *testing.T) {
	_, err := TypedDataHash([]byte("not json"))
	assert.ErrorIs(t, err, types.ErrValidation)

	_, err = TypedDataHash([]byte(`{"types":{"EIP712Domain":[]},"primaryType":"Missing","domain":{},"message":{"x":"1"}}`))
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestPersonalMessage(t *testing.T) {
	priv := mustHex(t, cowKey)
	msg := []byte("hello keyring")

	sig, err := SignPersonalMessage(priv, msg)
	require.NoError(t, err)
	assert.Contains(t, []byte{27, 28}, sig[64])

	pub, err := RecoverPersonalMessageSigner(msg, sig)
	require.NoError(t, err)
	key, err := crypto.UnmarshalPubkey(pub)
	require.NoError(t, err)
	assert.Equal(t, "0xCD2a3d9F938E13CD947Ec05AbC7FE734Df8DD826", crypto.PubkeyToAddress(*key).Hex())
}

func TestEd25519(t *testing.T) {
	// SLIP-0010 key for m/44'/501'/0'/0' of the all-"abandon" mnemonic
	seed := mustHex(t, "37df573b3ac4ad5b522e064e25b63ea16bcbe79d449e81a0268d1047948bb445")
	priv := make([]byte, 0, 64)
	priv = append(priv, seed...)
	priv = append(priv, mustHex(t, "f036276246a75b9de3349ed42b15e232f6518fc20f5fcd4f1d64e81f9bd258f7")...)

	msg := []byte("hello solana")
	sig, err := SignEd25519(priv, msg)
	require.NoError(t, err)
	assert.Equal(t,
		"4ba99d939df9a3ba6beaf448ced8580c2de6e84a2d217590e31c72fce7ce4c03"+
			"67df1908a6d6e6d027f7078fa0c592dbaeddc69ef38e75cfc675e86493ed9a09",
		hex.EncodeToString(sig))
	assert.True(t, VerifyEd25519(priv[32:], msg, sig))
	assert.False(t, VerifyEd25519(priv[32:], []byte("hello solana!"), sig))

	_, err = SignEd25519(seed, msg)
	assert.ErrorIs(t, err, types.ErrCrypto)
}

// eth-sig-util reference vector.
const (
	bobKey           = "7e5374ec2ef0d91761a6e72fdf8f6ac665519bfdf6da0a2329cf0d804514b816"
	bobEncryptionKey = "C5YMNdqE4kLgxQhJO1MfuQcHP5hjVSXzamzd/TxlR0U="
	bobEncrypted     = `{"version":"x25519-xsalsa20-poly1305","nonce":"1dvWO7uOnBnO7iNDJ9kO9pTasLuKNlej","ephemPublicKey":"FBH1/pAEHOOW14Lu3FWkgV3qOEcuL78Zy+qW1RwzMXQ=","ciphertext":"f8kBcl/NCyf3sybfbwAKk/np2Bzt9lRVkZejr6uh5FgnNlH/ic62DZzy"}`
)

func TestEncryptionPublicKey(t *testing.T) {
	pub, err := EncryptionPublicKey(mustHex(t, bobKey))
	require.NoError(t, err)
	assert.Equal(t, bobEncryptionKey, pub)
}

func TestDecrypt_Vector(t *testing.T) {
	plaintext, err := Decrypt(mustHex(t, bobKey), []byte(bobEncrypted))
	require.NoError(t, err)
	assert.Equal(t, "My name is Satoshi Buterin", string(plaintext))

	_, err = Decrypt(mustHex(t, cowKey), []byte(bobEncrypted))
	assert.ErrorIs(t, err, types.ErrDecryption)
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	priv := mustHex(t, cowKey)
	pub, err := EncryptionPublicKey(priv)
	require.NoError(t, err)

	data, err := Encrypt(pub, []byte("secret note"))
	require.NoError(t, err)
	assert.Equal(t, EncryptionVersion, data.Version)

	payload, err := json.Marshal(data)
	require.NoError(t, err)
	plaintext, err := Decrypt(priv, payload)
	require.NoError(t, err)
	assert.Equal(t, "secret note", string(plaintext))
}

func TestDecrypt_Malformed(t *testing.T) {
	priv := mustHex(t, bobKey)
	for _, payload := range []string{
		`nope`,
		`{"version":"aes","nonce":"","ephemPublicKey":"","ciphertext":""}`,
		`{"version":"x25519-xsalsa20-poly1305","nonce":"AAAA","ephemPublicKey":"FBH1/pAEHOOW14Lu3FWkgV3qOEcuL78Zy+qW1RwzMXQ=","ciphertext":""}`,
	} {
		_, err := Decrypt(priv, []byte(payload))
		assert.ErrorIs(t, err, types.ErrValidation, payload)
	}
}
