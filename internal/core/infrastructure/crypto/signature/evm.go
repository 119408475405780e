package signature

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/weisyn/keyring/pkg/types"
)

// evmVOffset turns a 0/1 recovery id into the 27/28 form EVM message
// signatures carry.
const evmVOffset = 27

// PersonalMessageHash is keccak256("\x19Ethereum Signed Message:\n" + len + message).
func PersonalMessageHash(message []byte) []byte {
	return accounts.TextHash(message)
}

// SignPersonalMessage signs message per EIP-191 and returns r || s || v with
// v in {27, 28}.
func SignPersonalMessage(privateKey, message []byte) ([]byte, error) {
	sig, err := SignDigest(privateKey, PersonalMessageHash(message))
	if err != nil {
		return nil, err
	}
	sig[64] += evmVOffset
	return sig, nil
}

// RecoverPersonalMessageSigner returns the uncompressed public key that
// signed message.
func RecoverPersonalMessageSigner(message, sig []byte) ([]byte, error) {
	return RecoverPublicKey(PersonalMessageHash(message), sig)
}

// TypedDataHash parses EIP-712 JSON (eth_signTypedData_v4) and returns the
// signing hash keccak256(0x1901 || domainSeparator || hashStruct(message)).
func TypedDataHash(typedDataJSON []byte) ([]byte, error) {
	const op = "hash typed data"
	var typedData apitypes.TypedData
	if err := json.Unmarshal(typedDataJSON, &typedData); err != nil {
		return nil, types.NewError(types.ErrValidation, op, err)
	}
	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return nil, types.NewError(types.ErrValidation, op, err)
	}
	return hash, nil
}

// SignTypedData signs EIP-712 v4 typed data and returns r || s || v with v in
// {27, 28}.
func SignTypedData(privateKey, typedDataJSON []byte) ([]byte, error) {
	hash, err := TypedDataHash(typedDataJSON)
	if err != nil {
		return nil, err
	}
	sig, err := SignDigest(privateKey, hash)
	if err != nil {
		return nil, err
	}
	sig[64] += evmVOffset
	return sig, nil
}
