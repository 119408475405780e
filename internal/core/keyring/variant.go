package keyring

import (
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/mr-tron/base58"

	"github.com/weisyn/keyring/internal/core/infrastructure/crypto/address"
	"github.com/weisyn/keyring/internal/core/infrastructure/crypto/hdpath"
	"github.com/weisyn/keyring/internal/core/infrastructure/crypto/signature"
	"github.com/weisyn/keyring/pkg/types"
)

type (
	exportFunc func(key types.KeyMaterial) (string, error)
	signFunc   func(key types.KeyMaterial, payload []byte, kind types.SignKind) ([]byte, error)
)

// Variant is everything that differs between chains. The Keyring itself is
// chain agnostic.
type Variant struct {
	Chain        types.Chain
	Curve        types.Curve
	Capabilities types.CapabilitySet

	// networkAware chains pick their address prefix and default template
	// from the network.
	networkAware bool
	mainnet      string
	testnet      string

	export exportFunc
	sign   signFunc
}

var variants = map[types.Chain]*Variant{
	types.ChainEVM: {
		Chain: types.ChainEVM,
		Curve: types.CurveSecp256k1,
		Capabilities: types.NewCapabilitySet(
			types.SignTransaction, types.SignPersonalMessage, types.SignTypedData, types.SignDecrypt),
		mainnet: hdpath.EVMTemplate,
		testnet: hdpath.EVMTemplate,
		export:  exportHex,
		sign:    signEVM,
	},
	types.ChainFilecoin: {
		Chain:        types.ChainFilecoin,
		Curve:        types.CurveSecp256k1,
		Capabilities: types.NewCapabilitySet(types.SignTransaction),
		networkAware: true,
		mainnet:      hdpath.FilecoinMainnetTemplate,
		testnet:      hdpath.FilecoinTestnetTemplate,
		export:       exportLotusKeyInfo,
		sign:         signDigestOnly,
	},
	types.ChainSolana: {
		Chain:        types.ChainSolana,
		Curve:        types.CurveEd25519,
		Capabilities: types.NewCapabilitySet(types.SignTransaction, types.SignPersonalMessage),
		mainnet:      hdpath.SolanaTemplate,
		testnet:      hdpath.SolanaTemplate,
		export:       exportBase58,
		sign:         signEd25519,
	},
}

// VariantFor returns the variant table entry for chain.
func VariantFor(chain types.Chain) (*Variant, error) {
	v, ok := variants[chain]
	if !ok {
		return nil, types.Errorf(types.ErrValidation, "keyring variant", "unsupported chain %q", chain)
	}
	return v, nil
}

// Supports reports whether the chain can sign kind.
func (v *Variant) Supports(kind types.SignKind) bool {
	return v.Capabilities.Supports(kind)
}

// DefaultTemplate returns the chain's default path template on network.
func (v *Variant) DefaultTemplate(network types.Network) string {
	if network == types.NetworkTestnet {
		return v.testnet
	}
	return v.mainnet
}

func (v *Variant) defaultTemplates() []*hdpath.Template {
	out := []*hdpath.Template{hdpath.MustParseTemplate(v.mainnet)}
	if v.testnet != v.mainnet {
		out = append(out, hdpath.MustParseTemplate(v.testnet))
	}
	return out
}

// resolveTemplate turns a configured or persisted path into a template.
//
// A value with an {index} component is used as written. A value equal to the
// root or the first account path of a default template selects that template;
// older keyrings persisted paths in both forms. Any other path is treated as
// the root and gets the index appended.
func (v *Variant) resolveTemplate(raw string, network types.Network) (*hdpath.Template, error) {
	if raw == "" {
		return hdpath.ParseTemplate(v.DefaultTemplate(network))
	}
	if strings.Contains(raw, hdpath.IndexPlaceholder) {
		t, err := hdpath.ParseTemplate(raw)
		if err != nil {
			return nil, err
		}
		return t, v.checkTemplate(t)
	}

	p, err := hdpath.Parse(raw)
	if err != nil {
		return nil, err
	}
	for _, t := range v.defaultTemplates() {
		first, _ := t.Account(0)
		if p.String() == t.Root().String() || p.String() == first.String() {
			return t, nil
		}
	}

	component := hdpath.IndexPlaceholder
	if v.Curve == types.CurveEd25519 {
		component += "'"
	}
	t, err := hdpath.ParseTemplate(p.String() + "/" + component)
	if err != nil {
		return nil, err
	}
	return t, v.checkTemplate(t)
}

// ed25519 derivation only has hardened children.
func (v *Variant) checkTemplate(t *hdpath.Template) error {
	if v.Curve == types.CurveEd25519 && !t.Hardened() {
		return types.Errorf(types.ErrValidation, "keyring template",
			"%s paths must be fully hardened, got %s", v.Chain, t)
	}
	return nil
}

// resolveNetwork returns the explicit network when set and otherwise infers
// it from the template's coin type.
func (v *Variant) resolveNetwork(explicit types.Network, t *hdpath.Template) types.Network {
	if !v.networkAware {
		return explicit
	}
	if explicit != types.NetworkUnspecified {
		return explicit
	}
	if coin, ok := t.CoinType(); ok && coin == hdpath.CoinTypeTestnet {
		return types.NetworkTestnet
	}
	return types.NetworkMainnet
}

func (v *Variant) codec(network types.Network) (address.Codec, error) {
	return address.ForChain(v.Chain, network)
}

func exportHex(key types.KeyMaterial) (string, error) {
	return hex.EncodeToString(key.PrivateKey), nil
}

// lotusKeyInfo is the key format `lotus wallet export` prints, hex encoded.
type lotusKeyInfo struct {
	Type       string
	PrivateKey []byte
}

func exportLotusKeyInfo(key types.KeyMaterial) (string, error) {
	raw, err := json.Marshal(lotusKeyInfo{Type: string(types.CurveSecp256k1), PrivateKey: key.PrivateKey})
	if err != nil {
		return "", types.NewError(types.ErrCrypto, "export private key", err)
	}
	return hex.EncodeToString(raw), nil
}

func exportBase58(key types.KeyMaterial) (string, error) {
	return base58.Encode(key.PrivateKey), nil
}

func signEVM(key types.KeyMaterial, payload []byte, kind types.SignKind) ([]byte, error) {
	switch kind {
	case types.SignTransaction:
		return signature.SignDigest(key.PrivateKey, payload)
	case types.SignPersonalMessage:
		return signature.SignPersonalMessage(key.PrivateKey, payload)
	case types.SignTypedData:
		return signature.SignTypedData(key.PrivateKey, payload)
	case types.SignDecrypt:
		return signature.Decrypt(key.PrivateKey, payload)
	}
	return nil, unsupported(types.ChainEVM, kind)
}

func signDigestOnly(key types.KeyMaterial, payload []byte, kind types.SignKind) ([]byte, error) {
	if kind != types.SignTransaction {
		return nil, unsupported(types.ChainFilecoin, kind)
	}
	return signature.SignDigest(key.PrivateKey, payload)
}

func signEd25519(key types.KeyMaterial, payload []byte, kind types.SignKind) ([]byte, error) {
	switch kind {
	case types.SignTransaction, types.SignPersonalMessage:
		return signature.SignEd25519(key.PrivateKey, payload)
	}
	return nil, unsupported(types.ChainSolana, kind)
}

func unsupported(chain types.Chain, kind types.SignKind) error {
	return types.Errorf(types.ErrUnsupportedOperation, "sign", "%s keyrings cannot sign %s", chain, kind)
}
