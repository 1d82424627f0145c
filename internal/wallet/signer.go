package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// EnvPrivateKey names the env var that overrides any stored key.
const EnvPrivateKey = "PRIVATE_KEY"

// ErrNoKey is returned when no signing key is configured.
var ErrNoKey = errors.New("no signing key configured")

// ErrInvalidKey is returned for keys that are not 32-byte secp256k1 scalars.
var ErrInvalidKey = errors.New("invalid private key")

// Signer signs EVM transactions with a single private key.
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewSigner wraps an already parsed key.
func NewSigner(key *ecdsa.PrivateKey) *Signer {
	return &Signer{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}
}

// NewSignerFromHex parses a hex key, with or without 0x.
func NewSignerFromHex(hexKey string) (*Signer, error) {
	key, err := crypto.HexToECDSA(normaliseHexKey(hexKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return NewSigner(key), nil
}

// ResolveSigner picks the signing key: PRIVATE_KEY env first, then the
// keystore entry for wallet name. An empty name with no env key is ErrNoKey.
func ResolveSigner(ks KeyStore, name string) (*Signer, error) {
	if env := os.Getenv(EnvPrivateKey); env != "" {
		return NewSignerFromHex(env)
	}
	if name == "" || ks == nil {
		return nil, ErrNoKey
	}
	hexKey, err := ks.Retrieve(Ref(name))
	if errors.Is(err, ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: wallet %q has no stored key", ErrNoKey, name)
	}
	if err != nil {
		return nil, fmt.Errorf("retrieving key: %w", err)
	}
	return NewSignerFromHex(hexKey)
}

// Address returns the signer's address.
func (s *Signer) Address() common.Address {
	return s.address
}

// SignTx signs an EVM transaction with the London signer for chainID.
func (s *Signer) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	signed, err := types.SignTx(tx, types.NewLondonSigner(chainID), s.key)
	if err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}
	return signed, nil
}
