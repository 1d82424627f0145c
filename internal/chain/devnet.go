package chain

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

// DevKeys are the publicly known private keys of the first accounts funded by
// anvil and hardhat when started with their default mnemonic. They hold no
// value on any public network.
var DevKeys = []string{
	"ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80",
	"59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d",
	"5de4111afa1a4b94908f83103eb1f1706367c2e68ca870fc3fb9a804cdab365a",
	"7c852118294e51e653712a81e05800f419141751be58f605c371e15141b007a6",
}

// DevKey returns the i-th dev account key.
func DevKey(i int) (*ecdsa.PrivateKey, error) {
	if i < 0 || i >= len(DevKeys) {
		return nil, fmt.Errorf("dev account %d out of range (have %d)", i, len(DevKeys))
	}
	return crypto.HexToECDSA(DevKeys[i])
}
