package fixtures

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/onlyburns/oburnctl/internal/chain"
	"github.com/onlyburns/oburnctl/internal/contract"
	"github.com/onlyburns/oburnctl/internal/wallet"
	"github.com/stretchr/testify/require"
)

// SimChain is an in-process chain that mines pending transactions on a short
// timer so code that waits for receipts can run unchanged.
type SimChain struct {
	Backend *simulated.Backend
	Client  simulated.Client
	Signers []*wallet.Signer

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewSimChain starts a simulated chain with the dev accounts funded.
func NewSimChain(t *testing.T) *SimChain {
	t.Helper()

	alloc := types.GenesisAlloc{}
	var signers []*wallet.Signer
	funds, _ := new(big.Int).SetString("1000000000000000000000", 10)
	for i := range chain.DevKeys {
		key, err := chain.DevKey(i)
		require.NoError(t, err)
		alloc[crypto.PubkeyToAddress(key.PublicKey)] = types.Account{Balance: funds}
		signers = append(signers, wallet.NewSigner(key))
	}

	backend := simulated.NewBackend(alloc)
	sc := &SimChain{
		Backend: backend,
		Client:  backend.Client(),
		Signers: signers,
		stop:    make(chan struct{}),
	}

	sc.wg.Add(1)
	go func() {
		defer sc.wg.Done()
		ticker := time.NewTicker(5 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-sc.stop:
				return
			case <-ticker.C:
				backend.Commit()
			}
		}
	}()

	t.Cleanup(func() {
		close(sc.stop)
		sc.wg.Wait()
		backend.Close() //nolint:errcheck
	})
	return sc
}

// Transactor returns a fast-polling transactor for dev account i.
func (sc *SimChain) Transactor(t *testing.T, i int) *contract.Transactor {
	t.Helper()
	tx, err := contract.NewTransactor(context.Background(), sc.Client, sc.Signers[i],
		contract.WithPoll(5*time.Millisecond),
		contract.WithTimeout(10*time.Second),
	)
	require.NoError(t, err)
	return tx
}

// DeployCode creates a contract from raw creation code, sent by dev account
// i, and returns its address.
func (sc *SimChain) DeployCode(t *testing.T, i int, code string) common.Address {
	t.Helper()
	r, err := sc.Transactor(t, i).Send(context.Background(), nil, common.FromHex(code), nil)
	require.NoError(t, err)
	require.NotEqual(t, common.Address{}, r.ContractAddress)
	return r.ContractAddress
}
