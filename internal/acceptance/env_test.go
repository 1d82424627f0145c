package acceptance

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/onlyburns/oburnctl/internal/addrbook"
	"github.com/onlyburns/oburnctl/internal/chain"
	"github.com/onlyburns/oburnctl/internal/contract"
	"github.com/onlyburns/oburnctl/test/fixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simEnv(t *testing.T, network chain.Network) *Env {
	t.Helper()
	env, _ := newSimEnv(t, network, func(t *testing.T, dir string) { fixtures.WriteDeployArtifacts(t, dir) })
	return env
}

// newSimEnv builds an Env on a fresh simulated chain with the artifacts
// writeArtifacts puts in its build directory.
func newSimEnv(t *testing.T, network chain.Network, writeArtifacts func(*testing.T, string)) (*Env, *fixtures.SimChain) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "build")
	writeArtifacts(t, dir)

	sim := fixtures.NewSimChain(t)
	signers, err := DevSigners()
	require.NoError(t, err)
	env, err := NewEnv(context.Background(), sim.Client, network, contract.NewArtifactStore(dir), signers,
		WithTransactorOptions(contract.WithPoll(5*time.Millisecond), contract.WithTimeout(10*time.Second)))
	require.NoError(t, err)
	return env, sim
}

func TestNewEnvUsesDevAccounts(t *testing.T) {
	env := simEnv(t, chain.Network{Name: "development", ChainID: 1337, Dev: true})
	require.Len(t, env.Accounts, len(chain.DevKeys))
	assert.Equal(t, common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"), env.Accounts[0].From())
	assert.Equal(t, env.Accounts[0].From(), env.Deployer.Transactor().From())

	_, err := env.Account(len(chain.DevKeys))
	assert.ErrorIs(t, err, ErrNeedsDevChain)
}

func TestNewLocalDeploysFreshMocks(t *testing.T) {
	env := simEnv(t, chain.Network{Name: "development", ChainID: 1337, Dev: true})
	ctx := context.Background()

	first, err := env.newLocal(ctx)
	require.NoError(t, err)
	second, err := env.newLocal(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first.mocks.OBURN.Address, second.mocks.OBURN.Address)
	assert.Equal(t, env.Accounts[2], first.acct2)

	presale, ex, err := first.presaleAndExchange(ctx, first.acct2)
	require.NoError(t, err)
	assert.Equal(t, "OburnTokenPresale", presale.Name)
	assert.Equal(t, "OburnExchange", ex.Name)
}

func TestNewLocalNeedsDevChain(t *testing.T) {
	env := simEnv(t, chain.Network{Name: "polygon-test", ChainID: 1337})
	_, err := env.newLocal(context.Background())
	assert.ErrorIs(t, err, ErrNeedsDevChain)
}

func TestNewSwapNeedsLiveAddresses(t *testing.T) {
	env := simEnv(t, chain.Network{Name: "polygon-test", ChainID: 1337})
	_, err := env.newSwap()
	assert.ErrorIs(t, err, addrbook.ErrUnresolved)

	env.Live = addrbook.Addresses{
		addrbook.BurnSwap: common.HexToAddress("0x01"),
		addrbook.OBURN:    common.HexToAddress("0x02"),
		addrbook.USDC:     common.HexToAddress("0x03"),
		addrbook.Router:   common.HexToAddress("0x04"),
	}
	f, err := env.newSwap()
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x01"), f.swap.Address)
}
