package deploy_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/onlyburns/oburnctl/internal/addrbook"
	"github.com/onlyburns/oburnctl/internal/chain"
	"github.com/onlyburns/oburnctl/internal/contract"
	"github.com/onlyburns/oburnctl/internal/deploy"
	"github.com/onlyburns/oburnctl/internal/explorer"
	"github.com/onlyburns/oburnctl/test/fixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVerifier struct {
	reqs []explorer.Request
	err  error
}

func (f *fakeVerifier) Submit(_ context.Context, req explorer.Request) (string, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return "", f.err
	}
	return "guid-1", nil
}

type harness struct {
	regPath  string
	deployer *deploy.Deployer
	registry *contract.Registry
	verifier *fakeVerifier
}

func newHarness(t *testing.T, network string, failing ...string) *harness {
	t.Helper()
	dir := t.TempDir()
	fixtures.WriteDeployArtifacts(t, filepath.Join(dir, "build"), failing...)

	sim := fixtures.NewSimChain(t)
	regPath := filepath.Join(dir, "deployments.json")
	reg := contract.NewRegistry(regPath)
	v := &fakeVerifier{}
	d := deploy.New(sim.Transactor(t, 0), contract.NewArtifactStore(filepath.Join(dir, "build")),
		chain.Network{Name: network, ChainID: 1337},
		deploy.WithRegistry(reg),
		deploy.WithVerifier(v),
	)
	return &harness{regPath: regPath, deployer: d, registry: reg, verifier: v}
}

func addr(b byte) common.Address { return common.BytesToAddress([]byte{b}) }

// ---------------------------------------------------------------------------
// Deployer
// ---------------------------------------------------------------------------

func TestDeployRecordsRegistry(t *testing.T) {
	h := newHarness(t, "development")

	dep, err := h.deployer.Deploy(context.Background(), deploy.OnlyBurns, addr(1), addr(2), addr(3))
	require.NoError(t, err)
	assert.NotEqual(t, common.Address{}, dep.Address)
	assert.Equal(t, contract.VerifySkipped, dep.Verify)
	assert.Empty(t, h.verifier.reqs, "development is not on the verify allowlist")

	rec, err := h.registry.Get(deploy.OnlyBurns, "development")
	require.NoError(t, err)
	assert.Equal(t, dep.Address.Hex(), rec.Address)
	assert.Equal(t, dep.TxHash.Hex(), rec.TxHash)
	assert.Equal(t, h.deployer.Transactor().From().Hex(), rec.Deployer)
	assert.Equal(t, []string{addr(1).Hex(), addr(2).Hex(), addr(3).Hex()}, rec.Constructor)

	// The registry was saved, not only updated in memory.
	reloaded := contract.NewRegistry(h.regPath)
	require.NoError(t, reloaded.Load())
	_, err = reloaded.Get(deploy.OnlyBurns, "development")
	assert.NoError(t, err)
}

func TestDeployedContractIsCallable(t *testing.T) {
	h := newHarness(t, "development")
	ctx := context.Background()

	dep, err := h.deployer.Deploy(ctx, deploy.GenericToken)
	require.NoError(t, err)
	got, err := dep.Bound(h.deployer.Transactor().Backend()).CallBig(ctx, common.Address{}, "answer")
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.Int64())
}

func TestDeploySubmitsVerificationOnAllowlistedNetwork(t *testing.T) {
	h := newHarness(t, "polygon-test")

	dep, err := h.deployer.Deploy(context.Background(), deploy.MockUniswapV2Router02, addr(9))
	require.NoError(t, err)
	assert.Equal(t, contract.VerifySubmitted, dep.Verify)
	assert.Equal(t, "guid-1", dep.VerifyGUID)

	require.Len(t, h.verifier.reqs, 1)
	req := h.verifier.reqs[0]
	assert.Equal(t, deploy.MockUniswapV2Router02, req.ContractName)
	assert.Equal(t, dep.Address, req.Address)
	assert.Equal(t, common.LeftPadBytes([]byte{9}, 32), req.ConstructorArgs)

	rec, err := h.registry.Get(deploy.MockUniswapV2Router02, "polygon-test")
	require.NoError(t, err)
	assert.Equal(t, contract.VerifySubmitted, rec.Verify)
	assert.Equal(t, "guid-1", rec.VerifyGUID)
}

func TestDeployVerificationFailureIsNotFatal(t *testing.T) {
	h := newHarness(t, "bsc-test")
	h.verifier.err = errors.New("explorer down")

	dep, err := h.deployer.Deploy(context.Background(), deploy.GenericToken)
	require.NoError(t, err)
	assert.Equal(t, contract.VerifyFailed, dep.Verify)

	rec, err := h.registry.Get(deploy.GenericToken, "bsc-test")
	require.NoError(t, err)
	assert.Equal(t, contract.VerifyFailed, rec.Verify)
}

func TestDeployMissingArtifact(t *testing.T) {
	h := newHarness(t, "development")
	_, err := h.deployer.Deploy(context.Background(), "Nope")
	assert.ErrorIs(t, err, contract.ErrArtifactNotFound)
}

func TestDeployConstructorRevert(t *testing.T) {
	h := newHarness(t, "development", deploy.BurnSwap)
	_, err := h.deployer.Deploy(context.Background(), deploy.BurnSwap, addr(1), addr(2), addr(3), addr(4))
	require.Error(t, err)
	assert.True(t, contract.IsRevert(err))
	assert.Empty(t, h.registry.All())
}

// ---------------------------------------------------------------------------
// Plans
// ---------------------------------------------------------------------------

func TestPresaleAndExchangeOrder(t *testing.T) {
	h := newHarness(t, "development")
	a := addrbook.Addresses{
		addrbook.PresaleWallet: addr(1),
		addrbook.OBURN:         addr(2),
		addrbook.USDC:          addr(3),
		addrbook.TBURN:         addr(4),
	}

	deps, err := deploy.PresaleAndExchange(context.Background(), h.deployer, a)
	require.NoError(t, err)
	require.Len(t, deps, 2)
	assert.Equal(t, deploy.OburnTokenPresale, deps[0].Name)
	assert.Equal(t, []any{addr(1), addr(2), addr(3)}, deps[0].Args)
	assert.Equal(t, deploy.OburnExchange, deps[1].Name)
	assert.Equal(t, []any{addr(4), addr(2)}, deps[1].Args)
	assert.LessOrEqual(t, deps[0].Block, deps[1].Block)
}

func TestPlanStopsAtFirstFailure(t *testing.T) {
	h := newHarness(t, "development", deploy.OburnExchange)
	a := addrbook.Addresses{
		addrbook.PresaleWallet: addr(1),
		addrbook.OBURN:         addr(2),
		addrbook.USDC:          addr(3),
		addrbook.TBURN:         addr(4),
	}

	deps, err := deploy.PresaleAndExchange(context.Background(), h.deployer, a)
	require.Error(t, err)
	require.Len(t, deps, 1)
	assert.Equal(t, deploy.OburnTokenPresale, deps[0].Name)

	recs := h.registry.All()
	require.Len(t, recs, 1)
	assert.Equal(t, deploy.OburnTokenPresale, recs[0].Name)
}

func TestTokenAndBurnSwapPlans(t *testing.T) {
	h := newHarness(t, "development")
	ctx := context.Background()
	a := addrbook.Addresses{
		addrbook.Router:        addr(1),
		addrbook.ServiceWallet: addr(2),
		addrbook.USDC:          addr(3),
		addrbook.Pair:          addr(4),
		addrbook.OBURN:         addr(5),
	}

	tok, err := deploy.Token(ctx, h.deployer, a)
	require.NoError(t, err)
	assert.Equal(t, []any{addr(1), addr(2), addr(3)}, tok[0].Args)

	bs, err := deploy.BurnSwapPlan(ctx, h.deployer, a)
	require.NoError(t, err)
	assert.Equal(t, []any{addr(1), addr(4), addr(5), addr(3)}, bs[0].Args)
}

func TestMocksDeployRouterAfterFactory(t *testing.T) {
	h := newHarness(t, "development")

	m, err := deploy.Mocks(context.Background(), h.deployer)
	require.NoError(t, err)

	all := m.All()
	require.Len(t, all, 5)
	names := make([]string, len(all))
	for i, d := range all {
		names[i] = d.Name
	}
	assert.Equal(t, []string{
		deploy.GenericToken, deploy.GenericToken, deploy.GenericToken,
		deploy.MockUniswapV2Factory, deploy.MockUniswapV2Router02,
	}, names)
	assert.Equal(t, []any{m.Factory.Address}, m.Router.Args)
	assert.GreaterOrEqual(t, m.Router.Block, m.Factory.Block)

	// Three distinct token addresses.
	assert.NotEqual(t, m.TBURN.Address, m.OBURN.Address)
	assert.NotEqual(t, m.OBURN.Address, m.USDC.Address)

	a := m.Addresses()
	assert.Equal(t, m.Router.Address, a.Get(addrbook.Router))
	assert.Equal(t, m.USDC.Address, a.Get(addrbook.USDC))
}

func TestPlansRegistry(t *testing.T) {
	for _, name := range []string{"presale-exchange", "token", "burnswap", "mocks"} {
		p, ok := deploy.Plans[name]
		require.True(t, ok, name)
		assert.Equal(t, name, p.Name)
		assert.NotNil(t, p.Run)
	}
	assert.Empty(t, deploy.Plans["mocks"].Roles)
}
