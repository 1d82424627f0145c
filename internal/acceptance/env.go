// Package acceptance drives the OnlyBurns contracts through their public
// methods and checks the resulting balances and revert reasons.
package acceptance

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/onlyburns/oburnctl/internal/addrbook"
	"github.com/onlyburns/oburnctl/internal/chain"
	"github.com/onlyburns/oburnctl/internal/contract"
	"github.com/onlyburns/oburnctl/internal/deploy"
	"github.com/onlyburns/oburnctl/internal/wallet"
)

// ErrNeedsDevChain marks suites that deploy fresh mocks and need funded dev accounts.
var ErrNeedsDevChain = errors.New("suite needs a development chain")

// Env is the harness the scenarios run in.
type Env struct {
	Network   chain.Network
	Backend   chain.Backend
	Artifacts *contract.ArtifactStore
	// Accounts[0] owns every contract the harness deploys.
	Accounts []*contract.Transactor
	Deployer *deploy.Deployer
	// Live holds the already-deployed BurnSwap addresses.
	Live   addrbook.Addresses
	Logger log.Logger

	txOpts []contract.TransactorOption
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithLive sets the addresses used by suites that run against deployed contracts.
func WithLive(a addrbook.Addresses) EnvOption {
	return func(e *Env) { e.Live = a }
}

// WithEnvLogger sets the logger.
func WithEnvLogger(l log.Logger) EnvOption {
	return func(e *Env) { e.Logger = l }
}

// WithTransactorOptions applies opts to every account's transactor.
func WithTransactorOptions(opts ...contract.TransactorOption) EnvOption {
	return func(e *Env) { e.txOpts = append(e.txOpts, opts...) }
}

// NewEnv builds a harness over backend. signers[0] is the owner account.
func NewEnv(ctx context.Context, backend chain.Backend, network chain.Network, artifacts *contract.ArtifactStore, signers []*wallet.Signer, opts ...EnvOption) (*Env, error) {
	if len(signers) == 0 {
		return nil, errors.New("acceptance: no accounts")
	}
	e := &Env{
		Network:   network,
		Backend:   backend,
		Artifacts: artifacts,
		Logger:    log.Root(),
	}
	for _, opt := range opts {
		opt(e)
	}
	txOpts := append([]contract.TransactorOption{contract.WithLogger(e.Logger)}, e.txOpts...)
	for _, s := range signers {
		t, err := contract.NewTransactor(ctx, backend, s, txOpts...)
		if err != nil {
			return nil, err
		}
		e.Accounts = append(e.Accounts, t)
	}
	e.Deployer = deploy.New(e.Accounts[0], artifacts, network, deploy.WithLogger(e.Logger))
	return e, nil
}

// DevSigners returns signers for the well-known development keys.
func DevSigners() ([]*wallet.Signer, error) {
	out := make([]*wallet.Signer, len(chain.DevKeys))
	for i := range chain.DevKeys {
		key, err := chain.DevKey(i)
		if err != nil {
			return nil, err
		}
		out[i] = wallet.NewSigner(key)
	}
	return out, nil
}

// Account returns dev account i.
func (e *Env) Account(i int) (*contract.Transactor, error) {
	if i >= len(e.Accounts) {
		return nil, fmt.Errorf("%w: account %d not available", ErrNeedsDevChain, i)
	}
	return e.Accounts[i], nil
}

// Bind returns a handle for the artifact name deployed at addr.
func (e *Env) Bind(name string, addr common.Address) (*contract.Bound, error) {
	a, err := e.Artifacts.Load(name)
	if err != nil {
		return nil, err
	}
	return contract.BindArtifact(a, addr, e.Backend), nil
}

// Token returns an ERC20 helper for addr.
func (e *Env) Token(symbol string, addr common.Address) *contract.Token {
	return contract.NewToken(symbol, addr, e.Backend)
}

// local is the fixture every mock-backed scenario starts from: fresh mocks
// and the owner plus the accounts the historical tests used.
type local struct {
	*Env
	mocks *deploy.MockSet
	owner *contract.Transactor
	acct2 *contract.Transactor
	acct3 *contract.Transactor
	tburn *contract.Token
	oburn *contract.Token
	usdc  *contract.Token
}

func (e *Env) newLocal(ctx context.Context) (*local, error) {
	if !e.Network.Dev || len(e.Accounts) < 4 {
		return nil, ErrNeedsDevChain
	}
	m, err := deploy.Mocks(ctx, e.Deployer)
	if err != nil {
		return nil, fmt.Errorf("deploying mocks: %w", err)
	}
	return &local{
		Env:   e,
		mocks: m,
		owner: e.Accounts[0],
		acct2: e.Accounts[2],
		acct3: e.Accounts[3],
		tburn: e.Token("TBURN", m.TBURN.Address),
		oburn: e.Token("OBURN", m.OBURN.Address),
		usdc:  e.Token("USDC", m.USDC.Address),
	}, nil
}
