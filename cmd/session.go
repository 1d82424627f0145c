package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/log"
	"github.com/onlyburns/oburnctl/internal/chain"
	"github.com/onlyburns/oburnctl/internal/config"
	"github.com/onlyburns/oburnctl/internal/contract"
	"github.com/onlyburns/oburnctl/internal/deploy"
	"github.com/onlyburns/oburnctl/internal/explorer"
	"github.com/onlyburns/oburnctl/internal/ui"
	"github.com/onlyburns/oburnctl/internal/wallet"
)

// session is a connected network plus the account that signs for it.
type session struct {
	network chain.Network
	client  *ethclient.Client
	rpcURL  string
	signer  *wallet.Signer
	tx      *contract.Transactor
}

// resolveNetwork returns the active network with configured RPCs first.
func resolveNetwork() (chain.Network, error) {
	name := activeNetwork()
	n, err := chain.NewRegistry().Resolve(name, cfg.RPCFor(name))
	if err != nil {
		return chain.Network{}, fmt.Errorf("%w\n  run `oburnctl network list` to see all networks", err)
	}
	return n, nil
}

// connect dials the active network.
func connect(ctx context.Context) (chain.Network, *ethclient.Client, string, error) {
	n, err := resolveNetwork()
	if err != nil {
		return n, nil, "", err
	}
	client, url, err := chain.Connect(ctx, n, config.DialTimeout)
	if err != nil {
		return n, nil, "", err
	}
	log.Debug("Connected", "network", n.Name, "rpc", url)
	return n, client, url, nil
}

// resolveSigner returns the configured key. Development networks fall back
// to the first well-known dev account.
func resolveSigner(n chain.Network) (*wallet.Signer, error) {
	s, err := wallet.ResolveSigner(wallet.DefaultKeystore(), cfg.DefaultWallet)
	if errors.Is(err, wallet.ErrNoKey) && n.Dev {
		key, kerr := chain.DevKey(0)
		if kerr != nil {
			return nil, kerr
		}
		return wallet.NewSigner(key), nil
	}
	if errors.Is(err, wallet.ErrNoKey) {
		return nil, fmt.Errorf("%w\n  set PRIVATE_KEY or run `oburnctl wallet import <name>`", err)
	}
	return s, err
}

// transactorOptions returns the receipt polling settings for n.
func transactorOptions(n chain.Network) []contract.TransactorOption {
	poll := config.ReceiptPoll
	if n.Dev {
		poll = config.DevReceiptPoll
	}
	return []contract.TransactorOption{
		contract.WithPoll(poll),
		contract.WithTimeout(cfg.ConfirmWait()),
	}
}

// openSession connects and builds a transactor for the signing account.
func openSession(ctx context.Context) (*session, error) {
	n, client, url, err := connect(ctx)
	if err != nil {
		return nil, err
	}
	signer, err := resolveSigner(n)
	if err != nil {
		client.Close()
		return nil, err
	}
	tx, err := contract.NewTransactor(ctx, client, signer, transactorOptions(n)...)
	if err != nil {
		client.Close()
		return nil, err
	}
	return &session{network: n, client: client, rpcURL: url, signer: signer, tx: tx}, nil
}

func (s *session) Close() { s.client.Close() }

// deployer returns a Deployer that records into the registry and verifies
// on allowlisted networks when an explorer key is configured.
func (s *session) deployer() (*deploy.Deployer, error) {
	reg := contract.NewRegistry(cfg.DeploymentsPath())
	if err := reg.Load(); err != nil {
		return nil, err
	}
	opts := []deploy.Option{deploy.WithRegistry(reg), deploy.WithLogger(log.Root())}
	if v := verifierFor(s.network); v != nil {
		opts = append(opts, deploy.WithVerifier(v))
	}
	return deploy.New(s.tx, contract.NewArtifactStore(cfg.ArtifactsPath()), s.network, opts...), nil
}

// verifierFor returns nil when n is not verified or no key is configured.
func verifierFor(n chain.Network) *explorer.Verifier {
	if !chain.ShouldVerify(n.Name) || n.ExplorerAPI == "" {
		return nil
	}
	key := cfg.ExplorerKey(n.Name)
	if key == "" {
		log.Warn("No explorer API key, verification disabled", "network", n.Name)
		return nil
	}
	return explorer.NewVerifier(n.ExplorerAPI, key)
}

// confirmBroadcast asks before sending transactions to a non-dev network.
func confirmBroadcast(n chain.Network, action string) bool {
	if n.Dev || assumeYes {
		return true
	}
	return ui.ConfirmDanger(fmt.Sprintf("%s on %s (%s addresses)?", action, n.DisplayName, modeLabel(production())))
}
