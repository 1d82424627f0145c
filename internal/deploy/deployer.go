// Package deploy creates the OnlyBurns contracts on a target network and
// records every deployment in the registry.
package deploy

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/onlyburns/oburnctl/internal/chain"
	"github.com/onlyburns/oburnctl/internal/contract"
	"github.com/onlyburns/oburnctl/internal/explorer"
)

// Verifier submits source verification for a deployed contract.
type Verifier interface {
	Submit(ctx context.Context, req explorer.Request) (string, error)
}

// Deployment is one confirmed contract creation.
type Deployment struct {
	Name       string
	Address    common.Address
	TxHash     common.Hash
	Block      uint64
	GasUsed    uint64
	Artifact   *contract.Artifact
	Args       []any
	Verify     string
	VerifyGUID string
}

// Bound returns a handle for calling the deployed contract.
func (d *Deployment) Bound(backend chain.Backend) *contract.Bound {
	return contract.BindArtifact(d.Artifact, d.Address, backend)
}

// Deployer deploys artifacts from one account onto one network.
type Deployer struct {
	tx        *contract.Transactor
	artifacts *contract.ArtifactStore
	network   chain.Network
	verifier  Verifier
	registry  *contract.Registry
	logger    log.Logger
	now       func() time.Time
}

// Option configures a Deployer.
type Option func(*Deployer)

// WithVerifier enables source verification on allowlisted networks.
func WithVerifier(v Verifier) Option {
	return func(d *Deployer) { d.verifier = v }
}

// WithRegistry records each deployment in r and saves it.
func WithRegistry(r *contract.Registry) Option {
	return func(d *Deployer) { d.registry = r }
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(d *Deployer) { d.logger = l }
}

// New returns a Deployer.
func New(tx *contract.Transactor, artifacts *contract.ArtifactStore, network chain.Network, opts ...Option) *Deployer {
	d := &Deployer{
		tx:        tx,
		artifacts: artifacts,
		network:   network,
		logger:    log.Root(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Transactor returns the deploying account's transactor.
func (d *Deployer) Transactor() *contract.Transactor { return d.tx }

// Network returns the target network.
func (d *Deployer) Network() chain.Network { return d.network }

// Deploy creates contract name with args and blocks until it is mined.
// Verification runs afterwards on allowlisted networks; its failure is
// logged and recorded, never returned.
func (d *Deployer) Deploy(ctx context.Context, name string, args ...any) (*Deployment, error) {
	a, err := d.artifacts.Load(name)
	if err != nil {
		return nil, err
	}
	d.logger.Info("Deploying contract", "name", name, "network", d.network.Name, "from", d.tx.From())

	addr, receipt, err := d.tx.Deploy(ctx, a, args...)
	if err != nil {
		return nil, fmt.Errorf("deploying %s: %w", name, err)
	}
	dep := &Deployment{
		Name:     name,
		Address:  addr,
		TxHash:   receipt.TxHash,
		Block:    receipt.BlockNumber.Uint64(),
		GasUsed:  receipt.GasUsed,
		Artifact: a,
		Args:     args,
		Verify:   contract.VerifySkipped,
	}
	d.logger.Info("Contract deployed", "name", name, "address", addr, "tx", receipt.TxHash, "gas", receipt.GasUsed)

	if d.verifier != nil && chain.ShouldVerify(d.network.Name) {
		d.verify(ctx, dep)
	}
	if err := d.record(dep); err != nil {
		return dep, err
	}
	return dep, nil
}

func (d *Deployer) verify(ctx context.Context, dep *Deployment) {
	ctorArgs, err := dep.Artifact.PackConstructor(dep.Args...)
	if err != nil {
		d.logger.Warn("Verification skipped", "name", dep.Name, "err", err)
		dep.Verify = contract.VerifyFailed
		return
	}
	guid, err := d.verifier.Submit(ctx, explorer.RequestFor(dep.Artifact, dep.Address, ctorArgs))
	if err != nil {
		d.logger.Warn("Verification failed", "name", dep.Name, "address", dep.Address, "err", err)
		dep.Verify = contract.VerifyFailed
		return
	}
	d.logger.Info("Verification submitted", "name", dep.Name, "guid", guid)
	dep.Verify = contract.VerifySubmitted
	dep.VerifyGUID = guid
}

func (d *Deployer) record(dep *Deployment) error {
	if d.registry == nil {
		return nil
	}
	d.registry.Add(&contract.Record{
		Name:        dep.Name,
		Network:     d.network.Name,
		Address:     dep.Address.Hex(),
		TxHash:      dep.TxHash.Hex(),
		Deployer:    d.tx.From().Hex(),
		DeployedAt:  d.now().UTC().Format(time.RFC3339),
		Constructor: formatArgs(dep.Args),
		Verify:      dep.Verify,
		VerifyGUID:  dep.VerifyGUID,
	})
	if err := d.registry.Save(); err != nil {
		return fmt.Errorf("saving deployment registry: %w", err)
	}
	return nil
}

func formatArgs(args []any) []string {
	out := make([]string, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case common.Address:
			out[i] = v.Hex()
		case []byte:
			out[i] = hexutil.Encode(v)
		default:
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}
