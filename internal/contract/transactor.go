package contract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/onlyburns/oburnctl/internal/chain"
	"github.com/onlyburns/oburnctl/internal/config"
	"github.com/onlyburns/oburnctl/internal/wallet"
)

// Transactor signs and submits transactions from one account and blocks until
// each is mined. Every transaction is attempted exactly once.
type Transactor struct {
	backend chain.Backend
	signer  *wallet.Signer
	chainID *big.Int
	poll    time.Duration
	timeout time.Duration
	// deployTimeout bounds contract creation; it never drops below timeout.
	deployTimeout time.Duration
	logger        log.Logger
}

// TransactorOption configures a Transactor.
type TransactorOption func(*Transactor)

// WithPoll sets the receipt polling interval.
func WithPoll(d time.Duration) TransactorOption {
	return func(t *Transactor) { t.poll = d }
}

// WithTimeout bounds how long a single transaction may take to be mined.
func WithTimeout(d time.Duration) TransactorOption {
	return func(t *Transactor) { t.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) TransactorOption {
	return func(t *Transactor) { t.logger = l }
}

// NewTransactor reads the chain id from backend and returns a Transactor for signer.
func NewTransactor(ctx context.Context, backend chain.Backend, signer *wallet.Signer, opts ...TransactorOption) (*Transactor, error) {
	id, err := backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading chain id: %w", err)
	}
	t := &Transactor{
		backend:       backend,
		signer:        signer,
		chainID:       id,
		poll:          config.ReceiptPoll,
		timeout:       config.TxConfirmTimeout,
		deployTimeout: config.TxDeployTimeout,
		logger:        log.Root(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// From returns the sending account.
func (t *Transactor) From() common.Address { return t.signer.Address() }

// ChainID returns the chain id transactions are signed for.
func (t *Transactor) ChainID() *big.Int { return new(big.Int).Set(t.chainID) }

// Backend returns the underlying client.
func (t *Transactor) Backend() chain.Backend { return t.backend }

// Send submits data to `to` (nil for contract creation) and waits for the
// receipt. A revert during estimation or execution is returned as *RevertError.
func (t *Transactor) Send(ctx context.Context, to *common.Address, data []byte, value *big.Int) (*types.Receipt, error) {
	return t.send(ctx, to, data, value, t.waitTimeout(to))
}

// waitTimeout is the receipt deadline for a call to `to` (nil for creation).
func (t *Transactor) waitTimeout(to *common.Address) time.Duration {
	if to == nil {
		return max(t.timeout, t.deployTimeout)
	}
	return t.timeout
}

func (t *Transactor) send(ctx context.Context, to *common.Address, data []byte, value *big.Int, timeout time.Duration) (*types.Receipt, error) {
	if value == nil {
		value = new(big.Int)
	}
	from := t.signer.Address()
	msg := ethereum.CallMsg{From: from, To: to, Data: data, Value: value}

	gas, err := t.backend.EstimateGas(ctx, msg)
	if err != nil {
		if IsRevert(err) {
			return nil, newRevertError("", err)
		}
		gas = fallbackGas(to, data)
		t.logger.Warn("Gas estimation failed, using fallback limit", "gas", gas, "err", err)
	}

	tip, err := t.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting gas tip: %w", err)
	}
	price, err := t.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting gas price: %w", err)
	}
	feeCap := new(big.Int).Mul(price, big.NewInt(2))
	if feeCap.Cmp(tip) < 0 {
		feeCap.Set(tip)
	}

	nonce, err := t.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("getting nonce: %w", err)
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   t.chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        to,
		Value:     value,
		Data:      data,
	})
	signed, err := t.signer.SignTx(tx, t.chainID)
	if err != nil {
		return nil, err
	}
	if err := t.backend.SendTransaction(ctx, signed); err != nil {
		if IsRevert(err) {
			return nil, newRevertError("", err)
		}
		return nil, fmt.Errorf("broadcasting transaction: %w", err)
	}
	t.logger.Debug("Transaction sent", "hash", signed.Hash(), "nonce", nonce, "gas", gas)

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	receipt, err := chain.WaitForReceipt(waitCtx, t.backend, signed.Hash(), t.poll)
	if errors.Is(err, chain.ErrTxReverted) {
		// Replay the call at the failing block to recover the reason.
		_, callErr := t.backend.CallContract(ctx, msg, receipt.BlockNumber)
		return receipt, &RevertError{Reason: RevertReason(callErr), Err: err}
	}
	return receipt, err
}

var transferSelector = Selector("transfer(address,uint256)")

// fallbackGas picks a gas limit by transaction kind when estimation fails.
func fallbackGas(to *common.Address, data []byte) uint64 {
	switch {
	case to == nil:
		return config.GasLimitDeploy
	case bytes.HasPrefix(data, transferSelector[:]):
		return config.GasLimitTransfer
	default:
		return config.GasLimitContractCall
	}
}

// Deploy creates a contract from artifact a with constructor args and returns
// its address once mined.
func (t *Transactor) Deploy(ctx context.Context, a *Artifact, args ...any) (common.Address, *types.Receipt, error) {
	data, err := a.DeployData(args...)
	if err != nil {
		return common.Address{}, nil, err
	}
	receipt, err := t.Send(ctx, nil, data, nil)
	if err != nil {
		return common.Address{}, receipt, newRevertError(a.Name+" constructor", err)
	}
	return receipt.ContractAddress, receipt, nil
}
