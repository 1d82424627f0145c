package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/log"
)

// ErrTxReverted is returned when a mined transaction has status 0.
var ErrTxReverted = errors.New("transaction reverted")

// Backend is the subset of an Ethereum client needed to deploy contracts and
// drive them. *ethclient.Client and the simulated backend both satisfy it.
type Backend interface {
	ethereum.ChainIDReader
	ethereum.ContractCaller
	ethereum.GasEstimator
	ethereum.GasPricer
	ethereum.GasPricer1559
	ethereum.TransactionSender
	ethereum.TransactionReader
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
}

// Dial connects to a single RPC endpoint.
func Dial(ctx context.Context, url string) (*ethclient.Client, error) {
	c, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return c, nil
}

// Connect tries each RPC of n in order and returns the first one that answers
// with the expected chain id. Endpoints are tried once each.
func Connect(ctx context.Context, n Network, timeout time.Duration) (*ethclient.Client, string, error) {
	var lastErr error
	for _, url := range n.RPCs {
		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		c, err := Dial(pingCtx, url)
		if err == nil {
			err = checkChainID(pingCtx, c, n.ChainID)
			if err != nil {
				c.Close()
			}
		}
		cancel()
		if err == nil {
			return c, url, nil
		}
		log.Debug("RPC endpoint unusable", "network", n.Name, "url", url, "err", err)
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("no endpoints")
	}
	return nil, "", fmt.Errorf("connecting to %s: %w", n.Name, lastErr)
}

func checkChainID(ctx context.Context, r ethereum.ChainIDReader, want int64) error {
	id, err := r.ChainID(ctx)
	if err != nil {
		return err
	}
	// Dev nodes disagree on 1337 vs 31337; accept either for dev profiles.
	if want != 0 && id.Int64() != want && !(isDevChainID(want) && isDevChainID(id.Int64())) {
		if other, err := NewRegistry().GetByChainID(id.Int64()); err == nil {
			return fmt.Errorf("chain id mismatch: endpoint reports %d (%s), expected %d", id.Int64(), other.Name, want)
		}
		return fmt.Errorf("chain id mismatch: endpoint reports %d, expected %d", id.Int64(), want)
	}
	return nil
}

func isDevChainID(id int64) bool { return id == 1337 || id == 31337 }

// WaitForReceipt polls until the transaction is mined or ctx is done.
// A receipt with status 0 is returned together with ErrTxReverted.
func WaitForReceipt(ctx context.Context, r ethereum.TransactionReader, hash common.Hash, poll time.Duration) (*types.Receipt, error) {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		receipt, err := r.TransactionReceipt(ctx, hash)
		if err == nil {
			if receipt.Status == types.ReceiptStatusFailed {
				return receipt, fmt.Errorf("%w (hash: %s)", ErrTxReverted, hash.Hex())
			}
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("fetching receipt %s: %w", hash.Hex(), err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("transaction %s not mined: %w", hash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

// FormatEther renders a wei amount with 18 decimals.
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	f := new(big.Float).SetInt(wei)
	f.Quo(f, new(big.Float).SetInt(big.NewInt(1e18)))
	return f.Text('f', 6)
}
