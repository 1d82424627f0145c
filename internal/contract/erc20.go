package contract

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/lmittmann/w3"
	"github.com/onlyburns/oburnctl/internal/chain"
)

var (
	funcBalanceOf     = w3.MustNewFunc("balanceOf(address)", "uint256")
	funcTotalSupply   = w3.MustNewFunc("totalSupply()", "uint256")
	funcAllowance     = w3.MustNewFunc("allowance(address,address)", "uint256")
	funcTransfer      = w3.MustNewFunc("transfer(address,uint256)", "bool")
	funcApprove       = w3.MustNewFunc("approve(address,uint256)", "bool")
	funcGetAmountsOut = w3.MustNewFunc("getAmountsOut(uint256,address[])", "uint256[]")

	// OBURN fee percentages.
	funcBuyFee  = w3.MustNewFunc("buyFee()", "uint256")
	funcSellFee = w3.MustNewFunc("sellFee()", "uint256")
)

// Token is a plain ERC20 view over any token address.
type Token struct {
	Symbol  string
	Address common.Address
	backend chain.Backend
}

// NewToken returns an ERC20 helper for addr.
func NewToken(symbol string, addr common.Address, backend chain.Backend) *Token {
	return &Token{Symbol: symbol, Address: addr, backend: backend}
}

func (t *Token) call(ctx context.Context, data []byte) ([]byte, error) {
	out, err := t.backend.CallContract(ctx, ethereum.CallMsg{To: &t.Address, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("%s call: %w", t.Symbol, err)
	}
	return out, nil
}

func (t *Token) callUint(ctx context.Context, fn *w3.Func, args ...any) (*big.Int, error) {
	data, err := fn.EncodeArgs(args...)
	if err != nil {
		return nil, err
	}
	out, err := t.call(ctx, data)
	if err != nil {
		return nil, err
	}
	var v *big.Int
	if err := fn.DecodeReturns(out, &v); err != nil {
		return nil, fmt.Errorf("decoding %s return data: %w", t.Symbol, err)
	}
	return v, nil
}

// BalanceOf returns owner's balance in base units.
func (t *Token) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	return t.callUint(ctx, funcBalanceOf, owner)
}

// TotalSupply returns the total supply in base units.
func (t *Token) TotalSupply(ctx context.Context) (*big.Int, error) {
	return t.callUint(ctx, funcTotalSupply)
}

// Allowance returns how much spender may move on behalf of owner.
func (t *Token) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	return t.callUint(ctx, funcAllowance, owner, spender)
}

// BuyFee returns the token's buy fee in percent.
func (t *Token) BuyFee(ctx context.Context) (*big.Int, error) {
	return t.callUint(ctx, funcBuyFee)
}

// SellFee returns the token's sell fee in percent.
func (t *Token) SellFee(ctx context.Context) (*big.Int, error) {
	return t.callUint(ctx, funcSellFee)
}

// Transfer moves amount from the transactor's account to `to`.
func (t *Token) Transfer(ctx context.Context, tx *Transactor, to common.Address, amount *big.Int) (*types.Receipt, error) {
	data, err := funcTransfer.EncodeArgs(to, amount)
	if err != nil {
		return nil, err
	}
	r, err := tx.Send(ctx, &t.Address, data, nil)
	return r, newRevertError(t.Symbol+".transfer", err)
}

// Approve sets spender's allowance over the transactor's tokens.
func (t *Token) Approve(ctx context.Context, tx *Transactor, spender common.Address, amount *big.Int) (*types.Receipt, error) {
	data, err := funcApprove.EncodeArgs(spender, amount)
	if err != nil {
		return nil, err
	}
	r, err := tx.Send(ctx, &t.Address, data, nil)
	return r, newRevertError(t.Symbol+".approve", err)
}

// Router is a UniswapV2-style router used as a price oracle.
type Router struct {
	Address common.Address
	backend chain.Backend
}

// NewRouter returns a router helper.
func NewRouter(addr common.Address, backend chain.Backend) *Router {
	return &Router{Address: addr, backend: backend}
}

// GetAmountsOut quotes amountIn along path.
func (r *Router) GetAmountsOut(ctx context.Context, amountIn *big.Int, path []common.Address) ([]*big.Int, error) {
	data, err := funcGetAmountsOut.EncodeArgs(amountIn, path)
	if err != nil {
		return nil, err
	}
	out, err := r.backend.CallContract(ctx, ethereum.CallMsg{To: &r.Address, Data: data}, nil)
	if err != nil {
		return nil, newRevertError("router.getAmountsOut", err)
	}
	var amounts []*big.Int
	if err := funcGetAmountsOut.DecodeReturns(out, &amounts); err != nil {
		return nil, fmt.Errorf("decoding getAmountsOut: %w", err)
	}
	return amounts, nil
}
