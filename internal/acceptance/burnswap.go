package acceptance

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/onlyburns/oburnctl/internal/addrbook"
	"github.com/onlyburns/oburnctl/internal/contract"
	"github.com/onlyburns/oburnctl/internal/deploy"
)

// Trade sizes used by every BurnSwap scenario, in token base units.
var (
	swapAmount         = big.NewInt(1000)
	swapSlippage int64 = 5
)

// BurnSwapSuite covers buys and sells through an already-deployed BurnSwap.
func BurnSwapSuite() Suite {
	return Suite{
		Name: "burnswap",
		Scenarios: []Scenario{
			{"buy OBURN", buyBoth},
			{"buy OBURN specifying USDC only", buyUSDCOnly},
			{"buy OBURN specifying OBURN only", buyOBURNOnly},
			{"buy OBURN fee exempt", buyExempt},
			{"buy rejected when paused, blacklisted, or unapproved", buyRejected},
			{"sell OBURN", sellBoth},
			{"sell OBURN specifying OBURN only", sellOBURNOnly},
			{"sell OBURN specifying USDC only", sellUSDCOnly},
			{"sell OBURN fee exempt", sellExempt},
			{"sell rejected when paused, blacklisted, or unapproved", sellRejected},
		},
	}
}

type swapFixture struct {
	*Env
	owner  *contract.Transactor
	swap   *contract.Bound
	router *contract.Router
	oburn  *contract.Token
	usdc   *contract.Token
}

func (e *Env) newSwap() (*swapFixture, error) {
	for _, r := range []addrbook.Role{addrbook.BurnSwap, addrbook.OBURN, addrbook.USDC, addrbook.Router} {
		if e.Live.Get(r) == (common.Address{}) {
			return nil, fmt.Errorf("%w: burnswap suite needs the %s address", addrbook.ErrUnresolved, r)
		}
	}
	swap, err := e.Bind(deploy.BurnSwap, e.Live.Get(addrbook.BurnSwap))
	if err != nil {
		return nil, err
	}
	return &swapFixture{
		Env:    e,
		owner:  e.Accounts[0],
		swap:   swap,
		router: contract.NewRouter(e.Live.Get(addrbook.Router), e.Backend),
		oburn:  e.Token("OBURN", e.Live.Get(addrbook.OBURN)),
		usdc:   e.Token("USDC", e.Live.Get(addrbook.USDC)),
	}, nil
}

// state is the set of balances a swap scenario compares before and after.
type state struct {
	usdc, oburn, swapUSDC, burnt, dead *big.Int
}

func (f *swapFixture) snapshot(ctx context.Context) (*state, error) {
	var s state
	var err error
	me := f.owner.From()
	if s.usdc, err = f.usdc.BalanceOf(ctx, me); err != nil {
		return nil, err
	}
	if s.oburn, err = f.oburn.BalanceOf(ctx, me); err != nil {
		return nil, err
	}
	if s.swapUSDC, err = f.usdc.BalanceOf(ctx, f.swap.Address); err != nil {
		return nil, err
	}
	if s.burnt, err = f.swap.CallBig(ctx, me, "OBURNBurnt"); err != nil {
		return nil, err
	}
	if s.dead, err = f.oburn.BalanceOf(ctx, addrbook.DeadWallet); err != nil {
		return nil, err
	}
	return &s, nil
}

// quote returns the router's output for amountIn along from → to.
func (f *swapFixture) quote(ctx context.Context, from, to *contract.Token) (*big.Int, error) {
	amounts, err := f.router.GetAmountsOut(ctx, swapAmount, []common.Address{from.Address, to.Address})
	if err != nil {
		return nil, err
	}
	if len(amounts) < 2 {
		return nil, fmt.Errorf("router returned %d amounts", len(amounts))
	}
	return amounts[1], nil
}

func (f *swapFixture) fee(ctx context.Context, buy bool) (int64, error) {
	var fee *big.Int
	var err error
	if buy {
		fee, err = f.oburn.BuyFee(ctx)
	} else {
		fee, err = f.oburn.SellFee(ctx)
	}
	if err != nil {
		return 0, err
	}
	return fee.Int64(), nil
}

func (f *swapFixture) admin(ctx context.Context, method string, args ...any) error {
	_, err := f.swap.Transact(ctx, f.owner, method, args...)
	return err
}

func (f *swapFixture) exempt(ctx context.Context, on bool) error {
	return f.admin(ctx, "exemptAddressFromFees", f.owner.From(), on)
}

func (f *swapFixture) purchase(ctx context.Context, oburnOut, usdcIn *big.Int) error {
	_, err := f.swap.Transact(ctx, f.owner, "purchaseOBURN", oburnOut, usdcIn, big.NewInt(swapSlippage))
	return err
}

func (f *swapFixture) sell(ctx context.Context, oburnIn, usdcOut *big.Int) error {
	_, err := f.swap.Transact(ctx, f.owner, "sellOBURN", oburnIn, usdcOut, big.NewInt(swapSlippage))
	return err
}

// buySetup reads the fee, quote, and starting balances, then approves spend.
func (f *swapFixture) buySetup(ctx context.Context, approve *big.Int) (fee int64, out *big.Int, before *state, err error) {
	if fee, err = f.fee(ctx, true); err != nil {
		return
	}
	if out, err = f.quote(ctx, f.usdc, f.oburn); err != nil {
		return
	}
	if before, err = f.snapshot(ctx); err != nil {
		return
	}
	_, err = f.usdc.Approve(ctx, f.owner, f.swap.Address, approve)
	return
}

func (f *swapFixture) sellSetup(ctx context.Context, approve *big.Int) (fee int64, out *big.Int, before *state, err error) {
	if fee, err = f.fee(ctx, false); err != nil {
		return
	}
	if out, err = f.quote(ctx, f.oburn, f.usdc); err != nil {
		return
	}
	if before, err = f.snapshot(ctx); err != nil {
		return
	}
	_, err = f.oburn.Approve(ctx, f.owner, f.swap.Address, approve)
	return
}

func sub(a, b *big.Int) *big.Int { return new(big.Int).Sub(a, b) }
func add(a, b *big.Int) *big.Int { return new(big.Int).Add(a, b) }

// spentRange is [before - amount*(100+slippage)/100, before - amount*99/100].
func spentRange(before *big.Int) Range {
	r := SpendBounds(swapAmount, swapSlippage)
	return Range{Lo: sub(before, r.Hi), Hi: sub(before, r.Lo)}
}

// ---------------------------------------------------------------------------
// buys
// ---------------------------------------------------------------------------

func buyBoth(ctx context.Context, e *Env) error {
	f, err := e.newSwap()
	if err != nil {
		return err
	}
	fee, out, before, err := f.buySetup(ctx, swapAmount)
	if err != nil {
		return err
	}
	if err := f.purchase(ctx, out, swapAmount); err != nil {
		return err
	}
	after, err := f.snapshot(ctx)
	if err != nil {
		return err
	}

	var c Checks
	c.Add(Equal("USDC spent", after.usdc, sub(before.usdc, swapAmount)))
	c.Add(Within("OBURN received", after.oburn, SwapBounds(out, swapSlippage, fee).Shift(before.oburn)))
	c.Add(Equal("BurnSwap USDC fee", after.swapUSDC, add(before.swapUSDC, Percent(swapAmount, fee))))
	if err := c.Err(); err != nil {
		return err
	}

	if err := f.admin(ctx, "withdrawUSDC"); err != nil {
		return err
	}
	got, err := f.usdc.BalanceOf(ctx, f.owner.From())
	if err != nil {
		return err
	}
	return Equal("USDC after withdraw", got, add(after.usdc, after.swapUSDC))
}

func buyUSDCOnly(ctx context.Context, e *Env) error {
	f, err := e.newSwap()
	if err != nil {
		return err
	}
	fee, out, before, err := f.buySetup(ctx, swapAmount)
	if err != nil {
		return err
	}
	if err := f.purchase(ctx, big.NewInt(0), swapAmount); err != nil {
		return err
	}
	after, err := f.snapshot(ctx)
	if err != nil {
		return err
	}
	var c Checks
	c.Add(Equal("USDC spent", after.usdc, sub(before.usdc, swapAmount)))
	c.Add(Within("OBURN received", after.oburn, SwapBounds(out, swapSlippage, fee).Shift(before.oburn)))
	return c.Err()
}

func buyOBURNOnly(ctx context.Context, e *Env) error {
	f, err := e.newSwap()
	if err != nil {
		return err
	}
	fee, out, before, err := f.buySetup(ctx, Percent(swapAmount, 100+swapSlippage))
	if err != nil {
		return err
	}
	if err := f.purchase(ctx, out, big.NewInt(0)); err != nil {
		return err
	}
	after, err := f.snapshot(ctx)
	if err != nil {
		return err
	}
	var c Checks
	c.Add(Equal("OBURN received", after.oburn, add(before.oburn, Percent(out, 100-fee))))
	c.Add(Within("USDC spent", after.usdc, spentRange(before.usdc)))
	return c.Err()
}

func buyExempt(ctx context.Context, e *Env) error {
	f, err := e.newSwap()
	if err != nil {
		return err
	}
	_, out, before, err := f.buySetup(ctx, swapAmount)
	if err != nil {
		return err
	}
	if err := f.exempt(ctx, true); err != nil {
		return err
	}
	buyErr := f.purchase(ctx, out, swapAmount)
	if err := f.exempt(ctx, false); err != nil {
		return err
	}
	if buyErr != nil {
		return buyErr
	}
	after, err := f.snapshot(ctx)
	if err != nil {
		return err
	}
	var c Checks
	c.Add(Equal("USDC spent", after.usdc, sub(before.usdc, swapAmount)))
	c.Add(Within("OBURN received", after.oburn, ExemptBounds(out, swapSlippage).Shift(before.oburn)))
	return c.Err()
}

func buyRejected(ctx context.Context, e *Env) error {
	f, err := e.newSwap()
	if err != nil {
		return err
	}
	_, out, before, err := f.buySetup(ctx, swapAmount)
	if err != nil {
		return err
	}
	if err := f.rejections(ctx, f.usdc, func() error { return f.purchase(ctx, out, swapAmount) }); err != nil {
		return err
	}
	return f.expectBalances(ctx,
		balance{f.usdc, f.owner.From(), before.usdc},
		balance{f.oburn, f.owner.From(), before.oburn},
	)
}

// rejections checks the pause, blacklist, and allowance gates in turn.
// spend is the token whose allowance is revoked for the last check.
func (f *swapFixture) rejections(ctx context.Context, spend *contract.Token, trade func() error) error {
	if err := f.admin(ctx, "pauseExchange"); err != nil {
		return err
	}
	paused := ExpectRevert(trade(), ReasonPaused)
	if err := f.admin(ctx, "unpauseExchange"); err != nil {
		return err
	}
	if paused != nil {
		return paused
	}

	if err := f.admin(ctx, "blacklistOrUnblacklistUser", f.owner.From(), true); err != nil {
		return err
	}
	blacklisted := ExpectRevert(trade(), ReasonSwapBlacklisted)
	if err := f.admin(ctx, "blacklistOrUnblacklistUser", f.owner.From(), false); err != nil {
		return err
	}
	if blacklisted != nil {
		return blacklisted
	}

	if _, err := spend.Approve(ctx, f.owner, f.swap.Address, big.NewInt(0)); err != nil {
		return err
	}
	return ExpectRevert(trade(), ReasonAllowance)
}

// ---------------------------------------------------------------------------
// sells
// ---------------------------------------------------------------------------

// expectBurn checks the sell fee was burned to the dead wallet.
func expectBurn(c *Checks, before, after *state, fee int64) {
	burned := Percent(swapAmount, fee)
	c.Add(Equal("OBURNBurnt", after.burnt, add(before.burnt, burned)))
	c.Add(Equal("dead wallet OBURN", after.dead, add(before.dead, burned)))
}

func sellBoth(ctx context.Context, e *Env) error {
	return sellWith(ctx, e, true)
}

func sellOBURNOnly(ctx context.Context, e *Env) error {
	return sellWith(ctx, e, false)
}

func sellWith(ctx context.Context, e *Env, quoteOut bool) error {
	f, err := e.newSwap()
	if err != nil {
		return err
	}
	fee, out, before, err := f.sellSetup(ctx, swapAmount)
	if err != nil {
		return err
	}
	minOut := big.NewInt(0)
	if quoteOut {
		minOut = out
	}
	if err := f.sell(ctx, swapAmount, minOut); err != nil {
		return err
	}
	after, err := f.snapshot(ctx)
	if err != nil {
		return err
	}
	var c Checks
	c.Add(Equal("OBURN sold", after.oburn, sub(before.oburn, swapAmount)))
	expectBurn(&c, before, after, fee)
	c.Add(Within("USDC received", after.usdc, SwapBounds(out, swapSlippage, fee).Shift(before.usdc)))
	return c.Err()
}

func sellUSDCOnly(ctx context.Context, e *Env) error {
	f, err := e.newSwap()
	if err != nil {
		return err
	}
	fee, out, before, err := f.sellSetup(ctx, Percent(swapAmount, 100+swapSlippage))
	if err != nil {
		return err
	}
	if err := f.sell(ctx, big.NewInt(0), out); err != nil {
		return err
	}
	after, err := f.snapshot(ctx)
	if err != nil {
		return err
	}
	var c Checks
	c.Add(Equal("USDC received", after.usdc, add(before.usdc, Percent(out, 100-fee))))
	expectBurn(&c, before, after, fee)
	c.Add(Within("OBURN sold", after.oburn, spentRange(before.oburn)))
	return c.Err()
}

func sellExempt(ctx context.Context, e *Env) error {
	f, err := e.newSwap()
	if err != nil {
		return err
	}
	_, out, before, err := f.sellSetup(ctx, swapAmount)
	if err != nil {
		return err
	}
	if err := f.exempt(ctx, true); err != nil {
		return err
	}
	sellErr := f.sell(ctx, swapAmount, out)
	if err := f.exempt(ctx, false); err != nil {
		return err
	}
	if sellErr != nil {
		return sellErr
	}
	after, err := f.snapshot(ctx)
	if err != nil {
		return err
	}
	var c Checks
	c.Add(Equal("OBURN sold", after.oburn, sub(before.oburn, swapAmount)))
	c.Add(Equal("OBURNBurnt", after.burnt, before.burnt))
	c.Add(Equal("dead wallet OBURN", after.dead, before.dead))
	c.Add(Within("USDC received", after.usdc, ExemptBounds(out, swapSlippage).Shift(before.usdc)))
	return c.Err()
}

func sellRejected(ctx context.Context, e *Env) error {
	f, err := e.newSwap()
	if err != nil {
		return err
	}
	_, out, before, err := f.sellSetup(ctx, swapAmount)
	if err != nil {
		return err
	}
	if err := f.rejections(ctx, f.oburn, func() error { return f.sell(ctx, swapAmount, out) }); err != nil {
		return err
	}
	return f.expectBalances(ctx,
		balance{f.usdc, f.owner.From(), before.usdc},
		balance{f.oburn, f.owner.From(), before.oburn},
	)
}
