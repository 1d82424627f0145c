package acceptance

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/onlyburns/oburnctl/internal/contract"
)

// Launch sale rates, in OBURN per USDC base unit before the 10^12 lift.
var (
	WhitelistRate = big.NewInt(500_000)
	PublicRate    = big.NewInt(250_000)
)

// PresaleSuite covers OburnTokenPresale.
func PresaleSuite() Suite {
	return Suite{
		Name:  "presale",
		Local: true,
		Scenarios: []Scenario{
			{"deployments wire token addresses", presaleDeployments},
			{"whitelist purchase", presaleWhitelistBuy},
			{"public purchase", presalePublicBuy},
			{"owner can update parameters before sale", presaleUpdateParams},
			{"owner can end sale", presaleEndSale},
			{"users must approve USDC", presaleApproval},
			{"purchases above caps fail", presaleCaps},
			{"parameters are immutable once locked", presaleLocked},
		},
	}
}

type presaleFixture struct {
	*local
	presale *contract.Bound
	stock   *big.Int
}

// newPresale deploys the presale with the owner as presale wallet, stocks it
// with OBURN, and funds each buyer with usdc.
func (e *Env) newPresale(ctx context.Context, usdc *big.Int, buyers ...func(*local) *contract.Transactor) (*presaleFixture, error) {
	l, err := e.newLocal(ctx)
	if err != nil {
		return nil, err
	}
	presale, _, err := l.presaleAndExchange(ctx, l.owner)
	if err != nil {
		return nil, err
	}
	f := &presaleFixture{local: l, presale: presale, stock: Ether(1_000_000_000_000_000)}
	if _, err := l.oburn.Transfer(ctx, l.owner, presale.Address, f.stock); err != nil {
		return nil, err
	}
	for _, b := range buyers {
		if _, err := l.usdc.Transfer(ctx, l.owner, b(l).From(), usdc); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func buyer2(l *local) *contract.Transactor { return l.acct2 }
func buyer3(l *local) *contract.Transactor { return l.acct3 }

func (f *presaleFixture) admin(ctx context.Context, method string, args ...any) error {
	_, err := f.presale.Transact(ctx, f.owner, method, args...)
	return err
}

// openWhitelist locks parameters, starts the whitelist sale, and optionally
// whitelists who.
func (f *presaleFixture) openWhitelist(ctx context.Context, who ...common.Address) error {
	if err := f.admin(ctx, "lockSaleParameters"); err != nil {
		return err
	}
	if err := f.admin(ctx, "setWhitelistSaleActive", true); err != nil {
		return err
	}
	for _, w := range who {
		if err := f.admin(ctx, "addAddressToWhitelist", w); err != nil {
			return err
		}
	}
	return nil
}

func (f *presaleFixture) buy(ctx context.Context, t *contract.Transactor, approve, amount *big.Int) error {
	if approve != nil {
		if _, err := f.usdc.Approve(ctx, t, f.presale.Address, approve); err != nil {
			return err
		}
	}
	_, err := f.presale.Transact(ctx, t, "buyTokens", t.From(), amount)
	return err
}

// expectPurchase checks the buyer's OBURN balance and the per-sender views.
func (f *presaleFixture) expectPurchase(ctx context.Context, t *contract.Transactor, want *big.Int) error {
	var c Checks
	got, err := f.oburn.BalanceOf(ctx, t.From())
	if err != nil {
		return err
	}
	c.Add(Equal("OBURN bought", got, want))

	purchased, err := f.presale.CallBig(ctx, t.From(), "singleAddressCheckOburnAmountPurchased")
	if err != nil {
		return err
	}
	c.Add(Equal("amount purchased", purchased, want))

	maxPer, err := f.presale.CallBig(ctx, t.From(), "getMaxOburnPerAddress")
	if err != nil {
		return err
	}
	available, err := f.presale.CallBig(ctx, t.From(), "singleAddressCheckOburnAmountAvailable")
	if err != nil {
		return err
	}
	c.Add(Equal("amount available", available, new(big.Int).Sub(maxPer, want)))

	usdcLeft, err := f.usdc.BalanceOf(ctx, t.From())
	if err != nil {
		return err
	}
	c.Add(Equal("USDC left", usdcLeft, big.NewInt(0)))
	return c.Err()
}

func presaleDeployments(ctx context.Context, e *Env) error {
	l, err := e.newLocal(ctx)
	if err != nil {
		return err
	}
	presale, ex, err := l.presaleAndExchange(ctx, l.acct2)
	if err != nil {
		return err
	}
	for _, chk := range []struct {
		b      *contract.Bound
		method string
		want   common.Address
	}{
		{presale, "token", l.oburn.Address},
		{ex, "_tburn", l.tburn.Address},
		{ex, "_oburn", l.oburn.Address},
	} {
		got, err := chk.b.CallAddress(ctx, l.owner.From(), chk.method)
		if err != nil {
			return err
		}
		if got != chk.want {
			return fmt.Errorf("%s.%s: got %s, want %s", chk.b.Name, chk.method, got.Hex(), chk.want.Hex())
		}
	}
	return nil
}

func presaleWhitelistBuy(ctx context.Context, e *Env) error {
	usdc := big.NewInt(1_000_000)
	f, err := e.newPresale(ctx, usdc, buyer2)
	if err != nil {
		return err
	}
	if err := f.openWhitelist(ctx, f.acct2.From()); err != nil {
		return err
	}
	if err := f.buy(ctx, f.acct2, usdc, usdc); err != nil {
		return err
	}

	var c Checks
	c.Add(f.expectPurchase(ctx, f.acct2, PresaleOutput(usdc, WhitelistRate)))
	raised, err := f.presale.CallBig(ctx, f.owner.From(), "usdcRaised")
	if err != nil {
		return err
	}
	c.Add(Equal("USDC raised", raised, usdc))
	return c.Err()
}

func presalePublicBuy(ctx context.Context, e *Env) error {
	usdc := big.NewInt(3_000_000)
	f, err := e.newPresale(ctx, usdc, buyer2)
	if err != nil {
		return err
	}
	if err := f.openWhitelist(ctx); err != nil {
		return err
	}
	if err := f.admin(ctx, "setPublicSaleActive", true); err != nil {
		return err
	}
	if err := f.buy(ctx, f.acct2, usdc, usdc); err != nil {
		return err
	}

	var c Checks
	c.Add(f.expectPurchase(ctx, f.acct2, PresaleOutput(usdc, PublicRate)))
	raised, err := f.presale.CallBig(ctx, f.owner.From(), "usdcRaised")
	if err != nil {
		return err
	}
	c.Add(Equal("USDC raised", raised, usdc))
	return c.Err()
}

func presaleUpdateParams(ctx context.Context, e *Env) error {
	usdc := big.NewInt(10_000_000)
	f, err := e.newPresale(ctx, usdc, buyer2, buyer3)
	if err != nil {
		return err
	}
	const mult = 5
	from := f.owner.From()

	wlRate, err := f.presale.CallBig(ctx, from, "getWhitelistSaleRate")
	if err != nil {
		return err
	}
	if err := f.admin(ctx, "setWhitelistSaleRate", new(big.Int).Mul(wlRate, big.NewInt(mult))); err != nil {
		return err
	}
	pubRate, err := f.presale.CallBig(ctx, from, "getPublicSaleRate")
	if err != nil {
		return err
	}
	if err := f.admin(ctx, "setPublicSaleRate", new(big.Int).Mul(pubRate, big.NewInt(mult))); err != nil {
		return err
	}
	for _, setter := range []string{"setMaxOburnPerAddress", "setWhitelistSaleOburnCap", "setPublicSaleOburnCap"} {
		if err := f.admin(ctx, setter, f.stock); err != nil {
			return err
		}
	}

	if err := f.openWhitelist(ctx, f.acct2.From()); err != nil {
		return err
	}
	if err := f.buy(ctx, f.acct2, usdc, usdc); err != nil {
		return err
	}
	if err := f.admin(ctx, "setPublicSaleActive", true); err != nil {
		return err
	}
	if err := f.buy(ctx, f.acct3, usdc, usdc); err != nil {
		return err
	}

	var c Checks
	c.Add(f.expectPurchase(ctx, f.acct2, PresaleOutput(usdc, new(big.Int).Mul(WhitelistRate, big.NewInt(mult)))))
	c.Add(f.expectPurchase(ctx, f.acct3, PresaleOutput(usdc, new(big.Int).Mul(PublicRate, big.NewInt(mult)))))
	return c.Err()
}

func presaleEndSale(ctx context.Context, e *Env) error {
	usdc := big.NewInt(1_000_000)
	f, err := e.newPresale(ctx, usdc, buyer2)
	if err != nil {
		return err
	}
	if err := f.openWhitelist(ctx, f.acct2.From()); err != nil {
		return err
	}
	if err := f.buy(ctx, f.acct2, new(big.Int).Mul(usdc, big.NewInt(100)), usdc); err != nil {
		return err
	}
	if err := f.admin(ctx, "setPublicSaleActive", true); err != nil {
		return err
	}

	before, err := f.oburn.BalanceOf(ctx, f.owner.From())
	if err != nil {
		return err
	}
	if err := f.admin(ctx, "endSale"); err != nil {
		return err
	}

	sold := PresaleOutput(usdc, WhitelistRate)
	want := new(big.Int).Add(before, f.stock)
	if err := f.expectBalances(ctx, balance{f.oburn, f.owner.From(), want.Sub(want, sold)}); err != nil {
		return err
	}
	return ExpectRevert(f.buy(ctx, f.acct2, nil, usdc), ReasonSaleInactive)
}

func presaleApproval(ctx context.Context, e *Env) error {
	usdc := big.NewInt(1_000_000)
	f, err := e.newPresale(ctx, usdc, buyer2)
	if err != nil {
		return err
	}
	if err := f.openWhitelist(ctx, f.acct2.From()); err != nil {
		return err
	}
	return ExpectRevert(f.buy(ctx, f.acct2, nil, usdc), ReasonPresaleApproval)
}

func presaleCaps(ctx context.Context, e *Env) error {
	usdc := Ether(1_000_000_000_000)
	f, err := e.newPresale(ctx, usdc, buyer2)
	if err != nil {
		return err
	}
	if err := f.openWhitelist(ctx, f.acct2.From()); err != nil {
		return err
	}
	if _, err := f.usdc.Approve(ctx, f.acct2, f.presale.Address, usdc); err != nil {
		return err
	}

	if err := ExpectRevert(f.buy(ctx, f.acct2, nil, usdc), ReasonWhitelistCap); err != nil {
		return err
	}
	if err := f.admin(ctx, "setPublicSaleActive", true); err != nil {
		return err
	}
	if err := ExpectRevert(f.buy(ctx, f.acct2, nil, usdc), ReasonPublicCap); err != nil {
		return err
	}
	if err := ExpectRevert(f.buy(ctx, f.acct2, nil, big.NewInt(5_000_000_501)), ReasonAddressCap); err != nil {
		return err
	}
	// Rejected purchases leave balances untouched.
	return f.expectBalances(ctx,
		balance{f.usdc, f.acct2.From(), usdc},
		balance{f.oburn, f.acct2.From(), big.NewInt(0)},
	)
}

func presaleLocked(ctx context.Context, e *Env) error {
	usdc := big.NewInt(10_000_000)
	f, err := e.newPresale(ctx, usdc, buyer2, buyer3)
	if err != nil {
		return err
	}
	if err := f.openWhitelist(ctx, f.acct2.From()); err != nil {
		return err
	}
	if err := f.buy(ctx, f.acct2, usdc, usdc); err != nil {
		return err
	}
	if err := f.admin(ctx, "setPublicSaleActive", true); err != nil {
		return err
	}
	if err := f.buy(ctx, f.acct3, usdc, usdc); err != nil {
		return err
	}

	from := f.owner.From()
	wlRate, err := f.presale.CallBig(ctx, from, "getWhitelistSaleRate")
	if err != nil {
		return err
	}
	pubRate, err := f.presale.CallBig(ctx, from, "getPublicSaleRate")
	if err != nil {
		return err
	}
	setters := []struct {
		method string
		arg    *big.Int
	}{
		{"setWhitelistSaleRate", new(big.Int).Mul(wlRate, big.NewInt(5))},
		{"setPublicSaleRate", new(big.Int).Mul(pubRate, big.NewInt(5))},
		{"setMaxOburnPerAddress", f.stock},
		{"setWhitelistSaleOburnCap", f.stock},
		{"setPublicSaleOburnCap", f.stock},
	}
	var c Checks
	for _, s := range setters {
		if err := ExpectRevert(f.admin(ctx, s.method, s.arg), ReasonLocked); err != nil {
			c.Add(fmt.Errorf("%s: %w", s.method, err))
		}
	}
	if err := c.Err(); err != nil {
		return err
	}

	// Nothing moved.
	after, err := f.presale.CallBig(ctx, from, "getWhitelistSaleRate")
	if err != nil {
		return err
	}
	return Equal("whitelist rate after lock", after, wlRate)
}
