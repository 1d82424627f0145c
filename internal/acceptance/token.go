package acceptance

import (
	"context"
	"math/big"

	"github.com/onlyburns/oburnctl/internal/addrbook"
	"github.com/onlyburns/oburnctl/internal/contract"
	"github.com/onlyburns/oburnctl/internal/deploy"
)

// TokenSuite covers OnlyBurns transfers, blacklisting, and the DEX gate.
func TokenSuite() Suite {
	return Suite{
		Name:  "token",
		Local: true,
		Scenarios: []Scenario{
			{"users can transfer OBURN", tokenTransfer},
			{"owner can blacklist users", tokenBlacklist},
			{"owner can disable and enable DEX trading", tokenDEXToggle},
		},
	}
}

// onlyBurns deploys the token against the mock router with account 2 as the
// service wallet.
func (l *local) onlyBurns(ctx context.Context) (*contract.Bound, *contract.Token, error) {
	a := l.mocks.Addresses()
	a[addrbook.ServiceWallet] = l.acct2.From()
	deps, err := deploy.Token(ctx, l.Deployer, a)
	if err != nil {
		return nil, nil, err
	}
	return deps[0].Bound(l.Backend), l.Token("OBURN", deps[0].Address), nil
}

func tokenTransfer(ctx context.Context, e *Env) error {
	l, err := e.newLocal(ctx)
	if err != nil {
		return err
	}
	ob, tok, err := l.onlyBurns(ctx)
	if err != nil {
		return err
	}
	amt := big.NewInt(10_000_000_000)
	half := new(big.Int).Quo(amt, big.NewInt(2))

	if _, err := tok.Transfer(ctx, l.owner, l.acct3.From(), amt); err != nil {
		return err
	}
	if _, err := ob.Transact(ctx, l.owner, "enableTrading"); err != nil {
		return err
	}
	if _, err := tok.Transfer(ctx, l.acct3, l.owner.From(), half); err != nil {
		return err
	}

	supply, err := tok.TotalSupply(ctx)
	if err != nil {
		return err
	}
	return l.expectBalances(ctx,
		balance{tok, l.owner.From(), new(big.Int).Sub(supply, half)},
		balance{tok, l.acct3.From(), half},
	)
}

func tokenBlacklist(ctx context.Context, e *Env) error {
	l, err := e.newLocal(ctx)
	if err != nil {
		return err
	}
	ob, tok, err := l.onlyBurns(ctx)
	if err != nil {
		return err
	}
	amt := big.NewInt(10_000_000_000)
	quarter := new(big.Int).Quo(amt, big.NewInt(4))

	if _, err := tok.Transfer(ctx, l.owner, l.acct3.From(), amt); err != nil {
		return err
	}
	if _, err := ob.Transact(ctx, l.owner, "enableTrading"); err != nil {
		return err
	}
	if _, err := tok.Transfer(ctx, l.acct3, l.owner.From(), quarter); err != nil {
		return err
	}

	if _, err := ob.Transact(ctx, l.owner, "blacklistOrUnblacklistUser", l.acct3.From(), true); err != nil {
		return err
	}
	_, err = ob.Transact(ctx, l.acct3, "transfer", l.owner.From(), quarter)
	if err := ExpectRevert(err, ReasonSenderBlacklisted); err != nil {
		return err
	}
	_, err = ob.Transact(ctx, l.owner, "transfer", l.acct3.From(), amt)
	if err := ExpectRevert(err, ReasonRecipientBlacklist); err != nil {
		return err
	}
	if _, err := ob.Transact(ctx, l.owner, "blacklistOrUnblacklistUser", l.acct3.From(), false); err != nil {
		return err
	}
	if _, err := tok.Transfer(ctx, l.acct3, l.owner.From(), quarter); err != nil {
		return err
	}

	supply, err := tok.TotalSupply(ctx)
	if err != nil {
		return err
	}
	half := new(big.Int).Quo(amt, big.NewInt(2))
	return l.expectBalances(ctx,
		balance{tok, l.owner.From(), new(big.Int).Sub(supply, half)},
		balance{tok, l.acct3.From(), half},
	)
}

// tokenDEXToggle treats the mock factory as the trading pair. Transfers out
// of the pair are simulated with eth_call from the pair address.
func tokenDEXToggle(ctx context.Context, e *Env) error {
	l, err := e.newLocal(ctx)
	if err != nil {
		return err
	}
	ob, tok, err := l.onlyBurns(ctx)
	if err != nil {
		return err
	}
	pair := l.mocks.Factory.Address
	amt := big.NewInt(1_000_000_000_000_000)
	half := new(big.Int).Quo(amt, big.NewInt(2))
	quarter := new(big.Int).Quo(amt, big.NewInt(4))

	if _, err := tok.Transfer(ctx, l.owner, l.acct3.From(), amt); err != nil {
		return err
	}
	if _, err := ob.Transact(ctx, l.owner, "enableTrading"); err != nil {
		return err
	}

	_, err = ob.Transact(ctx, l.acct3, "transfer", pair, quarter)
	if err := ExpectRevert(err, ReasonDEXDisabled); err != nil {
		return err
	}
	// Fee-exempt accounts bypass the gate.
	if _, err := tok.Transfer(ctx, l.owner, pair, amt); err != nil {
		return err
	}
	_, err = ob.Call(ctx, pair, "transfer", l.acct3.From(), quarter)
	if err := ExpectRevert(err, ReasonDEXDisabled); err != nil {
		return err
	}

	if _, err := ob.Transact(ctx, l.owner, "enableOrDisableDEXTrading", true); err != nil {
		return err
	}
	if _, err := tok.Transfer(ctx, l.acct3, pair, half); err != nil {
		return err
	}

	supply, err := tok.TotalSupply(ctx)
	if err != nil {
		return err
	}
	fee := DexSellFee(half)
	ownerWant := new(big.Int).Sub(supply, new(big.Int).Mul(amt, big.NewInt(2)))
	pairWant := new(big.Int).Mul(amt, big.NewInt(3))
	pairWant.Quo(pairWant, big.NewInt(2))
	return l.expectBalances(ctx,
		balance{tok, l.owner.From(), ownerWant.Add(ownerWant, fee)},
		balance{tok, l.acct3.From(), half},
		balance{tok, pair, pairWant.Sub(pairWant, fee)},
	)
}
