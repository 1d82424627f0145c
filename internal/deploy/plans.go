package deploy

import (
	"context"

	"github.com/onlyburns/oburnctl/internal/addrbook"
)

// Contract names as they appear in the build artifacts.
const (
	OburnTokenPresale     = "OburnTokenPresale"
	OburnExchange         = "OburnExchange"
	OnlyBurns             = "OnlyBurns"
	BurnSwap              = "BurnSwap"
	GenericToken          = "GenericToken"
	MockUniswapV2Factory  = "MockUniswapV2Factory"
	MockUniswapV2Router02 = "MockUniswapV2Router02"
)

// Plan is a named, ordered deployment recipe.
type Plan struct {
	Name  string
	Book  addrbook.Book
	Roles []addrbook.Role
	Run   func(ctx context.Context, d *Deployer, a addrbook.Addresses) ([]*Deployment, error)
}

// Plans lists the deployable plans by CLI name.
var Plans = map[string]Plan{
	"presale-exchange": {
		Name:  "presale-exchange",
		Book:  addrbook.PresaleExchange,
		Roles: []addrbook.Role{addrbook.PresaleWallet, addrbook.TBURN, addrbook.OBURN, addrbook.USDC},
		Run:   PresaleAndExchange,
	},
	"token": {
		Name:  "token",
		Book:  addrbook.Token,
		Roles: []addrbook.Role{addrbook.Router, addrbook.ServiceWallet, addrbook.USDC},
		Run:   Token,
	},
	"burnswap": {
		Name:  "burnswap",
		Book:  addrbook.BurnSwapBook,
		Roles: []addrbook.Role{addrbook.Router, addrbook.Pair, addrbook.OBURN, addrbook.USDC},
		Run:   BurnSwapPlan,
	},
	"mocks": {
		Name: "mocks",
		Run: func(ctx context.Context, d *Deployer, _ addrbook.Addresses) ([]*Deployment, error) {
			m, err := Mocks(ctx, d)
			if err != nil {
				return nil, err
			}
			return m.All(), nil
		},
	},
}

// PresaleAndExchange deploys the presale, then the TBURN→OBURN exchange.
func PresaleAndExchange(ctx context.Context, d *Deployer, a addrbook.Addresses) ([]*Deployment, error) {
	presale, err := d.Deploy(ctx, OburnTokenPresale,
		a.Get(addrbook.PresaleWallet), a.Get(addrbook.OBURN), a.Get(addrbook.USDC))
	if err != nil {
		return nil, err
	}
	exchange, err := d.Deploy(ctx, OburnExchange, a.Get(addrbook.TBURN), a.Get(addrbook.OBURN))
	if err != nil {
		return []*Deployment{presale}, err
	}
	return []*Deployment{presale, exchange}, nil
}

// Token deploys the OnlyBurns token.
func Token(ctx context.Context, d *Deployer, a addrbook.Addresses) ([]*Deployment, error) {
	tok, err := d.Deploy(ctx, OnlyBurns,
		a.Get(addrbook.Router), a.Get(addrbook.ServiceWallet), a.Get(addrbook.USDC))
	if err != nil {
		return nil, err
	}
	return []*Deployment{tok}, nil
}

// BurnSwapPlan deploys the BurnSwap contract.
func BurnSwapPlan(ctx context.Context, d *Deployer, a addrbook.Addresses) ([]*Deployment, error) {
	bs, err := d.Deploy(ctx, BurnSwap,
		a.Get(addrbook.Router), a.Get(addrbook.Pair), a.Get(addrbook.OBURN), a.Get(addrbook.USDC))
	if err != nil {
		return nil, err
	}
	return []*Deployment{bs}, nil
}

// MockSet is the local stand-in infrastructure. The mock factory doubles as
// the trading pair address.
type MockSet struct {
	TBURN   *Deployment
	OBURN   *Deployment
	USDC    *Deployment
	Factory *Deployment
	Router  *Deployment
}

// All returns the deployments in creation order.
func (m *MockSet) All() []*Deployment {
	var out []*Deployment
	for _, d := range []*Deployment{m.TBURN, m.OBURN, m.USDC, m.Factory, m.Router} {
		if d != nil {
			out = append(out, d)
		}
	}
	return out
}

// Addresses maps the mocks onto address book roles.
func (m *MockSet) Addresses() addrbook.Addresses {
	return addrbook.Addresses{
		addrbook.TBURN:  m.TBURN.Address,
		addrbook.OBURN:  m.OBURN.Address,
		addrbook.USDC:   m.USDC.Address,
		addrbook.Router: m.Router.Address,
		addrbook.Pair:   m.Factory.Address,
	}
}

// Mocks deploys three generic tokens, the mock factory, and the mock router
// bound to that factory, in that order.
func Mocks(ctx context.Context, d *Deployer) (*MockSet, error) {
	m := &MockSet{}
	var err error
	for _, slot := range []**Deployment{&m.TBURN, &m.OBURN, &m.USDC} {
		if *slot, err = d.Deploy(ctx, GenericToken); err != nil {
			return m, err
		}
	}
	if m.Factory, err = d.Deploy(ctx, MockUniswapV2Factory); err != nil {
		return m, err
	}
	if m.Router, err = d.Deploy(ctx, MockUniswapV2Router02, m.Factory.Address); err != nil {
		return m, err
	}
	return m, nil
}
