// Package addrbook resolves the contract and wallet addresses a deployment
// plan needs, switching between production and test constants.
package addrbook

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Role is the logical part an address plays in a deployment.
type Role string

const (
	TBURN         Role = "tburn"
	OBURN         Role = "oburn"
	USDC          Role = "usdc"
	PresaleWallet Role = "presale-wallet"
	ServiceWallet Role = "service-wallet"
	Router        Role = "router"
	Pair          Role = "pair"
	BurnSwap      Role = "burnswap"
)

// DeadWallet receives burned tokens.
var DeadWallet = common.HexToAddress("0x000000000000000000000000000000000000dEaD")

var (
	// ErrUnresolved is returned when no override or constant exists for a role.
	ErrUnresolved = errors.New("address not resolved")
	// ErrInvalidAddress is returned when a resolved value is not a hex address.
	ErrInvalidAddress = errors.New("invalid address")
)

// Book holds the production and test constants for one plan.
type Book struct {
	Name string
	Prod map[Role]string
	Test map[Role]string
}

// Addresses is a resolved role → address mapping.
type Addresses map[Role]common.Address

// Get returns the address for r. Missing roles yield the zero address.
func (a Addresses) Get(r Role) common.Address { return a[r] }

// Lookup returns the raw constant for r, by precedence:
// override > production constant (when prod) > test constant.
func (b Book) Lookup(prod bool, overrides map[Role]string, r Role) string {
	if v := strings.TrimSpace(overrides[r]); v != "" {
		return v
	}
	if prod {
		return b.Prod[r]
	}
	return b.Test[r]
}

// Resolve resolves every role in roles. All failures are reported together.
func (b Book) Resolve(prod bool, overrides map[Role]string, roles ...Role) (Addresses, error) {
	out := make(Addresses, len(roles))
	var errs []error
	for _, r := range roles {
		raw := b.Lookup(prod, overrides, r)
		addr, err := parse(r, raw, prod)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out[r] = addr
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%s: %w", b.Name, errors.Join(errs...))
	}
	return out, nil
}

func parse(r Role, raw string, prod bool) (common.Address, error) {
	if raw == "" {
		env := "test"
		if prod {
			env = "production"
		}
		return common.Address{}, fmt.Errorf("%w: %s has no %s address; pass --%s", ErrUnresolved, r, env, r)
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("%w: %s = %q", ErrInvalidAddress, r, raw)
	}
	addr := common.HexToAddress(raw)
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: %s is the zero address", ErrInvalidAddress, r)
	}
	return addr, nil
}

// ParseOverrides turns "role=0x..." pairs into an override map.
func ParseOverrides(pairs []string) (map[Role]string, error) {
	out := make(map[Role]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("override %q: expected role=address", p)
		}
		out[Role(strings.ToLower(strings.TrimSpace(k)))] = strings.TrimSpace(v)
	}
	return out, nil
}

// Roles returns the roles with any constant in b, sorted.
func (b Book) Roles() []Role {
	seen := map[Role]bool{}
	for r := range b.Prod {
		seen[r] = true
	}
	for r := range b.Test {
		seen[r] = true
	}
	out := make([]Role, 0, len(seen))
	for r := range seen {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
