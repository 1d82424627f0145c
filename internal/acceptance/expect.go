package acceptance

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/onlyburns/oburnctl/internal/contract"
)

// Revert reasons the contracts are expected to produce.
const (
	ReasonPaused             = "Pausable: paused"
	ReasonExchangeApproval   = "You must first approve this contract to spend your TBURN to exchange it for OBURN."
	ReasonSenderBlacklisted  = "Sender is blacklisted from trading."
	ReasonRecipientBlacklist = "Recipient is blacklisted from trading."
	ReasonDEXDisabled        = "DEX Trading is currently disabled. You must trade directly through the Only Burns DApp."
	ReasonSaleInactive       = "Whitelist sale and public sale are both not active"
	ReasonPresaleApproval    = "Sender hasn't allowed this contract to spend enough USDC for this presale purchase."
	ReasonWhitelistCap       = "Exceeds whitelist sale cap"
	ReasonPublicCap          = "Exceeds public sale cap"
	ReasonAddressCap         = "Exceeds maximum tokens per address"
	ReasonLocked             = "Sale parameters are locked"
	ReasonSwapBlacklisted    = "You have been blacklisted from trading OBURN through this contract."
	ReasonAllowance          = "ERC20: insufficient allowance"
)

// ErrNoRevert is returned by ExpectRevert when the call succeeded.
var ErrNoRevert = errors.New("expected revert, call succeeded")

// ExpectRevert returns nil when err is a contract revert whose reason
// contains substr.
func ExpectRevert(err error, substr string) error {
	if err == nil {
		return fmt.Errorf("%w (want %q)", ErrNoRevert, substr)
	}
	if !contract.IsRevert(err) {
		return fmt.Errorf("expected revert %q, got %w", substr, err)
	}
	if !strings.Contains(contract.RevertReason(err), substr) && !strings.Contains(err.Error(), substr) {
		return fmt.Errorf("expected revert %q, got %q", substr, contract.RevertReason(err))
	}
	return nil
}

// Equal fails unless got == want.
func Equal(what string, got, want *big.Int) error {
	if got.Cmp(want) != 0 {
		return fmt.Errorf("%s: got %s, want %s", what, got, want)
	}
	return nil
}

// Within fails unless got lies in r.
func Within(what string, got *big.Int, r Range) error {
	if !r.Contains(got) {
		return fmt.Errorf("%s: got %s, want within %s", what, got, r)
	}
	return nil
}

// Checks collects assertion failures and reports them together.
type Checks []error

// Add records err if non-nil.
func (c *Checks) Add(err error) {
	if err != nil {
		*c = append(*c, err)
	}
}

// Err returns the joined failures, or nil.
func (c Checks) Err() error { return errors.Join(c...) }
