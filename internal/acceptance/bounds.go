package acceptance

import (
	"fmt"
	"math/big"
)

var (
	big100 = big.NewInt(100)
	// 10^12 lifts 6-decimal USDC to 18-decimal OBURN.
	usdcScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(12), nil)
	// The token's DEX sell fee is amount*10/10^10.
	dexFeeDenom = new(big.Int).Exp(big.NewInt(10), big.NewInt(10), nil)
)

// Ether returns n * 10^18.
func Ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

// Range is an inclusive [Lo, Hi] window.
type Range struct {
	Lo, Hi *big.Int
}

// Contains reports whether Lo <= v <= Hi.
func (r Range) Contains(v *big.Int) bool {
	return v.Cmp(r.Lo) >= 0 && v.Cmp(r.Hi) <= 0
}

// Shift returns the range moved by base.
func (r Range) Shift(base *big.Int) Range {
	return Range{Lo: new(big.Int).Add(r.Lo, base), Hi: new(big.Int).Add(r.Hi, base)}
}

func (r Range) String() string { return fmt.Sprintf("[%s, %s]", r.Lo, r.Hi) }

// SwapBounds is the window a fee-paying trade output must land in:
// [out*(100-slippage-fee)/100, out*(100-fee)/100 + 1].
func SwapBounds(out *big.Int, slippage, fee int64) Range {
	return Range{
		Lo: pctCeil(out, 100-slippage-fee),
		Hi: new(big.Int).Add(pctFloor(out, 100-fee), big.NewInt(1)),
	}
}

// ExemptBounds is SwapBounds without the fee term:
// [out*(100-slippage)/100, out + 1].
func ExemptBounds(out *big.Int, slippage int64) Range {
	return Range{
		Lo: pctCeil(out, 100-slippage),
		Hi: new(big.Int).Add(out, big.NewInt(1)),
	}
}

// SpendBounds is the window the input spent lands in when only the output is
// fixed: between 99% of the quoted input and the input plus slippage.
func SpendBounds(in *big.Int, slippage int64) Range {
	return Range{Lo: pctCeil(in, 99), Hi: pctFloor(in, 100+slippage)}
}

// PresaleOutput is the OBURN bought with usdc base units at rate.
func PresaleOutput(usdc, rate *big.Int) *big.Int {
	out := new(big.Int).Mul(usdc, rate)
	return out.Mul(out, usdcScale)
}

// DexSellFee is the token's fee on a transfer into the trading pair.
func DexSellFee(amount *big.Int) *big.Int {
	fee := new(big.Int).Mul(amount, big.NewInt(10))
	return fee.Quo(fee, dexFeeDenom)
}

// Percent returns amount*pct/100, rounded down.
func Percent(amount *big.Int, pct int64) *big.Int {
	return pctFloor(amount, pct)
}

func pctFloor(v *big.Int, pct int64) *big.Int {
	out := new(big.Int).Mul(v, big.NewInt(pct))
	return out.Quo(out, big100)
}

func pctCeil(v *big.Int, pct int64) *big.Int {
	out := new(big.Int).Mul(v, big.NewInt(pct))
	q, m := new(big.Int).QuoRem(out, big100, new(big.Int))
	if m.Sign() > 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}
