// Package risk implements the margin and liquidation math for leveraged
// positions. All functions are pure and total: invalid or degenerate inputs
// degrade via clamping (liquidation floored at 0, infinite risk/reward,
// zero ROI on zero margin) rather than returning errors.
//
// Liquidation formulas follow the dYdX Chain documentation:
//
//	Isolated:  p' = (e - s*p) / (|s|*MMF - s)
//	Cross:     p' = (e - s*p - MMR_o) / (|s|*MMF - s)
//
// where e is the backing equity (isolated: the position's margin, cross: the
// account's total equity), s the signed quantity (+qty long, -qty short),
// p the entry price, MMF the maintenance margin fraction and MMR_o the
// maintenance margin requirement of all OTHER open cross positions.
package risk

import (
	"math"

	"riskcalc/internal/domain"
)

// PositionSize derives the margin to allocate and the resulting notional
// size from an account balance, a risk percentage of that balance, and a
// leverage multiplier.
func PositionSize(balance, riskPct, leverage float64) (margin, size float64) {
	margin = balance * (riskPct / 100)
	size = margin * leverage
	return margin, size
}

// MaintenanceMarginReq returns |qty| * price * mmf, the minimum equity a
// position reserves at the given price.
func MaintenanceMarginReq(qty, price, mmf float64) float64 {
	return math.Abs(qty) * price * mmf
}

// LiquidationPriceIsolated returns the liquidation price for a position
// backed only by its own margin. A zero denominator (|s|*mmf == s) makes the
// price undefined under this model and yields 0; negative results are
// floored at 0.
func LiquidationPriceIsolated(entryPrice, qty float64, side domain.Side, margin, mmf float64) float64 {
	s := signedQty(qty, side)
	denom := math.Abs(s)*mmf - s
	if denom == 0 {
		return 0
	}
	return math.Max((margin-s*entryPrice)/denom, 0)
}

// LiquidationPriceCross returns the liquidation price for a position backed
// by the whole account. totalEquity is the shared pool; mmrOther is the sum
// of maintenance margin requirements reserved by every other open cross
// position. Degenerate cases clamp exactly as in the isolated variant.
func LiquidationPriceCross(entryPrice, qty float64, side domain.Side, totalEquity, mmf, mmrOther float64) float64 {
	s := signedQty(qty, side)
	denom := math.Abs(s)*mmf - s
	if denom == 0 {
		return 0
	}
	return math.Max((totalEquity-s*entryPrice-mmrOther)/denom, 0)
}

// UnrealizedPnL returns the profit or loss of a position of qty units opened
// at entryPrice and marked at currentPrice.
func UnrealizedPnL(entryPrice, currentPrice, qty float64, side domain.Side) float64 {
	if side == domain.Long {
		return (currentPrice - entryPrice) * qty
	}
	return (entryPrice - currentPrice) * qty
}

// PnLAtTarget projects the profit and return on margin if the target price
// is reached. ROI is 0 when margin is 0.
func PnLAtTarget(entryPrice, targetPrice, margin, leverage float64, side domain.Side) (pnl, roiPct float64) {
	qty := margin * leverage / entryPrice
	pnl = UnrealizedPnL(entryPrice, targetPrice, qty, side)
	if margin > 0 {
		roiPct = pnl / margin * 100
	}
	return pnl, roiPct
}

// RiskReward returns reward/risk for a position with the given target and
// liquidation prices. When the computed risk is zero or negative (the
// liquidation price already sits past the entry in the adverse direction)
// the downside is unbounded under this model and +Inf is returned.
func RiskReward(entryPrice, targetPrice, liqPrice float64, side domain.Side) float64 {
	var reward, risk float64
	if side == domain.Long {
		reward = targetPrice - entryPrice
		risk = entryPrice - liqPrice
	} else {
		reward = entryPrice - targetPrice
		risk = liqPrice - entryPrice
	}
	if risk <= 0 {
		return math.Inf(1)
	}
	return reward / risk
}

func signedQty(qty float64, side domain.Side) float64 {
	if side == domain.Short {
		return -qty
	}
	return qty
}
