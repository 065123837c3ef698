package risk

import "riskcalc/internal/domain"

// QuickInput holds the parameters for a standalone, portfolio-free
// calculation of a hypothetical trade.
type QuickInput struct {
	Balance    float64
	RiskPct    float64
	Leverage   float64
	EntryPrice float64
	TakeProfit float64
	Side       domain.Side
	Mode       domain.MarginMode
	MMF        *float64 // nil uses domain.FallbackMMF
}

// QuickResult is the full set of metrics for a hypothetical trade.
type QuickResult struct {
	Margin           float64
	PositionSize     float64
	Quantity         float64
	MMF              float64
	LiquidationPrice float64
	PnLAtTarget      float64
	ROIPct           float64
	RiskReward       float64
	MaxLoss          float64
}

// QuickCalculate runs the one-shot calculation for a trade that is not part
// of any portfolio. Cross mode treats the whole balance as the backing
// equity with no other positions reserving margin; the maximum loss is the
// allocated margin for isolated mode and the entire balance for cross.
func QuickCalculate(in QuickInput) QuickResult {
	mmf := domain.FallbackMMF
	if in.MMF != nil {
		mmf = *in.MMF
	}

	margin, size := PositionSize(in.Balance, in.RiskPct, in.Leverage)
	qty := size / in.EntryPrice

	var liq float64
	if in.Mode == domain.Cross {
		liq = LiquidationPriceCross(in.EntryPrice, qty, in.Side, in.Balance, mmf, 0)
	} else {
		liq = LiquidationPriceIsolated(in.EntryPrice, qty, in.Side, margin, mmf)
	}

	pnl, roi := PnLAtTarget(in.EntryPrice, in.TakeProfit, margin, in.Leverage, in.Side)

	maxLoss := margin
	if in.Mode == domain.Cross {
		maxLoss = in.Balance
	}

	return QuickResult{
		Margin:           margin,
		PositionSize:     size,
		Quantity:         qty,
		MMF:              mmf,
		LiquidationPrice: liq,
		PnLAtTarget:      pnl,
		ROIPct:           roi,
		RiskReward:       RiskReward(in.EntryPrice, in.TakeProfit, liq, in.Side),
		MaxLoss:          maxLoss,
	}
}
