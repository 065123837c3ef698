package portfolio

import (
	"riskcalc/internal/domain"
	"riskcalc/internal/ports"
	"riskcalc/internal/risk"
)

// PositionSummary is the full set of risk metrics for one position.
// MarkPrice and UnrealizedPnL are only meaningful when HasMark is true; a
// position whose symbol has no mark price is reported without them rather
// than with an assumed zero.
type PositionSummary struct {
	ID            int64
	Symbol        string
	Side          domain.Side
	Mode          domain.MarginMode
	EntryPrice    float64
	TakeProfit    float64
	Margin        float64
	Leverage      float64
	PositionSize  float64
	Quantity      float64
	MMF           float64
	Open          bool
	PnLAtTarget   float64
	ROIAtTarget   float64
	Liquidation   float64
	RiskReward    float64 // +Inf when the modelled risk collapses to zero or negative
	MaxLoss       float64 // margin for isolated, whole balance for cross
	MarkPrice     float64
	UnrealizedPnL float64
	HasMark       bool
}

// RebalanceEntry reports one open cross position's recomputed liquidation
// price after the shared collateral pool changed.
type RebalanceEntry struct {
	ID          int64
	Symbol      string
	Side        domain.Side
	EntryPrice  float64
	Liquidation float64
	MarkPrice   float64
	HasMark     bool
}

// Snapshot aggregates the portfolio's balances, margin pools and P&L,
// plus a summary per open position. UnrealizedPnL and Equity only include
// positions with a known mark price.
type Snapshot struct {
	InitialBalance     float64
	TotalBalance       float64
	AvailableBalance   float64
	IsolatedMarginUsed float64
	CrossMarginUsed    float64
	TotalMarginUsed    float64
	RealizedPnL        float64
	UnrealizedPnL      float64
	Equity             float64
	OpenPositions      int
	TotalPositions     int
	Positions          []PositionSummary
}

// PositionSummary builds the metrics record for one position using the given
// partial mark-price map.
func (pf *Portfolio) PositionSummary(id int64, marks map[string]float64) (PositionSummary, error) {
	pos, err := pf.get(id)
	if err != nil {
		return PositionSummary{}, err
	}
	return pf.summarize(pos, marks), nil
}

func (pf *Portfolio) summarize(pos *domain.Position, marks map[string]float64) PositionSummary {
	liq := pf.liquidationPrice(pos, marks)
	pnlTP, roiTP := risk.PnLAtTarget(pos.EntryPrice, pos.TakeProfit, pos.Margin, pos.Leverage, pos.Side)

	maxLoss := pos.Margin
	if pos.Mode == domain.Cross {
		maxLoss = pf.TotalBalance()
	}

	s := PositionSummary{
		ID:           pos.ID,
		Symbol:       pos.Symbol,
		Side:         pos.Side,
		Mode:         pos.Mode,
		EntryPrice:   pos.EntryPrice,
		TakeProfit:   pos.TakeProfit,
		Margin:       pos.Margin,
		Leverage:     pos.Leverage,
		PositionSize: pos.PositionSize,
		Quantity:     pos.Quantity,
		MMF:          pos.MMF,
		Open:         pos.IsOpen(),
		PnLAtTarget:  pnlTP,
		ROIAtTarget:  roiTP,
		Liquidation:  liq,
		RiskReward:   risk.RiskReward(pos.EntryPrice, pos.TakeProfit, liq, pos.Side),
		MaxLoss:      maxLoss,
	}
	if mark, ok := marks[pos.Symbol]; ok {
		s.MarkPrice = mark
		s.UnrealizedPnL = pos.UnrealizedPnL(mark)
		s.HasMark = true
	}
	return s
}

// Rebalance recomputes the liquidation price of every open cross position
// against the current shared pool and returns the result. It mutates
// nothing: liquidation prices are never cached, so the report is always
// derived from the portfolio's present state. Isolated positions depend only
// on their own fixed margin and are deliberately absent.
func (pf *Portfolio) Rebalance(marks map[string]float64) []RebalanceEntry {
	var entries []RebalanceEntry
	for _, p := range pf.positions {
		if !p.IsOpen() || p.Mode != domain.Cross {
			continue
		}
		e := RebalanceEntry{
			ID:          p.ID,
			Symbol:      p.Symbol,
			Side:        p.Side,
			EntryPrice:  p.EntryPrice,
			Liquidation: pf.liquidationPrice(p, marks),
		}
		if mark, ok := marks[p.Symbol]; ok {
			e.MarkPrice = mark
			e.HasMark = true
		}
		entries = append(entries, e)
	}
	return entries
}

// Snapshot aggregates the whole portfolio against the given partial
// mark-price map.
func (pf *Portfolio) Snapshot(marks map[string]float64) Snapshot {
	snap := Snapshot{
		InitialBalance:     pf.initialBalance,
		TotalBalance:       pf.TotalBalance(),
		AvailableBalance:   pf.AvailableBalance(),
		IsolatedMarginUsed: pf.IsolatedMarginUsed(),
		CrossMarginUsed:    pf.CrossMarginUsed(),
		TotalMarginUsed:    pf.TotalMarginUsed(),
		RealizedPnL:        pf.realizedPnL,
		TotalPositions:     len(pf.positions),
	}
	for _, p := range pf.positions {
		if !p.IsOpen() {
			continue
		}
		snap.OpenPositions++
		s := pf.summarize(p, marks)
		if s.HasMark {
			snap.UnrealizedPnL += s.UnrealizedPnL
		}
		snap.Positions = append(snap.Positions, s)
	}
	snap.Equity = snap.TotalBalance + snap.UnrealizedPnL
	return snap
}

// MarksFromQuotes reduces a quote map from the price feed to the mark-price
// map the portfolio consumes.
func MarksFromQuotes(quotes map[string]ports.Quote) map[string]float64 {
	marks := make(map[string]float64, len(quotes))
	for symbol, q := range quotes {
		marks[symbol] = q.Price
	}
	return marks
}
