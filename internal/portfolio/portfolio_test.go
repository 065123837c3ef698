package portfolio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskcalc/internal/domain"
	"riskcalc/internal/ports"
)

func newTestPortfolio(t *testing.T) *Portfolio {
	t.Helper()
	pf, err := New(10000)
	require.NoError(t, err)
	return pf
}

func openBTC(t *testing.T, pf *Portfolio, mode domain.MarginMode) *domain.Position {
	t.Helper()
	pos, err := pf.Open(OpenRequest{
		Symbol:      "BTC",
		Side:        domain.Long,
		Mode:        mode,
		EntryPrice:  50000,
		TakeProfit:  55000,
		Sizing:      SizeByRiskPct,
		SizingValue: 10,
		Leverage:    10,
	})
	require.NoError(t, err)
	return pos
}

func TestNewRejectsNonPositiveBalance(t *testing.T) {
	_, err := New(0)
	assert.ErrorIs(t, err, ports.ErrInvalidRequest)
	_, err = New(-100)
	assert.ErrorIs(t, err, ports.ErrInvalidRequest)
}

func TestOpenByRiskPct(t *testing.T) {
	pf := newTestPortfolio(t)
	pos := openBTC(t, pf, domain.Isolated)

	assert.Equal(t, int64(1), pos.ID)
	assert.Equal(t, 1000.0, pos.Margin)
	assert.Equal(t, 10000.0, pos.PositionSize)
	assert.InDelta(t, 0.2, pos.Quantity, 1e-9)
	assert.Equal(t, 0.03, pos.MMF)
	assert.Equal(t, 9000.0, pf.AvailableBalance())
	assert.Equal(t, 1000.0, pf.IsolatedMarginUsed())
	assert.Equal(t, 0.0, pf.CrossMarginUsed())
}

func TestOpenByFixedMargin(t *testing.T) {
	pf := newTestPortfolio(t)
	pos, err := pf.Open(OpenRequest{
		Symbol:      "eth",
		Side:        domain.Short,
		Mode:        domain.Cross,
		EntryPrice:  3000,
		TakeProfit:  2700,
		Sizing:      SizeByMargin,
		SizingValue: 600,
		Leverage:    5,
	})
	require.NoError(t, err)

	assert.Equal(t, "ETH", pos.Symbol)
	assert.Equal(t, 600.0, pos.Margin)
	assert.Equal(t, 3000.0, pos.PositionSize)
	assert.InDelta(t, 1.0, pos.Quantity, 1e-9)
	assert.Equal(t, 600.0, pf.CrossMarginUsed())
}

func TestOpenRejectsInsufficientBalance(t *testing.T) {
	pf := newTestPortfolio(t)
	_, err := pf.Open(OpenRequest{
		Symbol:      "BTC",
		Side:        domain.Long,
		Mode:        domain.Isolated,
		EntryPrice:  50000,
		TakeProfit:  55000,
		Sizing:      SizeByMargin,
		SizingValue: 10001,
		Leverage:    10,
	})
	assert.ErrorIs(t, err, ports.ErrInsufficientBalance)
	// A rejected open allocates nothing.
	assert.Empty(t, pf.Positions())
	assert.Equal(t, 10000.0, pf.AvailableBalance())
}

func TestOpenValidation(t *testing.T) {
	pf := newTestPortfolio(t)
	base := OpenRequest{
		Symbol:      "BTC",
		Side:        domain.Long,
		Mode:        domain.Isolated,
		EntryPrice:  50000,
		TakeProfit:  55000,
		Sizing:      SizeByRiskPct,
		SizingValue: 10,
		Leverage:    10,
	}

	tests := []struct {
		name   string
		mutate func(*OpenRequest)
	}{
		{"empty symbol", func(r *OpenRequest) { r.Symbol = "" }},
		{"bad side", func(r *OpenRequest) { r.Side = "sideways" }},
		{"bad mode", func(r *OpenRequest) { r.Mode = "hedged" }},
		{"zero entry", func(r *OpenRequest) { r.EntryPrice = 0 }},
		{"zero take profit", func(r *OpenRequest) { r.TakeProfit = 0 }},
		{"leverage below one", func(r *OpenRequest) { r.Leverage = 0.5 }},
		{"risk pct zero", func(r *OpenRequest) { r.SizingValue = 0 }},
		{"risk pct above 100", func(r *OpenRequest) { r.SizingValue = 101 }},
		{"bad sizing mode", func(r *OpenRequest) { r.Sizing = "guess" }},
		{"mmf out of range", func(r *OpenRequest) { v := 1.5; r.MMF = &v }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			_, err := pf.Open(req)
			assert.ErrorIs(t, err, ports.ErrInvalidRequest)
		})
	}
	assert.Empty(t, pf.Positions())
}

func TestAvailableBalanceNeverNegative(t *testing.T) {
	pf := newTestPortfolio(t)
	// Keep opening fixed-margin positions until one is rejected.
	for i := 0; i < 10; i++ {
		_, err := pf.Open(OpenRequest{
			Symbol:      "BTC",
			Side:        domain.Long,
			Mode:        domain.Isolated,
			EntryPrice:  50000,
			TakeProfit:  55000,
			Sizing:      SizeByMargin,
			SizingValue: 3000,
			Leverage:    2,
		})
		assert.GreaterOrEqual(t, pf.AvailableBalance(), 0.0)
		if err != nil {
			assert.ErrorIs(t, err, ports.ErrInsufficientBalance)
		}
	}
	// 3 * 3000 fit into 10000; the fourth must have been rejected.
	assert.Len(t, pf.Positions(), 3)
	assert.Equal(t, 1000.0, pf.AvailableBalance())
}

func TestCloseRealizesPnL(t *testing.T) {
	pf := newTestPortfolio(t)
	pos := openBTC(t, pf, domain.Isolated)

	pnl, err := pf.Close(pos.ID, 55000)
	require.NoError(t, err)
	assert.InDelta(t, 1000.0, pnl, 1e-9)
	assert.InDelta(t, 1000.0, pf.RealizedPnL(), 1e-9)
	assert.InDelta(t, 11000.0, pf.TotalBalance(), 1e-9)
	// Margin is released, realized P&L folded in.
	assert.InDelta(t, 11000.0, pf.AvailableBalance(), 1e-9)
	// Closed positions stay for history.
	assert.Len(t, pf.Positions(), 1)
	assert.Empty(t, pf.OpenPositions())
}

func TestCloseAtEntryIsFlat(t *testing.T) {
	pf := newTestPortfolio(t)
	pos := openBTC(t, pf, domain.Isolated)

	pnl, err := pf.Close(pos.ID, 50000)
	require.NoError(t, err)
	assert.Equal(t, 0.0, pnl)
	assert.Equal(t, 0.0, pf.RealizedPnL())
	assert.Equal(t, 10000.0, pf.TotalBalance())
}

func TestCloseTwiceFails(t *testing.T) {
	pf := newTestPortfolio(t)
	pos := openBTC(t, pf, domain.Isolated)

	_, err := pf.Close(pos.ID, 51000)
	require.NoError(t, err)

	_, err = pf.Close(pos.ID, 52000)
	assert.ErrorIs(t, err, ports.ErrPositionClosed)
	_, err = pf.Close(pos.ID, 53000)
	assert.ErrorIs(t, err, ports.ErrPositionClosed)
}

func TestCloseUnknownPosition(t *testing.T) {
	pf := newTestPortfolio(t)
	_, err := pf.Close(42, 50000)
	assert.ErrorIs(t, err, ports.ErrPositionNotFound)

	_, err = pf.LiquidationPrice(42, nil)
	assert.ErrorIs(t, err, ports.ErrPositionNotFound)

	_, err = pf.PositionSummary(42, nil)
	assert.ErrorIs(t, err, ports.ErrPositionNotFound)
}

func TestSequentialIDs(t *testing.T) {
	pf := newTestPortfolio(t)
	first := openBTC(t, pf, domain.Isolated)
	second := openBTC(t, pf, domain.Isolated)
	_, err := pf.Close(first.ID, 50000)
	require.NoError(t, err)
	third := openBTC(t, pf, domain.Isolated)

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
	// IDs are never reused, even after a close.
	assert.Equal(t, int64(3), third.ID)
}

func TestIsolatedLiquidationPrice(t *testing.T) {
	pf := newTestPortfolio(t)
	pos := openBTC(t, pf, domain.Isolated)

	liq, err := pf.LiquidationPrice(pos.ID, nil)
	require.NoError(t, err)
	// (1000 - 0.2*50000) / (0.2*0.03 - 0.2) = -9000 / -0.194
	assert.InDelta(t, 46391.752577, liq, 1e-4)
}

func TestIsolatedLiquidationUnaffectedByOtherPositions(t *testing.T) {
	pf := newTestPortfolio(t)
	iso := openBTC(t, pf, domain.Isolated)

	before, err := pf.LiquidationPrice(iso.ID, nil)
	require.NoError(t, err)

	cross, err := pf.Open(OpenRequest{
		Symbol:      "ETH",
		Side:        domain.Long,
		Mode:        domain.Cross,
		EntryPrice:  3000,
		TakeProfit:  3300,
		Sizing:      SizeByMargin,
		SizingValue: 600,
		Leverage:    5,
	})
	require.NoError(t, err)

	after, err := pf.LiquidationPrice(iso.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	_, err = pf.Close(cross.ID, 3100)
	require.NoError(t, err)

	// Even the realized P&L from the cross close leaves the isolated
	// position's liquidation price alone.
	final, err := pf.LiquidationPrice(iso.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, before, final)
}

func TestCrossLiquidationCoupling(t *testing.T) {
	pf := newTestPortfolio(t)
	btc := openBTC(t, pf, domain.Cross)

	before, err := pf.LiquidationPrice(btc.ID, nil)
	require.NoError(t, err)
	// Sole cross position, equity equals notional: degenerate zero.
	assert.Equal(t, 0.0, before)

	_, err = pf.Open(OpenRequest{
		Symbol:      "ETH",
		Side:        domain.Long,
		Mode:        domain.Cross,
		EntryPrice:  3000,
		TakeProfit:  3300,
		Sizing:      SizeByMargin,
		SizingValue: 600,
		Leverage:    5,
	})
	require.NoError(t, err)

	after, err := pf.LiquidationPrice(btc.ID, nil)
	require.NoError(t, err)
	// ETH reserves 1.0 * 3000 * 0.03 = 90 of maintenance margin:
	// (10000 - 10000 - 90) / -0.194 = 463.917526
	assert.InDelta(t, 463.917526, after, 1e-4)
	assert.NotEqual(t, before, after)
}

func TestMMROtherUsesMarkWhenKnown(t *testing.T) {
	pf := newTestPortfolio(t)
	btc := openBTC(t, pf, domain.Cross)
	_, err := pf.Open(OpenRequest{
		Symbol:      "ETH",
		Side:        domain.Long,
		Mode:        domain.Cross,
		EntryPrice:  3000,
		TakeProfit:  3300,
		Sizing:      SizeByMargin,
		SizingValue: 600,
		Leverage:    5,
	})
	require.NoError(t, err)

	atEntry, err := pf.LiquidationPrice(btc.ID, nil)
	require.NoError(t, err)

	// ETH marked at 4000 reserves 120 instead of 90.
	atMark, err := pf.LiquidationPrice(btc.ID, map[string]float64{"ETH": 4000})
	require.NoError(t, err)
	assert.Greater(t, atMark, atEntry)
	assert.InDelta(t, 120.0/0.194, atMark, 1e-4)
}

func TestRebalanceReportsOnlyOpenCross(t *testing.T) {
	pf := newTestPortfolio(t)
	openBTC(t, pf, domain.Isolated)
	crossBTC := openBTC(t, pf, domain.Cross)
	crossETH, err := pf.Open(OpenRequest{
		Symbol:      "ETH",
		Side:        domain.Short,
		Mode:        domain.Cross,
		EntryPrice:  3000,
		TakeProfit:  2700,
		Sizing:      SizeByMargin,
		SizingValue: 600,
		Leverage:    5,
	})
	require.NoError(t, err)

	entries := pf.Rebalance(map[string]float64{"BTC": 51000})
	require.Len(t, entries, 2)
	assert.Equal(t, crossBTC.ID, entries[0].ID)
	assert.True(t, entries[0].HasMark)
	assert.Equal(t, 51000.0, entries[0].MarkPrice)
	assert.Equal(t, crossETH.ID, entries[1].ID)
	assert.False(t, entries[1].HasMark)

	// Rebalance is a pure read: a second call reports the same prices.
	again := pf.Rebalance(map[string]float64{"BTC": 51000})
	assert.Equal(t, entries, again)

	// Closing a cross position drops it from the report and moves the rest.
	_, err = pf.Close(crossETH.ID, 3000)
	require.NoError(t, err)
	afterClose := pf.Rebalance(map[string]float64{"BTC": 51000})
	require.Len(t, afterClose, 1)
	assert.Equal(t, crossBTC.ID, afterClose[0].ID)
	assert.NotEqual(t, entries[0].Liquidation, afterClose[0].Liquidation)
}

func TestSnapshot(t *testing.T) {
	pf := newTestPortfolio(t)
	openBTC(t, pf, domain.Isolated)
	_, err := pf.Open(OpenRequest{
		Symbol:      "ETH",
		Side:        domain.Long,
		Mode:        domain.Cross,
		EntryPrice:  3000,
		TakeProfit:  3300,
		Sizing:      SizeByMargin,
		SizingValue: 600,
		Leverage:    5,
	})
	require.NoError(t, err)

	// Only BTC has a mark: ETH's unrealized P&L must be omitted, not zeroed.
	snap := pf.Snapshot(map[string]float64{"BTC": 55000})

	assert.Equal(t, 10000.0, snap.InitialBalance)
	assert.Equal(t, 10000.0, snap.TotalBalance)
	assert.Equal(t, 8400.0, snap.AvailableBalance)
	assert.Equal(t, 1000.0, snap.IsolatedMarginUsed)
	assert.Equal(t, 600.0, snap.CrossMarginUsed)
	assert.Equal(t, 2, snap.OpenPositions)
	assert.Equal(t, 2, snap.TotalPositions)
	assert.InDelta(t, 1000.0, snap.UnrealizedPnL, 1e-9)
	assert.InDelta(t, 11000.0, snap.Equity, 1e-9)

	require.Len(t, snap.Positions, 2)
	assert.True(t, snap.Positions[0].HasMark)
	assert.InDelta(t, 1000.0, snap.Positions[0].UnrealizedPnL, 1e-9)
	assert.False(t, snap.Positions[1].HasMark)

	// Isolated max loss is the margin; cross risks the whole balance.
	assert.Equal(t, 1000.0, snap.Positions[0].MaxLoss)
	assert.Equal(t, 10000.0, snap.Positions[1].MaxLoss)
}

func TestSnapshotRiskRewardInfinity(t *testing.T) {
	pf := newTestPortfolio(t)
	// Thin margin at 50x: liquidation lands below the short's entry,
	// (200 + 10000) / 0.206 ≈ 49514.56, so the modelled risk is negative.
	pos, err := pf.Open(OpenRequest{
		Symbol:      "BTC",
		Side:        domain.Short,
		Mode:        domain.Isolated,
		EntryPrice:  50000,
		TakeProfit:  45000,
		Sizing:      SizeByMargin,
		SizingValue: 200,
		Leverage:    50,
	})
	require.NoError(t, err)

	summary, err := pf.PositionSummary(pos.ID, nil)
	require.NoError(t, err)
	assert.True(t, math.IsInf(summary.RiskReward, 1))
}

func TestEquity(t *testing.T) {
	pf := newTestPortfolio(t)
	openBTC(t, pf, domain.Isolated)

	assert.Equal(t, 10000.0, pf.Equity(nil))
	assert.InDelta(t, 11000.0, pf.Equity(map[string]float64{"BTC": 55000}), 1e-9)
	assert.InDelta(t, 9000.0, pf.Equity(map[string]float64{"BTC": 45000}), 1e-9)
}

func TestReset(t *testing.T) {
	pf := newTestPortfolio(t)
	pos := openBTC(t, pf, domain.Isolated)
	_, err := pf.Close(pos.ID, 55000)
	require.NoError(t, err)

	require.NoError(t, pf.Reset(5000))
	assert.Equal(t, 5000.0, pf.InitialBalance())
	assert.Equal(t, 5000.0, pf.TotalBalance())
	assert.Equal(t, 0.0, pf.RealizedPnL())
	assert.Empty(t, pf.Positions())

	// The id sequence restarts with the session.
	fresh := openBTC(t, pf, domain.Isolated)
	assert.Equal(t, int64(1), fresh.ID)

	assert.ErrorIs(t, pf.Reset(0), ports.ErrInvalidRequest)
}

func TestMarksFromQuotes(t *testing.T) {
	marks := MarksFromQuotes(map[string]ports.Quote{
		"BTC": {Price: 50000, Change24h: 1.2},
		"ETH": {Price: 3000, Change24h: -0.4},
	})
	assert.Equal(t, map[string]float64{"BTC": 50000, "ETH": 3000}, marks)
}
