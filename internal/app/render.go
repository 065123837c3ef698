package app

import (
	"fmt"
	"math"

	"riskcalc/internal/domain"
	"riskcalc/internal/portfolio"
	"riskcalc/internal/risk"
)

// ANSI color helpers for the interactive output.
func colorize(text string, code int) string { return fmt.Sprintf("\033[%dm%s\033[0m", code, text) }
func green(text string) string              { return colorize(text, 32) }
func red(text string) string                { return colorize(text, 31) }
func yellow(text string) string             { return colorize(text, 33) }
func cyan(text string) string               { return colorize(text, 36) }

// fmtUSD formats a dollar amount, with more precision for sub-dollar values.
func fmtUSD(val float64) string {
	if math.Abs(val) >= 1 {
		return fmt.Sprintf("$%.2f", val)
	}
	return fmt.Sprintf("$%.6f", val)
}

func fmtPct(val float64) string {
	return fmt.Sprintf("%+.2f%%", val)
}

// fmtRatio renders a risk/reward ratio; +Inf means the modelled risk is zero
// or negative.
func fmtRatio(val float64) string {
	if math.IsInf(val, 1) {
		return "∞ (no modelled risk)"
	}
	return fmt.Sprintf("%.2f", val)
}

func pnlColored(val float64) string {
	text := fmtUSD(val)
	if val >= 0 {
		return green(text)
	}
	return red(text)
}

func sideLabel(side domain.Side) string {
	if side == domain.Long {
		return green("LONG")
	}
	return red("SHORT")
}

func modeLabel(mode domain.MarginMode) string {
	if mode == domain.Cross {
		return yellow("CROSS")
	}
	return cyan("ISOLATED")
}

func (s *Service) renderQuotes() {
	fmt.Fprintf(s.out, "\n%s\n", cyan("── Live Prices (USD) ────────────────────────"))
	fmt.Fprintf(s.out, "  %-8s %16s %12s\n", "Symbol", "Price", "24h")
	for _, symbol := range s.sortedSymbols() {
		q := s.quotes[symbol]
		change := fmtPct(q.Change24h)
		if q.Change24h >= 0 {
			change = green(change)
		} else {
			change = red(change)
		}
		fmt.Fprintf(s.out, "  %-8s %16s %23s\n", symbol, fmtUSD(q.Price), change)
	}
}

func (s *Service) renderQuickResult(r risk.QuickResult, side domain.Side, mode domain.MarginMode) {
	fmt.Fprintf(s.out, "\n%s\n", cyan("── Quick Calculation ────────────────────────"))
	fmt.Fprintf(s.out, "  %s %s  (MMF %.1f%%)\n", sideLabel(side), modeLabel(mode), r.MMF*100)
	fmt.Fprintf(s.out, "  Margin:          %s\n", fmtUSD(r.Margin))
	fmt.Fprintf(s.out, "  Position size:   %s\n", fmtUSD(r.PositionSize))
	fmt.Fprintf(s.out, "  Quantity:        %.6f\n", r.Quantity)
	fmt.Fprintf(s.out, "  Liquidation:     %s\n", fmtUSD(r.LiquidationPrice))
	fmt.Fprintf(s.out, "  P&L at target:   %s (%s ROI)\n", pnlColored(r.PnLAtTarget), fmtPct(r.ROIPct))
	fmt.Fprintf(s.out, "  Risk/Reward:     %s\n", fmtRatio(r.RiskReward))
	fmt.Fprintf(s.out, "  Max loss:        %s\n", fmtUSD(r.MaxLoss))
}

func (s *Service) renderPositionSummary(p portfolio.PositionSummary) {
	fmt.Fprintf(s.out, "\n  #%d %s %s %s  %gx\n", p.ID, p.Symbol, sideLabel(p.Side), modeLabel(p.Mode), p.Leverage)
	fmt.Fprintf(s.out, "    entry %s  tp %s  qty %.6f\n", fmtUSD(p.EntryPrice), fmtUSD(p.TakeProfit), p.Quantity)
	fmt.Fprintf(s.out, "    margin %s  size %s  mmf %.1f%%\n", fmtUSD(p.Margin), fmtUSD(p.PositionSize), p.MMF*100)
	fmt.Fprintf(s.out, "    liquidation %s  r/r %s  max loss %s\n", fmtUSD(p.Liquidation), fmtRatio(p.RiskReward), fmtUSD(p.MaxLoss))
	fmt.Fprintf(s.out, "    p&l at target %s (%s ROI)\n", pnlColored(p.PnLAtTarget), fmtPct(p.ROIAtTarget))
	if p.HasMark {
		fmt.Fprintf(s.out, "    mark %s  unrealized %s\n", fmtUSD(p.MarkPrice), pnlColored(p.UnrealizedPnL))
	}
}

func (s *Service) renderRebalance(entries []portfolio.RebalanceEntry) {
	for _, e := range entries {
		line := fmt.Sprintf("  #%d %-6s %s  entry %s  liquidation → %s",
			e.ID, e.Symbol, sideLabel(e.Side), fmtUSD(e.EntryPrice), fmtUSD(e.Liquidation))
		if e.HasMark {
			line += fmt.Sprintf("  (mark %s)", fmtUSD(e.MarkPrice))
		}
		fmt.Fprintln(s.out, line)
	}
}

func (s *Service) renderSnapshot(snap portfolio.Snapshot) {
	fmt.Fprintf(s.out, "\n%s\n", cyan("── Portfolio Summary ────────────────────────"))
	fmt.Fprintf(s.out, "  Initial balance:   %s\n", fmtUSD(snap.InitialBalance))
	fmt.Fprintf(s.out, "  Total balance:     %s\n", fmtUSD(snap.TotalBalance))
	fmt.Fprintf(s.out, "  Available:         %s\n", fmtUSD(snap.AvailableBalance))
	fmt.Fprintf(s.out, "  Margin used:       %s (isolated %s, cross %s)\n",
		fmtUSD(snap.TotalMarginUsed), fmtUSD(snap.IsolatedMarginUsed), fmtUSD(snap.CrossMarginUsed))
	fmt.Fprintf(s.out, "  Realized P&L:      %s\n", pnlColored(snap.RealizedPnL))
	fmt.Fprintf(s.out, "  Unrealized P&L:    %s (marked positions only)\n", pnlColored(snap.UnrealizedPnL))
	fmt.Fprintf(s.out, "  Equity:            %s\n", fmtUSD(snap.Equity))
	fmt.Fprintf(s.out, "  Positions:         %d open / %d total\n", snap.OpenPositions, snap.TotalPositions)
	for _, p := range snap.Positions {
		s.renderPositionSummary(p)
	}
}

func (s *Service) renderHistory(trades []*domain.Trade) {
	fmt.Fprintf(s.out, "\n%s\n", cyan("── Trade History ────────────────────────────"))
	for _, t := range trades {
		fmt.Fprintf(s.out, "  %s  #%d %-6s %s %s  entry %s → close %s  %s\n",
			t.ClosedAt.Format("2006-01-02 15:04"), t.PositionID, t.Symbol,
			sideLabel(t.Side), modeLabel(t.Mode),
			fmtUSD(t.EntryPrice), fmtUSD(t.ClosePrice), pnlColored(t.PNL))
	}
}
