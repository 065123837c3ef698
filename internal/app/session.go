package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"riskcalc/internal/domain"
	"riskcalc/internal/portfolio"
	"riskcalc/internal/risk"
)

// Run starts the interactive session and blocks until the operator quits or
// a shutdown signal arrives.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info(ctx, "Starting session", map[string]interface{}{"startingBalance": s.cfg.StartingBalance})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		sig := <-sigCh
		s.logger.Info(ctx, "Received shutdown signal", map[string]interface{}{"signal": sig.String()})
		cancel()
	}()

	// Warm the quote cache so the first open can suggest live entry prices.
	// A feed outage here is not fatal; the sandbox works from manual prices.
	if err := s.RefreshQuotes(ctx); err != nil {
		fmt.Fprintf(s.out, "%s\n", yellow("Could not fetch live prices; enter prices manually."))
	}

	for {
		if ctx.Err() != nil {
			return nil
		}
		s.printMenu()
		choice, ok := s.prompt("> ")
		if !ok {
			return nil // EOF on stdin ends the session
		}
		switch strings.TrimSpace(choice) {
		case "1":
			s.actionViewPrices(ctx)
		case "2":
			s.actionQuickCalc(ctx)
		case "3":
			s.actionOpenPosition(ctx)
		case "4":
			s.actionListPositions(ctx)
		case "5":
			s.actionClosePosition(ctx)
		case "6":
			s.actionSnapshot(ctx)
		case "7":
			s.actionRebalance(ctx)
		case "8":
			s.actionHistory(ctx)
		case "9":
			s.actionSetBalance(ctx)
		case "q", "Q":
			fmt.Fprintln(s.out, "Bye.")
			return nil
		default:
			fmt.Fprintln(s.out, "  Choose 1-9 or q.")
		}
	}
}

func (s *Service) printMenu() {
	fmt.Fprintf(s.out, "\n%s\n", cyan("── Risk Calculator ──────────────────────────"))
	fmt.Fprintf(s.out, "  available %s of %s total\n",
		fmtUSD(s.portfolio.AvailableBalance()), fmtUSD(s.portfolio.TotalBalance()))
	fmt.Fprintln(s.out, `  1) View live prices
  2) Quick calculation
  3) Open position
  4) List positions
  5) Close position
  6) Portfolio summary
  7) Rebalance report
  8) Trade history
  9) Set new balance
  q) Quit`)
}

func (s *Service) actionViewPrices(ctx context.Context) {
	if err := s.RefreshQuotes(ctx); err != nil {
		fmt.Fprintf(s.out, "  %s %v\n", red("Feed error:"), err)
		if len(s.quotes) == 0 {
			return
		}
		fmt.Fprintln(s.out, yellow("  Showing cached quotes."))
	}
	s.renderQuotes()
}

func (s *Service) actionQuickCalc(ctx context.Context) {
	symbol, ok := s.prompt("Symbol (e.g. BTC, blank to skip): ")
	if !ok {
		return
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	defaultMMF := domain.FallbackMMF
	if symbol != "" {
		defaultMMF = domain.MMFForSymbol(symbol)
	}
	mmfPct, ok := s.promptFloatDefault(
		fmt.Sprintf("Maintenance margin %% [%.1f]", defaultMMF*100),
		defaultMMF*100, minVal(0.1), maxVal(99))
	if !ok {
		return
	}
	mmf := mmfPct / 100

	balance, ok := s.promptFloat("Balance", minVal(0.01))
	if !ok {
		return
	}
	riskPct, ok := s.promptFloat("Risk % of balance", minVal(0.01), maxVal(100))
	if !ok {
		return
	}
	leverage, ok := s.promptFloat("Leverage", minVal(1))
	if !ok {
		return
	}
	entry, ok := s.promptFloat("Entry price", minVal(0.000001))
	if !ok {
		return
	}
	target, ok := s.promptFloat("Take-profit price", minVal(0.000001))
	if !ok {
		return
	}
	side, ok := s.promptSide()
	if !ok {
		return
	}
	mode, ok := s.promptMode()
	if !ok {
		return
	}

	result := risk.QuickCalculate(risk.QuickInput{
		Balance:    balance,
		RiskPct:    riskPct,
		Leverage:   leverage,
		EntryPrice: entry,
		TakeProfit: target,
		Side:       side,
		Mode:       mode,
		MMF:        &mmf,
	})
	s.renderQuickResult(result, side, mode)
}

func (s *Service) actionSetBalance(ctx context.Context) {
	balance, ok := s.promptFloat("New starting balance", minVal(0.01))
	if !ok {
		return
	}
	if err := s.portfolio.Reset(balance); err != nil {
		fmt.Fprintf(s.out, "  %s %v\n", red("Rejected:"), err)
		return
	}
	s.logger.Info(ctx, "Session reset", map[string]interface{}{"startingBalance": balance})
	fmt.Fprintf(s.out, "  %s\n", green(fmt.Sprintf("Balance reset to %s", fmtUSD(balance))))
}

func (s *Service) actionOpenPosition(ctx context.Context) {
	symbol, ok := s.prompt("Symbol (e.g. BTC): ")
	if !ok || strings.TrimSpace(symbol) == "" {
		return
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	side, ok := s.promptSide()
	if !ok {
		return
	}
	mode, ok := s.promptMode()
	if !ok {
		return
	}

	entryLabel := "Entry price"
	if mark, known := s.MarkPrice(symbol); known {
		entryLabel = fmt.Sprintf("Entry price (mark %s)", fmtUSD(mark))
	}
	entry, ok := s.promptFloat(entryLabel, minVal(0.000001))
	if !ok {
		return
	}
	target, ok := s.promptFloat("Take-profit price", minVal(0.000001))
	if !ok {
		return
	}
	leverage, ok := s.promptFloat("Leverage", minVal(1))
	if !ok {
		return
	}

	sizingChoice, ok := s.prompt("Size by risk % or fixed margin? [risk/margin]: ")
	if !ok {
		return
	}
	req := portfolio.OpenRequest{
		Symbol:     symbol,
		Side:       side,
		Mode:       mode,
		EntryPrice: entry,
		TakeProfit: target,
		Leverage:   leverage,
	}
	switch strings.ToLower(strings.TrimSpace(sizingChoice)) {
	case "margin", "m":
		margin, ok := s.promptFloat("Margin amount", minVal(0.01))
		if !ok {
			return
		}
		req.Sizing = portfolio.SizeByMargin
		req.SizingValue = margin
	default:
		riskPct, ok := s.promptFloat("Risk % of total balance", minVal(0.01), maxVal(100))
		if !ok {
			return
		}
		req.Sizing = portfolio.SizeByRiskPct
		req.SizingValue = riskPct
	}

	pos, err := s.OpenPosition(ctx, req)
	if err != nil {
		fmt.Fprintf(s.out, "  %s %v\n", red("Rejected:"), err)
		return
	}

	summary, err := s.portfolio.PositionSummary(pos.ID, s.Marks())
	if err == nil {
		s.renderPositionSummary(summary)
	}

	// Opening a cross position moves every other cross position's
	// liquidation price; surface that immediately.
	if pos.Mode == domain.Cross {
		if entries := s.portfolio.Rebalance(s.Marks()); len(entries) > 1 {
			fmt.Fprintf(s.out, "\n%s\n", yellow("Cross positions rebalanced:"))
			s.renderRebalance(entries)
		}
	}
}

func (s *Service) actionListPositions(ctx context.Context) {
	positions := s.portfolio.Positions()
	if len(positions) == 0 {
		fmt.Fprintln(s.out, "  No positions yet.")
		return
	}
	marks := s.Marks()
	for _, p := range positions {
		if !p.IsOpen() {
			fmt.Fprintf(s.out, "  #%d %s %s %s  closed, realized %s\n",
				p.ID, p.Symbol, sideLabel(p.Side), modeLabel(p.Mode), pnlColored(p.RealizedPnL))
			continue
		}
		summary, err := s.portfolio.PositionSummary(p.ID, marks)
		if err != nil {
			continue
		}
		s.renderPositionSummary(summary)
	}
}

func (s *Service) actionClosePosition(ctx context.Context) {
	id, ok := s.promptInt("Position id")
	if !ok {
		return
	}

	var defaultPrice float64
	for _, p := range s.portfolio.OpenPositions() {
		if p.ID == id {
			if mark, known := s.MarkPrice(p.Symbol); known {
				defaultPrice = mark
			}
			break
		}
	}

	label := "Close price"
	if defaultPrice > 0 {
		label = fmt.Sprintf("Close price [mark %s]", fmtUSD(defaultPrice))
	}
	price, ok := s.promptFloatDefault(label, defaultPrice, minVal(0.000001))
	if !ok {
		return
	}

	pnl, err := s.ClosePosition(ctx, id, price)
	if err != nil {
		fmt.Fprintf(s.out, "  %s %v\n", red("Rejected:"), err)
		return
	}
	fmt.Fprintf(s.out, "  Position #%d closed at %s, realized %s\n", id, fmtUSD(price), pnlColored(pnl))

	if entries := s.portfolio.Rebalance(s.Marks()); len(entries) > 0 {
		fmt.Fprintf(s.out, "\n%s\n", yellow("Cross positions rebalanced:"))
		s.renderRebalance(entries)
	}
}

func (s *Service) actionSnapshot(ctx context.Context) {
	s.renderSnapshot(s.portfolio.Snapshot(s.Marks()))
}

func (s *Service) actionRebalance(ctx context.Context) {
	entries := s.portfolio.Rebalance(s.Marks())
	if len(entries) == 0 {
		fmt.Fprintln(s.out, "  No open cross positions.")
		return
	}
	s.renderRebalance(entries)
}

func (s *Service) actionHistory(ctx context.Context) {
	trades, err := s.TradeHistory(ctx, 20)
	if err != nil {
		fmt.Fprintf(s.out, "  %s %v\n", red("History error:"), err)
		return
	}
	if len(trades) == 0 {
		fmt.Fprintln(s.out, "  No journaled trades.")
		return
	}
	s.renderHistory(trades)
}

// --- Input helpers ---

type bound struct {
	min *float64
	max *float64
}

func minVal(v float64) func(*bound) { return func(b *bound) { b.min = &v } }
func maxVal(v float64) func(*bound) { return func(b *bound) { b.max = &v } }

func (s *Service) prompt(label string) (string, bool) {
	fmt.Fprint(s.out, label)
	if !s.in.Scan() {
		return "", false
	}
	return s.in.Text(), true
}

func (s *Service) promptFloat(label string, bounds ...func(*bound)) (float64, bool) {
	return s.promptFloatDefault(label, 0, bounds...)
}

// promptFloatDefault reads a float; an empty line returns the default when
// one is set (> 0).
func (s *Service) promptFloatDefault(label string, def float64, bounds ...func(*bound)) (float64, bool) {
	var b bound
	for _, apply := range bounds {
		apply(&b)
	}
	for {
		raw, ok := s.prompt(label + ": ")
		if !ok {
			return 0, false
		}
		raw = strings.TrimSpace(raw)
		if raw == "" && def > 0 {
			return def, true
		}
		val, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			fmt.Fprintln(s.out, "  Enter a valid number.")
			continue
		}
		if b.min != nil && val < *b.min {
			fmt.Fprintf(s.out, "  Must be >= %g\n", *b.min)
			continue
		}
		if b.max != nil && val > *b.max {
			fmt.Fprintf(s.out, "  Must be <= %g\n", *b.max)
			continue
		}
		return val, true
	}
}

func (s *Service) promptInt(label string) (int64, bool) {
	for {
		raw, ok := s.prompt(label + ": ")
		if !ok {
			return 0, false
		}
		val, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			fmt.Fprintln(s.out, "  Enter a valid integer.")
			continue
		}
		return val, true
	}
}

func (s *Service) promptSide() (domain.Side, bool) {
	for {
		raw, ok := s.prompt("Side [long/short]: ")
		if !ok {
			return "", false
		}
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "long", "l":
			return domain.Long, true
		case "short", "s":
			return domain.Short, true
		}
		fmt.Fprintln(s.out, "  Choose long or short.")
	}
}

func (s *Service) promptMode() (domain.MarginMode, bool) {
	for {
		raw, ok := s.prompt("Margin mode [isolated/cross]: ")
		if !ok {
			return "", false
		}
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "isolated", "i":
			return domain.Isolated, true
		case "cross", "c":
			return domain.Cross, true
		}
		fmt.Fprintln(s.out, "  Choose isolated or cross.")
	}
}
