// Package portfolio tracks a collection of leveraged positions sharing one
// collateral pool and keeps cross-margin liquidation prices consistent with
// that pool as positions come and go.
package portfolio

import (
	"fmt"
	"time"

	"riskcalc/internal/domain"
	"riskcalc/internal/ports"
	"riskcalc/internal/risk"
)

// SizingMode selects how the margin for a new position is determined.
type SizingMode string

const (
	// SizeByRiskPct allocates a percentage of the current total balance.
	SizeByRiskPct SizingMode = "risk_pct"
	// SizeByMargin allocates a fixed margin amount.
	SizeByMargin SizingMode = "fixed_margin"
)

// OpenRequest holds the parameters for opening a position.
type OpenRequest struct {
	Symbol      string
	Side        domain.Side
	Mode        domain.MarginMode
	EntryPrice  float64
	TakeProfit  float64
	Sizing      SizingMode
	SizingValue float64  // risk percent for SizeByRiskPct, margin amount for SizeByMargin
	Leverage    float64  // multiplier >= 1
	MMF         *float64 // nil uses the per-symbol tier table
}

// Portfolio owns an ordered collection of positions and the account's
// balance bookkeeping. Positions are only ever created through Open, close
// exactly once through Close, and are never removed; closed positions stay
// for history. All operations are synchronous; a portfolio is a single
// serializable stream of operations and is not safe for concurrent use.
type Portfolio struct {
	initialBalance float64
	realizedPnL    float64
	positions      []*domain.Position
	nextID         int64
}

// New creates a portfolio with the given starting balance.
func New(startingBalance float64) (*Portfolio, error) {
	if startingBalance <= 0 {
		return nil, fmt.Errorf("%w: starting balance must be positive, got %.2f", ports.ErrInvalidRequest, startingBalance)
	}
	return &Portfolio{initialBalance: startingBalance, nextID: 1}, nil
}

// Reset discards all positions and history and restarts the session with a
// fresh balance. This is the only way the initial balance ever changes.
func (pf *Portfolio) Reset(startingBalance float64) error {
	if startingBalance <= 0 {
		return fmt.Errorf("%w: starting balance must be positive, got %.2f", ports.ErrInvalidRequest, startingBalance)
	}
	pf.initialBalance = startingBalance
	pf.realizedPnL = 0
	pf.positions = nil
	pf.nextID = 1
	return nil
}

// InitialBalance returns the balance the session started with.
func (pf *Portfolio) InitialBalance() float64 { return pf.initialBalance }

// RealizedPnL returns the running sum of every closed position's P&L.
func (pf *Portfolio) RealizedPnL() float64 { return pf.realizedPnL }

// TotalBalance returns the initial balance adjusted by realized P&L.
func (pf *Portfolio) TotalBalance() float64 { return pf.initialBalance + pf.realizedPnL }

// IsolatedMarginUsed sums the margin of open isolated positions.
func (pf *Portfolio) IsolatedMarginUsed() float64 { return pf.marginUsed(domain.Isolated) }

// CrossMarginUsed sums the margin of open cross positions.
func (pf *Portfolio) CrossMarginUsed() float64 { return pf.marginUsed(domain.Cross) }

// TotalMarginUsed sums the margin of all open positions.
func (pf *Portfolio) TotalMarginUsed() float64 {
	return pf.IsolatedMarginUsed() + pf.CrossMarginUsed()
}

// AvailableBalance returns the collateral not yet allocated to any open
// position. Admission control in Open keeps this non-negative.
func (pf *Portfolio) AvailableBalance() float64 {
	return pf.TotalBalance() - pf.TotalMarginUsed()
}

// Equity returns the total balance plus unrealized P&L over the open
// positions whose symbol has a mark price. Positions without a mark
// contribute nothing.
func (pf *Portfolio) Equity(marks map[string]float64) float64 {
	equity := pf.TotalBalance()
	for _, p := range pf.positions {
		if !p.IsOpen() {
			continue
		}
		if mark, ok := marks[p.Symbol]; ok {
			equity += p.UnrealizedPnL(mark)
		}
	}
	return equity
}

// Positions returns every position ever opened, in id order.
func (pf *Portfolio) Positions() []*domain.Position { return pf.positions }

// OpenPositions returns the currently open positions, in id order.
func (pf *Portfolio) OpenPositions() []*domain.Position {
	var open []*domain.Position
	for _, p := range pf.positions {
		if p.IsOpen() {
			open = append(open, p)
		}
	}
	return open
}

// Open validates the request, resolves the margin according to the sizing
// mode, checks it against the available balance and appends the new
// position. A rejected request allocates nothing.
func (pf *Portfolio) Open(req OpenRequest) (*domain.Position, error) {
	if err := validateOpen(req); err != nil {
		return nil, err
	}

	var margin float64
	switch req.Sizing {
	case SizeByRiskPct:
		margin, _ = risk.PositionSize(pf.TotalBalance(), req.SizingValue, req.Leverage)
	case SizeByMargin:
		margin = req.SizingValue
	default:
		return nil, fmt.Errorf("%w: unknown sizing mode %q", ports.ErrInvalidRequest, req.Sizing)
	}

	// Admission is checked against the balance before this position exists.
	if available := pf.AvailableBalance(); margin > available {
		return nil, fmt.Errorf("%w: need %.2f margin but only %.2f available",
			ports.ErrInsufficientBalance, margin, available)
	}

	pos := domain.NewPosition(req.Symbol, req.Side, req.Mode, req.EntryPrice, req.TakeProfit, margin, req.Leverage, req.MMF)
	pos.ID = pf.nextID
	pf.nextID++
	pf.positions = append(pf.positions, pos)
	return pos, nil
}

// Close closes the identified position at the given price and folds its
// realized P&L into the portfolio total.
func (pf *Portfolio) Close(id int64, closePrice float64) (float64, error) {
	if closePrice <= 0 {
		return 0, fmt.Errorf("%w: close price must be positive, got %.2f", ports.ErrInvalidRequest, closePrice)
	}
	pos, err := pf.get(id)
	if err != nil {
		return 0, err
	}
	pnl, ok := pos.Close(closePrice, time.Now())
	if !ok {
		return 0, fmt.Errorf("%w: position #%d", ports.ErrPositionClosed, id)
	}
	pf.realizedPnL += pnl
	return pnl, nil
}

// LiquidationPrice returns the identified position's liquidation price.
// Isolated positions are backed by their own margin and ignore the marks;
// cross positions are backed by the total balance less the maintenance
// requirements every other open cross position reserves, valued at its mark
// price when known and its entry price otherwise.
func (pf *Portfolio) LiquidationPrice(id int64, marks map[string]float64) (float64, error) {
	pos, err := pf.get(id)
	if err != nil {
		return 0, err
	}
	return pf.liquidationPrice(pos, marks), nil
}

func (pf *Portfolio) liquidationPrice(pos *domain.Position, marks map[string]float64) float64 {
	if pos.Mode == domain.Isolated {
		return risk.LiquidationPriceIsolated(pos.EntryPrice, pos.Quantity, pos.Side, pos.Margin, pos.MMF)
	}
	return risk.LiquidationPriceCross(pos.EntryPrice, pos.Quantity, pos.Side,
		pf.TotalBalance(), pos.MMF, pf.mmrOther(pos.ID, marks))
}

// mmrOther sums the maintenance margin requirements of every open cross
// position except the identified one.
func (pf *Portfolio) mmrOther(excludeID int64, marks map[string]float64) float64 {
	var total float64
	for _, p := range pf.positions {
		if !p.IsOpen() || p.Mode != domain.Cross || p.ID == excludeID {
			continue
		}
		price := p.EntryPrice
		if mark, ok := marks[p.Symbol]; ok {
			price = mark
		}
		total += p.MaintenanceMarginReq(price)
	}
	return total
}

func (pf *Portfolio) marginUsed(mode domain.MarginMode) float64 {
	var total float64
	for _, p := range pf.positions {
		if p.IsOpen() && p.Mode == mode {
			total += p.Margin
		}
	}
	return total
}

func (pf *Portfolio) get(id int64) (*domain.Position, error) {
	for _, p := range pf.positions {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: position #%d", ports.ErrPositionNotFound, id)
}

func validateOpen(req OpenRequest) error {
	switch {
	case req.Symbol == "":
		return fmt.Errorf("%w: symbol is required", ports.ErrInvalidRequest)
	case !req.Side.IsValid():
		return fmt.Errorf("%w: side must be %q or %q, got %q", ports.ErrInvalidRequest, domain.Long, domain.Short, req.Side)
	case !req.Mode.IsValid():
		return fmt.Errorf("%w: mode must be %q or %q, got %q", ports.ErrInvalidRequest, domain.Isolated, domain.Cross, req.Mode)
	case req.EntryPrice <= 0:
		return fmt.Errorf("%w: entry price must be positive, got %.2f", ports.ErrInvalidRequest, req.EntryPrice)
	case req.TakeProfit <= 0:
		return fmt.Errorf("%w: take-profit price must be positive, got %.2f", ports.ErrInvalidRequest, req.TakeProfit)
	case req.Leverage < 1:
		return fmt.Errorf("%w: leverage must be at least 1, got %.2f", ports.ErrInvalidRequest, req.Leverage)
	case req.Sizing == SizeByRiskPct && (req.SizingValue <= 0 || req.SizingValue > 100):
		return fmt.Errorf("%w: risk percent must be in (0, 100], got %.2f", ports.ErrInvalidRequest, req.SizingValue)
	case req.Sizing == SizeByMargin && req.SizingValue <= 0:
		return fmt.Errorf("%w: margin must be positive, got %.2f", ports.ErrInvalidRequest, req.SizingValue)
	case req.MMF != nil && (*req.MMF <= 0 || *req.MMF >= 1):
		return fmt.Errorf("%w: maintenance margin fraction must be in (0, 1), got %.4f", ports.ErrInvalidRequest, *req.MMF)
	}
	return nil
}
