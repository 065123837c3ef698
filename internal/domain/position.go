package domain

import (
	"strings"
	"time"
)

// Position represents a single leveraged trade. Its economic parameters are
// fixed at creation; only the lifecycle fields (Status, RealizedPnL, ClosedAt)
// change, and they change exactly once, on close.
type Position struct {
	ID           int64          // Assigned by the owning portfolio, sequential per portfolio
	Symbol       string         // Asset symbol, uppercase (e.g., "BTC")
	Side         Side           // long or short
	Mode         MarginMode     // isolated or cross
	EntryPrice   float64        // Price at which the position was entered
	TakeProfit   float64        // Target price for the take-profit P&L projection
	Margin       float64        // Collateral allocated to this position
	Leverage     float64        // Multiplier applied to margin (>= 1)
	PositionSize float64        // Margin * Leverage, fixed at creation
	Quantity     float64        // PositionSize / EntryPrice, fixed at creation
	MMF          float64        // Maintenance margin fraction in (0, 1)
	Status       PositionStatus // open or closed
	RealizedPnL  float64        // 0 while open, fixed at close
	OpenedAt     time.Time      // Timestamp when the position was opened
	ClosedAt     time.Time      // Timestamp when the position was closed (zero value if open)
}

// NewPosition builds a position from validated parameters, derives its size
// and quantity, and resolves the maintenance margin fraction. When mmfOverride
// is nil the per-symbol tier table supplies the MMF.
func NewPosition(symbol string, side Side, mode MarginMode, entryPrice, takeProfit, margin, leverage float64, mmfOverride *float64) *Position {
	symbol = strings.ToUpper(symbol)

	mmf := MMFForSymbol(symbol)
	if mmfOverride != nil {
		mmf = *mmfOverride
	}

	size := margin * leverage
	return &Position{
		Symbol:       symbol,
		Side:         side,
		Mode:         mode,
		EntryPrice:   entryPrice,
		TakeProfit:   takeProfit,
		Margin:       margin,
		Leverage:     leverage,
		PositionSize: size,
		Quantity:     size / entryPrice,
		MMF:          mmf,
		Status:       StatusOpen,
		OpenedAt:     time.Now(),
	}
}

// IsOpen checks if the position status is open.
func (p *Position) IsOpen() bool {
	return p.Status == StatusOpen
}

// UnrealizedPnL returns the position's P&L at the given mark price.
// Closed positions have no unrealized P&L.
func (p *Position) UnrealizedPnL(markPrice float64) float64 {
	if !p.IsOpen() {
		return 0
	}
	if p.Side == Long {
		return (markPrice - p.EntryPrice) * p.Quantity
	}
	return (p.EntryPrice - markPrice) * p.Quantity
}

// MaintenanceMarginReq returns the maintenance margin requirement for this
// position at the given price: |qty| * price * MMF.
func (p *Position) MaintenanceMarginReq(price float64) float64 {
	if price <= 0 {
		price = p.EntryPrice
	}
	qty := p.Quantity
	if qty < 0 {
		qty = -qty
	}
	return qty * price * p.MMF
}

// Close realizes the position's P&L at the given price and marks it closed.
// It reports false when the position was already closed, in which case
// nothing changes.
func (p *Position) Close(closePrice float64, at time.Time) (float64, bool) {
	if !p.IsOpen() {
		return 0, false
	}
	pnl := p.UnrealizedPnL(closePrice)
	p.RealizedPnL = pnl
	p.Status = StatusClosed
	p.ClosedAt = at
	return pnl, true
}
