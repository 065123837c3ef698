package domain

import "time"

// Trade represents a completed (closed) position, recorded for history.
type Trade struct {
	ID         int64      // Unique identifier assigned by the journal (usually from DB)
	PositionID int64      // Identifier of the position this trade closed
	Symbol     string     // Asset symbol (e.g., "BTC")
	Side       Side       // long or short
	Mode       MarginMode // isolated or cross
	EntryPrice float64    // Price at which the position was entered
	ClosePrice float64    // Price at which the position was closed
	Quantity   float64    // Size of the position in units of the asset
	Leverage   float64    // Leverage used for the position
	Margin     float64    // Collateral that was allocated to the position
	PNL        float64    // Realized profit and loss
	OpenedAt   time.Time  // Timestamp when the position was opened
	ClosedAt   time.Time  // Timestamp when the position was closed
}

// TradeFromPosition builds the history record for a position closed at the
// given price.
func TradeFromPosition(p *Position, closePrice float64) *Trade {
	return &Trade{
		PositionID: p.ID,
		Symbol:     p.Symbol,
		Side:       p.Side,
		Mode:       p.Mode,
		EntryPrice: p.EntryPrice,
		ClosePrice: closePrice,
		Quantity:   p.Quantity,
		Leverage:   p.Leverage,
		Margin:     p.Margin,
		PNL:        p.RealizedPnL,
		OpenedAt:   p.OpenedAt,
		ClosedAt:   p.ClosedAt,
	}
}
