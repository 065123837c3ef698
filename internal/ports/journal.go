package ports

import (
	"context"

	"riskcalc/internal/domain"
)

// TradeJournal is an append-only record of closed trades, kept for the
// operator's history view. It is write-mostly audit output: portfolio state
// is never reconstructed from it.
type TradeJournal interface {
	// Record appends a closed trade and returns its assigned ID.
	Record(ctx context.Context, trade *domain.Trade) (int64, error)

	// Recent returns up to limit trades, most recently closed first.
	Recent(ctx context.Context, limit int) ([]*domain.Trade, error)

	// Close releases the underlying storage.
	Close() error
}
