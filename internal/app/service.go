// Package app wires the portfolio engine to its collaborators: the price
// feed, the trade journal and the interactive terminal session.
package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"

	"riskcalc/config"
	"riskcalc/internal/domain"
	"riskcalc/internal/portfolio"
	"riskcalc/internal/ports"
)

// Service orchestrates one sandbox session. It owns the portfolio, a cache
// of the last successfully fetched quotes, and the journal hookup. All
// operations are synchronous; the only blocking call is the price fetch.
type Service struct {
	cfg       *config.Config
	logger    ports.Logger
	feed      ports.PriceFeed
	journal   ports.TradeJournal // optional, may be nil
	portfolio *portfolio.Portfolio

	// quotes is the last successful bulk fetch. A failed refresh leaves it
	// untouched so calculations keep whatever marks are already known.
	quotes map[string]ports.Quote

	in  *bufio.Scanner
	out io.Writer
}

// NewService creates a new session service instance.
func NewService(cfg *config.Config, logger ports.Logger, feed ports.PriceFeed, journal ports.TradeJournal, in io.Reader, out io.Writer) (*Service, error) {
	if cfg == nil || logger == nil || feed == nil || in == nil || out == nil {
		return nil, fmt.Errorf("missing required dependencies for Service")
	}

	pf, err := portfolio.New(cfg.StartingBalance)
	if err != nil {
		return nil, fmt.Errorf("failed to create portfolio: %w", err)
	}

	return &Service{
		cfg:       cfg,
		logger:    logger,
		feed:      feed,
		journal:   journal,
		portfolio: pf,
		quotes:    make(map[string]ports.Quote),
		in:        bufio.NewScanner(in),
		out:       out,
	}, nil
}

// Portfolio exposes the underlying portfolio.
func (s *Service) Portfolio() *portfolio.Portfolio { return s.portfolio }

// Quotes returns the session's cached quotes.
func (s *Service) Quotes() map[string]ports.Quote { return s.quotes }

// Marks reduces the cached quotes to the mark-price map the portfolio
// consumes.
func (s *Service) Marks() map[string]float64 {
	return portfolio.MarksFromQuotes(s.quotes)
}

// RefreshQuotes fetches fresh quotes for every supported symbol. On failure
// the cache is left untouched and the error is returned for the caller to
// report; an otherwise-valid calculation must never be aborted by a feed
// outage.
func (s *Service) RefreshQuotes(ctx context.Context) error {
	quotes, err := s.feed.Prices(ctx)
	if err != nil {
		s.logger.Warn(ctx, "Price refresh failed, keeping cached quotes", map[string]interface{}{
			"cachedSymbols": len(s.quotes),
			"error":         err.Error(),
		})
		return err
	}
	s.quotes = quotes
	s.logger.Info(ctx, "Quotes refreshed", map[string]interface{}{"symbols": len(quotes)})
	return nil
}

// MarkPrice returns the cached mark price for a symbol, if any.
func (s *Service) MarkPrice(symbol string) (float64, bool) {
	q, ok := s.quotes[symbol]
	return q.Price, ok
}

// OpenPosition admits a new position into the portfolio.
func (s *Service) OpenPosition(ctx context.Context, req portfolio.OpenRequest) (*domain.Position, error) {
	pos, err := s.portfolio.Open(req)
	if err != nil {
		s.logger.Warn(ctx, "Open position rejected", map[string]interface{}{
			"symbol": req.Symbol,
			"error":  err.Error(),
		})
		return nil, err
	}
	s.logger.Info(ctx, "Position opened", map[string]interface{}{
		"id":       pos.ID,
		"symbol":   pos.Symbol,
		"side":     string(pos.Side),
		"mode":     string(pos.Mode),
		"margin":   pos.Margin,
		"leverage": pos.Leverage,
		"size":     pos.PositionSize,
	})
	return pos, nil
}

// ClosePosition closes a position at the given price, realizes its P&L and
// journals the resulting trade. A journal failure is logged but never undoes
// the close: the portfolio, not the journal, is the source of truth.
func (s *Service) ClosePosition(ctx context.Context, id int64, closePrice float64) (float64, error) {
	pnl, err := s.portfolio.Close(id, closePrice)
	if err != nil {
		s.logger.Warn(ctx, "Close position rejected", map[string]interface{}{
			"id":    id,
			"error": err.Error(),
		})
		return 0, err
	}
	s.logger.Info(ctx, "Position closed", map[string]interface{}{
		"id":         id,
		"closePrice": closePrice,
		"pnl":        pnl,
	})

	if s.journal != nil {
		for _, p := range s.portfolio.Positions() {
			if p.ID == id {
				if _, jerr := s.journal.Record(ctx, domain.TradeFromPosition(p, closePrice)); jerr != nil {
					s.logger.Error(ctx, jerr, "Failed to journal closed trade", map[string]interface{}{"id": id})
				}
				break
			}
		}
	}
	return pnl, nil
}

// TradeHistory returns up to limit journaled trades, newest first. Without a
// journal it returns nothing.
func (s *Service) TradeHistory(ctx context.Context, limit int) ([]*domain.Trade, error) {
	if s.journal == nil {
		return nil, nil
	}
	return s.journal.Recent(ctx, limit)
}

// sortedSymbols returns the cached quote symbols in stable order for display.
func (s *Service) sortedSymbols() []string {
	symbols := make([]string, 0, len(s.quotes))
	for sym := range s.quotes {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	return symbols
}
