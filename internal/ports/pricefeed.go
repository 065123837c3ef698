package ports

import "context"

// Quote holds a symbol's current market data as reported by the feed.
type Quote struct {
	Price     float64 // Last traded price in the quote currency
	Change24h float64 // Percent change over the last 24 hours
}

// PriceFeed supplies current mark prices from an external quote service.
// The core never calls the feed itself; the session layer fetches quotes and
// hands the resulting mark-price map to the portfolio. A feed failure must
// never abort a calculation: callers proceed with whatever marks they
// already hold.
type PriceFeed interface {
	// Prices retrieves quotes for every supported symbol.
	Prices(ctx context.Context) (map[string]Quote, error)

	// Price retrieves the current mark price for a single symbol.
	Price(ctx context.Context, symbol string) (float64, error)

	// Symbols returns the symbols the feed can quote, sorted.
	Symbols() []string
}
