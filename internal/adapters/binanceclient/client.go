// Package binanceclient implements the ports.PriceFeed interface over the
// Binance futures public market-data endpoints via the go-binance library.
// Only public endpoints are used; no API keys are required.
package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"riskcalc/internal/ports"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
)

const (
	// Base URLs
	baseURLProduction = "https://fapi.binance.com"
	baseURLTestnet    = "https://testnet.binancefuture.com"

	defaultTimeout    = 10 * time.Second
	defaultQuoteAsset = "USDT"
)

// supportedSymbols is the universe the feed quotes in bulk.
var supportedSymbols = []string{
	"BTC", "ETH", "BNB", "SOL", "XRP",
	"ADA", "DOGE", "TRX", "AVAX", "LINK",
	"DOT", "LTC", "NEAR", "APT", "UNI",
}

// Client implements ports.PriceFeed using the Binance futures API.
type Client struct {
	futuresClient *futures.Client
	logger        ports.Logger
	quoteAsset    string
	timeout       time.Duration
	pairToSymbol  map[string]string // e.g. "BTCUSDT" -> "BTC"
}

// Config holds configuration specific to the Binance price feed adapter.
type Config struct {
	UseTestnet bool
	Logger     ports.Logger
	QuoteAsset string        // Quote currency appended to symbols (default "USDT")
	Timeout    time.Duration // Per-request timeout (default 10s)
}

// New creates a new Binance price feed adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance price feed")
	}

	client := futures.NewClient("", "")
	if cfg.UseTestnet {
		client.BaseURL = baseURLTestnet
		cfg.Logger.Info(context.Background(), "Binance price feed configured for Testnet", map[string]interface{}{"baseURL": client.BaseURL})
	} else {
		client.BaseURL = baseURLProduction
		cfg.Logger.Info(context.Background(), "Binance price feed configured for Production", map[string]interface{}{"baseURL": client.BaseURL})
	}

	quoteAsset := strings.ToUpper(cfg.QuoteAsset)
	if quoteAsset == "" {
		quoteAsset = defaultQuoteAsset
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	pairToSymbol := make(map[string]string, len(supportedSymbols))
	for _, s := range supportedSymbols {
		pairToSymbol[s+quoteAsset] = s
	}

	return &Client{
		futuresClient: client,
		logger:        cfg.Logger,
		quoteAsset:    quoteAsset,
		timeout:       timeout,
		pairToSymbol:  pairToSymbol,
	}, nil
}

// Symbols returns the supported symbols, sorted.
func (c *Client) Symbols() []string {
	symbols := make([]string, len(supportedSymbols))
	copy(symbols, supportedSymbols)
	sort.Strings(symbols)
	return symbols
}

// Prices retrieves last price and 24h change for every supported symbol.
func (c *Client) Prices(ctx context.Context) (map[string]ports.Quote, error) {
	op := "Prices"
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	stats, err := c.futuresClient.NewListPriceChangeStatsService().Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	quotes := make(map[string]ports.Quote, len(supportedSymbols))
	for _, st := range stats {
		symbol, ok := c.pairToSymbol[st.Symbol]
		if !ok {
			continue
		}
		price, err := strconv.ParseFloat(st.LastPrice, 64)
		if err != nil {
			c.logger.Warn(ctx, "Skipping unparseable price", map[string]interface{}{
				"pair":  st.Symbol,
				"price": st.LastPrice,
			})
			continue
		}
		// 24h change is informational; a parse failure leaves it at 0.
		change, _ := strconv.ParseFloat(st.PriceChangePercent, 64)
		quotes[symbol] = ports.Quote{Price: price, Change24h: change}
	}

	if len(quotes) == 0 {
		err := fmt.Errorf("no quotes returned for any supported symbol")
		return nil, c.handleError(ctx, err, op)
	}
	return quotes, nil
}

// Price retrieves the current mark price for a single symbol.
func (c *Client) Price(ctx context.Context, symbol string) (float64, error) {
	op := "Price"
	symbol = strings.ToUpper(symbol)

	pair := symbol + c.quoteAsset
	if _, ok := c.pairToSymbol[pair]; !ok {
		return 0, fmt.Errorf("%w: %s (supported: %s)", ports.ErrUnknownSymbol, symbol, strings.Join(c.Symbols(), ", "))
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	tickers, err := c.futuresClient.NewPremiumIndexService().Symbol(pair).Do(ctx)
	if err != nil {
		return 0, c.handleError(ctx, err, op)
	}
	if len(tickers) == 0 {
		err := fmt.Errorf("no price data returned for symbol %s", symbol)
		return 0, c.handleError(ctx, err, op)
	}

	price, err := strconv.ParseFloat(tickers[0].MarkPrice, 64)
	if err != nil {
		parseErr := fmt.Errorf("could not parse price '%s': %w", tickers[0].MarkPrice, err)
		return 0, c.handleError(ctx, parseErr, op)
	}
	return price, nil
}

// handleError translates Binance API errors into standardized ports errors.
// Everything the caller cannot distinguish further collapses into
// ErrPriceFeedUnavailable: the session layer treats all feed failures the
// same way, by keeping its cached marks.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	fields := map[string]interface{}{"operation": operation, "originalError": err.Error()}

	var mappedErr error
	var apiErr *common.APIError
	switch {
	case errors.As(err, &apiErr):
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message
		switch apiErr.Code {
		case -1003: // Too many requests
			mappedErr = ports.ErrRateLimited
		default:
			mappedErr = ports.ErrPriceFeedUnavailable
		}
	case errors.Is(err, context.DeadlineExceeded):
		mappedErr = ports.ErrTimeout
	default:
		mappedErr = ports.ErrPriceFeedUnavailable
	}

	c.logger.Error(ctx, err, "Binance price feed call failed", fields)
	return fmt.Errorf("%w: %s: %v", mappedErr, operation, err)
}
