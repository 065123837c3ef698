package domain

import "strings"

// FallbackMMF is used when a symbol has no entry in the tier table.
const FallbackMMF = 0.05

// defaultMMF maps symbols to their maintenance margin fraction (dYdX-style tiers).
var defaultMMF = map[string]float64{
	"BTC": 0.03, "ETH": 0.03,
	"SOL": 0.05, "XRP": 0.05, "BNB": 0.05, "ADA": 0.05,
	"DOGE": 0.05, "AVAX": 0.05, "LINK": 0.05, "DOT": 0.05,
	"LTC": 0.05, "TRX": 0.05, "MATIC": 0.05,
	"NEAR": 0.10, "APT": 0.10, "UNI": 0.10, "SHIB": 0.10,
	"XLM": 0.10, "USDT": 0.10, "USDC": 0.10,
}

// MMFForSymbol returns the maintenance margin fraction for a symbol,
// falling back to FallbackMMF for symbols outside the tier table.
func MMFForSymbol(symbol string) float64 {
	if mmf, ok := defaultMMF[strings.ToUpper(symbol)]; ok {
		return mmf
	}
	return FallbackMMF
}
