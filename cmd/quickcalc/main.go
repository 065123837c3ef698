// Command quickcalc runs a single standalone risk calculation from flags,
// without a portfolio or a price feed.
//
// Example:
//
//	quickcalc -balance 10000 -risk 10 -leverage 10 -entry 50000 -tp 55000 -side long -mode isolated
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"

	"riskcalc/internal/domain"
	"riskcalc/internal/risk"
)

func main() {
	balance := flag.Float64("balance", 10000, "account balance")
	riskPct := flag.Float64("risk", 10, "risk percent of balance in (0, 100]")
	leverage := flag.Float64("leverage", 10, "leverage multiplier >= 1")
	entry := flag.Float64("entry", 0, "entry price (required)")
	tp := flag.Float64("tp", 0, "take-profit price (required)")
	side := flag.String("side", "long", "position side: long or short")
	mode := flag.String("mode", "isolated", "margin mode: isolated or cross")
	mmf := flag.Float64("mmf", 0, "maintenance margin fraction override in (0, 1); 0 uses the default")
	flag.Parse()

	if *entry <= 0 || *tp <= 0 {
		flag.Usage()
		os.Exit(2)
	}
	if *riskPct <= 0 || *riskPct > 100 {
		log.Fatalf("risk percent must be in (0, 100], got %g", *riskPct)
	}
	if *leverage < 1 {
		log.Fatalf("leverage must be at least 1, got %g", *leverage)
	}

	in := risk.QuickInput{
		Balance:    *balance,
		RiskPct:    *riskPct,
		Leverage:   *leverage,
		EntryPrice: *entry,
		TakeProfit: *tp,
		Side:       domain.Side(*side),
		Mode:       domain.MarginMode(*mode),
	}
	if !in.Side.IsValid() {
		log.Fatalf("side must be long or short, got %q", *side)
	}
	if !in.Mode.IsValid() {
		log.Fatalf("mode must be isolated or cross, got %q", *mode)
	}
	if *mmf != 0 {
		if *mmf <= 0 || *mmf >= 1 {
			log.Fatalf("mmf must be in (0, 1), got %g", *mmf)
		}
		in.MMF = mmf
	}

	r := risk.QuickCalculate(in)

	fmt.Printf("margin:       %.2f\n", r.Margin)
	fmt.Printf("size:         %.2f\n", r.PositionSize)
	fmt.Printf("quantity:     %.6f\n", r.Quantity)
	fmt.Printf("mmf:          %.4f\n", r.MMF)
	fmt.Printf("liquidation:  %.2f\n", r.LiquidationPrice)
	fmt.Printf("pnl at tp:    %.2f\n", r.PnLAtTarget)
	fmt.Printf("roi at tp:    %.2f%%\n", r.ROIPct)
	if math.IsInf(r.RiskReward, 1) {
		fmt.Println("risk/reward:  inf")
	} else {
		fmt.Printf("risk/reward:  %.2f\n", r.RiskReward)
	}
	fmt.Printf("max loss:     %.2f\n", r.MaxLoss)
}
