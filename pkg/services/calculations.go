package services

import (
	"github.com/ravijp/portfolio-advisor/pkg/models"
	"github.com/shopspring/decimal"
)

// UnknownSector buckets holdings that were saved without a sector
const UnknownSector = "Unknown"

var hundred = decimal.NewFromInt(100)

// EffectivePrice is the current market price when known, else the average cost
func EffectivePrice(h models.Holding) float64 {
	if h.CurrentPrice != nil {
		return *h.CurrentPrice
	}
	return h.AvgPrice
}

func positionValue(h models.Holding) decimal.Decimal {
	return decimal.NewFromFloat(h.Quantity).Mul(decimal.NewFromFloat(EffectivePrice(h)))
}

// PortfolioValue sums quantity × effective price over all holdings
func PortfolioValue(holdings []models.Holding) float64 {
	total := decimal.Zero
	for _, h := range holdings {
		total = total.Add(positionValue(h))
	}
	return total.InexactFloat64()
}

// GoalProgressPercent returns current/target × 100, or 0 when target is not positive
func GoalProgressPercent(current, target float64) float64 {
	if target <= 0 {
		return 0
	}
	return percentOf(decimal.NewFromFloat(current), decimal.NewFromFloat(target))
}

// ChangePercent returns the relative change from baseline to value in percent.
// A zero baseline yields 0.
func ChangePercent(value, baseline float64) float64 {
	if baseline == 0 {
		return 0
	}
	b := decimal.NewFromFloat(baseline)
	return percentOf(decimal.NewFromFloat(value).Sub(b), b)
}

func percentOf(part, whole decimal.Decimal) float64 {
	return part.Mul(hundred).Div(whole).InexactFloat64()
}

// CalculatePortfolioMetrics calculates portfolio-level metrics
func CalculatePortfolioMetrics(holdings []models.Holding) PortfolioMetrics {
	totalValue := decimal.Zero
	totalInvested := decimal.Zero
	sectorValues := make(map[string]decimal.Decimal)
	byType := make(map[models.AssetType]int)

	for _, h := range holdings {
		value := positionValue(h)
		totalValue = totalValue.Add(value)
		totalInvested = totalInvested.Add(decimal.NewFromFloat(h.Quantity).Mul(decimal.NewFromFloat(h.AvgPrice)))

		sector := h.Sector
		if sector == "" {
			sector = UnknownSector
		}
		sectorValues[sector] = sectorValues[sector].Add(value)
		byType[h.Type]++
	}

	pnl := totalValue.Sub(totalInvested)
	metrics := PortfolioMetrics{
		TotalValue:      totalValue.InexactFloat64(),
		TotalInvested:   totalInvested.InexactFloat64(),
		UnrealizedPnL:   pnl.InexactFloat64(),
		HoldingsCount:   len(holdings),
		StockCount:      byType[models.AssetTypeStock],
		MutualFundCount: byType[models.AssetTypeMutualFund],
		SectorCount:     len(sectorValues),
		SectorWeights:   make(map[string]float64, len(sectorValues)),
	}
	if !totalInvested.IsZero() {
		metrics.UnrealizedPnLPercent = percentOf(pnl, totalInvested)
	}

	// Accumulate sector weights
	for sector, value := range sectorValues {
		if totalValue.IsZero() {
			metrics.SectorWeights[sector] = 0
			continue
		}
		metrics.SectorWeights[sector] = percentOf(value, totalValue)
	}

	return metrics
}

// PortfolioMetrics holds portfolio-level aggregated metrics
type PortfolioMetrics struct {
	TotalValue           float64            `json:"total_value"`
	TotalInvested        float64            `json:"total_invested"`
	UnrealizedPnL        float64            `json:"unrealized_pnl"`
	UnrealizedPnLPercent float64            `json:"unrealized_pnl_percent"`
	HoldingsCount        int                `json:"holdings_count"`
	StockCount           int                `json:"stock_count"`
	MutualFundCount      int                `json:"mutual_fund_count"`
	SectorCount          int                `json:"sector_count"`
	SectorWeights        map[string]float64 `json:"sector_weights"`
}
