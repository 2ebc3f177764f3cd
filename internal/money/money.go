// Package money implements the decimal PnL arithmetic used by the
// calculation pipeline, plus the fee parsing config loads. All monetary fields are
// arbitrary-precision decimals end to end; only the aggregation query rounds
// a value for display.
package money

import "github.com/shopspring/decimal"

// DefaultFeePerMWh is used when TRADING_FEE_PER_MWH is unset.
const DefaultFeePerMWh = "0.13"

// PnLBreakdown holds every derived field of a PnL record (spec §3).
type PnLBreakdown struct {
	TotalBuyVolume   decimal.Decimal
	TotalSellVolume  decimal.Decimal
	TotalBuyCost     decimal.Decimal
	TotalSellRevenue decimal.Decimal
	TotalFees        decimal.Decimal
	PnL              decimal.Decimal
}

// Compute derives the PnL breakdown for an interval given its buy/sell
// prices, the fee-per-unit constant, and the total buy/sell volume observed
// in the interval.
//
//	totalBuyCost     = totalBuyVolume*buyPrice + totalBuyVolume*fee
//	totalSellRevenue = totalSellVolume*sellPrice - totalSellVolume*fee
//	totalFees        = (totalBuyVolume+totalSellVolume)*fee
//	pnl              = totalSellRevenue - totalBuyCost
func Compute(buyPrice, sellPrice, fee, totalBuyVolume, totalSellVolume decimal.Decimal) PnLBreakdown {
	totalBuyCost := totalBuyVolume.Mul(buyPrice).Add(totalBuyVolume.Mul(fee))
	totalSellRevenue := totalSellVolume.Mul(sellPrice).Sub(totalSellVolume.Mul(fee))
	totalFees := totalBuyVolume.Add(totalSellVolume).Mul(fee)
	pnl := totalSellRevenue.Sub(totalBuyCost)

	return PnLBreakdown{
		TotalBuyVolume:   totalBuyVolume,
		TotalSellVolume:  totalSellVolume,
		TotalBuyCost:     totalBuyCost,
		TotalSellRevenue: totalSellRevenue,
		TotalFees:        totalFees,
		PnL:              pnl,
	}
}

// ParseFee parses the TRADING_FEE_PER_MWH configuration value, falling back
// to DefaultFeePerMWh on an empty or malformed input.
func ParseFee(raw string) decimal.Decimal {
	if raw == "" {
		raw = DefaultFeePerMWh
	}
	fee, err := decimal.NewFromString(raw)
	if err != nil {
		fee, _ = decimal.NewFromString(DefaultFeePerMWh)
	}
	return fee
}
