package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestComputeScenarioS1(t *testing.T) {
	fee := dec("0.13")
	got := Compute(dec("50"), dec("55"), fee, dec("100"), dec("50"))

	want := PnLBreakdown{
		TotalBuyVolume:   dec("100"),
		TotalSellVolume:  dec("50"),
		TotalBuyCost:     dec("5013"),
		TotalSellRevenue: dec("2743.5"),
		TotalFees:        dec("19.5"),
		PnL:              dec("-2269.5"),
	}

	if !got.TotalBuyCost.Equal(want.TotalBuyCost) {
		t.Errorf("totalBuyCost = %s, want %s", got.TotalBuyCost, want.TotalBuyCost)
	}
	if !got.TotalSellRevenue.Equal(want.TotalSellRevenue) {
		t.Errorf("totalSellRevenue = %s, want %s", got.TotalSellRevenue, want.TotalSellRevenue)
	}
	if !got.PnL.Equal(want.PnL) {
		t.Errorf("pnl = %s, want %s", got.PnL, want.PnL)
	}
}

func TestComputeScenarioS2ZeroTrades(t *testing.T) {
	fee := dec("0.13")
	got := Compute(dec("50"), dec("55"), fee, decimal.Zero, decimal.Zero)

	if !got.PnL.IsZero() {
		t.Errorf("expected zero pnl with no trades, got %s", got.PnL)
	}
	if !got.TotalBuyCost.IsZero() || !got.TotalSellRevenue.IsZero() || !got.TotalFees.IsZero() {
		t.Errorf("expected all derived totals to be zero with no trades, got %+v", got)
	}
}

func TestParseFeeFallsBackOnEmptyOrMalformed(t *testing.T) {
	if got := ParseFee(""); got.String() != DefaultFeePerMWh {
		t.Errorf("ParseFee(\"\") = %s, want default %s", got, DefaultFeePerMWh)
	}
	if got := ParseFee("not-a-decimal"); got.String() != DefaultFeePerMWh {
		t.Errorf("ParseFee(garbage) = %s, want default %s", got, DefaultFeePerMWh)
	}
	if got := ParseFee("0.2"); got.String() != "0.2" {
		t.Errorf("ParseFee(\"0.2\") = %s, want 0.2", got)
	}
}
