package calculation

import (
	"fmt"
	"time"

	"github.com/marketpnl/pipeline/internal/bus"
	"github.com/marketpnl/pipeline/internal/rpcjson"
	"github.com/shopspring/decimal"
)

// parseTradeDTOs converts the RPC's wire-shaped trades back into decimal
// form for PnL computation. A malformed entry fails the whole conversion
// with an error, which fails the interval — C3/C2 are trusted to emit valid
// data, but defend anyway since this crosses a process boundary.
func parseTradeDTOs(dtos []rpcjson.TradeDTO) ([]bus.ParsedTrade, error) {
	out := make([]bus.ParsedTrade, 0, len(dtos))
	for _, d := range dtos {
		volume, err := decimal.NewFromString(d.Volume)
		if err != nil {
			return nil, fmt.Errorf("calculation: invalid trade volume %q: %w", d.Volume, err)
		}
		t, err := time.Parse(time.RFC3339, d.Time)
		if err != nil {
			return nil, fmt.Errorf("calculation: invalid trade time %q: %w", d.Time, err)
		}
		out = append(out, bus.ParsedTrade{
			Side:   bus.TradeSide(d.TradeType),
			Volume: volume,
			Time:   t,
		})
	}
	return out, nil
}

// sumVolumesBySide totals BUY and SELL volumes separately.
func sumVolumesBySide(trades []bus.ParsedTrade) (buy, sell decimal.Decimal) {
	buy = decimal.Zero
	sell = decimal.Zero
	for _, t := range trades {
		switch t.Side {
		case bus.SideBuy:
			buy = buy.Add(t.Volume)
		case bus.SideSell:
			sell = sell.Add(t.Volume)
		}
	}
	return buy, sell
}
