// Package bus wraps the segmentio/kafka-go readers and writers used for the
// "trades" and "market" topics, and decodes/validates their JSON message
// bodies.
package bus

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TradeSide enumerates the two sides a trade message can carry.
type TradeSide string

const (
	SideBuy  TradeSide = "BUY"
	SideSell TradeSide = "SELL"
)

// TradeMessage is the wire shape of a "trades" topic value.
type TradeMessage struct {
	MessageType string `json:"messageType"`
	TradeType   string `json:"tradeType"`
	Volume      string `json:"volume"`
	Time        string `json:"time"`
}

// MarketMessage is the wire shape of a "market" topic value.
type MarketMessage struct {
	MessageType string `json:"messageType"`
	BuyPrice    string `json:"buyPrice"`
	SellPrice   string `json:"sellPrice"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
}

// ParsedTrade is a TradeMessage after schema validation, with partition and
// offset stamped from the Kafka message it was decoded from.
type ParsedTrade struct {
	Side      TradeSide
	Volume    decimal.Decimal
	Time      time.Time
	Partition int
	Offset    int64
}

// ParsedMarket is a MarketMessage after schema validation.
type ParsedMarket struct {
	BuyPrice  decimal.Decimal
	SellPrice decimal.Decimal
	StartTime time.Time
	EndTime   time.Time
	Partition int
	Offset    int64
}

// ParseTrade validates a decoded TradeMessage: side must be BUY or SELL,
// volume must be a positive decimal, and time must be RFC3339-parseable.
func ParseTrade(msg TradeMessage, partition int, offset int64) (ParsedTrade, error) {
	side := TradeSide(msg.TradeType)
	if side != SideBuy && side != SideSell {
		return ParsedTrade{}, fmt.Errorf("bus: invalid tradeType %q", msg.TradeType)
	}

	volume, err := decimal.NewFromString(msg.Volume)
	if err != nil {
		return ParsedTrade{}, fmt.Errorf("bus: invalid volume %q: %w", msg.Volume, err)
	}
	if !volume.IsPositive() {
		return ParsedTrade{}, fmt.Errorf("bus: volume %q is not positive", msg.Volume)
	}

	t, err := time.Parse(time.RFC3339, msg.Time)
	if err != nil {
		return ParsedTrade{}, fmt.Errorf("bus: invalid time %q: %w", msg.Time, err)
	}

	return ParsedTrade{
		Side:      side,
		Volume:    volume,
		Time:      t,
		Partition: partition,
		Offset:    offset,
	}, nil
}

// ParseMarket validates a decoded MarketMessage.
func ParseMarket(msg MarketMessage, partition int, offset int64) (ParsedMarket, error) {
	buyPrice, err := decimal.NewFromString(msg.BuyPrice)
	if err != nil {
		return ParsedMarket{}, fmt.Errorf("bus: invalid buyPrice %q: %w", msg.BuyPrice, err)
	}
	sellPrice, err := decimal.NewFromString(msg.SellPrice)
	if err != nil {
		return ParsedMarket{}, fmt.Errorf("bus: invalid sellPrice %q: %w", msg.SellPrice, err)
	}
	start, err := time.Parse(time.RFC3339, msg.StartTime)
	if err != nil {
		return ParsedMarket{}, fmt.Errorf("bus: invalid startTime %q: %w", msg.StartTime, err)
	}
	end, err := time.Parse(time.RFC3339, msg.EndTime)
	if err != nil {
		return ParsedMarket{}, fmt.Errorf("bus: invalid endTime %q: %w", msg.EndTime, err)
	}
	if !end.After(start) {
		return ParsedMarket{}, fmt.Errorf("bus: endTime %q not after startTime %q", msg.EndTime, msg.StartTime)
	}

	return ParsedMarket{
		BuyPrice:  buyPrice,
		SellPrice: sellPrice,
		StartTime: start,
		EndTime:   end,
		Partition: partition,
		Offset:    offset,
	}, nil
}
