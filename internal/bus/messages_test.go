package bus

import "testing"

func TestParseTradeValidatesFields(t *testing.T) {
	cases := []struct {
		name    string
		msg     TradeMessage
		wantErr bool
	}{
		{"valid buy", TradeMessage{TradeType: "BUY", Volume: "12.5", Time: "2026-08-06T10:00:00Z"}, false},
		{"valid sell", TradeMessage{TradeType: "SELL", Volume: "1", Time: "2026-08-06T10:00:00Z"}, false},
		{"bad side", TradeMessage{TradeType: "HOLD", Volume: "1", Time: "2026-08-06T10:00:00Z"}, true},
		{"bad volume", TradeMessage{TradeType: "BUY", Volume: "abc", Time: "2026-08-06T10:00:00Z"}, true},
		{"zero volume", TradeMessage{TradeType: "BUY", Volume: "0", Time: "2026-08-06T10:00:00Z"}, true},
		{"negative volume", TradeMessage{TradeType: "BUY", Volume: "-1", Time: "2026-08-06T10:00:00Z"}, true},
		{"bad time", TradeMessage{TradeType: "BUY", Volume: "1", Time: "not-a-time"}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseTrade(tc.msg, 0, 0)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseTrade(%+v) error = %v, wantErr %v", tc.msg, err, tc.wantErr)
			}
		})
	}
}

func TestParseTradeStampsPartitionAndOffset(t *testing.T) {
	got, err := ParseTrade(TradeMessage{TradeType: "BUY", Volume: "1", Time: "2026-08-06T10:00:00Z"}, 3, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Partition != 3 || got.Offset != 42 {
		t.Fatalf("got partition=%d offset=%d, want 3 42", got.Partition, got.Offset)
	}
}

func TestParseMarketValidatesFields(t *testing.T) {
	cases := []struct {
		name    string
		msg     MarketMessage
		wantErr bool
	}{
		{
			"valid",
			MarketMessage{BuyPrice: "10", SellPrice: "9.5", StartTime: "2026-08-06T10:00:00Z", EndTime: "2026-08-06T10:05:00Z"},
			false,
		},
		{
			"bad buyPrice",
			MarketMessage{BuyPrice: "x", SellPrice: "9.5", StartTime: "2026-08-06T10:00:00Z", EndTime: "2026-08-06T10:05:00Z"},
			true,
		},
		{
			"bad sellPrice",
			MarketMessage{BuyPrice: "10", SellPrice: "x", StartTime: "2026-08-06T10:00:00Z", EndTime: "2026-08-06T10:05:00Z"},
			true,
		},
		{
			"end before start",
			MarketMessage{BuyPrice: "10", SellPrice: "9.5", StartTime: "2026-08-06T10:05:00Z", EndTime: "2026-08-06T10:00:00Z"},
			true,
		},
		{
			"end equal start",
			MarketMessage{BuyPrice: "10", SellPrice: "9.5", StartTime: "2026-08-06T10:00:00Z", EndTime: "2026-08-06T10:00:00Z"},
			true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseMarket(tc.msg, 0, 0)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseMarket(%+v) error = %v, wantErr %v", tc.msg, err, tc.wantErr)
			}
		})
	}
}
