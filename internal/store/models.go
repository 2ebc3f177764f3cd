package store

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// bsonD builds a bson.D index key document from alternating field/direction
// pairs, e.g. bsonD("partition", 1, "offset", 1).
func bsonD(pairs ...interface{}) bson.D {
	d := make(bson.D, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		d = append(d, bson.E{Key: pairs[i].(string), Value: pairs[i+1]})
	}
	return d
}

// TradeDoc is the trades collection's document shape. Volume is stored as a
// decimal string to preserve precision end to end.
type TradeDoc struct {
	Partition int       `bson:"partition"`
	Offset    int64     `bson:"offset"`
	Side      string    `bson:"side"`
	Volume    string    `bson:"volume"`
	Time      time.Time `bson:"time"`
}

// MarketDoc is the markets collection's document shape.
type MarketDoc struct {
	Partition int       `bson:"partition"`
	Offset    int64     `bson:"offset"`
	BuyPrice  string    `bson:"buyPrice"`
	SellPrice string    `bson:"sellPrice"`
	StartTime time.Time `bson:"startTime"`
	EndTime   time.Time `bson:"endTime"`
}

// PnLDoc is the pnls collection's document shape: the PnL breakdown for one
// market interval, with every monetary field kept as a decimal string.
type PnLDoc struct {
	MarketStartTime  time.Time `bson:"marketStartTime"`
	MarketEndTime    time.Time `bson:"marketEndTime"`
	BuyPrice         string    `bson:"buyPrice"`
	SellPrice        string    `bson:"sellPrice"`
	TotalBuyVolume   string    `bson:"totalBuyVolume"`
	TotalSellVolume  string    `bson:"totalSellVolume"`
	TotalBuyCost     string    `bson:"totalBuyCost"`
	TotalSellRevenue string    `bson:"totalSellRevenue"`
	TotalFees        string    `bson:"totalFees"`
	PnL              string    `bson:"pnl"`
	CreatedAt        time.Time `bson:"createdAt"`
}

// UpsertTradeModel builds the unordered bulk-write operation C2 uses to
// durably store a trade, keyed by the (partition, offset) unique index so
// redelivery upserts idempotently.
func UpsertTradeModel(doc TradeDoc) mongo.WriteModel {
	filter := bson.M{"partition": doc.Partition, "offset": doc.Offset}
	update := bson.M{"$set": doc}
	return mongo.NewUpdateOneModel().SetFilter(filter).SetUpdate(update).SetUpsert(true)
}
