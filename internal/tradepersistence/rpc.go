package tradepersistence

import (
	"context"
	"time"

	"github.com/marketpnl/pipeline/internal/rpcjson"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GetTradesForPeriod implements rpcjson.TradesServiceServer by reading the
// durable store directly — this is the fallback path C3 calls when C1's
// memory buffer has no hit.
func (s *Service) GetTradesForPeriod(ctx context.Context, req *rpcjson.GetTradesForPeriodRequest) (*rpcjson.GetTradesForPeriodResponse, error) {
	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid startTime: %v", err)
	}
	end, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid endTime: %v", err)
	}

	filter := bson.M{"time": bson.M{"$gte": start, "$lte": end}}
	opts := options.Find().SetSort(bson.D{{Key: "time", Value: 1}})

	cursor, err := s.store.Trades().Find(ctx, filter, opts)
	if err != nil {
		s.logger.Error("range query failed", "error", err)
		return nil, status.Errorf(codes.Internal, "range query failed: %v", err)
	}
	defer cursor.Close(ctx)

	trades := make([]rpcjson.TradeDTO, 0)
	for cursor.Next(ctx) {
		var doc tradeDocView
		if err := cursor.Decode(&doc); err != nil {
			s.logger.Error("range query decode failed", "error", err)
			return nil, status.Errorf(codes.Internal, "range query decode failed: %v", err)
		}
		trades = append(trades, rpcjson.TradeDTO{
			TradeType: doc.Side,
			Volume:    doc.Volume,
			Time:      doc.Time.Format(time.RFC3339),
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, status.Errorf(codes.Internal, "range query cursor error: %v", err)
	}

	return &rpcjson.GetTradesForPeriodResponse{Trades: trades, Complete: true}, nil
}

// tradeDocView decodes only the fields GetTradesForPeriod's response needs.
type tradeDocView struct {
	Side   string    `bson:"side"`
	Volume string    `bson:"volume"`
	Time   time.Time `bson:"time"`
}
