// Package pnlaggregation implements C5: the three-window PnL summary query
// over the pnls collection. Arithmetic stays in decimal until the very
// last step, where the aggregated totals are rounded to two places for
// display.
package pnlaggregation

import (
	"context"
	"log/slog"
	"time"

	"github.com/marketpnl/pipeline/internal/rpcjson"
	"github.com/marketpnl/pipeline/internal/store"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Service answers GetSummary against the pnls collection.
type Service struct {
	store  *store.Store
	logger *slog.Logger
}

// New builds a Service.
func New(st *store.Store, logger *slog.Logger) *Service {
	return &Service{store: st, logger: logger}
}

// GetSummary implements rpcjson.PnlQueryServiceServer. It returns an empty
// window list if the pnls collection has never been written to.
func (s *Service) GetSummary(ctx context.Context, req *rpcjson.GetSummaryRequest) (*rpcjson.GetSummaryResponse, error) {
	latest, ok, err := s.latestPnL(ctx)
	if err != nil {
		s.logger.Error("aggregation query failed", "error", err)
		return nil, status.Errorf(codes.Internal, "aggregation query failed: %v", err)
	}
	if !ok {
		return &rpcjson.GetSummaryResponse{Windows: []rpcjson.WindowSummary{}}, nil
	}

	lastPnL, err := decimal.NewFromString(latest.PnL)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "corrupt pnl record %q: %v", latest.PnL, err)
	}

	referenceTime := latest.MarketEndTime
	if req.ReferenceTime != "" {
		if t, parseErr := time.Parse(time.RFC3339, req.ReferenceTime); parseErr == nil {
			referenceTime = t
		}
	}

	oneMinStart := referenceTime.Add(-60 * time.Second)
	oneMinSum, oneMinCount, err := s.windowSum(ctx, oneMinStart)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "1m window query failed: %v", err)
	}
	fiveMinStart := referenceTime.Add(-300 * time.Second)
	fiveMinSum, fiveMinCount, err := s.windowSum(ctx, fiveMinStart)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "5m window query failed: %v", err)
	}

	windows := []rpcjson.WindowSummary{
		{
			Window:    "last_interval",
			StartTime: formatDisplay(latest.MarketStartTime),
			EndTime:   formatDisplay(latest.MarketEndTime),
			PnL:       roundDisplay(lastPnL),
			Count:     1,
		},
		{
			Window:    "1m",
			StartTime: formatDisplay(oneMinStart),
			EndTime:   formatDisplay(referenceTime),
			PnL:       roundDisplay(oneMinSum),
			Count:     oneMinCount,
		},
		{
			Window:    "5m",
			StartTime: formatDisplay(fiveMinStart),
			EndTime:   formatDisplay(referenceTime),
			PnL:       roundDisplay(fiveMinSum),
			Count:     fiveMinCount,
		},
	}
	return &rpcjson.GetSummaryResponse{Windows: windows}, nil
}

func (s *Service) latestPnL(ctx context.Context) (store.PnLDoc, bool, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "marketEndTime", Value: -1}})
	var doc store.PnLDoc
	err := s.store.PnLs().FindOne(ctx, bson.M{}, opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return store.PnLDoc{}, false, nil
	}
	if err != nil {
		return store.PnLDoc{}, false, err
	}
	return doc, true, nil
}

func (s *Service) windowSum(ctx context.Context, since time.Time) (decimal.Decimal, int64, error) {
	filter := bson.M{"marketEndTime": bson.M{"$gte": since}}
	cursor, err := s.store.PnLs().Find(ctx, filter)
	if err != nil {
		return decimal.Zero, 0, err
	}
	defer cursor.Close(ctx)

	sum := decimal.Zero
	var count int64
	for cursor.Next(ctx) {
		var doc store.PnLDoc
		if err := cursor.Decode(&doc); err != nil {
			return decimal.Zero, 0, err
		}
		pnl, err := decimal.NewFromString(doc.PnL)
		if err != nil {
			return decimal.Zero, 0, err
		}
		sum = sum.Add(pnl)
		count++
	}
	if err := cursor.Err(); err != nil {
		return decimal.Zero, 0, err
	}
	return sum, count, nil
}

// roundDisplay is the only place in the pipeline that rounds a decimal
// value; every upstream computation keeps full precision.
func roundDisplay(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// formatDisplay renders a window boundary in the human "YYYY-MM-DD HH:MM"
// form GetSummary's response uses, rather than RFC3339.
func formatDisplay(t time.Time) string {
	return t.Format("2006-01-02 15:04")
}
