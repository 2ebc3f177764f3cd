package traderouter

import (
	"time"

	"github.com/marketpnl/pipeline/internal/bus"
	"github.com/marketpnl/pipeline/internal/rpcjson"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func parseRange(req *rpcjson.GetTradesForPeriodRequest) (start, end time.Time, err error) {
	start, err = time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, status.Errorf(codes.InvalidArgument, "invalid startTime: %v", err)
	}
	end, err = time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, status.Errorf(codes.InvalidArgument, "invalid endTime: %v", err)
	}
	return start, end, nil
}

func toResponse(trades []bus.ParsedTrade) *rpcjson.GetTradesForPeriodResponse {
	out := make([]rpcjson.TradeDTO, 0, len(trades))
	for _, t := range trades {
		out = append(out, rpcjson.TradeDTO{
			TradeType: string(t.Side),
			Volume:    t.Volume.String(),
			Time:      t.Time.Format(time.RFC3339),
		})
	}
	return &rpcjson.GetTradesForPeriodResponse{Trades: out, Complete: true}
}
