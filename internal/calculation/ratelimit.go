package calculation

import (
	"context"

	"github.com/marketpnl/pipeline/internal/rpcjson"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
)

// rateLimitedTradesClient wraps a TradesServiceClient with a token-bucket
// limiter to bound outbound RPC volume from the calculation pipeline.
type rateLimitedTradesClient struct {
	inner   rpcjson.TradesServiceClient
	limiter *rate.Limiter
}

// newRateLimitedTradesClient wraps inner with a limiter of the given rate
// and burst.
func newRateLimitedTradesClient(inner rpcjson.TradesServiceClient, ratePerSecond float64, burst int) rpcjson.TradesServiceClient {
	return &rateLimitedTradesClient{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst),
	}
}

func (c *rateLimitedTradesClient) GetTradesForPeriod(ctx context.Context, req *rpcjson.GetTradesForPeriodRequest, opts ...grpc.CallOption) (*rpcjson.GetTradesForPeriodResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.inner.GetTradesForPeriod(ctx, req, opts...)
}
