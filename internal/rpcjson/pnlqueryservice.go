package rpcjson

import (
	"context"

	"google.golang.org/grpc"
)

// WindowSummary is the PnL total for one of the three rolling windows C5
// reports: the last closed interval, the trailing minute, and the trailing
// five minutes. StartTime and EndTime are human-formatted "YYYY-MM-DD
// HH:MM" rather than RFC3339, matching this RPC's display-oriented contract.
type WindowSummary struct {
	Window    string `json:"window"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	PnL       string `json:"pnl"`
	Count     int64  `json:"count"`
}

// GetSummaryRequest optionally overrides the reference time the 1m and 5m
// windows end at (by default the latest PnL record's marketEndTime), for
// deterministic testing.
type GetSummaryRequest struct {
	ReferenceTime string `json:"referenceTime,omitempty"`
}

// GetSummaryResponse carries all three windows.
type GetSummaryResponse struct {
	Windows []WindowSummary `json:"windows"`
}

// PnlQueryServiceServer is implemented by the pnl-query service (C5).
type PnlQueryServiceServer interface {
	GetSummary(context.Context, *GetSummaryRequest) (*GetSummaryResponse, error)
}

// PnlQueryServiceClient is exposed for callers (e.g. the health/debug
// surface, or integration tests) that invoke GetSummary remotely.
type PnlQueryServiceClient interface {
	GetSummary(ctx context.Context, req *GetSummaryRequest, opts ...grpc.CallOption) (*GetSummaryResponse, error)
}

type pnlQueryServiceClient struct {
	cc *grpc.ClientConn
}

// NewPnlQueryServiceClient wraps an established connection.
func NewPnlQueryServiceClient(cc *grpc.ClientConn) PnlQueryServiceClient {
	return &pnlQueryServiceClient{cc: cc}
}

func (c *pnlQueryServiceClient) GetSummary(ctx context.Context, req *GetSummaryRequest, opts ...grpc.CallOption) (*GetSummaryResponse, error) {
	resp := new(GetSummaryResponse)
	err := c.cc.Invoke(ctx, "/pipeline.PnlQueryService/GetSummary", req, resp, opts...)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func pnlQueryServiceGetSummaryHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetSummaryRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PnlQueryServiceServer).GetSummary(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/pipeline.PnlQueryService/GetSummary",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PnlQueryServiceServer).GetSummary(ctx, req.(*GetSummaryRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// PnlQueryServiceServiceDesc is the hand-written ServiceDesc for
// PnlQueryService; see TradesServiceServiceDesc's comment.
var PnlQueryServiceServiceDesc = grpc.ServiceDesc{
	ServiceName: "pipeline.PnlQueryService",
	HandlerType: (*PnlQueryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetSummary",
			Handler:    pnlQueryServiceGetSummaryHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "internal/rpcjson/pnlqueryservice.go",
}

// RegisterPnlQueryServiceServer attaches srv to s under the JSON codec.
func RegisterPnlQueryServiceServer(s grpc.ServiceRegistrar, srv PnlQueryServiceServer) {
	s.RegisterService(&PnlQueryServiceServiceDesc, srv)
}
