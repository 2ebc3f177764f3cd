package rpcjson

import (
	"context"

	"google.golang.org/grpc"
)

// TradeDTO is one trade observation as carried over the wire between the
// trade-memory service and its callers. Volume is a decimal string.
type TradeDTO struct {
	TradeType string `json:"tradeType"`
	Volume    string `json:"volume"`
	Time      string `json:"time"`
}

// GetTradesForPeriodRequest asks for every trade observed in [StartTime,
// EndTime], inclusive on both ends.
type GetTradesForPeriodRequest struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// GetTradesForPeriodResponse carries the matching trades. Complete is false
// only when the router's downstream query failed and the empty trade list
// stands in for an unavailable answer; a buffer answer is marked complete
// even when the late-arrival wait timed out.
type GetTradesForPeriodResponse struct {
	Trades   []TradeDTO `json:"trades"`
	Complete bool       `json:"complete"`
}

// TradesServiceServer is implemented by the trade-memory service (C1/C3) and
// by the trade-persistence service's fallback handler (C2).
type TradesServiceServer interface {
	GetTradesForPeriod(context.Context, *GetTradesForPeriodRequest) (*GetTradesForPeriodResponse, error)
}

// TradesServiceClient is the calculation service's (C4) view of the RPC.
type TradesServiceClient interface {
	GetTradesForPeriod(ctx context.Context, req *GetTradesForPeriodRequest, opts ...grpc.CallOption) (*GetTradesForPeriodResponse, error)
}

type tradesServiceClient struct {
	cc *grpc.ClientConn
}

// NewTradesServiceClient wraps an established connection. Dial with
// DialOptions (or include grpc.CallContentSubtype(CodecName) per call) so
// the server selects the JSON codec.
func NewTradesServiceClient(cc *grpc.ClientConn) TradesServiceClient {
	return &tradesServiceClient{cc: cc}
}

func (c *tradesServiceClient) GetTradesForPeriod(ctx context.Context, req *GetTradesForPeriodRequest, opts ...grpc.CallOption) (*GetTradesForPeriodResponse, error) {
	resp := new(GetTradesForPeriodResponse)
	err := c.cc.Invoke(ctx, "/pipeline.TradesService/GetTradesForPeriod", req, resp, opts...)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func tradesServiceGetTradesForPeriodHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetTradesForPeriodRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TradesServiceServer).GetTradesForPeriod(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/pipeline.TradesService/GetTradesForPeriod",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TradesServiceServer).GetTradesForPeriod(ctx, req.(*GetTradesForPeriodRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// TradesServiceServiceDesc is the hand-written analogue of what protoc-gen-go
// would otherwise generate from a .proto file (none exists in this
// repository's reference corpus; see the package doc in codec.go).
var TradesServiceServiceDesc = grpc.ServiceDesc{
	ServiceName: "pipeline.TradesService",
	HandlerType: (*TradesServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetTradesForPeriod",
			Handler:    tradesServiceGetTradesForPeriodHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "internal/rpcjson/tradesservice.go",
}

// RegisterTradesServiceServer attaches srv to s under the JSON codec.
func RegisterTradesServiceServer(s grpc.ServiceRegistrar, srv TradesServiceServer) {
	s.RegisterService(&TradesServiceServiceDesc, srv)
}
