package rpcjson

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// DialOptions returns the grpc.DialOption set every client in this repo
// should use: plaintext transport (no service mesh/TLS termination is in
// scope here) and the JSON codec selected by default so callers don't have
// to pass grpc.CallContentSubtype(CodecName) on every Invoke.
func DialOptions() []grpc.DialOption {
	return []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	}
}

// NewServer returns a *grpc.Server with the JSON codec registered. Callers
// still register their service implementations with
// RegisterTradesServiceServer / RegisterPnlQueryServiceServer.
func NewServer() *grpc.Server {
	RegisterCodec()
	return grpc.NewServer()
}
