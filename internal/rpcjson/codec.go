// Package rpcjson wires the TradesService and PnlQueryService RPCs onto
// real google.golang.org/grpc transport without protobuf-generated
// bindings: messages are plain Go structs carried by a small JSON
// encoding.Codec registered with grpc-go under the "json" content-subtype.
package rpcjson

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// CodecName is the content-subtype this codec registers under. Clients must
// dial with grpc.CallContentSubtype(CodecName) (DialOptions in dial.go does this by
// default) for the server to select it.
const CodecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string { return CodecName }

// RegisterCodec installs the JSON codec globally. Safe to call more than
// once; also runs automatically on import via init.
func RegisterCodec() {
	encoding.RegisterCodec(jsonCodec{})
}

func init() {
	RegisterCodec()
}
