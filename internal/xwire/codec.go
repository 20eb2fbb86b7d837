// Package xwire holds the transport-adjacent plumbing that the rest of
// the driver is built on: the wire message stand-ins (the generated
// request/response types are out of scope per spec.md §1 — "assumed
// available via the database's wire schema" — so this package defines
// the plain Go structs a real protoc-gen-go-grpc pass would produce)
// and the generic bidirectional Stream Framing described in spec.md
// §4.8 (C10).
//
// Because the real generated .proto messages aren't available in this
// tree, RPCs ride over a custom JSON codec registered under the
// "json" content-subtype rather than the default "proto" codec, which
// requires proto.Message. This keeps every call site using the real
// google.golang.org/grpc transport (dialling, keepalive, interceptors,
// streaming) instead of a hand-rolled substitute.
package xwire

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

const codecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string { return codecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// CodecName is passed via grpc.CallContentSubtype on every call issued
// by this driver.
const CodecName = codecName
