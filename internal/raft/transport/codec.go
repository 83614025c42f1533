// Package transport is the concrete gRPC-backed raft.Transport, the
// external RPC collaborator spec.md §1 and §6 describe.
//
// Grounded on the teacher's internal/raft/transport/transport.go (a
// per-peer client map over a generated RaftServiceClient) generalized to
// work without protoc: since no .proto-derived Go types exist anywhere in
// this module's retrieval pack, the wire messages here are plain Go
// structs (raft.RequestVoteRequest and friends) carried by a small
// encoding/gob codec registered with grpc's encoding registry, and the
// server-side dispatch table is a hand-built grpc.ServiceDesc of the
// exact shape protoc-gen-go-grpc would otherwise emit. See DESIGN.md for
// why google.golang.org/protobuf itself is not used as a direct
// dependency.
package transport

import (
	"bytes"
	"encoding/gob"

	"google.golang.org/grpc/encoding"
)

const codecName = "gob"

// gobCodec implements grpc/encoding.Codec over encoding/gob so grpc can
// marshal the plain request/response structs in package raft directly,
// without a protobuf message type.
type gobCodec struct{}

func (gobCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (gobCodec) Unmarshal(data []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

func (gobCodec) Name() string { return codecName }

func init() {
	encoding.RegisterCodec(gobCodec{})
}
