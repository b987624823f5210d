// Copyright 2025 Binaek Sarkar
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package remote implements jobapi.JobAPI over gRPC against a worker pool
// running elsewhere: a Server adapts a local jobapi.JobAPI to a hand-built
// grpc.ServiceDesc, and a Client satisfies jobapi.JobAPI by invoking that
// service. Messages travel as plain JSON rather than protobuf: the wire
// types here are ordinary structs with json tags, carried by jsonCodec, a
// grpc/encoding.Codec registered under the content-subtype "json".
package remote

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// codecName is both the encoding.Codec's Name() and the gRPC content-
// subtype negotiated between Client and Server; both sides must agree on
// it since nothing here is compiled from a .proto file.
const codecName = "json"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return codecName }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("remote: marshal %T: %w", v, err)
	}
	return b, nil
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("remote: unmarshal into %T: %w", v, err)
	}
	return nil
}
