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

package remote

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/traojudge/core/xerr"
)

// grpcStatusErr classifies a worker-side error the same way judgeservice's
// gRPC adapter classifies a judge error (spec.md §7): a malformed request
// (unrecognized place_file kind, unparsable ResourceId) is the caller's
// fault and maps to codes.InvalidArgument; a reference to a reservation or
// outcome id the server no longer holds maps to codes.NotFound; everything
// else (a backend's ReserveFailed/PlaceFailed/ExecutionFailed/Internal) is a
// worker-side fault and maps to codes.Internal.
func grpcStatusErr(err error) error {
	if err == nil {
		return nil
	}

	var schemaErr xerr.InvalidSchemaError
	var ridErr xerr.InvalidResourceIdError
	switch {
	case errors.As(err, &schemaErr), errors.As(err, &ridErr):
		return status.Error(codes.InvalidArgument, err.Error())
	}

	var notFoundErr xerr.NotFoundError
	if errors.As(err, &notFoundErr) {
		return status.Error(codes.NotFound, err.Error())
	}

	return status.Error(codes.Internal, err.Error())
}
