// Copyright 2026 The tmap Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tmap

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedPayload reports a structurally invalid encoded
	// payload: a truncated field, an out-of-range value, or a tensor
	// that fails to decode. Decoding never leaves the destination
	// partially populated.
	ErrMalformedPayload = errors.New("tmap: malformed payload")

	// ErrUnknownType reports an encoded payload whose type name has no
	// registered variant decoder.
	ErrUnknownType = errors.New("tmap: unknown variant type")

	// ErrWrongType reports a payload whose type name does not match the
	// value it is being decoded into.
	ErrWrongType = errors.New("tmap: wrong variant type")
)

func errMalformed(detail string) error {
	return fmt.Errorf("%w: %s", ErrMalformedPayload, detail)
}
