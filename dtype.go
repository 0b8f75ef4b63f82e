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

// DataType identifies the element type of a tensor buffer.
type DataType uint8

const (
	DTInvalid DataType = iota
	DTFloat32
	DTFloat64
	DTInt32
	DTInt64
	DTBool
)

// Size returns the width of a single element in bytes, or 0 for an
// invalid data type.
func (d DataType) Size() int {
	switch d {
	case DTFloat32, DTInt32:
		return 4
	case DTFloat64, DTInt64:
		return 8
	case DTBool:
		return 1
	default:
		return 0
	}
}

// Valid reports whether d is one of the known data types.
func (d DataType) Valid() bool {
	return d > DTInvalid && d <= DTBool
}

func (d DataType) String() string {
	switch d {
	case DTFloat32:
		return "float32"
	case DTFloat64:
		return "float64"
	case DTInt32:
		return "int32"
	case DTInt64:
		return "int64"
	case DTBool:
		return "bool"
	default:
		return "invalid"
	}
}
