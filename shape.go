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
	"encoding/binary"
	"strconv"
	"strings"
)

// UnknownDim marks a dimension whose extent is not known.
const UnknownDim int64 = -1

// Shape describes the dimensions of a tensor. A shape may have unknown
// rank, or known rank with individual dimensions unknown. Shape values
// are immutable once constructed.
type Shape struct {
	dims        []int64
	unknownRank bool
}

// MakeShape builds a shape with known rank. Dimensions may be
// UnknownDim.
func MakeShape(dims ...int64) Shape {
	out := make([]int64, len(dims))
	copy(out, dims)
	return Shape{dims: out}
}

// ScalarShape returns the rank-0 shape.
func ScalarShape() Shape {
	return Shape{dims: []int64{}}
}

// UnknownShape returns the shape with unknown rank. It is the zero
// value of Shape.
func UnknownShape() Shape {
	return Shape{unknownRank: true}
}

// Rank returns the number of dimensions, or -1 if the rank is unknown.
func (s Shape) Rank() int {
	if s.unknownRank || s.dims == nil {
		return -1
	}
	return len(s.dims)
}

// Dims returns a copy of the dimension extents. Nil if the rank is
// unknown.
func (s Shape) Dims() []int64 {
	if s.Rank() < 0 {
		return nil
	}
	out := make([]int64, len(s.dims))
	copy(out, s.dims)
	return out
}

// NumElements returns the product of the dimensions, or -1 if any
// dimension or the rank is unknown.
func (s Shape) NumElements() int64 {
	if s.Rank() < 0 {
		return -1
	}
	n := int64(1)
	for _, d := range s.dims {
		if d < 0 {
			return -1
		}
		n *= d
	}
	return n
}

// FullyDefined reports whether the rank and every dimension are known.
func (s Shape) FullyDefined() bool {
	return s.NumElements() >= 0
}

// Equal reports whether two shapes have the same rank and identical
// dimensions, unknowns included.
func (s Shape) Equal(o Shape) bool {
	if s.Rank() != o.Rank() {
		return false
	}
	if s.Rank() < 0 {
		return true
	}
	for i, d := range s.dims {
		if o.dims[i] != d {
			return false
		}
	}
	return true
}

// IsCompatibleWith reports whether the two shapes could describe the
// same tensor: unknown rank matches anything, and an unknown dimension
// matches any extent.
func (s Shape) IsCompatibleWith(o Shape) bool {
	if s.Rank() < 0 || o.Rank() < 0 {
		return true
	}
	if s.Rank() != o.Rank() {
		return false
	}
	for i, d := range s.dims {
		if d >= 0 && o.dims[i] >= 0 && d != o.dims[i] {
			return false
		}
	}
	return true
}

func (s Shape) String() string {
	if s.Rank() < 0 {
		return "<unknown>"
	}
	var b strings.Builder
	b.WriteByte('[')
	for i, d := range s.dims {
		if i > 0 {
			b.WriteByte(',')
		}
		if d < 0 {
			b.WriteByte('?')
		} else {
			b.WriteString(strconv.FormatInt(d, 10))
		}
	}
	b.WriteByte(']')
	return b.String()
}

// appendShape serializes a shape as a signed big-endian rank (-1 for
// unknown rank) followed by one int64 per dimension.
func appendShape(b []byte, s Shape) []byte {
	rank := s.Rank()
	b = binary.BigEndian.AppendUint32(b, uint32(int32(rank)))
	if rank < 0 {
		return b
	}
	for _, d := range s.dims {
		b = binary.BigEndian.AppendUint64(b, uint64(d))
	}
	return b
}

// maxShapeRank bounds the rank accepted by consumeShape so a corrupt
// payload cannot trigger an enormous allocation.
const maxShapeRank = 255

func consumeShape(b []byte, off int) (Shape, int, error) {
	if off+4 > len(b) {
		return Shape{}, off, errMalformed("truncated shape rank")
	}
	rank := int32(binary.BigEndian.Uint32(b[off:]))
	off += 4
	if rank < 0 {
		return UnknownShape(), off, nil
	}
	if rank > maxShapeRank {
		return Shape{}, off, errMalformed("shape rank out of range")
	}
	if off+8*int(rank) > len(b) {
		return Shape{}, off, errMalformed("truncated shape dimensions")
	}
	dims := make([]int64, rank)
	for i := range dims {
		d := int64(binary.BigEndian.Uint64(b[off:]))
		off += 8
		if d < UnknownDim {
			return Shape{}, off, errMalformed("negative shape dimension")
		}
		dims[i] = d
	}
	return Shape{dims: dims}, off, nil
}
