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
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spaolacci/murmur3"
)

// Tensor is a dense value: an element type, a fully-defined shape and a
// flat little-endian element buffer. Copying a Tensor value copies the
// descriptor only; both copies share the underlying buffer. Nothing in
// this package ever deep-clones the buffer.
type Tensor struct {
	dtype DataType
	shape Shape
	data  []byte
}

// Element constrains the scalar Go types a tensor buffer can hold.
type Element interface {
	~float32 | ~float64 | ~int32 | ~int64 | ~bool
}

// NewTensor builds a tensor over the given buffer without copying it.
// The shape must be fully defined and the buffer length must match
// shape.NumElements() * dtype.Size().
func NewTensor(dtype DataType, shape Shape, data []byte) (Tensor, error) {
	if !dtype.Valid() {
		return Tensor{}, fmt.Errorf("tmap: invalid data type %d", uint8(dtype))
	}
	if !shape.FullyDefined() {
		return Tensor{}, fmt.Errorf("tmap: tensor shape %s is not fully defined", shape)
	}
	if want := shape.NumElements() * int64(dtype.Size()); int64(len(data)) != want {
		return Tensor{}, fmt.Errorf("tmap: buffer length %d does not match %s %s (want %d)",
			len(data), dtype, shape, want)
	}
	return Tensor{dtype: dtype, shape: shape, data: data}, nil
}

// ScalarOf builds a rank-0 tensor holding a single value.
func ScalarOf[T Element](v T) Tensor {
	return Tensor{
		dtype: dtypeFor[T](),
		shape: ScalarShape(),
		data:  appendElement(nil, v),
	}
}

// VectorOf builds a rank-1 tensor from the given values.
func VectorOf[T Element](vs ...T) Tensor {
	data := make([]byte, 0, len(vs)*dtypeFor[T]().Size())
	for _, v := range vs {
		data = appendElement(data, v)
	}
	return Tensor{
		dtype: dtypeFor[T](),
		shape: MakeShape(int64(len(vs))),
		data:  data,
	}
}

// ScalarZero builds a rank-0 tensor holding the additive identity of
// the given data type. Falls back to DTInt32 for an invalid type, the
// way a bare scalar literal zero would.
func ScalarZero(dtype DataType) Tensor {
	if !dtype.Valid() {
		dtype = DTInt32
	}
	return Tensor{
		dtype: dtype,
		shape: ScalarShape(),
		data:  make([]byte, dtype.Size()),
	}
}

func dtypeFor[T Element]() DataType {
	var zero T
	switch any(zero).(type) {
	case float32:
		return DTFloat32
	case float64:
		return DTFloat64
	case int32:
		return DTInt32
	case int64:
		return DTInt64
	case bool:
		return DTBool
	default:
		return DTInvalid
	}
}

func appendElement[T Element](b []byte, v T) []byte {
	switch e := any(v).(type) {
	case float32:
		return binary.LittleEndian.AppendUint32(b, math.Float32bits(e))
	case float64:
		return binary.LittleEndian.AppendUint64(b, math.Float64bits(e))
	case int32:
		return binary.LittleEndian.AppendUint32(b, uint32(e))
	case int64:
		return binary.LittleEndian.AppendUint64(b, uint64(e))
	case bool:
		if e {
			return append(b, 1)
		}
		return append(b, 0)
	default:
		panic("tmap: unreachable element type")
	}
}

// Dtype returns the element type.
func (t Tensor) Dtype() DataType { return t.dtype }

// Shape returns the tensor shape.
func (t Tensor) Shape() Shape { return t.shape }

// NumElements returns the number of elements in the buffer.
func (t Tensor) NumElements() int64 { return t.shape.NumElements() }

// Data returns the raw element buffer. The buffer is shared with every
// copy of this tensor; mutating it is visible through all of them.
func (t Tensor) Data() []byte { return t.data }

// Valid reports whether the tensor holds a known data type. The zero
// Tensor is not valid.
func (t Tensor) Valid() bool { return t.dtype.Valid() }

// Equal reports whether two tensors have the same type, shape and
// element bytes. It compares content, not buffer identity.
func (t Tensor) Equal(o Tensor) bool {
	return t.dtype == o.dtype && t.shape.Equal(o.shape) && bytes.Equal(t.data, o.data)
}

// ContentHash returns a 64-bit hash of the tensor's type, shape and
// element bytes. Tensors that are Equal hash identically.
func (t Tensor) ContentHash() uint64 {
	h := murmur3.New64()
	h.Write([]byte{byte(t.dtype)})
	h.Write(appendShape(nil, t.shape))
	h.Write(t.data)
	return h.Sum64()
}

func (t Tensor) String() string {
	return fmt.Sprintf("Tensor<%s, %s>", t.dtype, t.shape)
}

// DebugString renders the tensor descriptor plus a bounded element
// preview, for logs and inspection tools.
func (t Tensor) DebugString() string {
	if !t.Valid() {
		return "Tensor<invalid>"
	}
	return t.String() + t.debugElements(8)
}

// debugElements renders up to limit elements for debug output.
func (t Tensor) debugElements(limit int) string {
	var b strings.Builder
	b.WriteByte('[')
	n := int(t.NumElements())
	for i := 0; i < n && i < limit; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(t.element(i))
	}
	if n > limit {
		b.WriteString(" ...")
	}
	b.WriteByte(']')
	return b.String()
}

func (t Tensor) element(i int) string {
	off := i * t.dtype.Size()
	switch t.dtype {
	case DTFloat32:
		v := math.Float32frombits(binary.LittleEndian.Uint32(t.data[off:]))
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case DTFloat64:
		v := math.Float64frombits(binary.LittleEndian.Uint64(t.data[off:]))
		return strconv.FormatFloat(v, 'g', -1, 64)
	case DTInt32:
		return strconv.FormatInt(int64(int32(binary.LittleEndian.Uint32(t.data[off:]))), 10)
	case DTInt64:
		return strconv.FormatInt(int64(binary.LittleEndian.Uint64(t.data[off:])), 10)
	case DTBool:
		return strconv.FormatBool(t.data[off] != 0)
	default:
		return "?"
	}
}

// appendTo serializes the tensor as dtype, shape, then a length-framed
// element buffer. Big-endian framing; the element buffer itself stays
// little-endian.
func (t Tensor) appendTo(b []byte) []byte {
	b = append(b, byte(t.dtype))
	b = appendShape(b, t.shape)
	b = binary.BigEndian.AppendUint32(b, uint32(len(t.data)))
	return append(b, t.data...)
}

func consumeTensor(b []byte, off int) (Tensor, int, error) {
	if off >= len(b) {
		return Tensor{}, off, errMalformed("truncated tensor type")
	}
	dtype := DataType(b[off])
	off++
	if !dtype.Valid() {
		return Tensor{}, off, errMalformed("invalid tensor type")
	}
	shape, off, err := consumeShape(b, off)
	if err != nil {
		return Tensor{}, off, err
	}
	if !shape.FullyDefined() {
		return Tensor{}, off, errMalformed("tensor shape not fully defined")
	}
	if off+4 > len(b) {
		return Tensor{}, off, errMalformed("truncated tensor buffer length")
	}
	n := int(binary.BigEndian.Uint32(b[off:]))
	off += 4
	if off+n > len(b) {
		return Tensor{}, off, errMalformed("truncated tensor buffer")
	}
	if want := shape.NumElements() * int64(dtype.Size()); int64(n) != want {
		return Tensor{}, off, errMalformed("tensor buffer length does not match shape")
	}
	data := make([]byte, n)
	copy(data, b[off:off+n])
	off += n
	return Tensor{dtype: dtype, shape: shape, data: data}, off, nil
}
