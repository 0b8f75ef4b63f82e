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
	"fmt"
	"sync/atomic"
)

// MapTypeName is the variant type name under which Map registers
// itself.
const MapTypeName = "tmap::Map"

// UnboundedSize is the MaxSize value of a map with no advisory entry
// bound.
const UnboundedSize int64 = -1

// Map is a handle to a reference-counted tensor map. The handle is
// small and cheap to move around; the entry table lives in a shared
// storage block behind a refcount.
//
// Why refcounting under a GC? The surrounding runtime needs to know, at
// runtime, whether a handle is the sole owner of its storage so it can
// mutate or reuse the block in place instead of materializing a copy.
// The GC can reclaim the block, but it cannot answer that question;
// RefCountIsOne can.
//
// Handles deliberately alias:
//
//	b := a.Alias()
//	b.Insert(k, v) // visible through a as well
//
// Alias never copies the entry table; it bumps the refcount. The only
// operation that produces independent storage is Copy:
//
//	b := a.Copy()
//	b.Insert(k, v) // a is unaffected
//
// A Map value must not be duplicated by plain struct assignment; use
// Alias, Move or Copy so the refcount stays honest. Entry mutation is
// not synchronized: callers that share storage across goroutines check
// RefCountIsOne and materialize a Copy before writing.
type Map struct {
	// ElementShape is the expected shape of the values. Advisory: no
	// operation enforces it.
	ElementShape Shape

	// ElementDtype is the expected element type of the values.
	// Advisory.
	ElementDtype DataType

	// MaxSize is an advisory upper bound on the entry count,
	// UnboundedSize for none. The container records it and carries it
	// through encode/decode but never enforces it.
	MaxSize int64

	// The metadata fields above are handle-local: Alias and Assign copy
	// them by value, so two handles sharing one storage block can
	// disagree on them. Callers depend on that, so they stay out of the
	// storage block.

	storage *storage
}

type mapEntry struct {
	key   Key
	value Tensor
}

// storage is the shared block owning the entry table. The table is
// keyed by the 64-bit content hash with a small collision chain per
// slot, since tensor keys are not comparable Go values.
type storage struct {
	refs    atomic.Int64
	entries map[uint64][]mapEntry
	n       int
}

var pool = newStoragePool(defaultPoolCapacity)

func newStorage() *storage {
	if s, ok := pool.TryGet(); ok {
		logger.Trace("reusing pooled storage block")
		s.refs.Store(1)
		return s
	}
	s := &storage{entries: make(map[uint64][]mapEntry)}
	s.refs.Store(1)
	return s
}

func (s *storage) ref() {
	s.refs.Add(1)
}

func (s *storage) unref() {
	refs := s.refs.Add(-1)
	if refs > 0 {
		return
	}
	if refs < 0 {
		panic("tmap: storage refcount underflow")
	}
	clear(s.entries)
	s.n = 0
	if !pool.TryPut(s) {
		logger.Trace("storage pool full, dropping block")
	}
}

func (s *storage) find(k Key) (Tensor, bool) {
	for _, e := range s.entries[k.Hash()] {
		if e.key.Equal(k) {
			return e.value, true
		}
	}
	return Tensor{}, false
}

func (s *storage) insert(k Key, v Tensor) bool {
	h := k.Hash()
	for _, e := range s.entries[h] {
		if e.key.Equal(k) {
			return false
		}
	}
	s.entries[h] = append(s.entries[h], mapEntry{key: k, value: v})
	s.n++
	return true
}

func (s *storage) at(k Key) *Tensor {
	h := k.Hash()
	bucket := s.entries[h]
	for i := range bucket {
		if bucket[i].key.Equal(k) {
			return &bucket[i].value
		}
	}
	bucket = append(bucket, mapEntry{key: k})
	s.entries[h] = bucket
	s.n++
	return &bucket[len(bucket)-1].value
}

func (s *storage) erase(k Key) int {
	h := k.Hash()
	bucket := s.entries[h]
	for i := range bucket {
		if bucket[i].key.Equal(k) {
			bucket[i] = bucket[len(bucket)-1]
			bucket = bucket[:len(bucket)-1]
			if len(bucket) == 0 {
				delete(s.entries, h)
			} else {
				s.entries[h] = bucket
			}
			s.n--
			return 1
		}
	}
	return 0
}

// New creates an empty map with a fresh storage block, refcount 1 and
// no advisory bound.
func New() Map {
	return Map{
		ElementShape: UnknownShape(),
		MaxSize:      UnboundedSize,
		storage:      newStorage(),
	}
}

func (m Map) store() *storage {
	if m.storage == nil {
		panic("tmap: use of released Map handle")
	}
	return m.storage
}

// Alias returns a new handle sharing this map's storage. The refcount
// is incremented; mutations through either handle are visible through
// both. Metadata fields are copied by value and stay independent.
func (m Map) Alias() Map {
	s := m.store()
	s.ref()
	return Map{
		ElementShape: m.ElementShape,
		ElementDtype: m.ElementDtype,
		MaxSize:      m.MaxSize,
		storage:      s,
	}
}

// Assign makes m alias src, releasing whatever m previously referenced.
// Assigning a map to itself is a no-op.
func (m *Map) Assign(src *Map) {
	if m == src {
		return
	}
	m.ElementShape = src.ElementShape
	m.ElementDtype = src.ElementDtype
	m.MaxSize = src.MaxSize
	if m.storage == src.storage {
		return
	}
	s := src.store()
	s.ref()
	if m.storage != nil {
		m.storage.unref()
	}
	m.storage = s
}

// Move transfers ownership of the storage to the returned handle
// without touching the refcount. The receiver is left released and must
// not be used again except to be reassigned.
func (m *Map) Move() Map {
	out := Map{
		ElementShape: m.ElementShape,
		ElementDtype: m.ElementDtype,
		MaxSize:      m.MaxSize,
		storage:      m.store(),
	}
	m.storage = nil
	return out
}

// MoveFrom transfers src's storage into m, releasing m's previous
// storage first. src is left released. Moving a map into itself is a
// no-op.
func (m *Map) MoveFrom(src *Map) {
	if m == src {
		return
	}
	m.ElementShape = src.ElementShape
	m.ElementDtype = src.ElementDtype
	m.MaxSize = src.MaxSize
	if m.storage != nil {
		m.storage.unref()
	}
	m.storage = src.storage
	src.storage = nil
}

// Release drops this handle's reference. When the last reference goes,
// the entry table is destroyed (and the block offered back to the
// pool). Releasing an already-released handle is a no-op.
func (m *Map) Release() {
	if m.storage == nil {
		return
	}
	m.storage.unref()
	m.storage = nil
}

// RefCountIsOne reports whether this handle is the sole owner of its
// storage, which is the signal that in-place mutation or reuse is safe.
// It fails closed: a released handle reports false.
func (m Map) RefCountIsOne() bool {
	return m.storage != nil && m.storage.refs.Load() == 1
}

// Copy materializes a handle with independent storage. Metadata is
// duplicated by value and each entry is copied key-by-key; values keep
// their usual shallow copy semantics, so the tensors still share
// element buffers with the source. Mutating either map's entry set
// never affects the other.
func (m Map) Copy() Map {
	s := m.store()
	out := Map{
		ElementShape: m.ElementShape,
		ElementDtype: m.ElementDtype,
		MaxSize:      m.MaxSize,
		storage:      newStorage(),
	}
	for h, bucket := range s.entries {
		out.storage.entries[h] = append([]mapEntry(nil), bucket...)
	}
	out.storage.n = s.n
	logger.Trace("materialized map copy", "entries", s.n)
	return out
}

// Zeros materializes a handle with independent storage, the same
// metadata and key set, and every value replaced by a scalar zero of
// the map's element type. It is the additive-identity counterpart of
// the map, built without reading the original values.
func (m Map) Zeros() Map {
	s := m.store()
	out := Map{
		ElementShape: m.ElementShape,
		ElementDtype: m.ElementDtype,
		MaxSize:      m.MaxSize,
		storage:      newStorage(),
	}
	zero := ScalarZero(m.ElementDtype)
	for h, bucket := range s.entries {
		outBucket := make([]mapEntry, len(bucket))
		for i, e := range bucket {
			outBucket[i] = mapEntry{key: e.key, value: zero}
		}
		out.storage.entries[h] = outBucket
	}
	out.storage.n = s.n
	return out
}

// Keys returns the keys currently present, reinterpreted as tensors. A
// snapshot in no particular order, not a live view.
func (m Map) Keys() []Tensor {
	s := m.store()
	keys := make([]Tensor, 0, s.n)
	for _, bucket := range s.entries {
		for _, e := range bucket {
			keys = append(keys, e.key.Tensor())
		}
	}
	return keys
}

// Insert adds the pair only if the key is absent and reports whether
// the insertion happened. An existing value is never overwritten.
func (m Map) Insert(k Key, v Tensor) bool {
	return m.store().insert(k, v)
}

// Find returns the value for the key, or ok=false if it is absent.
func (m Map) Find(k Key) (Tensor, bool) {
	return m.store().find(k)
}

// Lookup returns the value for a key assumed present. The caller must
// have checked with Find first; looking up an absent key panics.
func (m Map) Lookup(k Key) Tensor {
	v, ok := m.store().find(k)
	if !ok {
		panic(fmt.Sprintf("tmap: lookup of absent key %s", k))
	}
	return v
}

// At returns a mutable reference to the value for the key, inserting a
// zero Tensor if the key is absent. The pointer is valid until the next
// mutation of the map.
func (m Map) At(k Key) *Tensor {
	return m.store().at(k)
}

// Replace unconditionally sets the value for the key, inserting if
// absent. It always reports success.
func (m Map) Replace(k Key, v Tensor) bool {
	*m.store().at(k) = v
	return true
}

// Erase removes the entry for the key if present and returns the number
// of entries removed (0 or 1).
func (m Map) Erase(k Key) int {
	return m.store().erase(k)
}

// Len returns the current entry count.
func (m Map) Len() int {
	return m.store().n
}

// TypeName implements VariantValue.
func (m *Map) TypeName() string { return MapTypeName }

// DebugString implements VariantValue.
func (m *Map) DebugString() string {
	if m.storage == nil {
		return "Map<released>"
	}
	return fmt.Sprintf("Map<%s, %s, size=%d>", m.ElementDtype, m.ElementShape, m.storage.n)
}

// Encode implements VariantValue. The metadata records the element
// shape, element type, advisory bound and entry count; the tensor list
// carries alternating key/value pairs in the table's iteration order,
// which is not stable across processes.
func (m *Map) Encode(data *VariantData) {
	s := m.store()
	data.TypeName = MapTypeName

	meta := appendShape(nil, m.ElementShape)
	meta = append(meta, byte(m.ElementDtype))
	meta = binary.BigEndian.AppendUint64(meta, uint64(m.MaxSize))
	meta = binary.BigEndian.AppendUint64(meta, uint64(s.n))
	data.Metadata = meta

	data.Tensors = make([]Tensor, 0, 2*s.n)
	for _, bucket := range s.entries {
		for _, e := range bucket {
			data.Tensors = append(data.Tensors, e.key.Tensor(), e.value)
		}
	}
	logger.Trace("encoded map", "entries", s.n)
}

// Decode implements VariantValue. It rebuilds the metadata and a fresh
// storage block from the payload. On any structural problem it returns
// an error wrapping ErrMalformedPayload and leaves the destination
// untouched: entries are decoded into a scratch block that is swapped
// in only on success.
func (m *Map) Decode(data *VariantData) error {
	if data.TypeName != MapTypeName {
		return fmt.Errorf("%w: have %q, want %q", ErrWrongType, data.TypeName, MapTypeName)
	}

	shape, off, err := consumeShape(data.Metadata, 0)
	if err != nil {
		return err
	}
	if off >= len(data.Metadata) {
		return errMalformed("truncated element type")
	}
	dtype := DataType(data.Metadata[off])
	off++
	if dtype != DTInvalid && !dtype.Valid() {
		return errMalformed("invalid element type")
	}
	if off+16 > len(data.Metadata) {
		return errMalformed("truncated map metadata")
	}
	maxSize := int64(binary.BigEndian.Uint64(data.Metadata[off:]))
	if maxSize < UnboundedSize {
		return errMalformed("negative map bound")
	}
	count := binary.BigEndian.Uint64(data.Metadata[off+8:])
	if count != uint64(len(data.Tensors))/2 || len(data.Tensors)%2 != 0 {
		return errMalformed("entry count does not match tensor list")
	}

	scratch := newStorage()
	for i := 0; i < len(data.Tensors); i += 2 {
		if !scratch.insert(KeyOf(data.Tensors[i]), data.Tensors[i+1]) {
			scratch.unref()
			return errMalformed("duplicate key")
		}
	}

	m.ElementShape = shape
	m.ElementDtype = dtype
	m.MaxSize = maxSize
	if m.storage != nil {
		m.storage.unref()
	}
	m.storage = scratch
	logger.Trace("decoded map", "entries", scratch.n)
	return nil
}
