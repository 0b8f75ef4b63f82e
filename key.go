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

// Key is a tensor used as a map key. Keys compare and hash by content
// (type, shape and element bytes), never by buffer identity, so two
// independently built tensors with the same values are the same key.
type Key struct {
	t Tensor
}

// KeyOf wraps a tensor as a key. The key shares the tensor's buffer;
// mutating the buffer after insertion breaks the map.
func KeyOf(t Tensor) Key {
	return Key{t: t}
}

// Tensor reinterprets the key back as a tensor value.
func (k Key) Tensor() Tensor { return k.t }

// Hash returns the key's content hash.
func (k Key) Hash() uint64 { return k.t.ContentHash() }

// Equal reports whether two keys have identical content.
func (k Key) Equal(o Key) bool { return k.t.Equal(o.t) }

func (k Key) String() string { return k.t.String() }
