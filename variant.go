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
	"fmt"
	"sync"
)

// VariantData is the encoded form of a variant payload: the registered
// type name, an opaque metadata blob owned by the payload type, and a
// flat list of tensors referenced by that metadata.
type VariantData struct {
	TypeName string
	Metadata []byte
	Tensors  []Tensor
}

// VariantValue is the capability interface a type implements to travel
// inside a Variant: a stable type name for registry dispatch, an
// encode/decode pair against VariantData, and a debug rendering.
type VariantValue interface {
	TypeName() string
	Encode(data *VariantData)
	Decode(data *VariantData) error
	DebugString() string
}

// Variant is a tagged-union value over the closed set of registered
// payload kinds. The zero Variant is empty.
type Variant struct {
	value VariantValue
}

// VariantOf wraps a payload value in a variant.
func VariantOf(v VariantValue) Variant {
	return Variant{value: v}
}

// Value returns the payload, or nil for an empty variant.
func (v Variant) Value() VariantValue { return v.value }

// TypeName returns the payload's registered type name, or "" for an
// empty variant.
func (v Variant) TypeName() string {
	if v.value == nil {
		return ""
	}
	return v.value.TypeName()
}

func (v Variant) String() string {
	if v.value == nil {
		return "Variant<empty>"
	}
	return v.value.DebugString()
}

// Encode serializes the payload into a VariantData. Encoding an empty
// variant panics; callers hold a value before shipping it.
func (v Variant) Encode() VariantData {
	if v.value == nil {
		panic("tmap: encode of empty Variant")
	}
	var data VariantData
	v.value.Encode(&data)
	return data
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]func() VariantValue)
)

// RegisterVariant maps a type name to a factory producing a fresh,
// decodable payload value. Intended to be called from package init
// functions; registering the same name twice panics, the way
// gob.Register does.
func RegisterVariant(name string, factory func() VariantValue) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if name == "" {
		panic("tmap: RegisterVariant with empty type name")
	}
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("tmap: RegisterVariant called twice for %q", name))
	}
	registry[name] = factory
}

func init() {
	RegisterVariant(MapTypeName, func() VariantValue {
		m := New()
		return &m
	})
}

// DecodeVariant reconstructs a variant from its encoded form by
// dispatching on the type name. Returns ErrUnknownType for an
// unregistered name and the payload's own decode error otherwise.
func DecodeVariant(data *VariantData) (Variant, error) {
	registryMu.RLock()
	factory, ok := registry[data.TypeName]
	registryMu.RUnlock()
	if !ok {
		return Variant{}, fmt.Errorf("%w: %q", ErrUnknownType, data.TypeName)
	}
	value := factory()
	if err := value.Decode(data); err != nil {
		return Variant{}, fmt.Errorf("decoding %q: %w", data.TypeName, err)
	}
	return Variant{value: value}, nil
}
