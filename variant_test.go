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
	"testing"
)

func buildTestMap() Map {
	m := New()
	m.ElementDtype = DTFloat64
	m.ElementShape = MakeShape(UnknownDim)
	m.MaxSize = 16
	m.Insert(KeyOf(ScalarOf(int32(1))), VectorOf(1.0, 2.0))
	m.Insert(KeyOf(ScalarOf(int32(2))), VectorOf(3.0))
	return m
}

func TestMapEncodeDecodeRoundTrip(t *testing.T) {
	m := buildTestMap()
	defer m.Release()

	var data VariantData
	m.Encode(&data)

	v, err := DecodeVariant(&data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	out, ok := v.Value().(*Map)
	if !ok {
		t.Fatalf("decoded payload has type %q", v.TypeName())
	}
	defer out.Release()

	if out.ElementDtype != DTFloat64 || out.MaxSize != 16 {
		t.Fatalf("metadata lost in round trip: dtype=%s max=%d", out.ElementDtype, out.MaxSize)
	}
	if !out.ElementShape.Equal(MakeShape(UnknownDim)) {
		t.Fatalf("shape lost in round trip: %s", out.ElementShape)
	}
	if out.Len() != m.Len() {
		t.Fatalf("entry count lost in round trip: %d != %d", out.Len(), m.Len())
	}

	// Set-equal, not sequence-equal: compare entry by entry through
	// lookups.
	for _, kt := range m.Keys() {
		k := KeyOf(kt)
		got, ok := out.Find(k)
		if !ok {
			t.Fatalf("round trip lost key %s", k)
		}
		if !got.Equal(m.Lookup(k)) {
			t.Fatalf("round trip changed value for key %s", k)
		}
	}

	// The decoded map has independent storage.
	out.Erase(KeyOf(ScalarOf(int32(1))))
	if m.Len() != 2 {
		t.Fatal("decoded map must not alias the source storage")
	}
	if !out.RefCountIsOne() {
		t.Fatal("decoded map should exclusively own its storage")
	}
}

func TestDecodeUnknownTypeName(t *testing.T) {
	data := VariantData{TypeName: "tmap::Nope"}
	if _, err := DecodeVariant(&data); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
}

func TestDecodeWrongTypeName(t *testing.T) {
	var m Map
	data := VariantData{TypeName: "tmap::Nope"}
	if err := m.Decode(&data); !errors.Is(err, ErrWrongType) {
		t.Fatalf("expected ErrWrongType, got %v", err)
	}
}

func TestDecodeMalformedPayloads(t *testing.T) {
	m := buildTestMap()
	defer m.Release()

	var good VariantData
	m.Encode(&good)

	cases := map[string]VariantData{
		"empty metadata": {
			TypeName: MapTypeName,
		},
		"truncated metadata": {
			TypeName: MapTypeName,
			Metadata: good.Metadata[:len(good.Metadata)-4],
			Tensors:  good.Tensors,
		},
		"odd tensor list": {
			TypeName: MapTypeName,
			Metadata: good.Metadata,
			Tensors:  good.Tensors[:3],
		},
		"count mismatch": {
			TypeName: MapTypeName,
			Metadata: good.Metadata,
			Tensors:  good.Tensors[:2],
		},
		"duplicate key": {
			TypeName: MapTypeName,
			Metadata: good.Metadata,
			Tensors: []Tensor{
				good.Tensors[0], good.Tensors[1],
				good.Tensors[0], good.Tensors[1],
			},
		},
	}

	for name, data := range cases {
		if _, err := DecodeVariant(&data); !errors.Is(err, ErrMalformedPayload) {
			t.Fatalf("%s: expected ErrMalformedPayload, got %v", name, err)
		}
	}
}

func TestDecodeFailureLeavesDestinationUntouched(t *testing.T) {
	dst := New()
	defer dst.Release()
	dst.MaxSize = 7
	k := KeyOf(ScalarOf(int32(1)))
	dst.Insert(k, ScalarOf(int32(10)))

	bad := VariantData{TypeName: MapTypeName, Metadata: []byte{0xFF}}
	if err := dst.Decode(&bad); err == nil {
		t.Fatal("malformed payload should fail to decode")
	}

	if dst.MaxSize != 7 {
		t.Fatal("failed decode must not touch metadata")
	}
	if _, ok := dst.Find(k); !ok || dst.Len() != 1 {
		t.Fatal("failed decode must not touch the entry set")
	}
}

func TestRegisterVariantDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("duplicate registration should panic")
		}
	}()
	RegisterVariant(MapTypeName, func() VariantValue {
		m := New()
		return &m
	})
}

func TestVariantDebugRender(t *testing.T) {
	var empty Variant
	if empty.String() != "Variant<empty>" {
		t.Fatalf("unexpected rendering %q", empty.String())
	}

	m := buildTestMap()
	v := VariantOf(&m)
	defer m.Release()

	if v.TypeName() != MapTypeName {
		t.Fatalf("unexpected type name %q", v.TypeName())
	}
	if v.String() == "" || v.String() == "Variant<empty>" {
		t.Fatalf("unexpected rendering %q", v.String())
	}
}
