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

package tmap_test

import (
	"bytes"
	"encoding/gob"
	"path"
	"testing"

	"github.com/graphflow/tmap"
)

func TestSaveAndLoad(t *testing.T) {
	savePath := path.Join(t.TempDir(), "map.variant")

	m := tmap.New()
	defer m.Release()
	m.ElementDtype = tmap.DTInt64
	k := tmap.KeyOf(tmap.ScalarOf(int32(1)))
	v := tmap.VectorOf(int64(10), 20, 30)
	m.Insert(k, v)

	if err := tmap.SaveToFile(savePath, tmap.VariantOf(&m)); err != nil {
		t.Fatalf("failed to save variant to file: %v", err)
	}

	loaded, err := tmap.LoadFromFile(savePath)
	if err != nil {
		t.Fatalf("failed to load variant from file: %v", err)
	}

	out, ok := loaded.Value().(*tmap.Map)
	if !ok {
		t.Fatalf("loaded payload has type %q", loaded.TypeName())
	}
	defer out.Release()

	if out.ElementDtype != tmap.DTInt64 {
		t.Fatalf("metadata corrupted on disk: dtype = %s", out.ElementDtype)
	}
	got, found := out.Find(k)
	if !found {
		t.Fatal("serialized file lost the entry")
	}
	if !got.Equal(v) {
		t.Fatalf("serialized file corrupted the value: %s", got.DebugString())
	}
}

func TestWriteReadVariantStream(t *testing.T) {
	m := tmap.New()
	defer m.Release()
	m.Insert(tmap.KeyOf(tmap.ScalarOf(true)), tmap.ScalarOf(2.5))

	var buf bytes.Buffer
	if err := tmap.WriteVariant(&buf, tmap.VariantOf(&m)); err != nil {
		t.Fatalf("failed to write variant: %v", err)
	}

	v, err := tmap.ReadVariant(&buf)
	if err != nil {
		t.Fatalf("failed to read variant: %v", err)
	}
	out := v.Value().(*tmap.Map)
	defer out.Release()

	if out.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", out.Len())
	}
}

func TestReadVariantRejectsUnknownHeader(t *testing.T) {
	var buf bytes.Buffer
	e := gob.NewEncoder(&buf)
	if err := e.Encode("tmap-variant-99.0.0"); err != nil {
		t.Fatalf("failed to build test stream: %v", err)
	}

	if _, err := tmap.ReadVariant(&buf); err == nil {
		t.Fatal("unsupported version header should be rejected")
	}
}

func TestReadVariantRejectsGarbage(t *testing.T) {
	if _, err := tmap.ReadVariant(bytes.NewReader([]byte("not a variant"))); err == nil {
		t.Fatal("garbage input should be rejected")
	}
}
