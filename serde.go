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
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
)

const wireVersionHeader = "tmap-variant-1.0.0"

// wireVariant is the gob form of a VariantData. Tensors travel as their
// binary frames so the on-disk format does not depend on gob's struct
// encoding of Tensor internals.
type wireVariant struct {
	TypeName string
	Metadata []byte
	Tensors  [][]byte
}

// WriteVariant serializes a variant to a byte stream.
func WriteVariant(w io.Writer, v Variant) error {
	e := gob.NewEncoder(w)

	if err := e.Encode(wireVersionHeader); err != nil {
		return fmt.Errorf("failed to encode version header: %w", err)
	}

	data := v.Encode()
	wire := wireVariant{
		TypeName: data.TypeName,
		Metadata: data.Metadata,
		Tensors:  make([][]byte, len(data.Tensors)),
	}
	for i, t := range data.Tensors {
		wire.Tensors[i] = t.appendTo(nil)
	}

	if err := e.Encode(wire); err != nil {
		return fmt.Errorf("failed to encode variant: %w", err)
	}

	return nil
}

// ReadVariant deserializes a variant from a byte stream, dispatching on
// the embedded type name.
func ReadVariant(r io.Reader) (Variant, error) {
	d := gob.NewDecoder(r)

	var versionHeader string
	if err := d.Decode(&versionHeader); err != nil {
		return Variant{}, fmt.Errorf("failed to decode version header: %w", err)
	}
	if versionHeader != wireVersionHeader {
		return Variant{}, fmt.Errorf("unsupported version header: %s", versionHeader)
	}

	var wire wireVariant
	if err := d.Decode(&wire); err != nil {
		return Variant{}, fmt.Errorf("failed to decode variant: %w", err)
	}

	data := VariantData{
		TypeName: wire.TypeName,
		Metadata: wire.Metadata,
		Tensors:  make([]Tensor, len(wire.Tensors)),
	}
	for i, raw := range wire.Tensors {
		t, off, err := consumeTensor(raw, 0)
		if err != nil {
			return Variant{}, fmt.Errorf("failed to decode tensor %d: %w", i, err)
		}
		if off != len(raw) {
			return Variant{}, fmt.Errorf("failed to decode tensor %d: %w", i,
				errMalformed("trailing bytes"))
		}
		data.Tensors[i] = t
	}

	return DecodeVariant(&data)
}

// SaveToFile serializes the variant as a file at the provided path.
func SaveToFile(path string, v Variant) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		err = errors.Join(err, file.Close())
	}()

	if err := WriteVariant(file, v); err != nil {
		return fmt.Errorf("failed to serialize to file: %w", err)
	}

	return nil
}

// LoadFromFile deserializes a variant from the file at the provided
// path.
func LoadFromFile(path string) (v Variant, err error) {
	file, err := os.Open(path)
	if err != nil {
		return Variant{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		err = errors.Join(err, file.Close())
	}()

	v, err = ReadVariant(file)
	if err != nil {
		return Variant{}, fmt.Errorf("failed to deserialize from file: %w", err)
	}

	return v, nil
}
