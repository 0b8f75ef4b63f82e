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
	"sync"
	"testing"
)

func freshStorage() *storage {
	return &storage{entries: make(map[uint64][]mapEntry)}
}

func TestPoolPutGetOrder(t *testing.T) {
	p := newStoragePool(4)

	s1, s2 := freshStorage(), freshStorage()
	if !p.TryPut(s1) || !p.TryPut(s2) {
		t.Fatal("puts into an empty pool should succeed")
	}

	got, ok := p.TryGet()
	if !ok || got != s1 {
		t.Fatal("pool should hand back the oldest block first")
	}
	got, ok = p.TryGet()
	if !ok || got != s2 {
		t.Fatal("pool lost a block")
	}
	if _, ok := p.TryGet(); ok {
		t.Fatal("empty pool should report no blocks")
	}
}

func TestPoolCapacityBound(t *testing.T) {
	p := newStoragePool(2)

	if !p.TryPut(freshStorage()) || !p.TryPut(freshStorage()) {
		t.Fatal("puts up to capacity should succeed")
	}
	if p.TryPut(freshStorage()) {
		t.Fatal("put beyond capacity should be rejected")
	}

	p.Drain()
	if _, ok := p.TryGet(); ok {
		t.Fatal("drained pool should be empty")
	}
}

func TestPoolConcurrentChurn(t *testing.T) {
	p := newStoragePool(64)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				if s, ok := p.TryGet(); ok {
					p.TryPut(s)
				} else {
					p.TryPut(freshStorage())
				}
			}
		}()
	}
	wg.Wait()

	// Every block still in the pool must come back out intact.
	for {
		s, ok := p.TryGet()
		if !ok {
			break
		}
		if s == nil || s.entries == nil {
			t.Fatal("pool corrupted a block")
		}
	}
}
