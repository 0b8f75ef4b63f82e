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

// The ring algorithm is a reduced version of
// https://github.com/puzpuzpuz/xsync/blob/main/mpmcqueueof.go
// Licensed under Apache-2.0 Copyright 2025 Andrei Pechkurov

package tmap

import (
	"sync/atomic"
	"unsafe"
)

// defaultPoolCapacity bounds how many retired storage blocks are kept
// for reuse. Beyond it, released blocks are left to the GC.
const defaultPoolCapacity = 256

// storagePool is a bounded multi-producer multi-consumer free list of
// storage blocks. Dataflow loops churn through short-lived maps; the
// pool lets a fresh handle reuse the entry table of a block whose
// refcount just hit zero instead of allocating a new one.
//
// A storagePool must not be copied after first use.
type storagePool struct {
	cap  uint64
	head atomic.Uint64
	//lint:ignore U1000 prevents false sharing
	hpad [cacheLineSize - unsafe.Sizeof(atomic.Uint64{})]byte
	tail atomic.Uint64
	//lint:ignore U1000 prevents false sharing
	tpad  [cacheLineSize - unsafe.Sizeof(atomic.Uint64{})]byte
	slots []poolSlotPadded
}

type poolSlotPadded struct {
	poolSlot
	//lint:ignore U1000 prevents false sharing
	pad [cacheLineSize - unsafe.Sizeof(poolSlot{})]byte
}

type poolSlot struct {
	turn atomic.Uint64
	item *storage
}

func newStoragePool(cap int) *storagePool {
	if cap < 1 {
		panic("tmap: pool capacity must be positive")
	}
	return &storagePool{
		cap:   uint64(cap),
		slots: make([]poolSlotPadded, cap),
	}
}

// TryPut offers a retired block to the pool. Does not block; returns
// false when the pool is full and the block should be dropped.
func (p *storagePool) TryPut(s *storage) bool {
	head := p.head.Load()
	slot := &p.slots[head%p.cap]
	turn := (head / p.cap) * 2
	if slot.turn.Load() == turn {
		if p.head.CompareAndSwap(head, head+1) {
			slot.item = s
			slot.turn.Store(turn + 1)
			return true
		}
	}
	return false
}

// TryGet retrieves a recycled block. Does not block; ok is false when
// the pool is empty.
func (p *storagePool) TryGet() (s *storage, ok bool) {
	tail := p.tail.Load()
	slot := &p.slots[tail%p.cap]
	turn := (tail/p.cap)*2 + 1
	if slot.turn.Load() == turn {
		if p.tail.CompareAndSwap(tail, tail+1) {
			s = slot.item
			slot.item = nil
			slot.turn.Store(turn + 1)
			return s, true
		}
	}
	return nil, false
}

// Drain empties the pool, dropping every retained block.
func (p *storagePool) Drain() {
	for {
		if _, ok := p.TryGet(); !ok {
			return
		}
	}
}
