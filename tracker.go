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
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/axiomhq/hyperloglog"
)

// TrackerWindow configures one sliding window of the usage tracker:
// BucketCount buckets of BucketDuration each.
type TrackerWindow struct {
	BucketDuration time.Duration
	BucketCount    int
}

// slidingTracker estimates the number of distinct keys observed inside
// each configured window using per-bucket hyperloglog sketches. Not
// safe for concurrent use; UsageTracker serializes access to it.
type slidingTracker struct {
	windows map[string]*slidingWindow
}

type slidingWindow struct {
	buckets []*trackerBucket

	bucketDuration time.Duration
	bucketCount    int
}

type trackerBucket struct {
	hll   *hyperloglog.Sketch
	start time.Time
}

func newSlidingTracker(config map[string]TrackerWindow) *slidingTracker {
	current := time.Now()
	windows := make(map[string]*slidingWindow)
	for name, window := range config {
		buckets := make([]*trackerBucket, window.BucketCount)
		for i := 0; i < window.BucketCount; i++ {
			buckets[i] = &trackerBucket{
				start: current,
				hll:   hyperloglog.New16(),
			}
		}

		windows[name] = &slidingWindow{
			buckets:        buckets,
			bucketDuration: window.BucketDuration,
			bucketCount:    window.BucketCount,
		}
	}

	return &slidingTracker{windows}
}

func (t *slidingTracker) track(hash uint64) {
	current := time.Now()
	for _, window := range t.windows {
		index := int(current.UnixNano()/int64(window.bucketDuration)) % window.bucketCount
		bucket := window.buckets[index]

		if current.Sub(bucket.start) >= window.bucketDuration {
			bucket.start = current.Truncate(window.bucketDuration)
			bucket.hll = hyperloglog.New16()
		}

		bucket.hll.InsertHash(hash)
	}
}

func (t *slidingTracker) stats() map[string]uint64 {
	current := time.Now()
	result := make(map[string]uint64)
	for name, window := range t.windows {
		merged := hyperloglog.New16()
		windowDuration := time.Duration(window.bucketCount) * window.bucketDuration
		for _, bucket := range window.buckets {
			if current.Sub(bucket.start) < windowDuration {
				merged.Merge(bucket.hll)
			}
		}

		result[name] = merged.Estimate()
	}

	return result
}

// UsageTracker estimates, per sliding window, how many distinct keys
// the dataflow engine has touched across its tensor maps. The engine
// uses the estimates to size storage reuse pools. Observations are
// non-blocking: under pressure they are dropped and counted rather than
// stalling a map operation.
type UsageTracker struct {
	seen chan uint64
	done chan struct{}

	observed, dropped atomic.Uint64

	windows sync.Map
}

// NewUsageTracker starts a tracker with the given windows. Close it to
// stop the background loop.
func NewUsageTracker(windows map[string]TrackerWindow) *UsageTracker {
	t := &UsageTracker{
		seen: make(chan uint64, 128),
		done: make(chan struct{}),
	}

	go t.loop(windows)

	return t
}

func (t *UsageTracker) loop(windows map[string]TrackerWindow) {
	minimumDuration := time.Duration(math.MaxInt64)
	for _, window := range windows {
		minimumDuration = min(window.BucketDuration, minimumDuration)
	}

	tracker := newSlidingTracker(windows)

	ticker := time.NewTicker(minimumDuration / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for window, count := range tracker.stats() {
				t.windows.Store(window, count)
			}
		case h := <-t.seen:
			tracker.track(h)
		case <-t.done:
			return
		}
	}
}

// Observe records one key access. Never blocks; the observation is
// dropped if the tracker is saturated.
func (t *UsageTracker) Observe(k Key) {
	t.ObserveHash(k.Hash())
}

// ObserveHash records an access by precomputed content hash, for
// callers that already hold one.
func (t *UsageTracker) ObserveHash(hash uint64) {
	t.observed.Add(1)
	select {
	case t.seen <- hash:
	default:
		t.dropped.Add(1)
	}
}

// Window returns the latest distinct-key estimate for the named window.
func (t *UsageTracker) Window(name string) (uint64, bool) {
	value, ok := t.windows.Load(name)
	if !ok {
		return 0, false
	}

	return value.(uint64), true
}

// Observed returns the total number of observations submitted.
func (t *UsageTracker) Observed() uint64 { return t.observed.Load() }

// Dropped returns the number of observations discarded under pressure.
func (t *UsageTracker) Dropped() uint64 { return t.dropped.Load() }

// Close stops the tracker's background loop.
func (t *UsageTracker) Close() {
	close(t.done)
}
