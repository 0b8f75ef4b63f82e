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
	"testing"
	"time"
)

func TestSlidingTrackerEstimatesDistinctKeys(t *testing.T) {
	tracker := newSlidingTracker(map[string]TrackerWindow{
		"recent": {BucketDuration: time.Minute, BucketCount: 4},
	})

	for i := 0; i < 100; i++ {
		k := KeyOf(ScalarOf(int64(i)))
		// Repeat observations must not inflate the estimate.
		tracker.track(k.Hash())
		tracker.track(k.Hash())
	}

	stats := tracker.stats()
	estimate, ok := stats["recent"]
	if !ok {
		t.Fatal("missing configured window")
	}
	// Hyperloglog is approximate; allow a small relative error.
	if estimate < 90 || estimate > 110 {
		t.Fatalf("expected roughly 100 distinct keys, got %d", estimate)
	}
}

func TestUsageTrackerWindow(t *testing.T) {
	tracker := NewUsageTracker(map[string]TrackerWindow{
		"hot": {BucketDuration: 20 * time.Millisecond, BucketCount: 8},
	})
	defer tracker.Close()

	for i := 0; i < 32; i++ {
		tracker.Observe(KeyOf(ScalarOf(int32(i))))
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if estimate, ok := tracker.Window("hot"); ok && estimate > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("tracker never published a window estimate")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if tracker.Observed() != 32 {
		t.Fatalf("expected 32 observations, got %d", tracker.Observed())
	}
	if _, ok := tracker.Window("cold"); ok {
		t.Fatal("unknown window should not report an estimate")
	}
}
