// Homeval - Vietnamese Residential Property Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeval

package cache

import (
	"sync"
	"testing"
	"time"
)

func TestSetGet(t *testing.T) {
	c := New(time.Minute)

	c.Set("k", 42)
	got, ok := c.Get("k")
	if !ok {
		t.Fatal("expected hit")
	}
	if got.(int) != 42 {
		t.Errorf("got %v", got)
	}

	if _, ok := c.Get("absent"); ok {
		t.Error("expected miss for absent key")
	}
}

func TestExpiry(t *testing.T) {
	c := New(10 * time.Millisecond)

	c.Set("k", "v")
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("expected expired entry to miss")
	}

	stats := c.Snapshot()
	if stats.Evictions != 1 {
		t.Errorf("evictions = %d, want 1", stats.Evictions)
	}
}

func TestKeyDeterministicAndDistinct(t *testing.T) {
	a := Key("model", "bán nhà 80m2")
	b := Key("model", "bán nhà 80m2")
	if a != b {
		t.Error("same parts should give the same key")
	}
	if Key("model", "x") == Key("model", "y") {
		t.Error("different parts should give different keys")
	}
	// Separator prevents boundary ambiguity.
	if Key("ab", "c") == Key("a", "bc") {
		t.Error("part boundaries must be significant")
	}
}

func TestStats(t *testing.T) {
	c := New(time.Minute)

	c.Set("k", 1)
	c.Get("k")
	c.Get("k")
	c.Get("miss")

	stats := c.Snapshot()
	if stats.Hits != 2 || stats.Misses != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.Keys != 1 {
		t.Errorf("keys = %d, want 1", stats.Keys)
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New(time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := Key("worker", string(rune('a'+n)))
			for j := 0; j < 100; j++ {
				c.Set(key, j)
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()

	if c.Len() != 8 {
		t.Errorf("len = %d, want 8", c.Len())
	}
}
