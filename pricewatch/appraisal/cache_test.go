package appraisal

import (
	"testing"
	"time"
)

func TestResultCache_TTL(t *testing.T) {
	cache, err := NewResultCache(8, 5*time.Minute, testLogger())
	if err != nil {
		t.Fatalf("NewResultCache() error = %v", err)
	}

	current := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return current }

	value := ResolvedValue{AmountUSD: 30, AmountJPY: 4500, Rate: 150}
	cache.Put("pikachu", value)

	got, ok := cache.Get("pikachu")
	if !ok || got != value {
		t.Fatalf("Get() = %v, %v, want fresh hit", got, ok)
	}

	current = current.Add(4 * time.Minute)
	if _, ok := cache.Get("pikachu"); !ok {
		t.Error("Get() missed inside the TTL window")
	}

	current = current.Add(2 * time.Minute)
	if _, ok := cache.Get("pikachu"); ok {
		t.Error("Get() hit past the TTL window, want expiry")
	}
	if cache.Len() != 0 {
		t.Errorf("Len() = %d after expiry, want 0", cache.Len())
	}
}

func TestResultCache_evictsBySize(t *testing.T) {
	cache, err := NewResultCache(2, time.Hour, testLogger())
	if err != nil {
		t.Fatalf("NewResultCache() error = %v", err)
	}

	cache.Put("a", ResolvedValue{AmountJPY: 1})
	cache.Put("b", ResolvedValue{AmountJPY: 2})
	cache.Put("c", ResolvedValue{AmountJPY: 3})

	if _, ok := cache.Get("a"); ok {
		t.Error("Get(a) hit, want LRU eviction of the oldest entry")
	}
	if _, ok := cache.Get("c"); !ok {
		t.Error("Get(c) missed, want newest entry retained")
	}
}
