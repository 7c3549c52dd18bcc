package httpmiddleware

import (
	"testing"
	"time"
)

func TestTokenBucketExhaustsAndRefills(t *testing.T) {
	l := NewTokenBucket(2, 60) // one token per second
	now := time.Now()

	if !l.allow("1.2.3.4", now) || !l.allow("1.2.3.4", now) {
		t.Fatal("initial capacity not granted")
	}
	if l.allow("1.2.3.4", now) {
		t.Fatal("exhausted bucket still allowed")
	}

	// Other clients have their own buckets.
	if !l.allow("5.6.7.8", now) {
		t.Fatal("separate client blocked")
	}

	if !l.allow("1.2.3.4", now.Add(2*time.Second)) {
		t.Fatal("bucket did not refill over time")
	}
}

func TestTokenBucketCapacityFallback(t *testing.T) {
	l := NewTokenBucket(0, 30)
	if l.capacity != 30 {
		t.Fatalf("capacity = %d, want 30", l.capacity)
	}
}
