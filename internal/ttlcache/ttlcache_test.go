package ttlcache

import (
	"testing"
	"time"
)

func TestGetPutExpiry(t *testing.T) {
	now := time.Unix(1000, 0)
	clock := func() time.Time { return now }
	c := New[string, int](2, 5*time.Second, clock)

	if err := c.Put("a", 1); err != nil {
		t.Fatal(err)
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("got %v,%v want 1,true", v, ok)
	}

	now = now.Add(6 * time.Second)
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected entry to have expired")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry should be evicted by Get, len=%d", c.Len())
	}
}

func TestPutRefreshesTTL(t *testing.T) {
	now := time.Unix(0, 0)
	clock := func() time.Time { return now }
	c := New[string, int](1, 10*time.Second, clock)
	c.Put("a", 1)
	now = now.Add(8 * time.Second)
	c.Put("a", 2) // refresh
	now = now.Add(8 * time.Second)
	v, ok := c.Get("a")
	if !ok || v != 2 {
		t.Fatalf("expected refreshed entry to survive, got %v,%v", v, ok)
	}
}

func TestPutReturnsErrFullAtCapacity(t *testing.T) {
	now := time.Unix(0, 0)
	clock := func() time.Time { return now }
	c := New[int, int](1, time.Second, clock)
	if err := c.Put(1, 1); err != nil {
		t.Fatal(err)
	}
	if err := c.Put(2, 2); err != ErrFull {
		t.Fatalf("got %v want ErrFull", err)
	}
}

func TestPutReclaimsExpiredSlot(t *testing.T) {
	now := time.Unix(0, 0)
	clock := func() time.Time { return now }
	c := New[int, int](1, time.Second, clock)
	c.Put(1, 1)
	now = now.Add(2 * time.Second)
	if err := c.Put(2, 2); err != nil {
		t.Fatalf("expected expired slot to be reclaimed, got %v", err)
	}
	if v, ok := c.Get(2); !ok || v != 2 {
		t.Fatalf("got %v,%v want 2,true", v, ok)
	}
}

func TestEvictExpiredCount(t *testing.T) {
	now := time.Unix(0, 0)
	clock := func() time.Time { return now }
	c := New[int, int](4, time.Second, clock)
	c.Put(1, 1)
	c.Put(2, 2)
	now = now.Add(2 * time.Second)
	c.Put(3, 3)
	if n := c.EvictExpired(); n != 2 {
		t.Fatalf("got %d expired want 2", n)
	}
	if c.Len() != 1 {
		t.Fatalf("got len %d want 1", c.Len())
	}
}
