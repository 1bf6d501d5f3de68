package cache

import (
	"testing"
	"time"

	"triage-backend/internal/workitem/domain"
)

func TestQueryCacheGetPut(t *testing.T) {
	c := New(DefaultTTL)
	key := Key("user-1", domain.ListQuery{Limit: 20})

	if _, ok := c.Get(key); ok {
		t.Fatal("expected miss on empty cache")
	}

	items := []*domain.WorkItem{{ID: "a", UserID: "user-1"}}
	c.Put(key, items)

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("expected hit after put")
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("got %+v, want the stored items", got)
	}
}

func TestQueryCacheExpiry(t *testing.T) {
	clock := time.Date(2026, 7, 24, 12, 0, 0, 0, time.UTC)
	c := New(10 * time.Second)
	c.now = func() time.Time { return clock }

	key := Key("user-1", domain.ListQuery{Limit: 20})
	c.Put(key, []*domain.WorkItem{{ID: "a", UserID: "user-1"}})

	clock = clock.Add(9 * time.Second)
	if _, ok := c.Get(key); !ok {
		t.Fatal("expected hit before ttl")
	}

	clock = clock.Add(time.Second)
	if _, ok := c.Get(key); ok {
		t.Fatal("expected miss once ttl elapsed")
	}
}

func TestQueryCacheInvalidateUser(t *testing.T) {
	c := New(DefaultTTL)

	keyA1 := Key("user-a", domain.ListQuery{Limit: 20})
	keyA2 := Key("user-a", domain.ListQuery{Limit: 50, Offset: 10})
	keyB := Key("user-b", domain.ListQuery{Limit: 20})

	c.Put(keyA1, nil)
	c.Put(keyA2, nil)
	c.Put(keyB, nil)

	c.InvalidateUser("user-a")

	if _, ok := c.Get(keyA1); ok {
		t.Error("expected user-a entry to be invalidated")
	}
	if _, ok := c.Get(keyA2); ok {
		t.Error("expected all user-a entries to be invalidated")
	}
	if _, ok := c.Get(keyB); !ok {
		t.Error("expected user-b entry to survive")
	}
}

func TestKeyDistinguishesQueries(t *testing.T) {
	classification := "action_required"
	completed := true
	start := time.Date(2026, 7, 24, 0, 0, 0, 0, time.UTC)

	base := Key("u", domain.ListQuery{Limit: 20})
	variants := []string{
		Key("u", domain.ListQuery{Limit: 50}),
		Key("u", domain.ListQuery{Limit: 20, Offset: 20}),
		Key("u", domain.ListQuery{Limit: 20, Classification: &classification}),
		Key("u", domain.ListQuery{Limit: 20, IsCompleted: &completed}),
		Key("u", domain.ListQuery{Limit: 20, Start: &start}),
	}
	seen := map[string]bool{base: true}
	for _, v := range variants {
		if seen[v] {
			t.Errorf("key collision: %s", v)
		}
		seen[v] = true
	}
}
