package cron

import (
	"context"
	"testing"
	"time"
)

type fakeRedis struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, exists := f.values[key]; exists {
		return false, nil
	}
	f.values[key] = value.(string)
	f.ttls[key] = ttl
	return true, nil
}

func (f *fakeRedis) Get(ctx context.Context, key string) (string, error) {
	return f.values[key], nil
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func TestRedisLockAcquireRelease(t *testing.T) {
	store := newFakeRedis()
	lock, err := NewRedisLock(store, "kadai:lock:cron-worker", time.Hour)
	if err != nil {
		t.Fatalf("NewRedisLock: %v", err)
	}

	ok, err := lock.Acquire(context.Background())
	if err != nil || !ok {
		t.Fatalf("Acquire = %v, %v", ok, err)
	}
	if store.ttls["kadai:lock:cron-worker"] != time.Hour {
		t.Errorf("ttl = %v", store.ttls["kadai:lock:cron-worker"])
	}

	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, exists := store.values["kadai:lock:cron-worker"]; exists {
		t.Errorf("lock key still present after release")
	}
}

func TestRedisLockContention(t *testing.T) {
	store := newFakeRedis()
	first, _ := NewRedisLock(store, "kadai:lock:cron-worker", time.Hour)
	second, _ := NewRedisLock(store, "kadai:lock:cron-worker", time.Hour)

	if ok, _ := first.Acquire(context.Background()); !ok {
		t.Fatalf("first acquire should succeed")
	}
	if ok, _ := second.Acquire(context.Background()); ok {
		t.Fatalf("second acquire must fail while the first holds the lock")
	}

	// A loser releasing must not free the winner's lock.
	if err := second.Release(context.Background()); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, exists := store.values["kadai:lock:cron-worker"]; !exists {
		t.Errorf("winner's lock was freed by the loser")
	}
}

func TestRedisLockReleaseSkipsForeignOwner(t *testing.T) {
	store := newFakeRedis()
	lock, _ := NewRedisLock(store, "kadai:lock:cron-worker", time.Hour)

	if ok, _ := lock.Acquire(context.Background()); !ok {
		t.Fatalf("acquire failed")
	}
	// Simulate the TTL expiring and another worker taking over.
	store.values["kadai:lock:cron-worker"] = "someone-else"

	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if store.values["kadai:lock:cron-worker"] != "someone-else" {
		t.Errorf("release must leave a foreign owner's lock alone")
	}
}
