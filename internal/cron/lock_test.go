package cron

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type memoryStore struct {
	values map[string]string
	ttl    time.Duration
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	m.ttl = ttl
	return true, nil
}

func (m *memoryStore) CompareAndDelete(_ context.Context, key, token string) (bool, error) {
	if v, ok := m.values[key]; !ok || v != token {
		return false, nil
	}
	delete(m.values, key)
	return true, nil
}

func (m *memoryStore) CompareAndExpire(_ context.Context, key, token string, ttl time.Duration) (bool, error) {
	if v, ok := m.values[key]; !ok || v != token {
		return false, nil
	}
	m.ttl = ttl
	return true, nil
}

func TestRedisLockIsExclusive(t *testing.T) {
	ctx := context.Background()
	store := &memoryStore{values: map[string]string{}}
	first, err := NewRedisLock(store, "lock:billing", 0)
	if err != nil {
		t.Fatalf("NewRedisLock: %v", err)
	}
	second, _ := NewRedisLock(store, "lock:billing", time.Minute)

	if ok, err := first.Acquire(ctx); err != nil || !ok {
		t.Fatalf("first acquire ok=%v err=%v", ok, err)
	}
	if store.ttl != defaultLockTTL {
		t.Fatalf("expected default ttl, got %s", store.ttl)
	}
	if ok, _ := first.Acquire(ctx); ok {
		t.Fatal("acquire must not be reentrant")
	}
	if ok, _ := second.Acquire(ctx); ok {
		t.Fatal("second lock must not acquire while held")
	}
	if err := second.Release(ctx); err != nil {
		t.Fatalf("non-owner release: %v", err)
	}
	if _, held := store.values["lock:billing"]; !held {
		t.Fatal("non-owner release removed the lock")
	}
	if err := first.Release(ctx); err != nil {
		t.Fatalf("owner release: %v", err)
	}
	if ok, _ := second.Acquire(ctx); !ok {
		t.Fatal("expected lock available after release")
	}
}

func TestRedisLockReportsLostLease(t *testing.T) {
	ctx := context.Background()
	store := &memoryStore{values: map[string]string{}}
	lock, _ := NewRedisLock(store, "lock:billing", time.Minute)
	if ok, _ := lock.Acquire(ctx); !ok {
		t.Fatal("expected acquire")
	}
	delete(store.values, "lock:billing")
	if err := lock.Release(ctx); !errors.Is(err, ErrLockLost) {
		t.Fatalf("expected ErrLockLost for an expired lease, got %v", err)
	}

	if ok, _ := lock.Acquire(ctx); !ok {
		t.Fatal("expected acquire after release")
	}
	store.values["lock:billing"] = "other-worker:token"
	if err := lock.Release(ctx); !errors.Is(err, ErrLockLost) {
		t.Fatalf("expected ErrLockLost after takeover, got %v", err)
	}
	if store.values["lock:billing"] != "other-worker:token" {
		t.Fatal("release must not delete another owner's lease")
	}
}

func TestRedisLockExtend(t *testing.T) {
	ctx := context.Background()
	store := &memoryStore{values: map[string]string{}}
	lock, _ := NewRedisLock(store, "lock:billing", time.Minute)
	if err := lock.Extend(ctx); !errors.Is(err, ErrLockLost) {
		t.Fatalf("extend without a lease: %v", err)
	}
	if ok, _ := lock.Acquire(ctx); !ok {
		t.Fatal("expected acquire")
	}
	store.ttl = 0
	if err := lock.Extend(ctx); err != nil || store.ttl != time.Minute {
		t.Fatalf("extend err=%v ttl=%s", err, store.ttl)
	}

	store.values["lock:billing"] = "other-worker:token"
	if err := lock.Extend(ctx); !errors.Is(err, ErrLockLost) {
		t.Fatalf("expected ErrLockLost after takeover, got %v", err)
	}
	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release after a lost extend is a no-op, got %v", err)
	}
}

func TestRedisLockTokenNamesInstance(t *testing.T) {
	t.Setenv("HOSTEL_INSTANCE_ID", "billing-7")
	store := &memoryStore{values: map[string]string{}}
	lock, _ := NewRedisLock(store, "lock:billing", time.Minute)
	if ok, _ := lock.Acquire(context.Background()); !ok {
		t.Fatal("expected acquire")
	}
	if !strings.HasPrefix(store.values["lock:billing"], "billing-7:") {
		t.Fatalf("unexpected token %q", store.values["lock:billing"])
	}
}

func TestNewRedisLockValidates(t *testing.T) {
	store := &memoryStore{values: map[string]string{}}
	if _, err := NewRedisLock(nil, "k", 0); err == nil {
		t.Fatal("expected error without client")
	}
	if _, err := NewRedisLock(store, "", 0); err == nil {
		t.Fatal("expected error without key")
	}
}
