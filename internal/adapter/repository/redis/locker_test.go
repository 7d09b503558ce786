package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iho/cardledger/internal/domain"
)

func TestLockerLockAndUnlock(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()

	locker := NewLocker(client)
	ctx := context.Background()

	token, err := locker.Lock(ctx, "series:g1", time.Minute)
	if err != nil {
		t.Fatalf("lock failed: %v", err)
	}
	if token == "" {
		t.Fatalf("expected a token")
	}

	if !mr.Exists(locker.prefix + "series:g1") {
		t.Fatalf("expected lock key to exist")
	}
	requireTTL(t, mr, locker.prefix+"series:g1", time.Minute)

	if err := locker.Unlock(ctx, "series:g1", token); err != nil {
		t.Fatalf("unlock failed: %v", err)
	}
	if mr.Exists(locker.prefix + "series:g1") {
		t.Fatalf("expected lock key to be removed")
	}
}

func TestLockerConflict(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()

	locker := NewLocker(client)
	ctx := context.Background()

	if _, err := locker.Lock(ctx, "invoice:card-1:2024-03", time.Minute); err != nil {
		t.Fatalf("first lock failed: %v", err)
	}

	_, err := locker.Lock(ctx, "invoice:card-1:2024-03", time.Minute)
	if !errors.Is(err, domain.ErrMutationInFlight) {
		t.Fatalf("expected ErrMutationInFlight, got %v", err)
	}

	// other keys are independent
	if _, err := locker.Lock(ctx, "invoice:card-1:2024-04", time.Minute); err != nil {
		t.Fatalf("unrelated lock failed: %v", err)
	}
}

func TestLockerUnlockWithStaleToken(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()

	locker := NewLocker(client)
	ctx := context.Background()

	if _, err := locker.Lock(ctx, "series:g1", time.Second); err != nil {
		t.Fatalf("lock failed: %v", err)
	}
	mr.FastForward(2 * time.Second)

	token, err := locker.Lock(ctx, "series:g1", time.Minute)
	if err != nil {
		t.Fatalf("lock after expiry failed: %v", err)
	}

	if err := locker.Unlock(ctx, "series:g1", "stale"); !errors.Is(err, ErrLockNotHeld) {
		t.Fatalf("expected ErrLockNotHeld, got %v", err)
	}
	if err := locker.Unlock(ctx, "series:g1", token); err != nil {
		t.Fatalf("unlock with live token failed: %v", err)
	}
}
