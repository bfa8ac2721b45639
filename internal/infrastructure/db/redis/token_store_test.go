package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/smartretail/storefront/internal/core/domain"
)

func newTestStore(t *testing.T, ttl time.Duration) (*TokenStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return NewTokenStore(rdb, "sf", "auth_token", ttl), mr
}

func TestTokenStore_SaveLoadClear(t *testing.T) {
	store, mr := newTestStore(t, 0)
	ctx := context.Background()

	if _, err := store.Load(ctx); !errors.Is(err, domain.ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
	if err := store.Save(ctx, "abc"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got, _ := mr.Get("sf:token:auth_token"); got != "abc" {
		t.Fatalf("unexpected raw value %q", got)
	}
	token, err := store.Load(ctx)
	if err != nil || token != "abc" {
		t.Fatalf("Load = %q, %v", token, err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("second Clear should be a no-op, got %v", err)
	}
	if _, err := store.Load(ctx); !errors.Is(err, domain.ErrNoToken) {
		t.Fatalf("expected ErrNoToken after Clear, got %v", err)
	}
}

func TestTokenStore_TTL(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)
	ctx := context.Background()

	if err := store.Save(ctx, "abc"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if ttl := mr.TTL("sf:token:auth_token"); ttl != time.Minute {
		t.Fatalf("expected 1m TTL, got %v", ttl)
	}
	mr.FastForward(2 * time.Minute)
	if _, err := store.Load(ctx); !errors.Is(err, domain.ErrNoToken) {
		t.Fatalf("expected expiry, got %v", err)
	}
}

func TestTokenStore_Unavailable(t *testing.T) {
	store, mr := newTestStore(t, 0)
	mr.Close()

	_, err := store.Load(context.Background())
	if err == nil || errors.Is(err, domain.ErrNoToken) {
		t.Fatalf("expected connection error, got %v", err)
	}
}
