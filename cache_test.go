package usercore

import (
	"context"
	"testing"
	"time"
)

func TestCacheRoundTrip(t *testing.T) {
	_, rdb := newTestRedis(t)
	c := NewCache(rdb, DefaultConfig().Cache, nil)
	ctx := context.Background()

	if _, ok := c.Get(ctx, "user:u1"); ok {
		t.Fatal("expected miss on empty cache")
	}
	if !c.Set(ctx, "user:u1", []byte(`{"user_id":"u1"}`), time.Minute) {
		t.Fatal("set failed")
	}
	val, ok := c.Get(ctx, "user:u1")
	if !ok || string(val) != `{"user_id":"u1"}` {
		t.Fatalf("round trip failed: ok=%v val=%s", ok, val)
	}
}

func TestCacheEntryExpires(t *testing.T) {
	mr, rdb := newTestRedis(t)
	c := NewCache(rdb, DefaultConfig().Cache, nil)
	ctx := context.Background()

	user := &UserRecord{UserID: "u1", Email: "a@b.com"}
	if !c.SetUser(ctx, "u1", user) {
		t.Fatal("set failed")
	}
	if _, ok := c.GetUser(ctx, "u1"); !ok {
		t.Fatal("expected hit before expiry")
	}

	mr.FastForward(DefaultConfig().Cache.DefaultTTL + time.Second)

	if _, ok := c.GetUser(ctx, "u1"); ok {
		t.Fatal("expected miss after TTL expiry")
	}
}

func TestCacheTierTTLs(t *testing.T) {
	mr, rdb := newTestRedis(t)
	cfg := DefaultConfig().Cache
	c := NewCache(rdb, cfg, nil)
	ctx := context.Background()

	c.SetPushTokens(ctx, "u1", []PushTokenRecord{{TokenID: "t1"}})
	c.SetUser(ctx, "u1", &UserRecord{UserID: "u1"})
	c.SetPreferences(ctx, "u1", &PreferenceRecord{UserID: "u1"})

	mr.FastForward(cfg.ShortTTL + time.Second)
	if _, ok := c.GetPushTokens(ctx, "u1"); ok {
		t.Fatal("short-tier entry must expire first")
	}
	if _, ok := c.GetUser(ctx, "u1"); !ok {
		t.Fatal("default-tier entry expired too early")
	}

	mr.FastForward(cfg.DefaultTTL)
	if _, ok := c.GetUser(ctx, "u1"); ok {
		t.Fatal("default-tier entry must expire before the long tier")
	}
	if _, ok := c.GetPreferences(ctx, "u1"); !ok {
		t.Fatal("long-tier entry expired too early")
	}
}

func TestCacheDeletePatternScopedToNamespace(t *testing.T) {
	_, rdb := newTestRedis(t)
	c := NewCache(rdb, DefaultConfig().Cache, nil)
	ctx := context.Background()

	c.Set(ctx, "user_profile:u1", []byte("a"), time.Minute)
	c.Set(ctx, "user_profile:u2", []byte("b"), time.Minute)
	c.Set(ctx, "user:u1", []byte("c"), time.Minute)
	c.Set(ctx, "user_preferences:u1", []byte("d"), time.Minute)

	if !c.DeletePattern(ctx, "user_profile:*") {
		t.Fatal("pattern delete failed")
	}

	if _, ok := c.Get(ctx, "user_profile:u1"); ok {
		t.Fatal("user_profile:u1 should be gone")
	}
	if _, ok := c.Get(ctx, "user_profile:u2"); ok {
		t.Fatal("user_profile:u2 should be gone")
	}
	if _, ok := c.Get(ctx, "user:u1"); !ok {
		t.Fatal("user:u1 must survive a user_profile sweep")
	}
	if _, ok := c.Get(ctx, "user_preferences:u1"); !ok {
		t.Fatal("user_preferences:u1 must survive a user_profile sweep")
	}
}

func TestInvalidateUserClearsThreeNamespaces(t *testing.T) {
	_, rdb := newTestRedis(t)
	c := NewCache(rdb, DefaultConfig().Cache, nil)
	ctx := context.Background()

	c.SetUser(ctx, "u1", &UserRecord{UserID: "u1"})
	c.SetProfile(ctx, "u1", &ProfileRecord{UserID: "u1"})
	c.SetPreferences(ctx, "u1", &PreferenceRecord{UserID: "u1"})
	c.SetPushTokens(ctx, "u1", []PushTokenRecord{{TokenID: "t1"}})

	if !c.InvalidateUser(ctx, "u1") {
		t.Fatal("invalidate failed")
	}

	if _, ok := c.GetUser(ctx, "u1"); ok {
		t.Fatal("user entry should be gone")
	}
	if _, ok := c.GetProfile(ctx, "u1"); ok {
		t.Fatal("profile entry should be gone")
	}
	if _, ok := c.GetPreferences(ctx, "u1"); ok {
		t.Fatal("preferences entry should be gone")
	}
	if _, ok := c.GetPushTokens(ctx, "u1"); !ok {
		t.Fatal("token list is not part of the per-user invalidation set")
	}
}

func TestInvalidateUserIdempotent(t *testing.T) {
	_, rdb := newTestRedis(t)
	c := NewCache(rdb, DefaultConfig().Cache, nil)
	ctx := context.Background()

	if !c.InvalidateUser(ctx, "absent") {
		t.Fatal("invalidating an uncached user must succeed")
	}
	if !c.InvalidateUser(ctx, "absent") {
		t.Fatal("repeat invalidation must succeed")
	}
}

func TestCacheFailsOpenWhenRedisDown(t *testing.T) {
	mr, rdb := newTestRedis(t)
	c := NewCache(rdb, DefaultConfig().Cache, nil)
	ctx := context.Background()
	mr.Close()

	if _, ok := c.Get(ctx, "user:u1"); ok {
		t.Fatal("read against a dead backend must report a miss")
	}
	if c.Set(ctx, "user:u1", []byte("x"), time.Minute) {
		t.Fatal("write against a dead backend must report a drop")
	}
	if c.InvalidateUser(ctx, "u1") {
		t.Fatal("invalidation against a dead backend must report failure")
	}
}

func TestCacheCorruptEntryIsAMiss(t *testing.T) {
	_, rdb := newTestRedis(t)
	c := NewCache(rdb, DefaultConfig().Cache, nil)
	ctx := context.Background()

	c.Set(ctx, "user:u1", []byte("{not json"), time.Minute)
	if _, ok := c.GetUser(ctx, "u1"); ok {
		t.Fatal("corrupt entry must read as a miss")
	}
}
