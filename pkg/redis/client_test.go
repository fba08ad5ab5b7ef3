package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakeStore struct {
	values  map[string]string
	expires map[string]time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: map[string]string{}, expires: map[string]time.Duration{}}
}

func (f *fakeStore) Ping(ctx context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeStore) Set(ctx context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	f.values[key] = valueString(value)
	f.expires[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeStore) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) *redis.BoolCmd {
	if _, ok := f.values[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.values[key] = valueString(value)
	f.expires[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (f *fakeStore) Incr(ctx context.Context, key string) *redis.IntCmd {
	current := int64(0)
	if v, ok := f.values[key]; ok {
		for _, ch := range v {
			current = current*10 + int64(ch-'0')
		}
	}
	current++
	f.values[key] = intString(current)
	return redis.NewIntResult(current, nil)
}

func (f *fakeStore) Expire(ctx context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	f.expires[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (f *fakeStore) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var removed int64
	for _, key := range keys {
		if _, ok := f.values[key]; ok {
			delete(f.values, key)
			removed++
		}
	}
	return redis.NewIntResult(removed, nil)
}

func (f *fakeStore) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	var found int64
	for _, key := range keys {
		if _, ok := f.values[key]; ok {
			found++
		}
	}
	return redis.NewIntResult(found, nil)
}

func valueString(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return "1"
}

func intString(v int64) string {
	if v == 0 {
		return "0"
	}
	digits := []byte{}
	for v > 0 {
		digits = append([]byte{byte('0' + v%10)}, digits...)
		v /= 10
	}
	return string(digits)
}

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newFakeStore()}

	for i := 0; i < 3; i++ {
		allowed, count, err := client.FixedWindowAllow(ctx, "login:1.2.3.4", 3, time.Minute)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
		if count != int64(i+1) {
			t.Fatalf("expected count %d, got %d", i+1, count)
		}
	}

	allowed, _, err := client.FixedWindowAllow(ctx, "login:1.2.3.4", 3, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Fatal("fourth request should be rejected")
	}
}

func TestPortalSessionKeyNamespacing(t *testing.T) {
	client := &Client{store: newFakeStore()}
	key := client.PortalSessionKey("tenant-1", "aa:bb:cc")
	if key != "hsb:portal:tenant-1:aa:bb:cc" {
		t.Fatalf("unexpected key %q", key)
	}
}

func TestExistsAfterSetAndDel(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newFakeStore()}

	key := client.PortalSessionKey("tenant-1", "station-9")
	if err := client.Set(ctx, key, "granted", time.Hour); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	ok, err := client.Exists(ctx, key)
	if err != nil || !ok {
		t.Fatalf("expected key to exist, ok=%v err=%v", ok, err)
	}
	if err := client.Del(ctx, key); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	ok, err = client.Exists(ctx, key)
	if err != nil || ok {
		t.Fatalf("expected key to be gone, ok=%v err=%v", ok, err)
	}
}
