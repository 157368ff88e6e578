package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type mockCmdable struct {
	values map[string]string
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{values: map[string]string{}}
}

func (m *mockCmdable) Ping(ctx context.Context) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("PONG")
	return cmd
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	switch v := value.(type) {
	case string:
		m.values[key] = v
	case []byte:
		m.values[key] = string(v)
	}
	cmd.SetVal("OK")
	return cmd
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	if val, ok := m.values[key]; ok {
		cmd.SetVal(val)
	} else {
		cmd.SetErr(redis.Nil)
	}
	return cmd
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	var removed int64
	for _, key := range keys {
		if _, ok := m.values[key]; ok {
			delete(m.values, key)
			removed++
		}
	}
	cmd.SetVal(removed)
	return cmd
}

func TestVariantKeyNamespacing(t *testing.T) {
	client := &Client{store: newMockCmdable()}
	key := client.VariantKey("acme.myshopify.com", "sku", "ABC-1")
	if key != "poi:variant:acme.myshopify.com:sku:abc-1" {
		t.Fatalf("unexpected key %q", key)
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}

	key := client.VariantKey("acme.myshopify.com", "sku", "ABC-1")
	if err := client.Set(ctx, key, `{"id":"gid://shopify/ProductVariant/1"}`, time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	val, err := client.Get(ctx, key)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if val == "" {
		t.Fatal("expected cached value")
	}

	if _, err := client.Get(ctx, "poi:variant:missing"); !IsMiss(err) {
		t.Fatalf("expected cache miss, got %v", err)
	}
}
