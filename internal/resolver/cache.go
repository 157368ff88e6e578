package resolver

import (
	"context"
	"encoding/json"
	"time"

	"github.com/orderstack/po-ingest/pkg/logger"
	"github.com/orderstack/po-ingest/pkg/redis"
	"github.com/orderstack/po-ingest/pkg/shopify"
)

// VariantCache keeps recent catalog lookups in Redis so a re-parsed document
// does not hammer the Admin API. Every failure degrades to a miss; the
// resolver must never depend on the cache being up.
type VariantCache struct {
	client     *redis.Client
	shopDomain string
	ttl        time.Duration
	log        *logger.Logger
}

func NewVariantCache(client *redis.Client, shopDomain string, ttl time.Duration, logg *logger.Logger) *VariantCache {
	return &VariantCache{
		client:     client,
		shopDomain: shopDomain,
		ttl:        ttl,
		log:        logg,
	}
}

func (c *VariantCache) Get(ctx context.Context, kind, value string) (*shopify.ProductVariant, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, c.client.VariantKey(c.shopDomain, kind, value))
	if err != nil {
		if !redis.IsMiss(err) && c.log != nil {
			c.log.Warn(ctx, "variant cache read failed: "+err.Error())
		}
		return nil, false
	}
	var variant shopify.ProductVariant
	if err := json.Unmarshal([]byte(raw), &variant); err != nil {
		return nil, false
	}
	return &variant, true
}

func (c *VariantCache) Put(ctx context.Context, kind, value string, variant *shopify.ProductVariant) {
	if c == nil || c.client == nil || variant == nil {
		return
	}
	payload, err := json.Marshal(variant)
	if err != nil {
		return
	}
	key := c.client.VariantKey(c.shopDomain, kind, value)
	if err := c.client.Set(ctx, key, string(payload), c.ttl); err != nil && c.log != nil {
		c.log.Warn(ctx, "variant cache write failed: "+err.Error())
	}
}
