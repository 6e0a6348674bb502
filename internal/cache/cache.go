// Package cache provides a TTL byte cache for rendered API responses. The
// dashboard pipeline hits the indexer and the database per wallet, so hot
// responses are cached for a short window keyed by endpoint and query.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Store is the cache contract. A miss is (nil, false, nil); errors are
// reserved for backend failures.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// ResponseKey builds a stable cache key from an endpoint name and its query
// parts. Wallet lists can be long, so the parts are hashed.
func ResponseKey(endpoint string, parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return "smoothie:" + endpoint + ":" + hex.EncodeToString(sum[:8])
}
