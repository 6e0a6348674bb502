package domain

import "fmt"

// PoolAssetKey identifies a position scope: a reserve inside a lending pool,
// or the pool's backstop when AssetAddress is empty. Comparable by value, so
// it can key maps directly instead of delimiter-joined strings.
type PoolAssetKey struct {
	PoolID       string `json:"poolId"`
	AssetAddress string `json:"assetAddress,omitempty"`
}

// NewPoolAssetKey creates a key for a pool reserve position.
func NewPoolAssetKey(poolID, assetAddress string) PoolAssetKey {
	return PoolAssetKey{PoolID: poolID, AssetAddress: assetAddress}
}

// BackstopKey creates a key for a pool's backstop LP position.
func BackstopKey(poolID string) PoolAssetKey {
	return PoolAssetKey{PoolID: poolID}
}

// IsBackstop reports whether this key addresses a backstop position.
func (k PoolAssetKey) IsBackstop() bool {
	return k.AssetAddress == ""
}

func (k PoolAssetKey) String() string {
	if k.IsBackstop() {
		return fmt.Sprintf("%s:backstop", k.PoolID)
	}
	return fmt.Sprintf("%s:%s", k.PoolID, k.AssetAddress)
}
