package cache

import "time"

// BytesCache stores rendered API responses as raw bytes with a TTL. Query
// endpoints serve repeat requests from here instead of re-reading storage.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}
