package repository

import "context"

// Logical record keys held in the key/value store.
const (
	KeyQuotaState = "quota_state"
	KeyAccounts   = "accounts"
)

// KeyValueStore is an opaque persisted key/value store. Get returns
// ErrNotFound for a missing key.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}
