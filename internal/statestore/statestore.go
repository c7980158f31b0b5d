// Package statestore encodes the quota state and the account list as JSON
// records in a repository.KeyValueStore.
package statestore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ganot/quotagate/internal/domain/account"
	"github.com/ganot/quotagate/internal/domain/quota"
	"github.com/ganot/quotagate/internal/repository"
)

// QuotaRepository implements quota.Repository.
type QuotaRepository struct {
	kv repository.KeyValueStore
}

// NewQuotaRepository creates a QuotaRepository over kv.
func NewQuotaRepository(kv repository.KeyValueStore) *QuotaRepository {
	return &QuotaRepository{kv: kv}
}

// Load returns the stored state or repository.ErrNotFound.
func (r *QuotaRepository) Load(ctx context.Context) (*quota.State, error) {
	var state quota.State
	if err := load(ctx, r.kv, repository.KeyQuotaState, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Save replaces the stored state.
func (r *QuotaRepository) Save(ctx context.Context, state quota.State) error {
	return save(ctx, r.kv, repository.KeyQuotaState, state)
}

// AccountRepository implements account.Repository.
type AccountRepository struct {
	kv repository.KeyValueStore
}

// NewAccountRepository creates an AccountRepository over kv.
func NewAccountRepository(kv repository.KeyValueStore) *AccountRepository {
	return &AccountRepository{kv: kv}
}

// Load returns the stored records or repository.ErrNotFound.
func (r *AccountRepository) Load(ctx context.Context) ([]account.Record, error) {
	var records []account.Record
	if err := load(ctx, r.kv, repository.KeyAccounts, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Save replaces the stored list.
func (r *AccountRepository) Save(ctx context.Context, records []account.Record) error {
	if records == nil {
		records = []account.Record{}
	}
	return save(ctx, r.kv, repository.KeyAccounts, records)
}

func load(ctx context.Context, kv repository.KeyValueStore, key string, v any) error {
	raw, err := kv.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decoding %s: %w", key, err)
	}
	return nil
}

func save(ctx context.Context, kv repository.KeyValueStore, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := kv.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}
