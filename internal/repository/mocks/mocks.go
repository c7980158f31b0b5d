package mocks

import (
	"context"

	"github.com/ganot/quotagate/internal/domain/account"
	"github.com/ganot/quotagate/internal/domain/activity"
	"github.com/ganot/quotagate/internal/domain/generation"
	"github.com/ganot/quotagate/internal/domain/quota"
	"github.com/stretchr/testify/mock"
)

// KeyValueStore is a mock for repository.KeyValueStore.
type KeyValueStore struct {
	mock.Mock
}

func (m *KeyValueStore) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if value, ok := args.Get(0).([]byte); ok {
		return value, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *KeyValueStore) Set(ctx context.Context, key string, value []byte) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

// QuotaRepository is a mock for quota.Repository.
type QuotaRepository struct {
	mock.Mock
}

func (m *QuotaRepository) Load(ctx context.Context) (*quota.State, error) {
	args := m.Called(ctx)
	if state, ok := args.Get(0).(*quota.State); ok {
		return state, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *QuotaRepository) Save(ctx context.Context, state quota.State) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

// AccountRepository is a mock for account.Repository.
type AccountRepository struct {
	mock.Mock
}

func (m *AccountRepository) Load(ctx context.Context) ([]account.Record, error) {
	args := m.Called(ctx)
	if records, ok := args.Get(0).([]account.Record); ok {
		return records, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AccountRepository) Save(ctx context.Context, records []account.Record) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *activity.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]activity.Entry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// ProvisioningClient is a mock for generation.ProvisioningClient.
type ProvisioningClient struct {
	mock.Mock
}

func (m *ProvisioningClient) Attempt(ctx context.Context, attempt generation.Attempt) (generation.Result, error) {
	args := m.Called(ctx, attempt)
	return args.Get(0).(generation.Result), args.Error(1)
}
