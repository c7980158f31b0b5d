package account

import "context"

// Repository persists the ordered account list as a single record.
type Repository interface {
	Load(ctx context.Context) ([]Record, error)
	Save(ctx context.Context, records []Record) error
}
