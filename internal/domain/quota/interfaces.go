package quota

import "context"

// Repository persists the quota state record.
type Repository interface {
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, state State) error
}
