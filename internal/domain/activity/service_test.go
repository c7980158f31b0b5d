package activity_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ganot/quotagate/internal/clock"
	"github.com/ganot/quotagate/internal/domain/activity"
	"github.com/ganot/quotagate/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestActivityService_LogStampsClock(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)

	repo := &mocks.ActivityRepository{}
	entry := &activity.Entry{RunID: "run1", Type: activity.TypeRunStarted, Summary: "started"}
	repo.On("Log", ctx, entry).Return(nil)

	svc := activity.NewService(repo, clock.NewFake(now), nil)
	require.NoError(t, svc.LogActivity(ctx, entry))
	require.Equal(t, now, entry.CreatedAt)
	repo.AssertExpectations(t)
}

func TestActivityService_LogValidation(t *testing.T) {
	svc := activity.NewService(&mocks.ActivityRepository{}, nil, nil)
	ctx := context.Background()

	require.ErrorIs(t, svc.LogActivity(ctx, nil), activity.ErrInvalidInput)
	require.ErrorIs(t, svc.LogActivity(ctx, &activity.Entry{RunID: "run1"}), activity.ErrInvalidInput)
	require.ErrorIs(t, svc.LogActivity(ctx, &activity.Entry{RunID: "run1", Type: "deleted"}), activity.ErrInvalidInput)
	require.ErrorIs(t, svc.LogActivity(ctx, &activity.Entry{Type: activity.TypeRunStarted}), activity.ErrInvalidInput)
}

func TestActivityService_ListLimits(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ActivityRepository{}
	repo.On("List", ctx, activity.ListOptions{RunID: "run1", Limit: activity.DefaultLimit}).Return([]activity.Entry{{ID: 1}}, nil).Once()
	repo.On("List", ctx, activity.ListOptions{Limit: activity.MaxLimit, Offset: 5}).Return([]activity.Entry{}, nil).Once()

	svc := activity.NewService(repo, nil, nil)
	entries, err := svc.GetRecentActivity(ctx, activity.ListOptions{RunID: "run1"})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	_, err = svc.GetRecentActivity(ctx, activity.ListOptions{Limit: 10_000, Offset: 5})
	require.NoError(t, err)
	repo.AssertExpectations(t)

	bogus := activity.Type("bogus")
	_, err = svc.GetRecentActivity(ctx, activity.ListOptions{Type: &bogus})
	require.ErrorIs(t, err, activity.ErrInvalidInput)
	_, err = svc.GetRecentActivity(ctx, activity.ListOptions{Offset: -1})
	require.ErrorIs(t, err, activity.ErrInvalidInput)
}

func TestActivityService_ListWrapsRepositoryError(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	repo := &mocks.ActivityRepository{}
	repo.On("List", ctx, mock.Anything).Return(nil, boom)

	_, err := activity.NewService(repo, nil, nil).GetRecentActivity(ctx, activity.ListOptions{})
	require.ErrorIs(t, err, boom)
}
