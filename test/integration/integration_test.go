package integration_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ganot/quotagate/internal/app"
	"github.com/ganot/quotagate/internal/clock"
	"github.com/ganot/quotagate/internal/config"
	"github.com/ganot/quotagate/internal/domain/activity"
	"github.com/ganot/quotagate/internal/domain/generation"
	"github.com/ganot/quotagate/internal/random"
	"github.com/stretchr/testify/require"
)

type backend struct {
	name  string
	setup func(t *testing.T, cfg *config.Config)
}

var backends = []backend{
	{name: "sqlite", setup: func(t *testing.T, cfg *config.Config) {}},
	{name: "redis", setup: func(t *testing.T, cfg *config.Config) {
		mr := miniredis.RunT(t)
		cfg.Store.Backend = "redis"
		cfg.Store.RedisAddr = mr.Addr()
	}},
}

func baseConfig(t *testing.T) config.Config {
	cfg := config.Default()
	cfg.DB.Path = filepath.Join(t.TempDir(), "data", "quotagate.db")
	cfg.Generation.Delay = time.Millisecond
	cfg.Generation.ChallengeRounds = 0
	cfg.Provisioning.SuccessRate = 1
	cfg.Provisioning.Latency = 0
	return cfg
}

func open(t *testing.T, cfg config.Config, clk clock.Clock) *app.App {
	t.Helper()
	a, err := app.New(context.Background(), cfg, app.Options{Clock: clk, Random: random.New(5)})
	require.NoError(t, err)
	return a
}

func runToCompletion(t *testing.T, a *app.App, count int) generation.RunInfo {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	info, err := a.Generation.StartGenerationRun(ctx, generation.Request{Count: count})
	require.NoError(t, err)
	require.NoError(t, a.Generation.Wait(ctx))
	return info
}

func TestPersistence_SurvivesRestart(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			cfg := baseConfig(t)
			b.setup(t, &cfg)
			clk := clock.NewFake(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC))

			first := open(t, cfg, clk)
			info := runToCompletion(t, first, 2)
			require.Equal(t, 2, first.Accounts.Len())
			before := first.Accounts.List()
			require.NoError(t, first.Close())

			second := open(t, cfg, clk)
			defer second.Close()

			usage := second.Quota.Usage()
			require.Equal(t, 2, usage.Count)
			require.Equal(t, 1, usage.Remaining)
			require.Equal(t, before, second.Accounts.List())

			entries, err := second.Activity.GetRecentActivity(context.Background(), activity.ListOptions{RunID: info.RunID})
			require.NoError(t, err)
			require.Len(t, entries, 4)
			require.Equal(t, activity.TypeRunFinished, entries[0].Type)
			require.Equal(t, activity.TypeRunStarted, entries[3].Type)
		})
	}
}

func TestPersistence_DailyResetKeepsAccounts(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			cfg := baseConfig(t)
			b.setup(t, &cfg)
			clk := clock.NewFake(time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC))

			a := open(t, cfg, clk)
			defer a.Close()

			runToCompletion(t, a, 5)
			status := a.Generation.Status()
			require.Equal(t, generation.OutcomeQuotaExceeded, status.Summary.Terminal)
			require.Equal(t, 0, a.Quota.Usage().Remaining)

			clk.Advance(2 * time.Hour)
			state, err := a.Quota.Refresh(context.Background())
			require.NoError(t, err)
			require.Zero(t, state.Count)
			require.Equal(t, "2026-03-11", state.LastResetDate)

			runToCompletion(t, a, 1)
			require.Equal(t, 4, a.Accounts.Len())
			require.Equal(t, 2, a.Quota.Usage().Remaining)
		})
	}
}

func TestPersistence_RedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := baseConfig(t)
	cfg.Store.Backend = "redis"
	cfg.Store.RedisAddr = addr

	_, err := app.New(context.Background(), cfg, app.Options{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "connect redis")
}

func TestPersistence_ConfiguredTier(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Quota.Tier = "pro"

	a := open(t, cfg, clock.NewFake(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)))
	defer a.Close()

	usage := a.Quota.Usage()
	require.Equal(t, "PRO", string(usage.Tier))
	require.Equal(t, 100, usage.Limit)
}
