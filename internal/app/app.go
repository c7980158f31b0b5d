// Package app assembles the services, stores and MCP server from a Config.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ganot/quotagate/internal/clock"
	"github.com/ganot/quotagate/internal/config"
	"github.com/ganot/quotagate/internal/domain/account"
	"github.com/ganot/quotagate/internal/domain/activity"
	"github.com/ganot/quotagate/internal/domain/challenge"
	"github.com/ganot/quotagate/internal/domain/generation"
	"github.com/ganot/quotagate/internal/domain/quota"
	"github.com/ganot/quotagate/internal/mcp"
	"github.com/ganot/quotagate/internal/metrics"
	"github.com/ganot/quotagate/internal/provisioning"
	"github.com/ganot/quotagate/internal/random"
	"github.com/ganot/quotagate/internal/redisstore"
	"github.com/ganot/quotagate/internal/repository"
	"github.com/ganot/quotagate/internal/sqlite"
	"github.com/ganot/quotagate/internal/statestore"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

const shutdownWait = 5 * time.Second

// Options override collaborators, mostly for tests.
type Options struct {
	Clock  clock.Clock
	Random random.Source
	// Client replaces the simulated provisioning client.
	Client generation.ProvisioningClient
	Logger *slog.Logger
}

// App holds the assembled services.
type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Clock    clock.Clock
	DB       *sqlite.DB
	Registry *prometheus.Registry

	Quota      *quota.Service
	Accounts   *account.Store
	Activity   *activity.Service
	Gate       *challenge.Gate
	Generation *generation.Service
	Metrics    *metrics.Recorder

	redis *redis.Client
}

// New opens the stores and builds every service.
func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.System{}
	}
	src := opts.Random
	if src == nil {
		if cfg.Generation.Seed != 0 {
			src = random.New(cfg.Generation.Seed)
		} else {
			src = random.NewFromTime()
		}
	}

	tier, err := quota.ParseTier(cfg.Quota.Tier)
	if err != nil {
		return nil, fmt.Errorf("quota tier %q: %w", cfg.Quota.Tier, err)
	}

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		return nil, fmt.Errorf("prepare database path: %w", err)
	}
	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrationsContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Clock:    clk,
		DB:       db,
		Registry: prometheus.NewRegistry(),
	}

	kv, err := a.openStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.Metrics = metrics.NewRecorder(a.Registry)

	a.Quota = quota.NewService(statestore.NewQuotaRepository(kv), clk, quota.Defaults{
		Tier:  tier,
		Limit: cfg.Quota.Limit,
	}, logger)
	a.Quota.OnChange(a.Metrics.ObserveQuota)
	if _, err := a.Quota.Load(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("load quota: %w", err)
	}

	a.Accounts = account.NewStore(statestore.NewAccountRepository(kv), logger)
	if err := a.Accounts.Load(ctx); err != nil {
		a.Close()
		return nil, err
	}

	a.Activity = activity.NewService(sqlite.NewActivityRepository(db), clk, logger)

	engine := challenge.NewEngine(src, logger)
	engine.OnVerdict(a.Metrics.ObserveVerdict)
	a.Gate = challenge.NewGate(engine)

	client := opts.Client
	if client == nil {
		client = provisioning.NewSimulated(provisioning.Config{
			SuccessRate: cfg.Provisioning.SuccessRate,
			Latency:     cfg.Provisioning.Latency,
		}, src, logger)
	}

	orch := generation.NewOrchestrator(generation.Dependencies{
		Quota:    a.Quota,
		Accounts: a.Accounts,
		Client:   client,
		Gate:     a.Gate,
		Random:   src,
	}, generation.Options{
		Delay: cfg.Generation.Delay,
		Clock: clk,
	}, logger)
	a.Generation = generation.NewService(orch, a.Activity, a.Metrics, logger)

	logger.Info("services ready",
		"store", cfg.Store.Backend, "tier", tier, "remaining", a.Quota.Usage().Remaining, "accounts", a.Accounts.Len())
	return a, nil
}

func (a *App) openStore(ctx context.Context) (repository.KeyValueStore, error) {
	if a.Config.Store.Backend != "redis" {
		return sqlite.NewKVStore(a.DB), nil
	}
	a.redis = redis.NewClient(&redis.Options{
		Addr: a.Config.Store.RedisAddr,
		DB:   a.Config.Store.RedisDB,
	})
	store := redisstore.New(a.redis, a.Config.Store.Prefix)
	if err := store.Ping(ctx); err != nil {
		return nil, fmt.Errorf("connect redis %s: %w", a.Config.Store.RedisAddr, err)
	}
	return store, nil
}

// MCPServer builds the MCP server over the app's services.
func (a *App) MCPServer(version string) *sdkmcp.Server {
	return mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Generation: a.Generation,
			Challenge:  a.Gate,
			Quota:      a.Quota,
			Accounts:   a.Accounts,
			Activity:   a.Activity,
		},
		AuthEnabled:     a.Config.Auth.Enabled,
		AuthToken:       a.Config.Auth.Token,
		TransportMode:   a.Config.Transport.Mode,
		ChallengeRounds: a.Config.Generation.ChallengeRounds,
		Clock:           a.Clock,
		Logger:          a.Logger,
		Version:         version,
	})
}

// Close cancels any active run and releases the stores.
func (a *App) Close() error {
	if a.Generation != nil {
		if err := a.Generation.CancelGenerationRun(); err == nil {
			a.Logger.Info("cancelled active run on shutdown")
			ctx, cancel := context.WithTimeout(context.Background(), shutdownWait)
			if err := a.Generation.Wait(ctx); err != nil {
				a.Logger.Warn("run still finishing at shutdown", "error", err)
			}
			cancel()
		}
	}
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}

func ensureDBDir(path string) error {
	if path == "" || path == ":memory:" || filepath.Dir(path) == "." {
		return nil
	}
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
