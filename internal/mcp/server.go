package mcp

import (
	"context"
	"io"
	"log/slog"

	"github.com/ganot/quotagate/internal/clock"
	"github.com/ganot/quotagate/internal/domain/account"
	"github.com/ganot/quotagate/internal/domain/activity"
	"github.com/ganot/quotagate/internal/domain/challenge"
	"github.com/ganot/quotagate/internal/domain/generation"
	"github.com/ganot/quotagate/internal/domain/quota"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// GenerationService defines run operations needed by MCP.
type GenerationService interface {
	StartGenerationRun(ctx context.Context, req generation.Request) (generation.RunInfo, error)
	CancelGenerationRun() error
	Status() generation.Status
}

// ChallengeService defines the challenge operations needed by MCP.
type ChallengeService interface {
	Pending() (string, bool)
	PresentRound(id string) (challenge.Round, error)
	Refresh(id string) (challenge.Round, error)
	Judge(id string, chosenIndex int) (challenge.Verdict, error)
	CancelSession(id string) error
	Session(id string) (*challenge.Session, error)
}

// QuotaService defines quota reads needed by MCP.
type QuotaService interface {
	Refresh(ctx context.Context) (quota.State, error)
	Usage() quota.Usage
}

// AccountService defines account reads needed by MCP.
type AccountService interface {
	List() []account.Record
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Generation GenerationService
	Challenge  ChallengeService
	Quota      QuotaService
	Accounts   AccountService
	Activity   ActivityService
}

// Config contains server configuration.
type Config struct {
	Services      Services
	AuthEnabled   bool
	AuthToken     string
	TransportMode string // "stdio" or "http"
	// ChallengeRounds applies when start_generation_run omits challenge_rounds.
	ChallengeRounds int
	Clock           clock.Clock
	Logger          *slog.Logger
	Version         string
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.System{}
	}
	if cfg.Version == "" {
		cfg.Version = "0.1.0"
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "quotagate",
		Version: cfg.Version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	// Stdio mode is local only and never authenticates.
	if cfg.TransportMode != "stdio" && cfg.AuthEnabled {
		server.AddReceivingMiddleware(authMiddleware(cfg.AuthToken))
	}
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, &tools{
		services:        cfg.Services,
		challengeRounds: cfg.ChallengeRounds,
		clock:           cfg.Clock,
		logger:          cfg.Logger,
	})

	return server
}
