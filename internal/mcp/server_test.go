package mcp_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/ganot/quotagate/internal/app"
	"github.com/ganot/quotagate/internal/clock"
	"github.com/ganot/quotagate/internal/config"
	"github.com/ganot/quotagate/internal/domain/account"
	"github.com/ganot/quotagate/internal/domain/challenge"
	"github.com/ganot/quotagate/internal/domain/generation"
	"github.com/ganot/quotagate/internal/mcp"
	"github.com/ganot/quotagate/internal/random"
	"github.com/ganot/quotagate/internal/repository/mocks"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type env struct {
	app     *app.App
	client  *mocks.ProvisioningClient
	session *sdkmcp.ClientSession
}

func newEnv(t *testing.T, mutate func(*config.Config)) *env {
	t.Helper()
	ctx := context.Background()

	cfg := config.Default()
	cfg.DB.Path = ":memory:"
	cfg.Generation.Delay = time.Millisecond
	cfg.Generation.ChallengeRounds = 0
	if mutate != nil {
		mutate(&cfg)
	}

	client := &mocks.ProvisioningClient{}
	a, err := app.New(ctx, cfg, app.Options{
		Clock:  clock.NewFake(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)),
		Random: random.New(11),
		Client: client,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	server := a.MCPServer("test")
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	c := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	cs, err := c.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })

	return &env{app: a, client: client, session: cs}
}

// call invokes a tool and decodes its JSON text content into out. It returns
// the tool error text, or "" on success.
func (e *env) call(t *testing.T, name string, args map[string]any, out any) string {
	t.Helper()
	if args == nil {
		args = map[string]any{}
	}
	res, err := e.session.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok)
	if res.IsError {
		return text.Text
	}
	if out != nil {
		require.NoError(t, json.Unmarshal([]byte(text.Text), out))
	}
	return ""
}

func (e *env) waitIdle(t *testing.T) mcp.StatusResponse {
	t.Helper()
	var status mcp.StatusResponse
	require.Eventually(t, func() bool {
		status = mcp.StatusResponse{}
		e.call(t, "get_generation_status", nil, &status)
		return !status.Status.Active && status.Status.Summary != nil && status.Status.Summary.Finished
	}, 5*time.Second, 10*time.Millisecond)
	return status
}

func TestTools_ListsEveryTool(t *testing.T) {
	e := newEnv(t, nil)

	res, err := e.session.ListTools(context.Background(), nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	require.ElementsMatch(t, []string{
		"start_generation_run", "cancel_generation_run", "get_generation_status",
		"get_challenge_round", "refresh_challenge_round", "submit_challenge_answer", "cancel_challenge",
		"get_quota", "list_accounts", "export_accounts", "get_recent_activity",
	}, names)
}

func TestTools_RunToQuotaAndExport(t *testing.T) {
	e := newEnv(t, nil)
	e.client.On("Attempt", mock.Anything, mock.Anything).Return(generation.Result{Success: true}, nil)

	var q mcp.QuotaResponse
	require.Empty(t, e.call(t, "get_quota", nil, &q))
	require.Equal(t, 3, q.Usage.Remaining)

	var started mcp.RunStartedResponse
	require.Empty(t, e.call(t, "start_generation_run", map[string]any{"count": 5, "password": "hunter22"}, &started))
	require.NotEmpty(t, started.Run.RunID)
	require.False(t, started.Run.Granted)
	require.NotEmpty(t, started.Warning)

	status := e.waitIdle(t)
	require.Equal(t, 3, status.Status.Summary.Succeeded)
	require.Equal(t, generation.OutcomeQuotaExceeded, status.Status.Summary.Terminal)
	require.Equal(t, 0, status.Quota.Remaining)

	var accounts mcp.AccountsResponse
	require.Empty(t, e.call(t, "list_accounts", map[string]any{"limit": 2}, &accounts))
	require.Equal(t, 3, accounts.Total)
	require.Len(t, accounts.Accounts, 2)
	require.Equal(t, "hunter22", accounts.Accounts[0].Password)

	var exported mcp.ExportResponse
	require.Empty(t, e.call(t, "export_accounts", map[string]any{"format": "json"}, &exported))
	require.Equal(t, "application/json", exported.ContentType)
	require.True(t, strings.HasSuffix(exported.Filename, ".json"))
	var records []account.Record
	require.NoError(t, json.Unmarshal([]byte(exported.Content), &records))
	require.Equal(t, e.app.Accounts.List(), records)

	var act mcp.ActivityResponse
	require.Empty(t, e.call(t, "get_recent_activity", map[string]any{"run_id": started.Run.RunID}, &act))
	require.Len(t, act.Entries, 6)
	require.Equal(t, "run_finished", string(act.Entries[0].Type))
}

func TestTools_ChallengeFlow(t *testing.T) {
	e := newEnv(t, nil)
	e.client.On("Attempt", mock.Anything, mock.Anything).Return(generation.Result{Success: true}, nil)

	errText := e.call(t, "get_challenge_round", nil, nil)
	require.Contains(t, errText, "NO_PENDING_CHALLENGE")

	var started mcp.RunStartedResponse
	require.Empty(t, e.call(t, "start_generation_run", map[string]any{"count": 1, "challenge_rounds": 2}, &started))

	var status mcp.StatusResponse
	require.Eventually(t, func() bool {
		e.call(t, "get_generation_status", nil, &status)
		return status.ChallengeSessionID != ""
	}, 5*time.Second, 10*time.Millisecond)

	var round mcp.ChallengeRoundResponse
	require.Empty(t, e.call(t, "get_challenge_round", nil, &round))
	require.Equal(t, status.ChallengeSessionID, round.SessionID)
	require.Len(t, round.Tiles, challenge.TileCount)
	upright := uprightTile(t, round)

	// A wrong pick keeps progress and shows a new round.
	var answer mcp.ChallengeAnswerResponse
	require.Empty(t, e.call(t, "submit_challenge_answer", map[string]any{"index": (upright + 1) % challenge.TileCount}, &answer))
	require.Equal(t, challenge.VerdictFailedRound, answer.Verdict)
	require.Zero(t, answer.RoundsPassed)
	require.NotNil(t, answer.Next)

	require.Empty(t, e.call(t, "submit_challenge_answer", map[string]any{"index": uprightTile(t, *answer.Next)}, &answer))
	require.Equal(t, challenge.VerdictPassedRound, answer.Verdict)
	require.Equal(t, 1, answer.RoundsPassed)

	var refreshed mcp.ChallengeRoundResponse
	require.Empty(t, e.call(t, "refresh_challenge_round", nil, &refreshed))
	require.Equal(t, 1, refreshed.RoundsPassed)

	require.Empty(t, e.call(t, "submit_challenge_answer", map[string]any{"index": uprightTile(t, refreshed)}, &answer))
	require.Equal(t, challenge.VerdictSessionComplete, answer.Verdict)
	require.Equal(t, challenge.StateComplete, answer.State)

	final := e.waitIdle(t)
	require.Equal(t, 1, final.Status.Summary.Succeeded)
}

func TestTools_CancelChallengeEndsRun(t *testing.T) {
	e := newEnv(t, func(cfg *config.Config) { cfg.Generation.ChallengeRounds = 1 })

	require.Empty(t, e.call(t, "start_generation_run", map[string]any{"count": 2}, nil))
	require.Eventually(t, func() bool {
		_, ok := e.app.Gate.Pending()
		return ok
	}, 5*time.Second, 10*time.Millisecond)

	var ack mcp.AckResponse
	require.Empty(t, e.call(t, "cancel_challenge", nil, &ack))
	require.True(t, ack.OK)

	status := e.waitIdle(t)
	require.True(t, status.Status.Summary.Cancelled)
	require.Equal(t, generation.OutcomeChallengeCancelled, status.Status.Summary.Terminal)
	e.client.AssertNotCalled(t, "Attempt", mock.Anything, mock.Anything)
}

func TestTools_Errors(t *testing.T) {
	e := newEnv(t, nil)

	require.Contains(t, e.call(t, "cancel_generation_run", nil, nil), "NO_ACTIVE_RUN")
	require.Contains(t, e.call(t, "export_accounts", map[string]any{"format": "xml"}, nil), "UNKNOWN_FORMAT")
	require.Contains(t, e.call(t, "export_accounts", map[string]any{"format": "txt"}, nil), "NOTHING_TO_EXPORT")
	require.Contains(t, e.call(t, "start_generation_run", map[string]any{"count": 0}, nil), "INVALID_INPUT")
	require.Contains(t, e.call(t, "submit_challenge_answer", map[string]any{"session_id": "nope", "index": 1}, nil), "CHALLENGE_NOT_FOUND")
	require.Contains(t, e.call(t, "get_recent_activity", map[string]any{"type": "bogus"}, nil), "INVALID_INPUT")
}

func TestTools_AuthRequiredOverHTTP(t *testing.T) {
	e := newEnv(t, func(cfg *config.Config) {
		cfg.Transport.Mode = "http"
		cfg.Auth.Enabled = true
		cfg.Auth.Token = "s3cret"
	})

	_, err := e.session.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: "get_quota", Arguments: map[string]any{}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unauthorized")
}

func uprightTile(t *testing.T, round mcp.ChallengeRoundResponse) int {
	t.Helper()
	for _, tile := range round.Tiles {
		if tile.Rotation == 0 {
			return tile.Index
		}
	}
	t.Fatal("no upright tile")
	return -1
}
