package mcp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ganot/quotagate/internal/clock"
	"github.com/ganot/quotagate/internal/domain/account"
	"github.com/ganot/quotagate/internal/domain/activity"
	"github.com/ganot/quotagate/internal/domain/challenge"
	"github.com/ganot/quotagate/internal/domain/generation"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type tools struct {
	services        Services
	challengeRounds int
	clock           clock.Clock
	logger          *slog.Logger
}

func registerTools(server *sdkmcp.Server, t *tools) {
	// Runs
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "start_generation_run",
		Description: "Start a generation run of count provisioning attempts under the daily quota",
	}, t.startGenerationRun)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "cancel_generation_run",
		Description: "Request cancellation of the active run; an attempt in flight finishes but its result is discarded",
	}, t.cancelGenerationRun)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_generation_status",
		Description: "Get the current or last run, its recent outcomes, the pending challenge and today's quota",
	}, t.getGenerationStatus)

	// Challenge
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_challenge_round",
		Description: "Show the active challenge round: six rotated tiles of one icon, exactly one upright",
	}, t.getChallengeRound)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "refresh_challenge_round",
		Description: "Replace the active round with a new one without affecting progress",
	}, t.refreshChallengeRound)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "submit_challenge_answer",
		Description: "Select the tile believed to be upright",
	}, t.submitChallengeAnswer)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "cancel_challenge",
		Description: "Abandon the challenge; the waiting run ends with CHALLENGE_CANCELLED",
	}, t.cancelChallenge)

	// Quota and accounts
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_quota",
		Description: "Get today's quota usage, applying the daily reset if the date changed",
	}, t.getQuota)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_accounts",
		Description: "List produced accounts in creation order",
	}, t.listAccounts)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "export_accounts",
		Description: "Export all accounts as txt, csv, json or ram",
	}, t.exportAccounts)

	// Activity
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_recent_activity",
		Description: "List run activity newest first",
	}, t.getRecentActivity)
}

func (t *tools) startGenerationRun(ctx context.Context, _ *sdkmcp.CallToolRequest, in StartGenerationRunParams) (*sdkmcp.CallToolResult, RunStartedResponse, error) {
	rounds := t.challengeRounds
	if in.ChallengeRounds != nil {
		rounds = *in.ChallengeRounds
	}
	info, err := t.services.Generation.StartGenerationRun(ctx, generation.Request{
		Count:           in.Count,
		Password:        in.Password,
		BirthYear:       in.BirthYear,
		ChallengeRounds: rounds,
	})
	if err != nil {
		return nil, RunStartedResponse{}, toolError(err)
	}

	resp := RunStartedResponse{Run: info}
	if !info.Granted {
		resp.Warning = fmt.Sprintf("only %d of %d attempts fit in today's quota; the run stops when it is used up", info.Allowed, info.Requested)
	}
	return nil, resp, nil
}

func (t *tools) cancelGenerationRun(_ context.Context, _ *sdkmcp.CallToolRequest, _ EmptyParams) (*sdkmcp.CallToolResult, AckResponse, error) {
	if err := t.services.Generation.CancelGenerationRun(); err != nil {
		return nil, AckResponse{}, toolError(err)
	}
	return nil, AckResponse{OK: true, Message: "cancellation requested"}, nil
}

func (t *tools) getGenerationStatus(_ context.Context, _ *sdkmcp.CallToolRequest, _ EmptyParams) (*sdkmcp.CallToolResult, StatusResponse, error) {
	resp := StatusResponse{
		Status:    t.services.Generation.Status(),
		Quota:     t.services.Quota.Usage(),
		CheckedAt: t.clock.Now(),
	}
	if id, ok := t.services.Challenge.Pending(); ok {
		resp.ChallengeSessionID = id
	}
	return nil, resp, nil
}

func (t *tools) getChallengeRound(_ context.Context, _ *sdkmcp.CallToolRequest, in SessionParams) (*sdkmcp.CallToolResult, ChallengeRoundResponse, error) {
	id, err := t.sessionID(in.SessionID)
	if err != nil {
		return nil, ChallengeRoundResponse{}, err
	}
	round, err := t.services.Challenge.PresentRound(id)
	if err != nil {
		return nil, ChallengeRoundResponse{}, toolError(err)
	}
	return t.roundResponse(id, round)
}

func (t *tools) refreshChallengeRound(_ context.Context, _ *sdkmcp.CallToolRequest, in SessionParams) (*sdkmcp.CallToolResult, ChallengeRoundResponse, error) {
	id, err := t.sessionID(in.SessionID)
	if err != nil {
		return nil, ChallengeRoundResponse{}, err
	}
	round, err := t.services.Challenge.Refresh(id)
	if err != nil {
		return nil, ChallengeRoundResponse{}, toolError(err)
	}
	return t.roundResponse(id, round)
}

func (t *tools) submitChallengeAnswer(_ context.Context, _ *sdkmcp.CallToolRequest, in SubmitChallengeAnswerParams) (*sdkmcp.CallToolResult, ChallengeAnswerResponse, error) {
	id, err := t.sessionID(in.SessionID)
	if err != nil {
		return nil, ChallengeAnswerResponse{}, err
	}
	before, err := t.services.Challenge.Session(id)
	if err != nil {
		return nil, ChallengeAnswerResponse{}, toolError(err)
	}
	verdict, err := t.services.Challenge.Judge(id, in.Index)
	if err != nil {
		return nil, ChallengeAnswerResponse{}, toolError(err)
	}

	if verdict == challenge.VerdictSessionComplete {
		return nil, ChallengeAnswerResponse{
			Verdict:        verdict,
			RoundsPassed:   before.RequiredRounds,
			RequiredRounds: before.RequiredRounds,
			State:          challenge.StateComplete,
		}, nil
	}

	after, err := t.services.Challenge.Session(id)
	if err != nil {
		return nil, ChallengeAnswerResponse{}, toolError(err)
	}
	resp := ChallengeAnswerResponse{
		Verdict:        verdict,
		RoundsPassed:   after.RoundsPassed,
		RequiredRounds: after.RequiredRounds,
		State:          after.State,
	}
	if after.Current != nil {
		next := roundView(after, *after.Current)
		resp.Next = &next
	}
	return nil, resp, nil
}

func (t *tools) cancelChallenge(_ context.Context, _ *sdkmcp.CallToolRequest, in SessionParams) (*sdkmcp.CallToolResult, AckResponse, error) {
	id, err := t.sessionID(in.SessionID)
	if err != nil {
		return nil, AckResponse{}, err
	}
	if err := t.services.Challenge.CancelSession(id); err != nil {
		return nil, AckResponse{}, toolError(err)
	}
	return nil, AckResponse{OK: true, Message: "challenge cancelled"}, nil
}

func (t *tools) getQuota(ctx context.Context, _ *sdkmcp.CallToolRequest, _ EmptyParams) (*sdkmcp.CallToolResult, QuotaResponse, error) {
	if _, err := t.services.Quota.Refresh(ctx); err != nil {
		// The in-memory usage is still accurate when only persisting failed.
		t.logger.Warn("quota refresh failed", "error", err)
	}
	return nil, QuotaResponse{Usage: t.services.Quota.Usage()}, nil
}

func (t *tools) listAccounts(_ context.Context, _ *sdkmcp.CallToolRequest, in ListAccountsParams) (*sdkmcp.CallToolResult, AccountsResponse, error) {
	if in.Limit < 0 || in.Offset < 0 {
		return nil, AccountsResponse{}, &APIError{Code: "INVALID_INPUT", Message: "limit and offset must not be negative"}
	}
	records := t.services.Accounts.List()
	resp := AccountsResponse{Total: len(records), Accounts: []account.Record{}}

	if in.Offset >= len(records) {
		return nil, resp, nil
	}
	records = records[in.Offset:]
	if in.Limit > 0 && in.Limit < len(records) {
		records = records[:in.Limit]
	}
	resp.Accounts = append(resp.Accounts, records...)
	return nil, resp, nil
}

func (t *tools) exportAccounts(_ context.Context, _ *sdkmcp.CallToolRequest, in ExportAccountsParams) (*sdkmcp.CallToolResult, ExportResponse, error) {
	format, err := account.ParseFormat(in.Format)
	if err != nil {
		return nil, ExportResponse{}, toolError(err)
	}
	records := t.services.Accounts.List()
	data, err := account.Export(records, format)
	if err != nil {
		return nil, ExportResponse{}, toolError(err)
	}
	return nil, ExportResponse{
		Filename:    account.Filename(format, t.clock.Now()),
		ContentType: account.ContentType(format),
		Count:       len(records),
		Content:     string(data),
	}, nil
}

func (t *tools) getRecentActivity(ctx context.Context, _ *sdkmcp.CallToolRequest, in GetRecentActivityParams) (*sdkmcp.CallToolResult, ActivityResponse, error) {
	opts := activity.ListOptions{
		RunID:  in.RunID,
		Limit:  in.Limit,
		Offset: in.Offset,
	}
	if in.Type != "" {
		typ := activity.Type(in.Type)
		opts.Type = &typ
	}
	entries, err := t.services.Activity.GetRecentActivity(ctx, opts)
	if err != nil {
		return nil, ActivityResponse{}, toolError(err)
	}
	if entries == nil {
		entries = []activity.Entry{}
	}
	return nil, ActivityResponse{Entries: entries}, nil
}

// sessionID resolves an explicit session or falls back to the pending one.
func (t *tools) sessionID(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if id, ok := t.services.Challenge.Pending(); ok {
		return id, nil
	}
	return "", errNoPendingChallenge
}

func (t *tools) roundResponse(id string, round challenge.Round) (*sdkmcp.CallToolResult, ChallengeRoundResponse, error) {
	sess, err := t.services.Challenge.Session(id)
	if err != nil {
		return nil, ChallengeRoundResponse{}, toolError(err)
	}
	return nil, roundView(sess, round), nil
}

func roundView(sess *challenge.Session, round challenge.Round) ChallengeRoundResponse {
	tiles := make([]TileResponse, 0, len(round.Rotations))
	for i, rot := range round.Rotations {
		tiles = append(tiles, TileResponse{Index: i, Rotation: rot})
	}
	return ChallengeRoundResponse{
		SessionID:      sess.ID,
		State:          sess.State,
		RequiredRounds: sess.RequiredRounds,
		RoundsPassed:   sess.RoundsPassed,
		Icon:           round.Icon,
		Tiles:          tiles,
		Prompt:         fmt.Sprintf("Round %d of %d: select the upright %s", sess.RoundsPassed+1, sess.RequiredRounds, round.Icon),
	}
}
