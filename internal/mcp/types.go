package mcp

import (
	"time"

	"github.com/ganot/quotagate/internal/domain/account"
	"github.com/ganot/quotagate/internal/domain/activity"
	"github.com/ganot/quotagate/internal/domain/challenge"
	"github.com/ganot/quotagate/internal/domain/generation"
	"github.com/ganot/quotagate/internal/domain/quota"
)

type StartGenerationRunParams struct {
	Count           int    `json:"count" jsonschema:"number of accounts to attempt (at least 1)"`
	Password        string `json:"password,omitempty" jsonschema:"password for every account of the run; generated when omitted"`
	BirthYear       string `json:"birth_year,omitempty" jsonschema:"birth year passed to the provisioning call"`
	ChallengeRounds *int   `json:"challenge_rounds,omitempty" jsonschema:"rounds of the tile challenge to pass before the first attempt; server default when omitted"`
}

type EmptyParams struct{}

type SessionParams struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"challenge session; defaults to the session blocking the active run"`
}

type SubmitChallengeAnswerParams struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"challenge session; defaults to the session blocking the active run"`
	Index     int    `json:"index" jsonschema:"tile index 0-5 of the upright tile"`
}

type ListAccountsParams struct {
	Limit  int `json:"limit,omitempty" jsonschema:"maximum number of accounts"`
	Offset int `json:"offset,omitempty" jsonschema:"accounts to skip"`
}

type ExportAccountsParams struct {
	Format string `json:"format" jsonschema:"one of txt, csv, json, ram"`
}

type GetRecentActivityParams struct {
	RunID  string `json:"run_id,omitempty" jsonschema:"only entries of this run"`
	Type   string `json:"type,omitempty" jsonschema:"only entries of this type"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of entries (default 20, at most 200)"`
	Offset int    `json:"offset,omitempty" jsonschema:"entries to skip"`
}

type RunStartedResponse struct {
	Run generation.RunInfo `json:"run"`
	// Warning is set when the request exceeds today's remaining quota.
	Warning string `json:"warning,omitempty"`
}

type AckResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

type TileResponse struct {
	Index    int `json:"index"`
	Rotation int `json:"rotation"`
}

type ChallengeRoundResponse struct {
	SessionID      string          `json:"session_id"`
	State          challenge.State `json:"state"`
	RequiredRounds int             `json:"required_rounds"`
	RoundsPassed   int             `json:"rounds_passed"`
	Icon           string          `json:"icon"`
	Tiles          []TileResponse  `json:"tiles"`
	Prompt         string          `json:"prompt"`
}

type ChallengeAnswerResponse struct {
	Verdict        challenge.Verdict       `json:"verdict"`
	RoundsPassed   int                     `json:"rounds_passed"`
	RequiredRounds int                     `json:"required_rounds"`
	State          challenge.State         `json:"state"`
	Next           *ChallengeRoundResponse `json:"next,omitempty"`
}

type QuotaResponse struct {
	Usage quota.Usage `json:"usage"`
}

type AccountsResponse struct {
	Total    int              `json:"total"`
	Accounts []account.Record `json:"accounts"`
}

type ExportResponse struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Count       int    `json:"count"`
	Content     string `json:"content"`
}

type ActivityResponse struct {
	Entries []activity.Entry `json:"entries"`
}

type StatusResponse struct {
	Status generation.Status `json:"status"`
	// Challenge is the session blocking the active run, if any.
	ChallengeSessionID string      `json:"challenge_session_id,omitempty"`
	Quota              quota.Usage `json:"quota"`
	CheckedAt          time.Time   `json:"checked_at"`
}
