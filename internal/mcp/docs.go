package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `quotagate runs batches of provisioning attempts under a daily quota, behind a tile-rotation challenge.

Core concepts:
- Run: one start_generation_run call. Attempts happen one at a time with a pause between them. At most one run is active.
- Quota: a per-day allowance (FREE 3, PRO 100, ULTIMATE unlimited). Only successful attempts count. It resets on the first use of a new day.
- Challenge: before the first attempt of a run, a human must pick the upright tile among six rotated copies of an icon, for the configured number of rounds. Wrong picks show a new round but keep progress.
- Outcome: SUCCESS, FAILURE, FAULT, QUOTA_EXCEEDED (ends the run) or CHALLENGE_CANCELLED (ends the run).

Typical workflow:
1) get_quota to see what is left today.
2) start_generation_run with a count. A warning is returned when the count exceeds what is left.
3) If challenge_rounds > 0, get_generation_status shows challenge_session_id; use get_challenge_round and submit_challenge_answer until the session is COMPLETE.
4) Poll get_generation_status or get_recent_activity for outcomes.
5) list_accounts or export_accounts when done.

Docs:
- quotagate://docs/index
- quotagate://docs/challenge
- quotagate://docs/export-formats
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "quotagate://docs/index",
		Name:        "docs_index",
		Title:       "quotagate docs index",
		Description: "What each doc covers and the run lifecycle in brief.",
		Content: `# quotagate docs

- challenge: how rounds are drawn and judged.
- export-formats: what each export format contains.

## Run lifecycle

Each attempt of a run:

1. Stops if cancellation was requested.
2. Stops with QUOTA_EXCEEDED if nothing is left today.
3. On the first attempt only, waits for the challenge to be passed. Cancelling the challenge stops the run with CHALLENGE_CANCELLED.
4. Generates a username and calls the provisioning client.
5. Records SUCCESS (account stored, quota counted), FAILURE or FAULT (quota untouched).
6. Pauses before the next attempt unless it was the last.

Cancelling while a call is in flight lets the call finish and discards its result.
`,
	},
	{
		URI:         "quotagate://docs/challenge",
		Name:        "docs_challenge",
		Title:       "Tile challenge",
		Description: "How challenge rounds are drawn and judged.",
		Content: `# Tile challenge

A round shows one icon on six tiles. Exactly one tile has rotation 0; every other tile is turned 90, 180 or 270 degrees.

- submit_challenge_answer with the index (0-5) of the upright tile.
- Right: progress goes up by one. When it reaches the required rounds the session is COMPLETE and the run continues.
- Wrong: a new round is shown. Progress is not reset.
- refresh_challenge_round draws a new round without changing progress.
- cancel_challenge ends the session; the waiting run ends with CHALLENGE_CANCELLED.
`,
	},
	{
		URI:         "quotagate://docs/export-formats",
		Name:        "docs_export_formats",
		Title:       "Export formats",
		Description: "Contents of the txt, csv, json and ram exports.",
		Content: `# Export formats

- txt: one username:password line per account.
- csv: header Username,Password,Email,Created then one row per account.
- json: the full records, pretty printed.
- ram: the secret token of each account that has one, one per line.

Exporting with no accounts fails with NOTHING_TO_EXPORT.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
