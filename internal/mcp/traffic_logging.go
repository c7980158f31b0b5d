package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Credentials appear in start_generation_run arguments and in account
// listings; neither may reach the log.
var credentialField = regexp.MustCompile(`"(password|secret)":"(?:[^"\\]|\\.)*"`)

// trafficLoggingMiddleware logs each request and its response at debug
// level. Tool calls carry the tool name and whether the tool failed.
func trafficLoggingMiddleware(logger *slog.Logger, direction string) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if logger == nil || !logger.Enabled(ctx, slog.LevelDebug) {
				return next(ctx, method, req)
			}

			params := safeParams(req)
			attrs := []any{"direction", direction, "method", method, "session_id", safeSessionID(req)}
			if tool := toolName(params); tool != "" {
				attrs = append(attrs, "tool", tool)
			}
			logger.Debug("mcp request", append(attrs, "params", redact(formatPayload(params)))...)

			start := time.Now()
			result, err := next(ctx, method, req)
			if strings.HasPrefix(method, "notifications/") {
				return result, err
			}

			attrs = append(attrs, "elapsed", time.Since(start))
			switch {
			case err != nil:
				logger.Debug("mcp response", append(attrs, "error", err)...)
			default:
				if res, ok := result.(*sdkmcp.CallToolResult); ok && res != nil {
					attrs = append(attrs, "tool_error", res.IsError)
				}
				logger.Debug("mcp response", append(attrs, "result_bytes", len(formatPayload(result)))...)
			}
			return result, err
		}
	}
}

func toolName(params sdkmcp.Params) string {
	switch p := params.(type) {
	case *sdkmcp.CallToolParamsRaw:
		if p != nil {
			return p.Name
		}
	case *sdkmcp.CallToolParams:
		if p != nil {
			return p.Name
		}
	}
	return ""
}

// safeSessionID and safeParams tolerate requests whose accessors panic on
// nil receivers.
func safeSessionID(req sdkmcp.Request) (id string) {
	if req == nil {
		return ""
	}
	defer func() {
		if recover() != nil {
			id = ""
		}
	}()
	if session := req.GetSession(); session != nil {
		return session.ID()
	}
	return ""
}

func safeParams(req sdkmcp.Request) (params sdkmcp.Params) {
	if req == nil {
		return nil
	}
	defer func() {
		if recover() != nil {
			params = nil
		}
	}()
	return req.GetParams()
}

func formatPayload(payload any) string {
	if payload == nil {
		return "<nil>"
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%T", payload)
	}
	return string(data)
}

// redact blanks password and secret values.
func redact(payload string) string {
	return credentialField.ReplaceAllString(payload, `"$1":"***"`)
}
