package mcp

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// authMiddleware implements bearer token authentication as MCP middleware.
func authMiddleware(token string) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			// Skip auth for protocol methods
			if method == "initialize" || method == "ping" || strings.HasPrefix(method, "notifications/") {
				return next(ctx, method, req)
			}

			extra := req.GetExtra()
			if extra == nil || extra.Header == nil {
				return nil, fmt.Errorf("unauthorized: missing headers")
			}

			auth := extra.Header.Get("Authorization")
			presented := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if presented == "" {
				return nil, fmt.Errorf("unauthorized: missing bearer token")
			}
			if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				return nil, fmt.Errorf("unauthorized: invalid bearer token")
			}

			return next(ctx, method, req)
		}
	}
}
