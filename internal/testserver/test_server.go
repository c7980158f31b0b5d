// Package testserver runs a complete quotagate HTTP server for end-to-end
// tests.
package testserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ganot/quotagate/internal/app"
	"github.com/ganot/quotagate/internal/config"
	"github.com/ganot/quotagate/internal/random"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

type TestServer struct {
	Server *httptest.Server
	App    *app.App
	Token  string
}

// New starts a server in HTTP mode with bearer auth, an in-memory database,
// a simulated client that always succeeds instantly and a short delay
// between attempts. mutate may adjust the config before startup.
func New(t *testing.T, token string, mutate func(*config.Config)) *TestServer {
	t.Helper()

	cfg := config.Default()
	cfg.Transport.Mode = "http"
	cfg.Auth.Enabled = true
	cfg.Auth.Token = token
	cfg.DB.Path = ":memory:"
	cfg.Generation.Delay = time.Millisecond
	cfg.Generation.ChallengeRounds = 0
	cfg.Provisioning.SuccessRate = 1
	cfg.Provisioning.Latency = 0
	if mutate != nil {
		mutate(&cfg)
	}

	a, err := app.New(context.Background(), cfg, app.Options{Random: random.New(1)})
	require.NoError(t, err)

	server := httptest.NewServer(a.Handler("test"))
	t.Cleanup(func() {
		server.Close()
		_ = a.Close()
	})

	return &TestServer{Server: server, App: a, Token: token}
}

// Connect opens an MCP client session that presents token.
func (ts *TestServer) Connect(t *testing.T, token string) *sdkmcp.ClientSession {
	t.Helper()

	transport := &sdkmcp.StreamableClientTransport{
		Endpoint:   ts.Server.URL + "/mcp",
		HTTPClient: &http.Client{Transport: bearer{token: token, next: http.DefaultTransport}},
		MaxRetries: -1,
	}
	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	session, err := client.Connect(ctx, transport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

type bearer struct {
	token string
	next  http.RoundTripper
}

func (b bearer) RoundTrip(req *http.Request) (*http.Response, error) {
	if b.token == "" {
		return b.next.RoundTrip(req)
	}
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+b.token)
	return b.next.RoundTrip(req)
}
