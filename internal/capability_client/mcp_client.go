package capability_client

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	cm "github.com/sahulatai/agentic-backend/internal/connection_manager"
	"github.com/sahulatai/agentic-backend/internal/platform/logger"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"
)

// MCPClient opens streamable HTTP sessions to MCP tool servers.
type MCPClient struct {
	ClientName    string
	ClientVersion string
}

func NewMCPClient(name string, version string) *MCPClient {
	return &MCPClient{ClientName: name, ClientVersion: version}
}

func (c *MCPClient) Open(ctx context.Context, params cm.OpenParams) (cm.Session, error) {
	log := logger.Log.WithFields(logrus.Fields{"integration": params.Name, "url": params.URL})

	var lastErr error
	for attempt := 0; attempt <= params.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := params.RetryBackoff * time.Duration(1<<(attempt-1))
			log.WithFields(logrus.Fields{"attempt": attempt, "delay": delay}).Debug("Retrying capability server connection")

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, fmt.Errorf("waiting to retry %s: %w", params.URL, ctx.Err())
			}
		}

		session, err := c.openOnce(ctx, params)
		if err == nil {
			return session, nil
		}

		lastErr = err
		log.WithFields(logrus.Fields{"attempt": attempt, "error": err}).Debug("Capability server connection attempt failed")

		if ctx.Err() != nil {
			break
		}
	}

	return nil, lastErr
}

func (c *MCPClient) openOnce(ctx context.Context, params cm.OpenParams) (*mcpSession, error) {
	options := []transport.StreamableHTTPCOption{
		transport.WithHTTPHeaders(params.Headers),
	}
	if params.ReadTimeout > 0 {
		options = append(options, transport.WithHTTPTimeout(params.ReadTimeout))
	}

	mcpClient, err := client.NewStreamableHttpClient(params.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("creating client for %s: %w", params.URL, err)
	}

	// The session outlives the open call, so it gets its own context.
	lifetime, cancelLifetime := context.WithCancel(context.Background())

	if err := mcpClient.Start(lifetime); err != nil {
		cancelLifetime()
		return nil, fmt.Errorf("starting transport for %s: %w", params.URL, err)
	}

	connectCtx, cancelConnect := ctx, context.CancelFunc(func() {})
	if params.ConnectTimeout > 0 {
		connectCtx, cancelConnect = context.WithTimeout(ctx, params.ConnectTimeout)
	}
	defer cancelConnect()

	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{
		Name:    c.ClientName,
		Version: c.ClientVersion,
	}

	if _, err := mcpClient.Initialize(connectCtx, req); err != nil {
		mcpClient.Close()
		cancelLifetime()
		if ctxErr := connectCtx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("initializing session with %s: %w", params.URL, ctxErr)
		}
		return nil, fmt.Errorf("initializing session with %s: %w", params.URL, err)
	}

	return &mcpSession{client: mcpClient, cancel: cancelLifetime}, nil
}

type mcpSession struct {
	client    *client.Client
	cancel    context.CancelFunc
	closeOnce sync.Once
	closeErr  error
}

func (s *mcpSession) ListTools(ctx context.Context) ([]cm.Tool, error) {
	result, err := s.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, err
	}

	tools := make([]cm.Tool, 0, len(result.Tools))
	for _, t := range result.Tools {
		tools = append(tools, cm.Tool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: map[string]interface{}{
				"type":       t.InputSchema.Type,
				"properties": t.InputSchema.Properties,
				"required":   t.InputSchema.Required,
			},
		})
	}

	return tools, nil
}

func (s *mcpSession) CallTool(ctx context.Context, name string, arguments map[string]interface{}) (*cm.ToolResult, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = arguments

	result, err := s.client.CallTool(ctx, req)
	if err != nil {
		return nil, err
	}

	var texts []string
	for _, content := range result.Content {
		if text, ok := mcp.AsTextContent(content); ok {
			texts = append(texts, text.Text)
		}
	}

	return &cm.ToolResult{
		Text:    strings.Join(texts, "\n"),
		IsError: result.IsError,
	}, nil
}

func (s *mcpSession) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.client.Close()
		s.cancel()
	})
	return s.closeErr
}
