package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/sahulatai/agentic-backend/internal/connection_manager"
	"github.com/sahulatai/agentic-backend/internal/domain"
	"github.com/sahulatai/agentic-backend/internal/platform/logger"

	"github.com/sirupsen/logrus"
)

const TemporaryServiceIssueMessage = "I encountered an issue accessing the service. This might be due to a temporary connection problem. Please try your request again, and if the issue persists, contact support."

var ErrToolNotFound = errors.New("tool not found")

type UnknownAgentKindError struct {
	Kind string
}

func (e UnknownAgentKindError) Error() string {
	return fmt.Sprintf("unknown agent kind %q", e.Kind)
}

var agentIntegrations = map[domain.AgentKind]domain.IntegrationName{
	domain.AccountsAgent:  domain.AccountsIntegration,
	domain.SalesAgent:     domain.GlobalIntegration,
	domain.MarketingAgent: domain.GlobalIntegration,
	domain.InventoryAgent: domain.GlobalIntegration,
	domain.PaymentAgent:   domain.GlobalIntegration,
	domain.AnalyticsAgent: domain.GlobalIntegration,
}

func ParseAgentKind(s string) (domain.AgentKind, error) {
	kind := domain.AgentKind(s)
	if _, found := agentIntegrations[kind]; !found {
		return "", UnknownAgentKindError{Kind: s}
	}
	return kind, nil
}

// IntegrationFor names the capability server an agent kind draws its tools from
func IntegrationFor(kind domain.AgentKind) (domain.IntegrationName, error) {
	integration, found := agentIntegrations[kind]
	if !found {
		return "", UnknownAgentKindError{Kind: string(kind)}
	}
	return integration, nil
}

type ConnectionProvider interface {
	AcquireConnection(ctx context.Context, tenant domain.TenantID, integration domain.IntegrationName) *connection_manager.Connection
	ReportConnectionError(ctx context.Context, conn *connection_manager.Connection, reported error)
}

type Factory struct {
	connections ConnectionProvider
}

func NewFactory(connections ConnectionProvider) *Factory {
	return &Factory{connections: connections}
}

// Build assembles the agent for kind. An agent whose capability server is
// unavailable is still returned, just without tools.
func (f *Factory) Build(ctx context.Context, tenant domain.TenantID, kind domain.AgentKind) (*Agent, error) {
	integration, err := IntegrationFor(kind)
	if err != nil {
		return nil, err
	}

	log := logger.Log.WithFields(logrus.Fields{"tenant_id": tenant.String(), "agent": kind, "integration": integration})

	agent := &Agent{
		Kind:        kind,
		TenantID:    tenant,
		Integration: integration,
		connections: f.connections,
	}

	conn := f.connections.AcquireConnection(ctx, tenant, integration)
	if conn == nil {
		log.Info("No capability server connection, agent will run without tools")
		return agent, nil
	}

	tools, err := conn.Session.ListTools(ctx)
	if err != nil {
		log.WithFields(logrus.Fields{"error": err}).Warn("Unable to list tools, agent will run without tools")
		f.connections.ReportConnectionError(ctx, conn, err)
		return agent, nil
	}

	agent.connection = conn
	agent.tools = tools

	log.WithFields(logrus.Fields{"tool_count": len(tools)}).Debug("Agent built")

	return agent, nil
}

type Agent struct {
	Kind        domain.AgentKind
	TenantID    domain.TenantID
	Integration domain.IntegrationName

	connection  *connection_manager.Connection
	tools       []connection_manager.Tool
	connections ConnectionProvider
}

func (a *Agent) Tools() []connection_manager.Tool {
	return a.tools
}

func (a *Agent) HasTools() bool {
	return len(a.tools) > 0
}

type InvocationResult struct {
	Text     string
	IsError  bool
	Degraded bool
}

func degradedResult() *InvocationResult {
	return &InvocationResult{Text: TemporaryServiceIssueMessage, IsError: true, Degraded: true}
}

// Invoke calls a tool from the agent's toolset. Transport failures are
// reported to the connection manager and answered with a degraded result.
// The only error is ErrToolNotFound.
func (a *Agent) Invoke(ctx context.Context, tool string, arguments map[string]interface{}) (*InvocationResult, error) {
	log := logger.Log.WithFields(logrus.Fields{"tenant_id": a.TenantID.String(), "agent": a.Kind, "integration": a.Integration, "tool": tool})

	if a.connection == nil {
		log.Info("Tool requested from an agent without a capability server connection")
		return degradedResult(), nil
	}

	if !a.hasTool(tool) {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, tool)
	}

	result, err := a.connection.Session.CallTool(ctx, tool, arguments)
	if err != nil {
		log.WithFields(logrus.Fields{"error": err}).Warn("Tool call failed")
		a.connections.ReportConnectionError(ctx, a.connection, err)
		return degradedResult(), nil
	}

	return &InvocationResult{Text: result.Text, IsError: result.IsError}, nil
}

func (a *Agent) hasTool(name string) bool {
	for _, t := range a.tools {
		if t.Name == name {
			return true
		}
	}
	return false
}
