package api

import (
	"context"
	"net/http"
	"sync"

	"github.com/sahulatai/agentic-backend/internal/connection_manager"
	"github.com/sahulatai/agentic-backend/internal/domain"
	"github.com/sahulatai/agentic-backend/internal/middlewares"
)

const (
	URL_BASE_PATH = "/api/agentic-backend/v1"

	TEST_CLIENT_ID  = "test_client_1"
	TEST_CLIENT_PSK = "12345"
	TEST_TENANT_ID  = "6ca6a085-8d86-11eb-8bd1-f875a43f7183"
)

func addServiceCredentials(req *http.Request, tenant string) {
	req.Header.Add(middlewares.PSKClientIdHeader, TEST_CLIENT_ID)
	req.Header.Add(middlewares.PSKTenantHeader, tenant)
	req.Header.Add(middlewares.PSKHeader, TEST_CLIENT_PSK)
}

type mockSession struct {
	tools   []connection_manager.Tool
	result  *connection_manager.ToolResult
	callErr error
}

func (s *mockSession) ListTools(ctx context.Context) ([]connection_manager.Tool, error) {
	return s.tools, nil
}

func (s *mockSession) CallTool(ctx context.Context, name string, arguments map[string]interface{}) (*connection_manager.ToolResult, error) {
	return s.result, s.callErr
}

func (s *mockSession) Close() error {
	return nil
}

type mockConnectionProvider struct {
	sync.Mutex
	sessions map[domain.IntegrationName]*mockSession
	scopes   []*connection_manager.RequestScope
	reported []domain.IntegrationName
}

func (p *mockConnectionProvider) AcquireConnection(ctx context.Context, tenant domain.TenantID, integration domain.IntegrationName) *connection_manager.Connection {
	p.Lock()
	defer p.Unlock()

	p.scopes = append(p.scopes, connection_manager.RequestScopeFrom(ctx))

	session, found := p.sessions[integration]
	if !found {
		return nil
	}
	return &connection_manager.Connection{TenantID: tenant, Integration: integration, Session: session}
}

func (p *mockConnectionProvider) ReportConnectionError(ctx context.Context, conn *connection_manager.Connection, reported error) {
	p.Lock()
	defer p.Unlock()

	p.reported = append(p.reported, conn.Integration)
}

type invalidation struct {
	tenant      domain.TenantID
	integration domain.IntegrationName
}

type mockConnectionAdministrator struct {
	statuses      []connection_manager.ConnectionStatus
	invalidations []invalidation
	err           error
}

func (m *mockConnectionAdministrator) Status(tenant domain.TenantID) []connection_manager.ConnectionStatus {
	return m.statuses
}

func (m *mockConnectionAdministrator) InvalidateConnection(ctx context.Context, tenant domain.TenantID, integration domain.IntegrationName) error {
	if integration != domain.AccountsIntegration && integration != domain.GlobalIntegration {
		return connection_manager.UnknownIntegrationError{Integration: integration}
	}
	m.invalidations = append(m.invalidations, invalidation{tenant: tenant, integration: integration})
	return m.err
}

func (m *mockConnectionAdministrator) InvalidateTenant(ctx context.Context, tenant domain.TenantID) error {
	m.invalidations = append(m.invalidations, invalidation{tenant: tenant})
	return m.err
}
