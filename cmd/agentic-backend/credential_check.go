package main

import (
	"context"
	"fmt"
	"io"

	"github.com/sahulatai/agentic-backend/internal/config"
	"github.com/sahulatai/agentic-backend/internal/connection_manager"
	"github.com/sahulatai/agentic-backend/internal/domain"
	"github.com/sahulatai/agentic-backend/internal/platform/logger"
)

// runCredentialCheck opens one connection the same way the api server would
// and prints what the capability server offers
func runCredentialCheck(ctx context.Context, tenantID string, integration string, out io.Writer) error {

	cfg := config.GetConfig()

	if tenantID == "" {
		tenantID = cfg.CredentialCheckTenantId
	}
	if integration == "" {
		integration = cfg.CredentialCheckIntegration
	}

	tenant, err := domain.ParseTenantID(tenantID)
	if err != nil {
		return err
	}

	manager, err := buildConnectionManager(cfg)
	if err != nil {
		return err
	}

	manager.EnsureInitialized()
	defer func() {
		if err := manager.Shutdown(context.Background()); err != nil {
			logger.LogError("Errors while closing capability server connections", err)
		}
	}()

	ctx, scope := connection_manager.WithRequestScope(ctx)
	defer scope.Clear()

	acquisition, err := manager.Acquire(ctx, tenant, domain.IntegrationName(integration))
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "tenant: %s\nintegration: %s\noutcome: %s\n", tenant, integration, acquisition.Outcome)

	if !acquisition.OK() {
		return fmt.Errorf("no connection available: %s", acquisition.Outcome)
	}

	tools, err := acquisition.Connection.Session.ListTools(ctx)
	if err != nil {
		manager.ReportConnectionError(ctx, acquisition.Connection, err)
		return err
	}

	fmt.Fprintf(out, "fingerprint: %s\ntools: %d\n", acquisition.Connection.Fingerprint, len(tools))
	for _, t := range tools {
		fmt.Fprintf(out, "  %s - %s\n", t.Name, t.Description)
	}

	return nil
}
