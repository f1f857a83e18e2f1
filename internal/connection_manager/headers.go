package connection_manager

import (
	"github.com/sahulatai/agentic-backend/internal/domain"
)

const (
	protocolVersionHeader    = "jsonrpc"
	protocolVersion          = "2.0"
	contentTypeHeader        = "Content-Type"
	streamingContentType     = "application/json, text/event-stream"
	tenantHeader             = "x-tenant-id"
	authorizationHeader      = "Authorization"
	realmHeader              = "x-quickbooks-realm-id"
	refreshTokenHeader       = "x-user-refresh-token"
	inventoryWorkbookHeader  = "x-inventory-workbook-id"
	inventoryWorksheetHeader = "x-inventory-worksheet-name"
	ordersWorkbookHeader     = "x-orders-workbook-id"
	ordersWorksheetHeader    = "x-orders-worksheet-name"
)

var optionalGlobalHeaders = []struct {
	header string
	field  string
}{
	{inventoryWorkbookHeader, domain.InventoryWorkbookIDField},
	{inventoryWorksheetHeader, domain.InventoryWorksheetNameField},
	{ordersWorkbookHeader, domain.OrdersWorkbookIDField},
	{ordersWorksheetHeader, domain.OrdersWorksheetNameField},
}

func buildHeaders(integration domain.IntegrationName, tenant domain.TenantID, creds *domain.Credentials) map[string]string {
	headers := map[string]string{
		protocolVersionHeader: protocolVersion,
		contentTypeHeader:     streamingContentType,
		tenantHeader:          tenant.String(),
	}

	if creds == nil {
		return headers
	}

	switch integration {
	case domain.AccountsIntegration:
		headers[authorizationHeader] = "Bearer " + creds.AccessToken
		if realmID := creds.Field(domain.RealmIDField); realmID != "" {
			headers[realmHeader] = realmID
		}
	case domain.GlobalIntegration:
		if creds.AccessToken != "" {
			headers[refreshTokenHeader] = creds.AccessToken
		}
		for _, h := range optionalGlobalHeaders {
			if value := creds.Field(h.field); value != "" {
				headers[h.header] = value
			}
		}
	}

	return headers
}
