package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

type TenantID uuid.UUID

func (tid TenantID) String() string {
	return uuid.UUID(tid).String()
}

func ParseTenantID(s string) (TenantID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return TenantID{}, fmt.Errorf("invalid tenant id %q: %w", s, err)
	}
	return TenantID(id), nil
}

type IntegrationName string

func (in IntegrationName) String() string {
	return string(in)
}

const (
	AccountsIntegration IntegrationName = "accounts"
	GlobalIntegration   IntegrationName = "global"
)

// Integration specific credential fields
const (
	RealmIDField                = "realm_id"
	RefreshTokenField           = "refresh_token"
	InventoryWorkbookIDField    = "inventory_workbook_id"
	InventoryWorksheetNameField = "inventory_worksheet_name"
	OrdersWorkbookIDField       = "orders_workbook_id"
	OrdersWorksheetNameField    = "orders_worksheet_name"
)

type Credentials struct {
	AccessToken string
	Fields      map[string]string
	FetchedAt   time.Time
}

func (c *Credentials) Field(name string) string {
	if c == nil || c.Fields == nil {
		return ""
	}
	return c.Fields[name]
}

// Fingerprint covers the token and every integration field, so reconfigured
// worksheet coordinates are detected the same way as a rotated token.
// A nil credential has an empty fingerprint.
func (c *Credentials) Fingerprint() string {
	if c == nil {
		return ""
	}

	keys := make([]string, 0, len(c.Fields))
	for k := range c.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(c.AccessToken)
	for _, k := range keys {
		b.WriteString("\x00")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(c.Fields[k])
	}

	return Fingerprint(b.String())
}

// Fingerprint identifies a credential without exposing it in logs or registries.
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])[:16]
}

type AgentKind string

const (
	AccountsAgent  AgentKind = "accounts"
	SalesAgent     AgentKind = "sales"
	MarketingAgent AgentKind = "marketing"
	InventoryAgent AgentKind = "inventory"
	PaymentAgent   AgentKind = "payment"
	AnalyticsAgent AgentKind = "analytics"
)
