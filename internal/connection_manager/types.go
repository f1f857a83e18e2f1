package connection_manager

import (
	"context"
	"fmt"
	"time"

	"github.com/sahulatai/agentic-backend/internal/domain"
)

type CredentialStore interface {
	GetCredentials(ctx context.Context, tenant domain.TenantID, integration domain.IntegrationName) (*domain.Credentials, error)
}

type Tool struct {
	Name        string
	Description string
	InputSchema map[string]interface{}
}

type ToolResult struct {
	Text    string
	IsError bool
}

// Session is one open streaming session to a capability server.
type Session interface {
	ListTools(ctx context.Context) ([]Tool, error)
	CallTool(ctx context.Context, name string, arguments map[string]interface{}) (*ToolResult, error)
	Close() error
}

type OpenParams struct {
	Name           domain.IntegrationName
	URL            string
	Headers        map[string]string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
}

type CapabilityClient interface {
	Open(ctx context.Context, params OpenParams) (Session, error)
}

// Connection is the registry's handle on an open session. The session is
// owned by the Lifecycle; holders of a Connection never close it.
type Connection struct {
	TenantID    domain.TenantID
	Integration domain.IntegrationName
	CreatedAt   time.Time
	Fingerprint string
	URL         string
	Session     Session
}

type connectionKey struct {
	tenant      domain.TenantID
	integration domain.IntegrationName
}

type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomeRequestScoped
	OutcomeReused
	OutcomeCreated
	OutcomeNoCredentials
	OutcomeBackoff
	OutcomeCredentialError
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRequestScoped:
		return "request_scoped"
	case OutcomeReused:
		return "reused"
	case OutcomeCreated:
		return "created"
	case OutcomeNoCredentials:
		return "no_credentials"
	case OutcomeBackoff:
		return "backoff"
	case OutcomeCredentialError:
		return "credential_error"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "failed"
	}
}

// Acquisition is the result of asking the manager for a connection.
// Connection is non-nil only for the request_scoped, reused and created outcomes.
type Acquisition struct {
	Connection *Connection
	Outcome    Outcome
}

func (a Acquisition) OK() bool {
	return a.Connection != nil
}

type UnknownIntegrationError struct {
	Integration domain.IntegrationName
}

func (e UnknownIntegrationError) Error() string {
	return fmt.Sprintf("unknown integration %q", string(e.Integration))
}
