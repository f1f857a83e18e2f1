package middlewares

import (
	"context"

	"github.com/sahulatai/agentic-backend/internal/domain"
)

// Principal interface can be implemented and expanded by various principal objects (type depends on the authentication used)
type Principal interface {
	GetTenantID() domain.TenantID
	GetSubject() string
}

type key int

var principalKey key

type serviceToServicePrincipal struct {
	tenantID domain.TenantID
	clientID string
}

func (sp serviceToServicePrincipal) GetTenantID() domain.TenantID {
	return sp.tenantID
}

func (sp serviceToServicePrincipal) GetSubject() string {
	return sp.clientID
}

type tokenPrincipal struct {
	tenantID domain.TenantID
}

func (tp tokenPrincipal) GetTenantID() domain.TenantID {
	return tp.tenantID
}

func (tp tokenPrincipal) GetSubject() string {
	return tp.tenantID.String()
}

// GetPrincipal returns the principal the Authenticate middleware attached to the request context
func GetPrincipal(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// WithPrincipal attaches p to ctx the same way Authenticate does
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}
