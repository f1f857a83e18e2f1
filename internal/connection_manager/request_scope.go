package connection_manager

import (
	"context"
	"sync"

	"github.com/sahulatai/agentic-backend/internal/domain"
)

type requestScopeKey struct{}

// RequestScope shares connections between the agents of one inbound request.
// A nil *RequestScope is valid and holds nothing.
type RequestScope struct {
	connections map[connectionKey]*Connection
	sync.Mutex
}

func WithRequestScope(ctx context.Context) (context.Context, *RequestScope) {
	scope := &RequestScope{connections: make(map[connectionKey]*Connection)}
	return context.WithValue(ctx, requestScopeKey{}, scope), scope
}

func RequestScopeFrom(ctx context.Context) *RequestScope {
	scope, _ := ctx.Value(requestScopeKey{}).(*RequestScope)
	return scope
}

func (rs *RequestScope) Get(tenant domain.TenantID, integration domain.IntegrationName) *Connection {
	if rs == nil {
		return nil
	}

	rs.Lock()
	defer rs.Unlock()

	return rs.connections[connectionKey{tenant, integration}]
}

func (rs *RequestScope) Set(conn *Connection) {
	if rs == nil {
		return
	}

	rs.Lock()
	defer rs.Unlock()

	rs.connections[connectionKey{conn.TenantID, conn.Integration}] = conn
}

func (rs *RequestScope) Delete(tenant domain.TenantID, integration domain.IntegrationName) {
	if rs == nil {
		return
	}

	rs.Lock()
	defer rs.Unlock()

	delete(rs.connections, connectionKey{tenant, integration})
}

func (rs *RequestScope) DeleteTenant(tenant domain.TenantID) {
	if rs == nil {
		return
	}

	rs.Lock()
	defer rs.Unlock()

	for key := range rs.connections {
		if key.tenant == tenant {
			delete(rs.connections, key)
		}
	}
}

func (rs *RequestScope) Len() int {
	if rs == nil {
		return 0
	}

	rs.Lock()
	defer rs.Unlock()

	return len(rs.connections)
}

// Clear must run when the request ends, whatever the outcome.
func (rs *RequestScope) Clear() {
	if rs == nil {
		return
	}

	rs.Lock()
	defer rs.Unlock()

	rs.connections = make(map[connectionKey]*Connection)
}
