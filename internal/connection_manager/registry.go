package connection_manager

import (
	"sync"
	"time"

	"github.com/sahulatai/agentic-backend/internal/domain"
)

// Registry holds at most one live connection per (tenant, integration).
// Removing a connection only unregisters it; the Lifecycle closes sessions.
type Registry struct {
	connections map[domain.TenantID]map[domain.IntegrationName]*Connection
	maxAge      time.Duration
	sync.RWMutex
}

func NewRegistry(maxAge time.Duration) *Registry {
	return &Registry{
		connections: make(map[domain.TenantID]map[domain.IntegrationName]*Connection),
		maxAge:      maxAge,
	}
}

func (r *Registry) Get(tenant domain.TenantID, integration domain.IntegrationName) *Connection {
	r.RLock()
	defer r.RUnlock()

	perTenant, exists := r.connections[tenant]
	if !exists {
		return nil
	}

	return perTenant[integration]
}

// Put registers conn, replacing any previous handle for the same pair.
func (r *Registry) Put(conn *Connection) {
	r.Lock()
	defer r.Unlock()

	perTenant, exists := r.connections[conn.TenantID]
	if !exists {
		perTenant = make(map[domain.IntegrationName]*Connection)
		r.connections[conn.TenantID] = perTenant
	}

	if _, replaced := perTenant[conn.Integration]; !replaced {
		metrics.liveConnectionGauge.WithLabelValues(conn.Integration.String()).Inc()
	}

	perTenant[conn.Integration] = conn
}

func (r *Registry) Remove(tenant domain.TenantID, integration domain.IntegrationName) *Connection {
	r.Lock()
	defer r.Unlock()

	return r.removeLocked(tenant, integration)
}

func (r *Registry) removeLocked(tenant domain.TenantID, integration domain.IntegrationName) *Connection {
	perTenant, exists := r.connections[tenant]
	if !exists {
		return nil
	}

	conn, exists := perTenant[integration]
	if !exists {
		return nil
	}

	delete(perTenant, integration)
	if len(perTenant) == 0 {
		delete(r.connections, tenant)
	}

	metrics.liveConnectionGauge.WithLabelValues(integration.String()).Dec()

	return conn
}

func (r *Registry) RemoveTenant(tenant domain.TenantID) []*Connection {
	r.Lock()
	defer r.Unlock()

	var removed []*Connection
	for integration := range r.connections[tenant] {
		removed = append(removed, r.removeLocked(tenant, integration))
	}

	return removed
}

// IsStale reports whether the registered handle is older than the maximum age.
// A missing handle is not stale.
func (r *Registry) IsStale(tenant domain.TenantID, integration domain.IntegrationName, now time.Time) bool {
	conn := r.Get(tenant, integration)
	if conn == nil {
		return false
	}

	return now.Sub(conn.CreatedAt) > r.maxAge
}

// FingerprintChanged reports whether a registered handle was built from other credentials.
func (r *Registry) FingerprintChanged(tenant domain.TenantID, integration domain.IntegrationName, fingerprint string) bool {
	conn := r.Get(tenant, integration)
	if conn == nil {
		return false
	}

	return conn.Fingerprint != fingerprint
}

func (r *Registry) GetByTenant(tenant domain.TenantID) map[domain.IntegrationName]*Connection {
	r.RLock()
	defer r.RUnlock()

	perTenant := make(map[domain.IntegrationName]*Connection)
	for k, v := range r.connections[tenant] {
		perTenant[k] = v
	}

	return perTenant
}

func (r *Registry) Snapshot() []*Connection {
	r.RLock()
	defer r.RUnlock()

	var all []*Connection
	for _, perTenant := range r.connections {
		for _, conn := range perTenant {
			all = append(all, conn)
		}
	}

	return all
}

func (r *Registry) Len() int {
	r.RLock()
	defer r.RUnlock()

	count := 0
	for _, perTenant := range r.connections {
		count += len(perTenant)
	}

	return count
}

func (r *Registry) Clear() {
	r.Lock()
	defer r.Unlock()

	for tenant, perTenant := range r.connections {
		for integration := range perTenant {
			r.removeLocked(tenant, integration)
		}
	}
}
