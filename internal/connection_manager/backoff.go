package connection_manager

import (
	"sync"
	"time"

	"github.com/sahulatai/agentic-backend/internal/domain"
)

// BackoffTracker remembers the last failed open per (tenant, integration)
// and suppresses new attempts while inside the window.
type BackoffTracker struct {
	failures map[connectionKey]time.Time
	window   time.Duration
	sync.Mutex
}

func NewBackoffTracker(window time.Duration) *BackoffTracker {
	return &BackoffTracker{
		failures: make(map[connectionKey]time.Time),
		window:   window,
	}
}

func (bt *BackoffTracker) MarkFailed(tenant domain.TenantID, integration domain.IntegrationName, now time.Time) {
	bt.Lock()
	defer bt.Unlock()

	bt.failures[connectionKey{tenant, integration}] = now
}

func (bt *BackoffTracker) IsInBackoff(tenant domain.TenantID, integration domain.IntegrationName, now time.Time) bool {
	bt.Lock()
	defer bt.Unlock()

	failedAt, exists := bt.failures[connectionKey{tenant, integration}]
	if !exists {
		return false
	}

	return now.Sub(failedAt) < bt.window
}

func (bt *BackoffTracker) FailedAt(tenant domain.TenantID, integration domain.IntegrationName) (time.Time, bool) {
	bt.Lock()
	defer bt.Unlock()

	failedAt, exists := bt.failures[connectionKey{tenant, integration}]
	return failedAt, exists
}

func (bt *BackoffTracker) Clear(tenant domain.TenantID, integration domain.IntegrationName) {
	bt.Lock()
	defer bt.Unlock()

	delete(bt.failures, connectionKey{tenant, integration})
}

func (bt *BackoffTracker) ClearTenant(tenant domain.TenantID) {
	bt.Lock()
	defer bt.Unlock()

	for key := range bt.failures {
		if key.tenant == tenant {
			delete(bt.failures, key)
		}
	}
}

func (bt *BackoffTracker) ClearAll() {
	bt.Lock()
	defer bt.Unlock()

	bt.failures = make(map[connectionKey]time.Time)
}
