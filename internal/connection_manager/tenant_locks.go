package connection_manager

import (
	"context"
	"sync"

	"github.com/sahulatai/agentic-backend/internal/domain"

	"golang.org/x/sync/semaphore"
)

// TenantLocks hands out one lock per tenant. Locks are created on first use
// and kept for the life of the process.
type TenantLocks struct {
	locks map[domain.TenantID]*semaphore.Weighted
	sync.Mutex
}

func NewTenantLocks() *TenantLocks {
	return &TenantLocks{
		locks: make(map[domain.TenantID]*semaphore.Weighted),
	}
}

func (tl *TenantLocks) lockFor(tenant domain.TenantID) *semaphore.Weighted {
	tl.Lock()
	defer tl.Unlock()

	lock, exists := tl.locks[tenant]
	if !exists {
		lock = semaphore.NewWeighted(1)
		tl.locks[tenant] = lock
	}

	return lock
}

// Acquire blocks until the tenant's lock is held or ctx is done.
func (tl *TenantLocks) Acquire(ctx context.Context, tenant domain.TenantID) (func(), error) {
	lock := tl.lockFor(tenant)

	if err := lock.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	var once sync.Once
	return func() { once.Do(func() { lock.Release(1) }) }, nil
}

func (tl *TenantLocks) Len() int {
	tl.Lock()
	defer tl.Unlock()

	return len(tl.locks)
}
