package connection_manager

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sahulatai/agentic-backend/internal/domain"
	"github.com/sahulatai/agentic-backend/internal/platform/logger"

	"github.com/sirupsen/logrus"
)

const (
	DefaultCredentialCacheTTL  = 5 * time.Minute
	DefaultCredentialCacheSize = 10000
	DefaultMaxConnectionAge    = 30 * time.Minute
	DefaultFailureBackoff      = 30 * time.Second
)

type ManagerConfig struct {
	Profiles            []IntegrationProfile
	CredentialCacheTTL  time.Duration
	CredentialCacheSize int
	MaxConnectionAge    time.Duration
	FailureBackoff      time.Duration
}

type Option func(*Manager)

// WithClock replaces time.Now for every age, TTL and backoff decision.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func WithEventPublisher(publisher EventPublisher) Option {
	return func(m *Manager) {
		m.events = publisher
	}
}

// Manager hands out capability server connections per (tenant, integration).
// Expected failures never surface as errors; callers get an Acquisition
// without a connection and carry on with fewer tools.
type Manager struct {
	profiles    map[domain.IntegrationName]IntegrationProfile
	client      CapabilityClient
	credentials *CredentialCache
	registry    *Registry
	backoff     *BackoffTracker
	locks       *TenantLocks
	lifecycle   *Lifecycle
	events      EventPublisher
	now         func() time.Time
}

func NewManager(cfg ManagerConfig, store CredentialStore, client CapabilityClient, opts ...Option) *Manager {
	m := &Manager{
		profiles: make(map[domain.IntegrationName]IntegrationProfile),
		client:   client,
		events:   noopEventPublisher{},
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	for _, p := range cfg.Profiles {
		m.profiles[p.Name] = p
	}

	m.credentials = NewCredentialCache(store, cfg.CredentialCacheSize, cfg.CredentialCacheTTL, m.now)
	m.registry = NewRegistry(cfg.MaxConnectionAge)
	m.backoff = NewBackoffTracker(cfg.FailureBackoff)
	m.locks = NewTenantLocks()
	m.lifecycle = NewLifecycle()

	return m
}

func (m *Manager) Registry() *Registry {
	return m.registry
}

func (m *Manager) Backoff() *BackoffTracker {
	return m.backoff
}

func (m *Manager) Lifecycle() *Lifecycle {
	return m.lifecycle
}

func (m *Manager) Integrations() []domain.IntegrationName {
	names := make([]domain.IntegrationName, 0, len(m.profiles))
	for name := range m.profiles {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

func (m *Manager) EnsureInitialized() {
	m.lifecycle.EnsureInitialized()
}

// Acquire returns the connection to use for (tenant, integration) in the
// current request. The only error is UnknownIntegrationError.
func (m *Manager) Acquire(ctx context.Context, tenant domain.TenantID, integration domain.IntegrationName) (Acquisition, error) {
	profile, known := m.profiles[integration]
	if !known {
		return Acquisition{}, UnknownIntegrationError{Integration: integration}
	}

	acquisition := m.acquire(ctx, profile, tenant)
	metrics.acquisitionCounter.WithLabelValues(integration.String(), acquisition.Outcome.String()).Inc()

	return acquisition, nil
}

// AcquireConnection is Acquire reduced to a connection or nil.
func (m *Manager) AcquireConnection(ctx context.Context, tenant domain.TenantID, integration domain.IntegrationName) *Connection {
	acquisition, err := m.Acquire(ctx, tenant, integration)
	if err != nil {
		logger.LogError("Connection requested for an unknown integration", err,
			logrus.Fields{"tenant_id": tenant.String(), "integration": integration})
		return nil
	}
	return acquisition.Connection
}

func (m *Manager) acquire(ctx context.Context, profile IntegrationProfile, tenant domain.TenantID) Acquisition {
	integration := profile.Name
	log := logger.Log.WithFields(logrus.Fields{"tenant_id": tenant.String(), "integration": integration})

	scope := RequestScopeFrom(ctx)
	if conn := scope.Get(tenant, integration); conn != nil {
		return Acquisition{Connection: conn, Outcome: OutcomeRequestScoped}
	}

	m.lifecycle.EnsureInitialized()

	release, err := m.locks.Acquire(ctx, tenant)
	if err != nil {
		log.WithFields(logrus.Fields{"error": err}).Warn("Gave up waiting for the tenant lock")
		return Acquisition{Outcome: OutcomeCancelled}
	}
	defer release()

	// Another agent of this request may have finished while we waited
	if conn := scope.Get(tenant, integration); conn != nil {
		return Acquisition{Connection: conn, Outcome: OutcomeRequestScoped}
	}

	creds, err := m.credentials.Get(ctx, tenant, integration)
	if err != nil {
		log.WithFields(logrus.Fields{"error": err}).Error("Unable to resolve credentials")
		return Acquisition{Outcome: OutcomeCredentialError}
	}

	if creds == nil && profile.RequiresCredentials {
		log.Debug("No credentials configured")
		return Acquisition{Outcome: OutcomeNoCredentials}
	}

	fingerprint := creds.Fingerprint()
	now := m.now()

	if m.registry.FingerprintChanged(tenant, integration, fingerprint) {
		log.Info("Credentials changed, invalidating connection")
		m.invalidateLocked(ctx, tenant, integration, "credentials_changed")
	}

	if m.registry.IsStale(tenant, integration, now) {
		log.Info("Connection exceeded its maximum age, invalidating")
		m.invalidateLocked(ctx, tenant, integration, "stale")
	}

	if conn := m.registry.Get(tenant, integration); conn != nil {
		scope.Set(conn)
		return Acquisition{Connection: conn, Outcome: OutcomeReused}
	}

	if m.backoff.IsInBackoff(tenant, integration, now) {
		log.Debug("Connection attempt skipped, recent failure")
		return Acquisition{Outcome: OutcomeBackoff}
	}

	conn, err := m.open(ctx, profile, tenant, creds, fingerprint)
	if err != nil {
		m.backoff.MarkFailed(tenant, integration, m.now())
		log.WithFields(logrus.Fields{
			"url":        profile.URL,
			"error":      err,
			"error_type": errorKind(err),
		}).Error("Unable to open capability server connection")
		m.events.Publish(ctx, ConnectionEvent{
			Type:        ConnectionFailed,
			TenantID:    tenant,
			Integration: integration,
			Fingerprint: fingerprint,
			Reason:      errorKind(err),
			OccurredAt:  m.now(),
		})
		return Acquisition{Outcome: OutcomeFailed}
	}

	m.registry.Put(conn)
	scope.Set(conn)
	m.backoff.Clear(tenant, integration)

	log.WithFields(logrus.Fields{"url": profile.URL, "fingerprint": fingerprint}).Info("Opened capability server connection")
	m.events.Publish(ctx, ConnectionEvent{
		Type:        ConnectionCreated,
		TenantID:    tenant,
		Integration: integration,
		Fingerprint: fingerprint,
		OccurredAt:  conn.CreatedAt,
	})

	return Acquisition{Connection: conn, Outcome: OutcomeCreated}
}

func (m *Manager) open(ctx context.Context, profile IntegrationProfile, tenant domain.TenantID, creds *domain.Credentials, fingerprint string) (*Connection, error) {
	var openCtx context.Context
	var cancel context.CancelFunc
	if profile.OpenTimeout > 0 {
		openCtx, cancel = context.WithTimeout(ctx, profile.OpenTimeout)
	} else {
		openCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	params := OpenParams{
		Name:           profile.Name,
		URL:            profile.URL,
		Headers:        buildHeaders(profile.Name, tenant, creds),
		ConnectTimeout: profile.ConnectTimeout,
		ReadTimeout:    profile.ReadTimeout,
		MaxRetries:     profile.MaxRetries,
		RetryBackoff:   profile.RetryBackoff,
	}

	start := time.Now()
	session, err := m.client.Open(openCtx, params)
	metrics.openDuration.WithLabelValues(profile.Name.String()).Observe(time.Since(start).Seconds())

	if err == nil && openCtx.Err() != nil {
		err = openCtx.Err()
	}
	if err != nil {
		if session != nil {
			session.Close()
		}
		return nil, err
	}

	if err := m.lifecycle.Adopt(session); err != nil {
		session.Close()
		return nil, err
	}

	return &Connection{
		TenantID:    tenant,
		Integration: profile.Name,
		CreatedAt:   m.now(),
		Fingerprint: fingerprint,
		URL:         profile.URL,
		Session:     session,
	}, nil
}

// invalidateLocked drops the registered handle; the caller holds the tenant lock.
func (m *Manager) invalidateLocked(ctx context.Context, tenant domain.TenantID, integration domain.IntegrationName, reason string) {
	conn := m.registry.Remove(tenant, integration)
	RequestScopeFrom(ctx).Delete(tenant, integration)

	if conn == nil {
		return
	}

	metrics.invalidationCounter.WithLabelValues(integration.String(), reason).Inc()
	m.events.Publish(ctx, ConnectionEvent{
		Type:        ConnectionInvalidated,
		TenantID:    tenant,
		Integration: integration,
		Fingerprint: conn.Fingerprint,
		Reason:      reason,
		OccurredAt:  m.now(),
	})
}

// ReportConnectionError is called by the agent runtime when a tool call fails
// on conn. The handle is dropped so the next request rebuilds it, and the
// backoff window is armed so a dead server is not hammered. A report against a
// handle that has already been replaced leaves the registry alone.
func (m *Manager) ReportConnectionError(ctx context.Context, conn *Connection, reported error) {
	if conn == nil {
		return
	}

	tenant, integration := conn.TenantID, conn.Integration
	log := logger.Log.WithFields(logrus.Fields{"tenant_id": tenant.String(), "integration": integration, "error": reported})

	metrics.reportedErrorCounter.WithLabelValues(integration.String()).Inc()

	release, err := m.locks.Acquire(context.WithoutCancel(ctx), tenant)
	if err != nil {
		log.WithFields(logrus.Fields{"lock_error": err}).Error("Unable to lock tenant for error report")
		return
	}
	defer release()

	if current := m.registry.Get(tenant, integration); current != conn {
		scope := RequestScopeFrom(ctx)
		if scope.Get(tenant, integration) == conn {
			scope.Delete(tenant, integration)
		}
		metrics.supersededReportCounter.WithLabelValues(integration.String()).Inc()
		log.Info("Connection error reported on a replaced connection, ignoring")
		return
	}

	m.invalidateLocked(ctx, tenant, integration, "reported_error")
	m.backoff.MarkFailed(tenant, integration, m.now())

	log.Warn("Connection error reported, connection invalidated")
}

// InvalidateConnection forces a rebuild on the next acquisition, ignoring any
// recent failure and cached credentials.
func (m *Manager) InvalidateConnection(ctx context.Context, tenant domain.TenantID, integration domain.IntegrationName) error {
	if _, known := m.profiles[integration]; !known {
		return UnknownIntegrationError{Integration: integration}
	}

	release, err := m.locks.Acquire(ctx, tenant)
	if err != nil {
		return err
	}
	defer release()

	m.invalidateLocked(ctx, tenant, integration, "invalidated")
	m.backoff.Clear(tenant, integration)
	m.credentials.Invalidate(tenant, integration)

	logger.Log.WithFields(logrus.Fields{"tenant_id": tenant.String(), "integration": integration}).Info("Connection invalidated")

	return nil
}

// InvalidateTenant forgets every connection, failure and credential held for tenant.
func (m *Manager) InvalidateTenant(ctx context.Context, tenant domain.TenantID) error {
	release, err := m.locks.Acquire(ctx, tenant)
	if err != nil {
		return err
	}
	defer release()

	for _, conn := range m.registry.RemoveTenant(tenant) {
		metrics.invalidationCounter.WithLabelValues(conn.Integration.String(), "tenant_invalidated").Inc()
		m.events.Publish(ctx, ConnectionEvent{
			Type:        ConnectionInvalidated,
			TenantID:    tenant,
			Integration: conn.Integration,
			Fingerprint: conn.Fingerprint,
			Reason:      "tenant_invalidated",
			OccurredAt:  m.now(),
		})
	}
	RequestScopeFrom(ctx).DeleteTenant(tenant)
	m.backoff.ClearTenant(tenant)
	m.credentials.InvalidateTenant(tenant)

	logger.Log.WithFields(logrus.Fields{"tenant_id": tenant.String()}).Info("Tenant connections invalidated")

	return nil
}

type ConnectionStatus struct {
	Integration domain.IntegrationName
	Connected   bool
	CreatedAt   time.Time
	Age         time.Duration
	Fingerprint string
	InBackoff   bool
	FailedAt    time.Time
}

// Status reports what the manager holds for tenant, one entry per known integration.
func (m *Manager) Status(tenant domain.TenantID) []ConnectionStatus {
	now := m.now()
	connections := m.registry.GetByTenant(tenant)

	var statuses []ConnectionStatus
	for _, integration := range m.Integrations() {
		status := ConnectionStatus{Integration: integration}

		if conn, exists := connections[integration]; exists {
			status.Connected = true
			status.CreatedAt = conn.CreatedAt
			status.Age = now.Sub(conn.CreatedAt)
			status.Fingerprint = conn.Fingerprint
		}

		if failedAt, failed := m.backoff.FailedAt(tenant, integration); failed {
			status.FailedAt = failedAt
			status.InBackoff = m.backoff.IsInBackoff(tenant, integration, now)
		}

		statuses = append(statuses, status)
	}

	return statuses
}

// Shutdown closes every session and empties all in-memory state.
func (m *Manager) Shutdown(ctx context.Context) error {
	err := m.lifecycle.Shutdown(ctx)

	m.registry.Clear()
	m.backoff.ClearAll()
	m.credentials.Purge()

	if err != nil {
		return fmt.Errorf("connection manager shutdown: %w", err)
	}
	return nil
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return fmt.Sprintf("%T", err)
	}
}
