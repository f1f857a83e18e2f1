package connection_manager

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sahulatai/agentic-backend/internal/domain"
	"github.com/sahulatai/agentic-backend/internal/platform/logger"

	"github.com/google/uuid"
)

func init() {
	logger.InitLogger()
}

var errConnectionRefused = errors.New("connection refused")

type fakeClock struct {
	current time.Time
	sync.Mutex
}

func newFakeClock() *fakeClock {
	return &fakeClock{current: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.Lock()
	defer c.Unlock()
	return c.current
}

func (c *fakeClock) Advance(d time.Duration) {
	c.Lock()
	defer c.Unlock()
	c.current = c.current.Add(d)
}

type fakeCredentialStore struct {
	credentials map[connectionKey]domain.Credentials
	err         error
	calls       int
	sync.Mutex
}

func newFakeCredentialStore() *fakeCredentialStore {
	return &fakeCredentialStore{credentials: make(map[connectionKey]domain.Credentials)}
}

func (s *fakeCredentialStore) set(tenant domain.TenantID, integration domain.IntegrationName, token string, fields map[string]string) {
	s.Lock()
	defer s.Unlock()
	s.credentials[connectionKey{tenant, integration}] = domain.Credentials{AccessToken: token, Fields: fields}
}

func (s *fakeCredentialStore) remove(tenant domain.TenantID, integration domain.IntegrationName) {
	s.Lock()
	defer s.Unlock()
	delete(s.credentials, connectionKey{tenant, integration})
}

func (s *fakeCredentialStore) setError(err error) {
	s.Lock()
	defer s.Unlock()
	s.err = err
}

func (s *fakeCredentialStore) callCount() int {
	s.Lock()
	defer s.Unlock()
	return s.calls
}

func (s *fakeCredentialStore) GetCredentials(ctx context.Context, tenant domain.TenantID, integration domain.IntegrationName) (*domain.Credentials, error) {
	s.Lock()
	defer s.Unlock()

	s.calls++

	if s.err != nil {
		return nil, s.err
	}

	creds, exists := s.credentials[connectionKey{tenant, integration}]
	if !exists {
		return nil, nil
	}

	return &creds, nil
}

type fakeSession struct {
	id       int
	closed   bool
	closeLog *[]int
	sync.Mutex
}

func (s *fakeSession) ListTools(ctx context.Context) ([]Tool, error) {
	return []Tool{{Name: "get_invoices"}}, nil
}

func (s *fakeSession) CallTool(ctx context.Context, name string, arguments map[string]interface{}) (*ToolResult, error) {
	return &ToolResult{Text: "ok"}, nil
}

func (s *fakeSession) Close() error {
	s.Lock()
	defer s.Unlock()
	s.closed = true
	if s.closeLog != nil {
		*s.closeLog = append(*s.closeLog, s.id)
	}
	return nil
}

func (s *fakeSession) isClosed() bool {
	s.Lock()
	defer s.Unlock()
	return s.closed
}

type fakeCapabilityClient struct {
	delay    time.Duration
	err      error
	opens    int
	params   []OpenParams
	sessions []*fakeSession
	closeLog []int
	sync.Mutex
}

func (c *fakeCapabilityClient) setError(err error) {
	c.Lock()
	defer c.Unlock()
	c.err = err
}

func (c *fakeCapabilityClient) openCount() int {
	c.Lock()
	defer c.Unlock()
	return c.opens
}

func (c *fakeCapabilityClient) lastParams() OpenParams {
	c.Lock()
	defer c.Unlock()
	return c.params[len(c.params)-1]
}

func (c *fakeCapabilityClient) Open(ctx context.Context, params OpenParams) (Session, error) {
	c.Lock()
	c.opens++
	c.params = append(c.params, params)
	delay := c.delay
	err := c.err
	c.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err != nil {
		return nil, err
	}

	c.Lock()
	defer c.Unlock()
	session := &fakeSession{id: len(c.sessions) + 1, closeLog: &c.closeLog}
	c.sessions = append(c.sessions, session)

	return session, nil
}

func testProfiles() []IntegrationProfile {
	return []IntegrationProfile{
		{
			Name:                domain.AccountsIntegration,
			URL:                 "http://accounts.test/mcp",
			RequiresCredentials: true,
			OpenTimeout:         time.Second,
			ConnectTimeout:      2 * time.Second,
			MaxRetries:          1,
		},
		{
			Name:           domain.GlobalIntegration,
			URL:            "http://global.test/mcp",
			OpenTimeout:    time.Second,
			ConnectTimeout: 2 * time.Second,
		},
	}
}

func testManagerConfig() ManagerConfig {
	return ManagerConfig{
		Profiles:            testProfiles(),
		CredentialCacheTTL:  DefaultCredentialCacheTTL,
		CredentialCacheSize: 100,
		MaxConnectionAge:    DefaultMaxConnectionAge,
		FailureBackoff:      DefaultFailureBackoff,
	}
}

type testHarness struct {
	manager *Manager
	store   *fakeCredentialStore
	client  *fakeCapabilityClient
	clock   *fakeClock
	events  *recordingEventPublisher
}

func newTestHarness(cfg ManagerConfig) *testHarness {
	h := &testHarness{
		store:  newFakeCredentialStore(),
		client: &fakeCapabilityClient{},
		clock:  newFakeClock(),
		events: &recordingEventPublisher{},
	}
	h.manager = NewManager(cfg, h.store, h.client, WithClock(h.clock.Now), WithEventPublisher(h.events))
	return h
}

type recordingEventPublisher struct {
	events []ConnectionEvent
	sync.Mutex
}

func (p *recordingEventPublisher) Publish(ctx context.Context, event ConnectionEvent) {
	p.Lock()
	defer p.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingEventPublisher) types() []EventType {
	p.Lock()
	defer p.Unlock()
	var types []EventType
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

func newTenant() domain.TenantID {
	return domain.TenantID(uuid.New())
}
