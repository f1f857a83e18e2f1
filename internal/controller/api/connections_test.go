package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sahulatai/agentic-backend/internal/config"
	"github.com/sahulatai/agentic-backend/internal/connection_manager"
	"github.com/sahulatai/agentic-backend/internal/domain"

	"github.com/gorilla/mux"
)

const (
	CONNECTION_LIST_ENDPOINT       = URL_BASE_PATH + "/connections"
	CONNECTION_INVALIDATE_ENDPOINT = URL_BASE_PATH + "/connections/invalidate"
)

var _ = Describe("Connections", func() {

	var (
		cs     *ConnectionServer
		admin  *mockConnectionAdministrator
		tenant domain.TenantID
	)

	BeforeEach(func() {
		apiMux := mux.NewRouter()
		cfg := config.GetConfig()
		cfg.ServiceToServiceCredentials[TEST_CLIENT_ID] = TEST_CLIENT_PSK

		createdAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		admin = &mockConnectionAdministrator{
			statuses: []connection_manager.ConnectionStatus{
				{Integration: domain.AccountsIntegration, Connected: true, CreatedAt: createdAt, Age: 90 * time.Second, Fingerprint: "abcdef0123456789"},
				{Integration: domain.GlobalIntegration, InBackoff: true, FailedAt: createdAt},
			},
		}

		var err error
		tenant, err = domain.ParseTenantID(TEST_TENANT_ID)
		Expect(err).NotTo(HaveOccurred())

		cs = NewConnectionServer(admin, apiMux, URL_BASE_PATH, cfg)
		cs.Routes()
	})

	Describe("Listing connections", func() {
		It("Should report every integration for the tenant", func() {
			req, err := http.NewRequest("GET", CONNECTION_LIST_ENDPOINT, nil)
			Expect(err).NotTo(HaveOccurred())
			addServiceCredentials(req, TEST_TENANT_ID)

			rr := httptest.NewRecorder()
			cs.router.ServeHTTP(rr, req)

			Expect(rr.Code).To(Equal(http.StatusOK))

			var response connectionListingResponse
			Expect(json.Unmarshal(rr.Body.Bytes(), &response)).To(Succeed())
			Expect(response.TenantID).To(Equal(TEST_TENANT_ID))
			Expect(response.Connections).To(HaveLen(2))

			Expect(response.Connections[0].Connected).To(BeTrue())
			Expect(response.Connections[0].AgeSeconds).To(Equal(int64(90)))
			Expect(response.Connections[0].FailedAt).To(BeNil())

			Expect(response.Connections[1].Connected).To(BeFalse())
			Expect(response.Connections[1].InBackoff).To(BeTrue())
			Expect(response.Connections[1].CreatedAt).To(BeNil())
		})

		It("Should return 401 without credentials", func() {
			req, err := http.NewRequest("GET", CONNECTION_LIST_ENDPOINT, nil)
			Expect(err).NotTo(HaveOccurred())

			rr := httptest.NewRecorder()
			cs.router.ServeHTTP(rr, req)

			Expect(rr.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("Invalidating connections", func() {
		It("Should invalidate a single integration", func() {
			req, err := http.NewRequest("POST", CONNECTION_INVALIDATE_ENDPOINT, strings.NewReader(`{"integration": "accounts"}`))
			Expect(err).NotTo(HaveOccurred())
			addServiceCredentials(req, TEST_TENANT_ID)

			rr := httptest.NewRecorder()
			cs.router.ServeHTTP(rr, req)

			Expect(rr.Code).To(Equal(http.StatusOK))
			Expect(admin.invalidations).To(Equal([]invalidation{{tenant: tenant, integration: domain.AccountsIntegration}}))
		})

		It("Should invalidate the whole tenant when no integration is named", func() {
			req, err := http.NewRequest("POST", CONNECTION_INVALIDATE_ENDPOINT, strings.NewReader(`{}`))
			Expect(err).NotTo(HaveOccurred())
			addServiceCredentials(req, TEST_TENANT_ID)

			rr := httptest.NewRecorder()
			cs.router.ServeHTTP(rr, req)

			Expect(rr.Code).To(Equal(http.StatusOK))
			Expect(admin.invalidations).To(Equal([]invalidation{{tenant: tenant}}))
		})

		It("Should return 400 for an unknown integration", func() {
			req, err := http.NewRequest("POST", CONNECTION_INVALIDATE_ENDPOINT, strings.NewReader(`{"integration": "crm"}`))
			Expect(err).NotTo(HaveOccurred())
			addServiceCredentials(req, TEST_TENANT_ID)

			rr := httptest.NewRecorder()
			cs.router.ServeHTTP(rr, req)

			Expect(rr.Code).To(Equal(http.StatusBadRequest))
			Expect(admin.invalidations).To(BeEmpty())
		})

		It("Should return 503 when the tenant cannot be locked", func() {
			admin.err = errors.New("context deadline exceeded")

			req, err := http.NewRequest("POST", CONNECTION_INVALIDATE_ENDPOINT, strings.NewReader(`{}`))
			Expect(err).NotTo(HaveOccurred())
			addServiceCredentials(req, TEST_TENANT_ID)

			rr := httptest.NewRecorder()
			cs.router.ServeHTTP(rr, req)

			Expect(rr.Code).To(Equal(http.StatusServiceUnavailable))
		})
	})
})
