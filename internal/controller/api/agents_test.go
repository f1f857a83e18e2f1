package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sahulatai/agentic-backend/internal/agent"
	"github.com/sahulatai/agentic-backend/internal/config"
	"github.com/sahulatai/agentic-backend/internal/connection_manager"
	"github.com/sahulatai/agentic-backend/internal/domain"

	"github.com/gorilla/mux"
)

const (
	AGENTS_ENDPOINT = URL_BASE_PATH + "/agents"
)

var _ = Describe("Agents", func() {

	var (
		as       *AgentServer
		provider *mockConnectionProvider
		accounts *mockSession
	)

	BeforeEach(func() {
		apiMux := mux.NewRouter()
		cfg := config.GetConfig()
		cfg.ServiceToServiceCredentials[TEST_CLIENT_ID] = TEST_CLIENT_PSK

		accounts = &mockSession{
			tools: []connection_manager.Tool{
				{Name: "search_bills", Description: "Search bills"},
			},
			result: &connection_manager.ToolResult{Text: "3 bills found"},
		}

		provider = &mockConnectionProvider{
			sessions: map[domain.IntegrationName]*mockSession{domain.AccountsIntegration: accounts},
		}

		as = NewAgentServer(agent.NewFactory(provider), apiMux, URL_BASE_PATH, cfg)
		as.Routes()
	})

	Describe("Listing agent tools", func() {
		Context("With valid service credentials", func() {
			It("Should list the tools of a connected agent", func() {
				req, err := http.NewRequest("GET", AGENTS_ENDPOINT+"/accounts/tools", nil)
				Expect(err).NotTo(HaveOccurred())
				addServiceCredentials(req, TEST_TENANT_ID)

				rr := httptest.NewRecorder()
				as.router.ServeHTTP(rr, req)

				Expect(rr.Code).To(Equal(http.StatusOK))

				var response toolListingResponse
				Expect(json.Unmarshal(rr.Body.Bytes(), &response)).To(Succeed())
				Expect(response.Agent).To(Equal("accounts"))
				Expect(response.Integration).To(Equal("accounts"))
				Expect(response.Tools).To(HaveLen(1))
				Expect(response.Tools[0].Name).To(Equal("search_bills"))
			})

			It("Should list no tools when the capability server is unavailable", func() {
				req, err := http.NewRequest("GET", AGENTS_ENDPOINT+"/sales/tools", nil)
				Expect(err).NotTo(HaveOccurred())
				addServiceCredentials(req, TEST_TENANT_ID)

				rr := httptest.NewRecorder()
				as.router.ServeHTTP(rr, req)

				Expect(rr.Code).To(Equal(http.StatusOK))

				var response toolListingResponse
				Expect(json.Unmarshal(rr.Body.Bytes(), &response)).To(Succeed())
				Expect(response.Integration).To(Equal("global"))
				Expect(response.Tools).To(BeEmpty())
			})

			It("Should acquire connections inside a request scope", func() {
				req, err := http.NewRequest("GET", AGENTS_ENDPOINT+"/accounts/tools", nil)
				Expect(err).NotTo(HaveOccurred())
				addServiceCredentials(req, TEST_TENANT_ID)

				as.router.ServeHTTP(httptest.NewRecorder(), req)

				Expect(provider.scopes).To(HaveLen(1))
				Expect(provider.scopes[0]).NotTo(BeNil())
			})

			It("Should return 404 for an unknown agent", func() {
				req, err := http.NewRequest("GET", AGENTS_ENDPOINT+"/hr/tools", nil)
				Expect(err).NotTo(HaveOccurred())
				addServiceCredentials(req, TEST_TENANT_ID)

				rr := httptest.NewRecorder()
				as.router.ServeHTTP(rr, req)

				Expect(rr.Code).To(Equal(http.StatusNotFound))
			})
		})

		Context("Without credentials", func() {
			It("Should return 401", func() {
				req, err := http.NewRequest("GET", AGENTS_ENDPOINT+"/accounts/tools", nil)
				Expect(err).NotTo(HaveOccurred())

				rr := httptest.NewRecorder()
				as.router.ServeHTTP(rr, req)

				Expect(rr.Code).To(Equal(http.StatusUnauthorized))
				Expect(provider.scopes).To(BeEmpty())
			})
		})
	})

	Describe("Invoking agent tools", func() {
		It("Should return the tool result", func() {
			body := strings.NewReader(`{"tool": "search_bills", "arguments": {"vendor": "Acme"}}`)
			req, err := http.NewRequest("POST", AGENTS_ENDPOINT+"/accounts/invoke", body)
			Expect(err).NotTo(HaveOccurred())
			addServiceCredentials(req, TEST_TENANT_ID)

			rr := httptest.NewRecorder()
			as.router.ServeHTTP(rr, req)

			Expect(rr.Code).To(Equal(http.StatusOK))

			var response invokeResponse
			Expect(json.Unmarshal(rr.Body.Bytes(), &response)).To(Succeed())
			Expect(response).To(Equal(invokeResponse{Agent: "accounts", Tool: "search_bills", Text: "3 bills found"}))
		})

		It("Should answer a transport failure with a degraded 200 and report it", func() {
			accounts.callErr = errors.New("closed resource")

			body := strings.NewReader(`{"tool": "search_bills"}`)
			req, err := http.NewRequest("POST", AGENTS_ENDPOINT+"/accounts/invoke", body)
			Expect(err).NotTo(HaveOccurred())
			addServiceCredentials(req, TEST_TENANT_ID)

			rr := httptest.NewRecorder()
			as.router.ServeHTTP(rr, req)

			Expect(rr.Code).To(Equal(http.StatusOK))

			var response invokeResponse
			Expect(json.Unmarshal(rr.Body.Bytes(), &response)).To(Succeed())
			Expect(response.Degraded).To(BeTrue())
			Expect(response.Text).To(Equal(agent.TemporaryServiceIssueMessage))
			Expect(provider.reported).To(Equal([]domain.IntegrationName{domain.AccountsIntegration}))
		})

		It("Should answer an agent without tools with a degraded 200", func() {
			body := strings.NewReader(`{"tool": "list_orders"}`)
			req, err := http.NewRequest("POST", AGENTS_ENDPOINT+"/inventory/invoke", body)
			Expect(err).NotTo(HaveOccurred())
			addServiceCredentials(req, TEST_TENANT_ID)

			rr := httptest.NewRecorder()
			as.router.ServeHTTP(rr, req)

			Expect(rr.Code).To(Equal(http.StatusOK))

			var response invokeResponse
			Expect(json.Unmarshal(rr.Body.Bytes(), &response)).To(Succeed())
			Expect(response.Degraded).To(BeTrue())
		})

		It("Should return 404 for a tool the agent does not offer", func() {
			body := strings.NewReader(`{"tool": "delete_company"}`)
			req, err := http.NewRequest("POST", AGENTS_ENDPOINT+"/accounts/invoke", body)
			Expect(err).NotTo(HaveOccurred())
			addServiceCredentials(req, TEST_TENANT_ID)

			rr := httptest.NewRecorder()
			as.router.ServeHTTP(rr, req)

			Expect(rr.Code).To(Equal(http.StatusNotFound))
		})

		It("Should return 400 when the tool is missing", func() {
			body := strings.NewReader(`{"arguments": {}}`)
			req, err := http.NewRequest("POST", AGENTS_ENDPOINT+"/accounts/invoke", body)
			Expect(err).NotTo(HaveOccurred())
			addServiceCredentials(req, TEST_TENANT_ID)

			rr := httptest.NewRecorder()
			as.router.ServeHTTP(rr, req)

			Expect(rr.Code).To(Equal(http.StatusBadRequest))
		})

		It("Should return 400 for malformed json", func() {
			body := strings.NewReader(`{"tool": `)
			req, err := http.NewRequest("POST", AGENTS_ENDPOINT+"/accounts/invoke", body)
			Expect(err).NotTo(HaveOccurred())
			addServiceCredentials(req, TEST_TENANT_ID)

			rr := httptest.NewRecorder()
			as.router.ServeHTTP(rr, req)

			Expect(rr.Code).To(Equal(http.StatusBadRequest))
		})
	})
})
