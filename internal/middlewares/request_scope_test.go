package middlewares_test

import (
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/google/uuid"

	"github.com/sahulatai/agentic-backend/internal/connection_manager"
	"github.com/sahulatai/agentic-backend/internal/domain"
	"github.com/sahulatai/agentic-backend/internal/middlewares"
)

var _ = Describe("RequestScope", func() {
	var (
		req      *http.Request
		captured *connection_manager.RequestScope
	)

	BeforeEach(func() {
		captured = nil
		req = httptest.NewRequest("GET", "/api/agentic-backend/v1/agents/sales/tools", nil)
	})

	It("Should install a scope for the request and clear it on exit", func() {
		handler := middlewares.RequestScopeMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = connection_manager.RequestScopeFrom(r.Context())
			Expect(captured).NotTo(BeNil())

			captured.Set(&connection_manager.Connection{TenantID: domain.TenantID(uuid.New()), Integration: domain.GlobalIntegration})
			Expect(captured.Len()).To(Equal(1))
		}))

		handler.ServeHTTP(httptest.NewRecorder(), req)

		Expect(captured).NotTo(BeNil())
		Expect(captured.Len()).To(Equal(0))
	})

	It("Should clear the scope when the handler panics", func() {
		handler := middlewares.RequestScopeMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = connection_manager.RequestScopeFrom(r.Context())
			captured.Set(&connection_manager.Connection{TenantID: domain.TenantID(uuid.New()), Integration: domain.AccountsIntegration})
			panic("handler blew up")
		}))

		Expect(func() { handler.ServeHTTP(httptest.NewRecorder(), req) }).To(Panic())
		Expect(captured.Len()).To(Equal(0))
	})

	It("Should give concurrent requests separate scopes", func() {
		var scopes []*connection_manager.RequestScope
		handler := middlewares.RequestScopeMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scopes = append(scopes, connection_manager.RequestScopeFrom(r.Context()))
		}))

		handler.ServeHTTP(httptest.NewRecorder(), req)
		handler.ServeHTTP(httptest.NewRecorder(), req)

		Expect(scopes).To(HaveLen(2))
		Expect(scopes[0]).NotTo(BeIdenticalTo(scopes[1]))
	})
})
