package middlewares_test

import (
	"net/http"
	"net/http/httptest"

	"github.com/gorilla/mux"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sahulatai/agentic-backend/internal/middlewares"
)

func requestCount(route, method, statusCode string) float64 {
	families, err := prometheus.DefaultGatherer.Gather()
	Expect(err).ShouldNot(HaveOccurred())

	for _, family := range families {
		if family.GetName() != "agentic_backend_http_request_count" {
			continue
		}

		for _, metric := range family.GetMetric() {
			labels := map[string]string{}
			for _, label := range metric.GetLabel() {
				labels[label.GetName()] = label.GetValue()
			}

			if labels["route"] == route && labels["method"] == method && labels["status_code"] == statusCode {
				return metric.GetCounter().GetValue()
			}
		}
	}

	return 0
}

var _ = Describe("Metrics", func() {
	var router *mux.Router

	BeforeEach(func() {
		mw := &middlewares.MetricsMiddleware{}

		router = mux.NewRouter()
		router.Use(mw.RecordHTTPMetrics)
		router.HandleFunc("/agents/{kind}/invoke", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
			w.WriteHeader(http.StatusInternalServerError)
		}).Methods(http.MethodPost)
		router.HandleFunc("/agents/{kind}/tools", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("[]"))
		}).Methods(http.MethodGet)
	})

	It("Should pass the status code through to the client", func() {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/agents/bookkeeping/invoke", nil))

		Expect(rr.Code).To(Equal(http.StatusTeapot))
	})

	It("Should count requests by route template rather than by path", func() {
		before := requestCount("/agents/{kind}/invoke", http.MethodPost, "418")

		for _, kind := range []string{"bookkeeping", "inventory"} {
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/agents/"+kind+"/invoke", nil))
		}

		Expect(requestCount("/agents/{kind}/invoke", http.MethodPost, "418")).To(Equal(before + 2))
		Expect(requestCount("/agents/bookkeeping/invoke", http.MethodPost, "418")).To(BeZero())
	})

	It("Should record an implicit 200 when the handler never sets a status", func() {
		before := requestCount("/agents/{kind}/tools", http.MethodGet, "200")

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/agents/orders/tools", nil))

		Expect(rr.Code).To(Equal(http.StatusOK))
		Expect(requestCount("/agents/{kind}/tools", http.MethodGet, "200")).To(Equal(before + 1))
	})
})
