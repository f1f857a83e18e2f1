package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sahulatai/agentic-backend/internal/config"
	"github.com/sahulatai/agentic-backend/internal/connection_manager"
	"github.com/sahulatai/agentic-backend/internal/domain"
	"github.com/sahulatai/agentic-backend/internal/middlewares"
	"github.com/sahulatai/agentic-backend/internal/platform/logger"

	"github.com/gorilla/mux"
	"github.com/redhatinsights/platform-go-middlewares/v2/request_id"
	"github.com/sirupsen/logrus"
)

// ConnectionAdministrator is the part of the connection manager exposed to operators
type ConnectionAdministrator interface {
	Status(tenant domain.TenantID) []connection_manager.ConnectionStatus
	InvalidateConnection(ctx context.Context, tenant domain.TenantID, integration domain.IntegrationName) error
	InvalidateTenant(ctx context.Context, tenant domain.TenantID) error
}

type ConnectionServer struct {
	connectionMgr ConnectionAdministrator
	router        *mux.Router
	urlPrefix     string
	config        *config.Config
}

func NewConnectionServer(cm ConnectionAdministrator, r *mux.Router, urlPrefix string, cfg *config.Config) *ConnectionServer {
	return &ConnectionServer{
		connectionMgr: cm,
		router:        r,
		urlPrefix:     urlPrefix,
		config:        cfg,
	}
}

func (s *ConnectionServer) Routes() {
	mmw := &middlewares.MetricsMiddleware{}
	amw := &middlewares.AuthMiddleware{
		Secrets:          s.config.ServiceToServiceCredentials,
		JwtSigningSecret: []byte(s.config.JwtSigningSecret),
	}

	securedSubRouter := s.router.PathPrefix(s.urlPrefix + "/connections").Subrouter()
	securedSubRouter.Use(logger.AccessLoggerMiddleware,
		mmw.RecordHTTPMetrics,
		amw.Authenticate,
		middlewares.RequestScopeMiddleware)

	securedSubRouter.HandleFunc("", s.handleConnectionListing()).Methods(http.MethodGet)
	securedSubRouter.HandleFunc("/invalidate", s.handleInvalidate()).Methods(http.MethodPost)
}

type connectionStatusResponse struct {
	Integration string     `json:"integration"`
	Connected   bool       `json:"connected"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	AgeSeconds  int64      `json:"age_seconds"`
	Fingerprint string     `json:"fingerprint,omitempty"`
	InBackoff   bool       `json:"in_backoff"`
	FailedAt    *time.Time `json:"failed_at,omitempty"`
}

type connectionListingResponse struct {
	TenantID    string                     `json:"tenant_id"`
	Connections []connectionStatusResponse `json:"connections"`
}

type invalidateRequest struct {
	Integration string `json:"integration"`
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func newConnectionStatusResponses(statuses []connection_manager.ConnectionStatus) []connectionStatusResponse {
	responses := make([]connectionStatusResponse, 0, len(statuses))
	for _, status := range statuses {
		responses = append(responses, connectionStatusResponse{
			Integration: string(status.Integration),
			Connected:   status.Connected,
			CreatedAt:   optionalTime(status.CreatedAt),
			AgeSeconds:  int64(status.Age / time.Second),
			Fingerprint: status.Fingerprint,
			InBackoff:   status.InBackoff,
			FailedAt:    optionalTime(status.FailedAt),
		})
	}
	return responses
}

func (s *ConnectionServer) handleConnectionListing() http.HandlerFunc {

	return func(w http.ResponseWriter, req *http.Request) {

		principal, _ := middlewares.GetPrincipal(req.Context())
		tenant := principal.GetTenantID()

		logger.Log.WithFields(logrus.Fields{
			"tenant_id":  tenant.String(),
			"request_id": request_id.GetReqID(req.Context())}).Debug("Listing connections")

		response := connectionListingResponse{
			TenantID:    tenant.String(),
			Connections: newConnectionStatusResponses(s.connectionMgr.Status(tenant)),
		}

		writeJSONResponse(w, http.StatusOK, response)
	}
}

func (s *ConnectionServer) handleInvalidate() http.HandlerFunc {

	return func(w http.ResponseWriter, req *http.Request) {

		principal, _ := middlewares.GetPrincipal(req.Context())
		tenant := principal.GetTenantID()

		logger := logger.Log.WithFields(logrus.Fields{
			"tenant_id":  tenant.String(),
			"subject":    principal.GetSubject(),
			"request_id": request_id.GetReqID(req.Context())})

		body := http.MaxBytesReader(w, req.Body, maxRequestBodySize)

		var invalidation invalidateRequest

		if err := decodeJSON(body, &invalidation); err != nil {
			writeErrorResponse(w, http.StatusBadRequest, "Unable to process json input", err.Error())
			return
		}

		var err error
		if invalidation.Integration == "" {
			logger.Info("Invalidating all connections for tenant")
			err = s.connectionMgr.InvalidateTenant(req.Context(), tenant)
		} else {
			logger.Infof("Invalidating %s connection for tenant", invalidation.Integration)
			err = s.connectionMgr.InvalidateConnection(req.Context(), tenant, domain.IntegrationName(invalidation.Integration))
		}

		var unknownIntegration connection_manager.UnknownIntegrationError
		if errors.As(err, &unknownIntegration) {
			writeErrorResponse(w, http.StatusBadRequest, "Unknown integration", err.Error())
			return
		} else if err != nil {
			logger.WithFields(logrus.Fields{"error": err}).Warn("Unable to invalidate connections")
			writeErrorResponse(w, http.StatusServiceUnavailable, "Unable to invalidate connections", err.Error())
			return
		}

		writeJSONResponse(w, http.StatusOK, struct{}{})
	}
}
