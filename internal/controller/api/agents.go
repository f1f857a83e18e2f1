package api

import (
	"errors"
	"net/http"

	"github.com/sahulatai/agentic-backend/internal/agent"
	"github.com/sahulatai/agentic-backend/internal/config"
	"github.com/sahulatai/agentic-backend/internal/connection_manager"
	"github.com/sahulatai/agentic-backend/internal/middlewares"
	"github.com/sahulatai/agentic-backend/internal/platform/logger"

	"github.com/gorilla/mux"
	"github.com/redhatinsights/platform-go-middlewares/v2/request_id"
	"github.com/sirupsen/logrus"
)

type AgentServer struct {
	agentFactory *agent.Factory
	router       *mux.Router
	urlPrefix    string
	config       *config.Config
}

func NewAgentServer(f *agent.Factory, r *mux.Router, urlPrefix string, cfg *config.Config) *AgentServer {
	return &AgentServer{
		agentFactory: f,
		router:       r,
		urlPrefix:    urlPrefix,
		config:       cfg,
	}
}

func (s *AgentServer) Routes() {
	mmw := &middlewares.MetricsMiddleware{}
	amw := &middlewares.AuthMiddleware{
		Secrets:          s.config.ServiceToServiceCredentials,
		JwtSigningSecret: []byte(s.config.JwtSigningSecret),
	}

	securedSubRouter := s.router.PathPrefix(s.urlPrefix + "/agents").Subrouter()
	securedSubRouter.Use(logger.AccessLoggerMiddleware,
		mmw.RecordHTTPMetrics,
		amw.Authenticate,
		middlewares.RequestScopeMiddleware)

	securedSubRouter.HandleFunc("/{kind}/tools", s.handleToolListing()).Methods(http.MethodGet)
	securedSubRouter.HandleFunc("/{kind}/invoke", s.handleInvoke()).Methods(http.MethodPost)
}

type toolResponse struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	InputSchema map[string]interface{} `json:"input_schema,omitempty"`
}

type toolListingResponse struct {
	Agent       string         `json:"agent"`
	Integration string         `json:"integration"`
	Tools       []toolResponse `json:"tools"`
}

type invokeRequest struct {
	Tool      string                 `json:"tool" validate:"required"`
	Arguments map[string]interface{} `json:"arguments"`
}

type invokeResponse struct {
	Agent    string `json:"agent"`
	Tool     string `json:"tool"`
	Text     string `json:"text"`
	IsError  bool   `json:"is_error"`
	Degraded bool   `json:"degraded"`
}

func newToolResponses(tools []connection_manager.Tool) []toolResponse {
	responses := make([]toolResponse, 0, len(tools))
	for _, t := range tools {
		responses = append(responses, toolResponse{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema})
	}
	return responses
}

func (s *AgentServer) buildAgent(w http.ResponseWriter, req *http.Request) (*agent.Agent, *logrus.Entry, bool) {
	principal, _ := middlewares.GetPrincipal(req.Context())
	requestId := request_id.GetReqID(req.Context())
	kindParam := mux.Vars(req)["kind"]

	logger := logger.Log.WithFields(logrus.Fields{
		"tenant_id":  principal.GetTenantID().String(),
		"agent":      kindParam,
		"request_id": requestId})

	kind, err := agent.ParseAgentKind(kindParam)
	if err != nil {
		logger.Debug("Unknown agent requested")
		writeErrorResponse(w, http.StatusNotFound, "Unknown agent", err.Error())
		return nil, logger, false
	}

	a, err := s.agentFactory.Build(req.Context(), principal.GetTenantID(), kind)
	if err != nil {
		logger.WithFields(logrus.Fields{"error": err}).Error("Unable to build agent")
		writeErrorResponse(w, http.StatusInternalServerError, "Unable to build agent", err.Error())
		return nil, logger, false
	}

	return a, logger, true
}

func (s *AgentServer) handleToolListing() http.HandlerFunc {

	return func(w http.ResponseWriter, req *http.Request) {

		a, logger, ok := s.buildAgent(w, req)
		if !ok {
			return
		}

		logger.WithFields(logrus.Fields{"tool_count": len(a.Tools())}).Debug("Listing agent tools")

		response := toolListingResponse{
			Agent:       string(a.Kind),
			Integration: string(a.Integration),
			Tools:       newToolResponses(a.Tools()),
		}

		writeJSONResponse(w, http.StatusOK, response)
	}
}

func (s *AgentServer) handleInvoke() http.HandlerFunc {

	return func(w http.ResponseWriter, req *http.Request) {

		body := http.MaxBytesReader(w, req.Body, maxRequestBodySize)

		var invocation invokeRequest

		if err := decodeJSON(body, &invocation); err != nil {
			writeErrorResponse(w, http.StatusBadRequest, "Unable to process json input", err.Error())
			return
		}

		a, logger, ok := s.buildAgent(w, req)
		if !ok {
			return
		}

		logger = logger.WithFields(logrus.Fields{"tool": invocation.Tool})

		result, err := a.Invoke(req.Context(), invocation.Tool, invocation.Arguments)
		if errors.Is(err, agent.ErrToolNotFound) {
			logger.Info("Requested tool is not offered to this agent")
			writeErrorResponse(w, http.StatusNotFound, "Unknown tool", err.Error())
			return
		} else if err != nil {
			logger.WithFields(logrus.Fields{"error": err}).Error("Tool invocation failed")
			writeErrorResponse(w, http.StatusInternalServerError, "Tool invocation failed", err.Error())
			return
		}

		if result.Degraded {
			logger.Info("Tool invocation answered with a degraded result")
		}

		response := invokeResponse{
			Agent:    string(a.Kind),
			Tool:     invocation.Tool,
			Text:     result.Text,
			IsError:  result.IsError,
			Degraded: result.Degraded,
		}

		writeJSONResponse(w, http.StatusOK, response)
	}
}
