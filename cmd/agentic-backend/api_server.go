package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/sahulatai/agentic-backend/internal/agent"
	"github.com/sahulatai/agentic-backend/internal/config"
	"github.com/sahulatai/agentic-backend/internal/connection_events"
	"github.com/sahulatai/agentic-backend/internal/controller/api"
	"github.com/sahulatai/agentic-backend/internal/platform/logger"
	"github.com/sahulatai/agentic-backend/internal/platform/utils"

	"github.com/gorilla/mux"
	"github.com/redhatinsights/platform-go-middlewares/v2/request_id"
)

func startAgenticBackendApiServer(listenAddr string, monitoringAddr string, consumeCredentialEvents bool) {

	logger.Log.Info("Starting agentic-backend service")

	cfg := config.GetConfig()
	logger.Log.Info("agentic-backend configuration:\n", cfg)

	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%d", cfg.ApiPort)
	}
	if monitoringAddr == "" {
		monitoringAddr = fmt.Sprintf(":%d", cfg.MonitoringPort)
	}

	manager, err := buildConnectionManager(cfg)
	if err != nil {
		logger.LogFatalError("Unable to create connection manager", err)
	}

	manager.EnsureInitialized()

	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()

	var consumerWg sync.WaitGroup
	consumerFailedChan := make(chan error, 1)

	if consumeCredentialEvents {
		consumer, err := connection_events.NewCredentialEventConsumer(cfg, manager)
		if err != nil {
			logger.LogFatalError("Unable to create credential event consumer", err)
		}

		consumerWg.Add(1)
		go func() {
			defer consumerWg.Done()
			if err := consumer.Run(consumerCtx); err != nil {
				consumerFailedChan <- err
			}
		}()
	}

	apiMux := mux.NewRouter()
	apiMux.Use(request_id.ConfiguredRequestID(logger.RequestIDHeader))

	agentServer := api.NewAgentServer(agent.NewFactory(manager), apiMux, cfg.UrlBasePath, cfg)
	agentServer.Routes()

	connectionServer := api.NewConnectionServer(manager, apiMux, cfg.UrlBasePath, cfg)
	connectionServer.Routes()

	monitoringMux := mux.NewRouter()
	monitoringServer := api.NewMonitoringServer(monitoringMux, cfg, manager.Lifecycle().Initialized)
	monitoringServer.Routes()

	apiSrv := utils.StartHTTPServer(listenAddr, "api", apiMux)
	monitoringSrv := utils.StartHTTPServer(monitoringAddr, "monitoring", monitoringMux)

	signalChan := make(chan os.Signal, 1)

	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-signalChan:
		logger.Log.Info("Received signal to shutdown: ", sig)
	case err = <-consumerFailedChan:
		logger.LogError("Credential event consumer stopped", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HttpShutdownTimeout)
	defer cancel()

	utils.ShutdownHTTPServer(ctx, "api", apiSrv)

	stopConsumer()
	consumerWg.Wait()

	managerCtx, managerCancel := context.WithTimeout(context.Background(), cfg.HttpShutdownTimeout)
	defer managerCancel()

	if err := manager.Shutdown(managerCtx); err != nil {
		logger.LogError("Errors while closing capability server connections", err)
	}

	utils.ShutdownHTTPServer(ctx, "monitoring", monitoringSrv)

	logger.Log.Info("agentic-backend shutting down")
}
