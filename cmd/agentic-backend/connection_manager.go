package main

import (
	"github.com/sahulatai/agentic-backend/internal/capability_client"
	"github.com/sahulatai/agentic-backend/internal/config"
	"github.com/sahulatai/agentic-backend/internal/connection_events"
	"github.com/sahulatai/agentic-backend/internal/connection_manager"
	"github.com/sahulatai/agentic-backend/internal/credential_store"
	"github.com/sahulatai/agentic-backend/internal/platform/logger"
)

func buildConnectionManager(cfg *config.Config) (*connection_manager.Manager, error) {

	logger.Log.Infof("Using \"%s\" credential store impl", cfg.CredentialStoreImpl)

	store, err := credential_store.NewCredentialStore(cfg.CredentialStoreImpl, cfg)
	if err != nil {
		return nil, err
	}

	logger.Log.Infof("Using \"%s\" connection event publisher impl", cfg.ConnectionEventsImpl)

	publisher, err := connection_events.NewEventPublisher(cfg.ConnectionEventsImpl, cfg)
	if err != nil {
		return nil, err
	}

	managerCfg := connection_manager.ManagerConfig{
		Profiles:            connection_manager.ProfilesFromConfig(cfg),
		CredentialCacheTTL:  cfg.CredentialCacheTTL,
		CredentialCacheSize: cfg.CredentialCacheSize,
		MaxConnectionAge:    cfg.ConnectionMaxAge,
		FailureBackoff:      cfg.ConnectionFailureBackoff,
	}

	client := capability_client.NewMCPClient(cfg.CapabilityClientName, cfg.CapabilityClientVersion)

	manager := connection_manager.NewManager(managerCfg, store, client,
		connection_manager.WithEventPublisher(publisher))

	return manager, nil
}
