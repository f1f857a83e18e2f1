package connection_manager

import (
	"time"

	"github.com/sahulatai/agentic-backend/internal/config"
	"github.com/sahulatai/agentic-backend/internal/domain"
)

// IntegrationProfile describes how to reach the capability server behind an integration.
type IntegrationProfile struct {
	Name                domain.IntegrationName
	URL                 string
	RequiresCredentials bool
	// OpenTimeout bounds the whole open attempt and is kept shorter than ConnectTimeout.
	OpenTimeout    time.Duration
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
}

func ProfilesFromConfig(cfg *config.Config) []IntegrationProfile {
	return []IntegrationProfile{
		{
			Name:                domain.AccountsIntegration,
			URL:                 cfg.Accounts.ServerUrl,
			RequiresCredentials: true,
			OpenTimeout:         cfg.Accounts.OpenTimeout,
			ConnectTimeout:      cfg.Accounts.ConnectTimeout,
			ReadTimeout:         cfg.Accounts.ReadTimeout,
			MaxRetries:          cfg.Accounts.MaxRetries,
			RetryBackoff:        cfg.ConnectionRetryBackoff,
		},
		{
			Name:                domain.GlobalIntegration,
			URL:                 cfg.Global.ServerUrl,
			RequiresCredentials: false,
			OpenTimeout:         cfg.Global.OpenTimeout,
			ConnectTimeout:      cfg.Global.ConnectTimeout,
			ReadTimeout:         cfg.Global.ReadTimeout,
			MaxRetries:          cfg.Global.MaxRetries,
			RetryBackoff:        cfg.ConnectionRetryBackoff,
		},
	}
}
