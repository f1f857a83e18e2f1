package credential_store

import (
	"errors"

	"github.com/sahulatai/agentic-backend/internal/config"
	cm "github.com/sahulatai/agentic-backend/internal/connection_manager"
	"github.com/sahulatai/agentic-backend/internal/platform/db"
)

var ErrUnsupportedIntegration = errors.New("integration has no credential source")

func NewCredentialStore(impl string, cfg *config.Config) (cm.CredentialStore, error) {

	switch impl {
	case "sql":
		database, err := db.InitializeDatabaseConnection(cfg)
		if err != nil {
			return nil, err
		}
		return NewSqlCredentialStore(cfg, database), nil
	case "secrets_manager":
		return NewSecretsManagerCredentialStore(cfg)
	default:
		return nil, errors.New("Invalid CredentialStore impl requested")
	}
}
