package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/sahulatai/agentic-backend/internal/config"

	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"
)

func buildPostgresConnectionInfo(cfg *config.Config) (string, error) {
	psqlConnectionInfo := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s TimeZone=UTC",
		cfg.DbHost,
		cfg.DbPort,
		cfg.DbUser,
		cfg.DbPassword,
		cfg.DbName)

	sslSettings, err := buildPostgresSslConfigString(cfg)
	if err != nil {
		return "", err
	}

	return psqlConnectionInfo + " " + sslSettings, nil
}

func buildPostgresSslConfigString(cfg *config.Config) (string, error) {
	switch cfg.DbSSLMode {
	case "disable", "require":
		return "sslmode=" + cfg.DbSSLMode, nil
	case "verify-full":
		return "sslmode=verify-full sslrootcert=" + cfg.DbSSLRootCert, nil
	default:
		return "", errors.New("Invalid SSL configuration for database connection: " + cfg.DbSSLMode)
	}
}

func InitializeDatabaseConnection(cfg *config.Config) (*sql.DB, error) {
	connectionInfo, err := buildPostgresConnectionInfo(cfg)
	if err != nil {
		return nil, err
	}

	database, err := sql.Open("postgres", connectionInfo)
	if err != nil {
		return nil, err
	}

	database.SetMaxOpenConns(cfg.DbMaxOpenConnections)

	return database, nil
}

// IsConnectionError reports whether err came from postgres losing or refusing the connection.
func IsConnectionError(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pgerrcode.IsConnectionException(string(pqErr.Code))
	}
	return errors.Is(err, sql.ErrConnDone)
}
