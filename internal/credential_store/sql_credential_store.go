package credential_store

import (
	"context"
	"database/sql"
	"time"

	"github.com/sahulatai/agentic-backend/internal/config"
	"github.com/sahulatai/agentic-backend/internal/domain"
	"github.com/sahulatai/agentic-backend/internal/platform/db"
	"github.com/sahulatai/agentic-backend/internal/platform/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// SqlCredentialStore reads the OAuth connection tables kept by the integration onboarding flow.
type SqlCredentialStore struct {
	database     *sql.DB
	queryTimeout time.Duration
	now          func() time.Time
}

func NewSqlCredentialStore(cfg *config.Config, database *sql.DB) *SqlCredentialStore {
	return &SqlCredentialStore{
		database:     database,
		queryTimeout: cfg.DbQueryTimeout,
		now:          time.Now,
	}
}

func (s *SqlCredentialStore) GetCredentials(ctx context.Context, tenant domain.TenantID, integration domain.IntegrationName) (*domain.Credentials, error) {
	log := logger.Log.WithFields(logrus.Fields{"tenant_id": tenant.String(), "integration": integration})

	var creds *domain.Credentials
	var err error

	switch integration {
	case domain.AccountsIntegration:
		creds, err = s.lookupQuickbooks(ctx, log, tenant)
	case domain.GlobalIntegration:
		creds, err = s.lookupGoogleSheets(ctx, log, tenant)
	default:
		return nil, ErrUnsupportedIntegration
	}

	if err != nil && db.IsConnectionError(err) {
		metrics.databaseConnectionErrorCounter.Inc()
	}

	return creds, err
}

type quickbooksRow struct {
	accessToken    sql.NullString
	realmID        sql.NullString
	tokenExpiresAt sql.NullTime
}

func (s *SqlCredentialStore) lookupQuickbooks(ctx context.Context, log *logrus.Entry, tenant domain.TenantID) (*domain.Credentials, error) {
	callDurationTimer := prometheus.NewTimer(metrics.sqlQuickbooksLookupDuration)
	defer callDurationTimer.ObserveDuration()

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	statement, err := s.database.PrepareContext(ctx, `SELECT access_token, realm_id, token_expires_at
            FROM quickbooks_connections
            WHERE tenant_id = $1 AND is_active = true
            ORDER BY updated_at DESC
            LIMIT 1`)
	if err != nil {
		logger.LogError("SQL Prepare failed", err)
		return nil, err
	}
	defer statement.Close()

	var row quickbooksRow
	err = statement.QueryRowContext(ctx, tenant.String()).Scan(&row.accessToken, &row.realmID, &row.tokenExpiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		log.WithFields(logrus.Fields{"error": err}).Error("SQL query failed")
		return nil, err
	}

	creds := quickbooksCredentials(row, s.now())
	if creds == nil {
		metrics.expiredCredentialCounter.WithLabelValues(domain.AccountsIntegration.String()).Inc()
		log.Info("QuickBooks token has expired, treating tenant as not connected")
	}

	return creds, nil
}

// quickbooksCredentials returns nil for a row that cannot authenticate: no
// token, no realm, or a token already past its expiry.
func quickbooksCredentials(row quickbooksRow, now time.Time) *domain.Credentials {
	if !row.accessToken.Valid || row.accessToken.String == "" || !row.realmID.Valid || row.realmID.String == "" {
		return nil
	}

	if row.tokenExpiresAt.Valid && !row.tokenExpiresAt.Time.After(now) {
		return nil
	}

	return &domain.Credentials{
		AccessToken: row.accessToken.String,
		Fields: map[string]string{
			domain.RealmIDField: row.realmID.String,
		},
	}
}

type googleSheetsRow struct {
	refreshToken           sql.NullString
	tokenExpiresAt         sql.NullTime
	inventoryWorkbookID    sql.NullString
	inventoryWorksheetName sql.NullString
	ordersWorkbookID       sql.NullString
	ordersWorksheetName    sql.NullString
}

func (s *SqlCredentialStore) lookupGoogleSheets(ctx context.Context, log *logrus.Entry, tenant domain.TenantID) (*domain.Credentials, error) {
	callDurationTimer := prometheus.NewTimer(metrics.sqlGoogleSheetsLookupDuration)
	defer callDurationTimer.ObserveDuration()

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	statement, err := s.database.PrepareContext(ctx, `SELECT refresh_token, token_expires_at,
                inventory_workbook_id, inventory_worksheet_name,
                orders_workbook_id, orders_worksheet_name
            FROM google_sheets_connections
            WHERE tenant_id = $1 AND is_active = true`)
	if err != nil {
		logger.LogError("SQL Prepare failed", err)
		return nil, err
	}
	defer statement.Close()

	var row googleSheetsRow
	err = statement.QueryRowContext(ctx, tenant.String()).Scan(
		&row.refreshToken,
		&row.tokenExpiresAt,
		&row.inventoryWorkbookID,
		&row.inventoryWorksheetName,
		&row.ordersWorkbookID,
		&row.ordersWorksheetName)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		log.WithFields(logrus.Fields{"error": err}).Error("SQL query failed")
		return nil, err
	}

	if row.tokenExpiresAt.Valid && !row.tokenExpiresAt.Time.After(s.now()) {
		// The capability server refreshes sheets tokens itself
		log.Debug("Google Sheets access token has expired, passing refresh token through")
	}

	return googleSheetsCredentials(row), nil
}

func googleSheetsCredentials(row googleSheetsRow) *domain.Credentials {
	if !row.refreshToken.Valid || row.refreshToken.String == "" {
		return nil
	}

	fields := make(map[string]string)
	optional := []struct {
		name  string
		value sql.NullString
	}{
		{domain.InventoryWorkbookIDField, row.inventoryWorkbookID},
		{domain.InventoryWorksheetNameField, row.inventoryWorksheetName},
		{domain.OrdersWorkbookIDField, row.ordersWorkbookID},
		{domain.OrdersWorksheetNameField, row.ordersWorksheetName},
	}
	for _, f := range optional {
		if f.value.Valid && f.value.String != "" {
			fields[f.name] = f.value.String
		}
	}

	return &domain.Credentials{
		AccessToken: row.refreshToken.String,
		Fields:      fields,
	}
}
