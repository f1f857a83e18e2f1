package credential_store

import (
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/sahulatai/agentic-backend/internal/config"
	"github.com/sahulatai/agentic-backend/internal/domain"
	"github.com/sahulatai/agentic-backend/internal/platform/logger"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

type secretPayload struct {
	AccessToken string            `json:"access_token"`
	Fields      map[string]string `json:"fields"`
}

// SecretsManagerCredentialStore reads one secret per tenant and integration,
// named <prefix>/<tenant>/<integration>.
type SecretsManagerCredentialStore struct {
	client secretsmanageriface.SecretsManagerAPI
	prefix string
}

func NewSecretsManagerCredentialStore(cfg *config.Config) (*SecretsManagerCredentialStore, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(cfg.SecretsManagerRegion)})
	if err != nil {
		return nil, fmt.Errorf("creating aws session: %w", err)
	}

	return &SecretsManagerCredentialStore{
		client: secretsmanager.New(sess),
		prefix: cfg.SecretsManagerSecretPrefix,
	}, nil
}

func (s *SecretsManagerCredentialStore) secretID(tenant domain.TenantID, integration domain.IntegrationName) string {
	return path.Join(s.prefix, tenant.String(), integration.String())
}

func (s *SecretsManagerCredentialStore) GetCredentials(ctx context.Context, tenant domain.TenantID, integration domain.IntegrationName) (*domain.Credentials, error) {
	callDurationTimer := prometheus.NewTimer(metrics.secretsManagerLookupDuration)
	defer callDurationTimer.ObserveDuration()

	secretID := s.secretID(tenant, integration)
	log := logger.Log.WithFields(logrus.Fields{"tenant_id": tenant.String(), "integration": integration, "secret_id": secretID})

	output, err := s.client.GetSecretValueWithContext(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == secretsmanager.ErrCodeResourceNotFoundException {
			return nil, nil
		}
		log.WithFields(logrus.Fields{"error": err}).Error("Secrets manager lookup failed")
		return nil, err
	}

	if output.SecretString == nil {
		return nil, nil
	}

	var payload secretPayload
	if err := json.Unmarshal([]byte(*output.SecretString), &payload); err != nil {
		log.WithFields(logrus.Fields{"error": err}).Error("Unable to parse credential secret")
		return nil, fmt.Errorf("parsing secret %s: %w", secretID, err)
	}

	if payload.AccessToken == "" {
		return nil, nil
	}

	return &domain.Credentials{
		AccessToken: payload.AccessToken,
		Fields:      payload.Fields,
	}, nil
}
