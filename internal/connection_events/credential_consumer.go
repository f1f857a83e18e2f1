package connection_events

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/sahulatai/agentic-backend/internal/config"
	"github.com/sahulatai/agentic-backend/internal/domain"
	"github.com/sahulatai/agentic-backend/internal/platform/logger"
	"github.com/sahulatai/agentic-backend/internal/platform/queue"

	kafka "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// ConnectionInvalidator drops cached credentials and live handles
type ConnectionInvalidator interface {
	InvalidateConnection(ctx context.Context, tenant domain.TenantID, integration domain.IntegrationName) error
	InvalidateTenant(ctx context.Context, tenant domain.TenantID) error
}

// CredentialEvent is produced whenever a tenant connects, refreshes or
// disconnects an integration. An empty integration covers every integration.
type CredentialEvent struct {
	TenantID    string `json:"tenant_id"`
	Integration string `json:"integration,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

type CredentialEventConsumer struct {
	reader      messageReader
	invalidator ConnectionInvalidator
}

func NewCredentialEventConsumer(cfg *config.Config, invalidator ConnectionInvalidator) (*CredentialEventConsumer, error) {
	consumerCfg := &queue.ConsumerConfig{
		Brokers:        cfg.KafkaBrokers,
		Topic:          cfg.CredentialEventsTopic,
		GroupID:        cfg.CredentialEventsGroupID,
		ConsumerOffset: kafka.LastOffset,
		SaslConfig: &queue.SaslConfig{
			SaslMechanism: cfg.KafkaSASLMechanism,
			SaslUsername:  cfg.KafkaSASLUsername,
			SaslPassword:  cfg.KafkaSASLPassword,
			KafkaCA:       cfg.KafkaCA,
		},
	}

	reader, err := queue.StartConsumer(consumerCfg)
	if err != nil {
		return nil, err
	}

	return &CredentialEventConsumer{reader: reader, invalidator: invalidator}, nil
}

// Run consumes until ctx is cancelled or the reader fails. The reader is
// closed on return.
func (cec *CredentialEventConsumer) Run(ctx context.Context) error {
	defer func() {
		if err := cec.reader.Close(); err != nil {
			logger.LogError("Credential event reader - error closing consumer", err)
			return
		}
		logger.Log.Info("Credential event reader leaving...")
	}()

	for {
		m, err := cec.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			logger.LogError("Credential event reader - error reading message", err)
			return err
		}

		logger.Log.WithFields(logrus.Fields{
			"topic":     m.Topic,
			"partition": m.Partition,
			"offset":    m.Offset,
		}).Debug("Credential event reader - received message")

		cec.handleMessage(ctx, m.Value)
	}
}

func (cec *CredentialEventConsumer) handleMessage(ctx context.Context, value []byte) {
	var event CredentialEvent
	if err := json.Unmarshal(value, &event); err != nil {
		logger.LogError("Unable to unmarshal credential event", err)
		credentialEventCounter.WithLabelValues("invalid").Inc()
		return
	}

	tenant, err := domain.ParseTenantID(event.TenantID)
	if err != nil {
		logger.LogError("Credential event carried an invalid tenant id", err)
		credentialEventCounter.WithLabelValues("invalid").Inc()
		return
	}

	log := logger.Log.WithFields(logrus.Fields{"tenant_id": tenant,
		"integration": event.Integration,
		"reason":      event.Reason})

	if event.Integration == "" {
		err = cec.invalidator.InvalidateTenant(ctx, tenant)
	} else {
		err = cec.invalidator.InvalidateConnection(ctx, tenant, domain.IntegrationName(event.Integration))
	}

	if err != nil {
		log.WithFields(logrus.Fields{"error": err}).Warn("Unable to invalidate connections for credential event")
		credentialEventCounter.WithLabelValues("failed").Inc()
		return
	}

	log.Info("Invalidated connections after credential event")
	credentialEventCounter.WithLabelValues("invalidated").Inc()
}
