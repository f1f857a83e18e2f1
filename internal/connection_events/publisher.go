package connection_events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sahulatai/agentic-backend/internal/config"
	"github.com/sahulatai/agentic-backend/internal/connection_manager"
	"github.com/sahulatai/agentic-backend/internal/platform/logger"
	"github.com/sahulatai/agentic-backend/internal/platform/queue"

	"github.com/google/uuid"
	kafka "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

const writeTimeout = 10 * time.Second

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

func NewEventPublisher(impl string, cfg *config.Config) (connection_manager.EventPublisher, error) {

	switch impl {
	case "kafka":
		kafkaProducerCfg := &queue.ProducerConfig{
			Brokers:   cfg.KafkaBrokers,
			Topic:     cfg.ConnectionEventsTopic,
			BatchSize: cfg.ConnectionEventsBatchSize,
			Balancer:  "hash",
			SaslConfig: &queue.SaslConfig{
				SaslMechanism: cfg.KafkaSASLMechanism,
				SaslUsername:  cfg.KafkaSASLUsername,
				SaslPassword:  cfg.KafkaSASLPassword,
				KafkaCA:       cfg.KafkaCA,
			},
		}

		kafkaProducer, err := queue.StartProducer(kafkaProducerCfg)
		if err != nil {
			return nil, err
		}

		return &KafkaEventPublisher{kafkaWriter: kafkaProducer}, nil
	case "fake":
		return &FakeEventPublisher{}, nil
	default:
		return nil, errors.New("Invalid EventPublisher impl requested")
	}
}

type connectionEventMessage struct {
	EventID     string `json:"event_id"`
	Type        string `json:"type"`
	TenantID    string `json:"tenant_id"`
	Integration string `json:"integration"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Reason      string `json:"reason,omitempty"`
	OccurredAt  string `json:"occurred_at"`
}

func newConnectionEventMessage(event connection_manager.ConnectionEvent) connectionEventMessage {
	return connectionEventMessage{
		EventID:     uuid.NewString(),
		Type:        string(event.Type),
		TenantID:    event.TenantID.String(),
		Integration: string(event.Integration),
		Fingerprint: event.Fingerprint,
		Reason:      event.Reason,
		OccurredAt:  event.OccurredAt.UTC().Format(time.RFC3339),
	}
}

type KafkaEventPublisher struct {
	kafkaWriter messageWriter
}

// Publish hands the event to a background writer. Events are keyed by tenant
// so that a tenant's events stay ordered within a partition.
func (kep *KafkaEventPublisher) Publish(ctx context.Context, event connection_manager.ConnectionEvent) {

	logger := logger.Log.WithFields(logrus.Fields{"tenant_id": event.TenantID,
		"integration": event.Integration,
		"event_type":  event.Type})

	jsonMessage, err := json.Marshal(newConnectionEventMessage(event))
	if err != nil {
		logger.WithFields(logrus.Fields{"error": err}).Error("JSON marshal of connection event message failed")
		return
	}

	msg := kafka.Message{
		Key:   []byte(event.TenantID.String()),
		Value: jsonMessage,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
			{Key: "integration", Value: []byte(event.Integration)},
		},
	}

	// The triggering request may finish before the write does.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)

	go func() {
		defer cancel()

		kafkaWriterGoRoutineGauge.Inc()
		defer kafkaWriterGoRoutineGauge.Dec()

		err := kep.kafkaWriter.WriteMessages(writeCtx, msg)
		if err != nil {
			logger.WithFields(logrus.Fields{"error": err}).Error("Error writing connection event to kafka")

			if errors.Is(err, context.Canceled) != true {
				kafkaWriterFailureCounter.Inc()
			}
			return
		}

		logger.Debug("Connection event kafka message written")
		kafkaWriterSuccessCounter.Inc()
	}()
}

type FakeEventPublisher struct {
}

func (fep *FakeEventPublisher) Publish(ctx context.Context, event connection_manager.ConnectionEvent) {
	logger := logger.Log.WithFields(logrus.Fields{"tenant_id": event.TenantID, "integration": event.Integration})

	logger.Debug("FAKE: connection event type: ", event.Type, " - ", event.Reason)
}
