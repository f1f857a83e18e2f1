package queue

import (
	"github.com/sahulatai/agentic-backend/internal/platform/logger"

	"github.com/sirupsen/logrus"
	kafka "github.com/segmentio/kafka-go"
)

func StartConsumer(cfg *ConsumerConfig) (*kafka.Reader, error) {
	logger.Log.WithFields(logrus.Fields{"topic": cfg.Topic, "group_id": cfg.GroupID, "brokers": cfg.Brokers}).Info("Starting Kafka message consumer")

	readerConfig := kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       cfg.Topic,
		StartOffset: cfg.ConsumerOffset,
	}

	if cfg.SaslConfig != nil && cfg.SaslConfig.SaslUsername != "" {
		dialer, err := saslDialer(cfg.SaslConfig)
		if err != nil {
			logger.LogError("Failed to create a new Kafka dialer", err)
			return nil, err
		}
		readerConfig.Dialer = dialer
	}

	return kafka.NewReader(readerConfig), nil
}
