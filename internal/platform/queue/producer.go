package queue

import (
	"github.com/sahulatai/agentic-backend/internal/platform/logger"

	"github.com/sirupsen/logrus"
	kafka "github.com/segmentio/kafka-go"
)

func StartProducer(cfg *ProducerConfig) (*kafka.Writer, error) {
	logger.Log.WithFields(logrus.Fields{"topic": cfg.Topic, "brokers": cfg.Brokers}).Info("Starting a new Kafka producer")

	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		BatchSize:    cfg.BatchSize,
		BatchBytes:   int64(cfg.BatchBytes),
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}

	if cfg.Balancer == "hash" {
		w.Balancer = &kafka.Hash{}
	}

	if cfg.SaslConfig != nil && cfg.SaslConfig.SaslUsername != "" {
		transport, err := saslTransport(cfg.SaslConfig)
		if err != nil {
			logger.LogError("Failed to create a new Kafka transport", err)
			return nil, err
		}
		w.Transport = transport
	}

	return w, nil
}
