package connection_events

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	kafkaWriterGoRoutineGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "agentic_backend_connection_event_kafka_writer_go_routine_count",
		Help: "The total number of active kafka connection event writer go routines",
	})

	kafkaWriterSuccessCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agentic_backend_connection_event_kafka_writer_success_count",
		Help: "The number of connection events that were sent to the kafka topic",
	})

	kafkaWriterFailureCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agentic_backend_connection_event_kafka_writer_failure_count",
		Help: "The number of connection events that failed to get produced to kafka topic",
	})

	credentialEventCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentic_backend_credential_event_count",
		Help: "The number of credential rotation events consumed, by result",
	}, []string{"result"})
)
