package history

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"talkline/internal/domain"
)

// KafkaConfig holds call-record publisher configuration.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// KafkaSink publishes one message per terminated call, keyed by contact.
// Without brokers it runs in log-only mode so the orchestrator works
// unchanged in development.
type KafkaSink struct {
	writer  *kafka.Writer
	topic   string
	enabled bool
}

func NewKafkaSink(cfg KafkaConfig) *KafkaSink {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		log.Info().Msg("kafka disabled, call records are log-only")
		return &KafkaSink{topic: cfg.Topic}
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
	}
	return &KafkaSink{writer: writer, topic: cfg.Topic, enabled: true}
}

type recordEnvelope struct {
	domain.CallRecord
	Summary string `json:"summary"`
}

// AppendRecord publishes the record, or logs it when kafka is disabled.
func (s *KafkaSink) AppendRecord(ctx context.Context, record domain.CallRecord) error {
	payload, err := json.Marshal(recordEnvelope{CallRecord: record, Summary: record.Summary()})
	if err != nil {
		return err
	}

	if !s.enabled {
		log.Info().
			Str("contactId", record.ContactID).
			Str("reason", string(record.Reason)).
			RawJSON("record", payload).
			Msg("call record (log-only)")
		return nil
	}

	return s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(record.ContactID),
		Value: payload,
		Time:  record.EndedAt,
	})
}

// Close flushes and closes the underlying writer.
func (s *KafkaSink) Close() error {
	if s.writer == nil {
		return nil
	}
	return s.writer.Close()
}
