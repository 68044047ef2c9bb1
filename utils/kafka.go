package utils

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/calicantus/studio-cms-backend/config"
)

var (
	auditWriter *kafka.Writer
	auditTopic  string
)

// InitializeKafka sets up the audit event producer. Kafka is optional: when
// no brokers are configured the audit service falls back to direct database
// writes.
func InitializeKafka(cfg *config.Config) {
	if cfg.KafkaBrokers == "" {
		log.Println("ℹ️ Kafka not configured, audit events will be written directly")
		return
	}

	auditTopic = cfg.KafkaAuditTopic
	if auditTopic == "" {
		auditTopic = "studio.audit"
	}

	auditWriter = &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(cfg.KafkaBrokers, ",")...),
		Topic:        auditTopic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
	}

	log.Println("✅ Kafka audit producer ready:", cfg.KafkaBrokers)
}

// KafkaEnabled reports whether the audit producer was initialized.
func KafkaEnabled() bool {
	return auditWriter != nil
}

// AuditTopic returns the configured audit topic name.
func AuditTopic() string {
	return auditTopic
}

// PublishAuditEvent sends one serialized audit entry to the audit topic.
func PublishAuditEvent(ctx context.Context, payload []byte) error {
	if auditWriter == nil {
		return nil
	}

	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return auditWriter.WriteMessages(writeCtx, kafka.Message{
		Value: payload,
		Time:  time.Now(),
	})
}

// CloseKafka flushes and closes the producer.
func CloseKafka() {
	if auditWriter != nil {
		if err := auditWriter.Close(); err != nil {
			log.Printf("⚠️ Kafka writer close: %v", err)
		}
	}
}
