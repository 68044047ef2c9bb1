package auditlog

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/segmentio/kafka-go"

	"github.com/calicantus/studio-cms-backend/config"
	"github.com/calicantus/studio-cms-backend/utils"
)

// StartKafkaConsumer drains the audit topic into the database. It runs until
// ctx is cancelled and is only started when Kafka brokers are configured.
func StartKafkaConsumer(ctx context.Context, cfg *config.Config, repo Repository) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: strings.Split(cfg.KafkaBrokers, ","),
		Topic:   utils.AuditTopic(),
		GroupID: "studio-audit-writer",
	})
	defer reader.Close()

	log.Printf("🎧 Audit consumer listening on topic %s", utils.AuditTopic())

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("⚠️ Audit consumer read error: %v", err)
			continue
		}

		var entry AuditLog
		if err := json.Unmarshal(msg.Value, &entry); err != nil {
			log.Printf("⚠️ Skipping malformed audit event: %v", err)
			continue
		}
		entry.ID = 0 // assigned by the database

		if err := repo.Create(ctx, &entry); err != nil {
			log.Printf("⚠️ Failed to persist audit event: action=%s err=%v", entry.Action, err)
		}
	}
}
