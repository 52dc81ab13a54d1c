package kafka_client

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"

	"github.com/jess-tech-lab/threader-ai/internal/models"
)

const KAFKA_TOPIC_REPORT_COMPLETED = "synthesis-reports-completed"

// ReportEvent is the notification downstream consumers (dashboard, PDF
// export) receive when a run finishes. It carries identifiers only; the
// report itself is read from the store.
type ReportEvent struct {
	ReportID    string    `json:"report_id"`
	CompanyName string    `json:"company_name"`
	FocusAreas  int       `json:"focus_areas"`
	AnalyzedAt  time.Time `json:"analyzed_at"`
}

type Producer struct {
	producer *kafka.Producer
}

func NewProducer(broker string) (*Producer, error) {
	slog.Info("[KafkaClient] Initializing Kafka producer...")

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":   broker,
		"security.protocol":   "PLAINTEXT",
		"api.version.request": "true",
		"acks":                "all",
	})
	if err != nil {
		return nil, fmt.Errorf("[KafkaClient] Failed to create producer: %w", err)
	}

	slog.Info("[KafkaClient] Kafka producer initialized successfully")
	return &Producer{producer: p}, nil
}

func (p *Producer) Close() {
	if p == nil || p.producer == nil {
		return
	}
	slog.Info("[KafkaClient] Flushing Kafka producer before shutdown...")
	if remaining := p.producer.Flush(5000); remaining > 0 {
		slog.Warn("[KafkaClient] Not all messages were delivered before shutdown",
			slog.Int("remaining", remaining))
	}
	p.producer.Close()
}

// PublishReportCompleted announces a persisted report. Delivery is
// best-effort: the run already succeeded by the time this is called.
func (p *Producer) PublishReportCompleted(report *models.SynthesisReport) error {
	event := ReportEvent{
		ReportID:    report.ReportID,
		CompanyName: report.CompanyName,
		FocusAreas:  len(report.FocusAreas),
		AnalyzedAt:  report.Metadata.AnalyzedAt,
	}

	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("[KafkaClient] failed to marshal report event: %w", err)
	}

	topic := KAFKA_TOPIC_REPORT_COMPLETED
	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            []byte(report.ReportID),
		Value:          jsonData,
	}

	for i := 0; i < 3; i++ {
		err = p.producer.Produce(msg, nil)
		if err == nil {
			break
		}
		slog.Warn("[KafkaClient] Failed to produce message, retrying...",
			slog.Int("attempt", i+1))
	}
	if err != nil {
		return fmt.Errorf("[KafkaClient] failed to produce report event: %w", err)
	}

	slog.Info("[KafkaClient] Published report completed event",
		slog.String("report_id", report.ReportID),
		slog.String("company", report.CompanyName))
	return nil
}
