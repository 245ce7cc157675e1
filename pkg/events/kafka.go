package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/resellpay/wallet-engine/pkg/models"
)

const entriesTopic = "ledger-entries"

// KafkaPublisher emits ledger entry events to a Kafka topic.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaPublisher creates a publisher over an existing sync producer.
func NewKafkaPublisher(producer sarama.SyncProducer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: entriesTopic}
}

// NewKafkaPublisherForBrokers dials the brokers and creates a sync producer.
func NewKafkaPublisherForBrokers(brokers []string) (*KafkaPublisher, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return NewKafkaPublisher(producer), nil
}

// Make sure we conform to the interface
var _ Publisher = (*KafkaPublisher)(nil)

// PublishEntry sends the entry event, keyed by wallet so per-wallet ordering holds.
func (p *KafkaPublisher) PublishEntry(ctx context.Context, entry *models.LedgerEntry) error {
	event := EntryEvent{
		EntryID:     entry.EntryID,
		UserID:      entry.UserID,
		WalletType:  entry.WalletType,
		TxType:      entry.TxType,
		Credit:      entry.Credit,
		Debit:       entry.Debit,
		ReferenceID: entry.ReferenceID,
		Status:      entry.Status,
		CreatedAt:   entry.CreatedAt.Format(time.RFC3339),
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal entry event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(entry.WalletID),
		Value: sarama.ByteEncoder(body),
	}

	if _, _, err := p.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("failed to send entry event: %w", err)
	}
	return nil
}

// Close shuts down the underlying producer.
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
