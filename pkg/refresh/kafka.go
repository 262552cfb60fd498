package refresh

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

const defaultGroup = "minionview"

// Kafka читает сигналы перезагрузки из topic
type Kafka struct {
	config      Config
	reader      *kafka.Reader
	lastMessage *kafka.Message // для manual commit
}

// NewKafka создает Kafka consumer
func NewKafka(cfg Config) (*Kafka, error) {
	if cfg.Topic == "" {
		return nil, fmt.Errorf("topic name is required for Kafka")
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker address is required for Kafka")
	}
	if cfg.Group == "" {
		cfg.Group = defaultGroup
	}
	return &Kafka{config: cfg}, nil
}

// Connect проверяет доступность topic и создает Reader
func (k *Kafka) Connect(ctx context.Context) error {
	conn, err := kafka.DialContext(ctx, "tcp", k.config.Brokers[0])
	if err != nil {
		return fmt.Errorf("failed to dial Kafka broker: %w", err)
	}
	defer conn.Close()
	if _, err := conn.ReadPartitions(k.config.Topic); err != nil {
		return fmt.Errorf("failed to read topic partitions: %w", err)
	}

	k.reader = kafka.NewReader(kafka.ReaderConfig{
		Brokers:        k.config.Brokers,
		GroupID:        k.config.Group,
		Topic:          k.config.Topic,
		MinBytes:       1,
		MaxBytes:       1e6,
		CommitInterval: 0,                // manual commit
		StartOffset:    kafka.LastOffset, // только новые сигналы
		MaxWait:        1 * time.Second,
		ReadBackoffMin: 100 * time.Millisecond,
		ReadBackoffMax: 1 * time.Second,
	})
	return nil
}

// Receive ждет следующее сообщение. Offset не коммитится до Ack.
func (k *Kafka) Receive(ctx context.Context) ([]byte, error) {
	if k.reader == nil {
		return nil, fmt.Errorf("not connected to Kafka")
	}
	msg, err := k.reader.FetchMessage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch message: %w", err)
	}
	k.lastMessage = &msg
	return msg.Value, nil
}

// Ack коммитит offset последнего сообщения
func (k *Kafka) Ack(ctx context.Context) error {
	if k.lastMessage == nil {
		return fmt.Errorf("no message to commit")
	}
	if err := k.reader.CommitMessages(ctx, *k.lastMessage); err != nil {
		return fmt.Errorf("failed to commit message: %w", err)
	}
	k.lastMessage = nil
	return nil
}

// Close закрывает Reader
func (k *Kafka) Close() error {
	if k.reader == nil {
		return nil
	}
	err := k.reader.Close()
	k.reader = nil
	if err != nil {
		return fmt.Errorf("failed to close reader: %w", err)
	}
	return nil
}
