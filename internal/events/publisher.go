package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	kfk "github.com/Fau1con/kafkawrapper"
)

// RefreshEvent — сообщение об успешном завершении цикла обновления.
type RefreshEvent struct {
	Articles int       `json:"articles"`
	Sources  int       `json:"sources"`
	At       time.Time `json:"at"`
}

type messageSender interface {
	SendMessage(ctx context.Context, topic string, message []byte) error
}

// KafkaPublisher отправляет события обновления в Kafka. Отправка
// best effort: отказ брокера логируется и не влияет на само обновление.
type KafkaPublisher struct {
	producer messageSender
	topic    string
	log      *slog.Logger
}

func NewKafkaPublisher(brokers []string, topic string, log *slog.Logger) (*KafkaPublisher, error) {
	producer, err := kfk.NewProducer(brokers)
	if err != nil {
		return nil, err
	}
	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
		log:      log,
	}, nil
}

func (p *KafkaPublisher) RefreshCompleted(ctx context.Context, articles int, sources int) {
	event := RefreshEvent{
		Articles: articles,
		Sources:  sources,
		At:       time.Now().UTC(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		p.log.Error("Failed to marshal refresh event", slog.Any("error", err))
		return
	}
	if err := p.producer.SendMessage(ctx, p.topic, data); err != nil {
		p.log.Error("Failed to write message to Kafka", slog.Any("error", err))
		return
	}
	p.log.Info("Refresh event published",
		slog.String("topic", p.topic),
		slog.Int("articles", articles),
		slog.Int("sources", sources),
	)
}
