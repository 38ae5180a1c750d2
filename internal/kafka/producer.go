package kafka

import (
	"context"
	"encoding/json"
	"ms-pos/internal/models"

	"github.com/segmentio/kafka-go"
)

// Producer streams POS integration events to the reporting side. Everything
// published here is an immutable fact the engine already committed.
type Producer struct {
	Writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.LeastBytes{},
	}
	return &Producer{Writer: writer}
}

// Publish writes one message to a topic.
func (p *Producer) Publish(topic string, key string, value []byte) error {
	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Topic: topic,
			Key:   []byte(key),
			Value: value,
		},
	)
}

// PublishOrderCompleted streams a committed order to the reporting sink.
func (p *Producer) PublishOrderCompleted(receipt models.OrderReceipt) error {
	msgBytes, err := json.Marshal(receipt)
	if err != nil {
		return err
	}
	return p.Publish(TopicOrderCompleted, receipt.OrderID, msgBytes)
}

// PublishDayClosed streams a day-close snapshot to the reporting sink.
func (p *Producer) PublishDayClosed(s models.DaySummary) error {
	msgBytes, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return p.Publish(TopicDayClosed, s.EventID, msgBytes)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
