package kafka

import (
	"log"
	"ms-pos/internal/models"
)

// MockProducer logs instead of publishing. Used when KAFKA_MOCK_MODE is set
// so the engine runs without a broker in local development.
type MockProducer struct{}

func NewMockProducer() *MockProducer {
	return &MockProducer{}
}

func (m *MockProducer) Publish(topic string, key string, value []byte) error {
	log.Printf("[kafka mock] topic=%s key=%s bytes=%d", topic, key, len(value))
	return nil
}

func (m *MockProducer) PublishOrderCompleted(receipt models.OrderReceipt) error {
	log.Printf("[kafka mock] order completed: %s", receipt.OrderID)
	return nil
}

func (m *MockProducer) PublishDayClosed(s models.DaySummary) error {
	log.Printf("[kafka mock] day closed: event=%s day=%d", s.EventID, s.DayNumber)
	return nil
}

func (m *MockProducer) Close() error { return nil }
