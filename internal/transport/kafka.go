package transport

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// KafkaFeedReader is an alternate inbound driver for deployments that
// publish feed records onto a Kafka topic instead of the line protocol
//. Each
// message value is one record line in the same comma-separated formats
// DecodePrice/DecodeTrade/DecodeMarketData/DecodeInquiry parse.
type KafkaFeedReader struct {
	reader *kafka.Reader
}

// NewKafkaFeedReader constructs a reader against brokers for topic,
// joining consumer group group.
func NewKafkaFeedReader(brokers []string, topic, group string) *KafkaFeedReader {
	return &KafkaFeedReader{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: brokers,
			Topic:   topic,
			GroupID: group,
		}),
	}
}

// Next blocks until the next message arrives and returns its value as a
// record line, or an error if the read or the context fails.
func (r *KafkaFeedReader) Next(ctx context.Context) (string, error) {
	msg, err := r.reader.ReadMessage(ctx)
	if err != nil {
		return "", fmt.Errorf("transport: kafka read: %w", err)
	}
	return string(msg.Value), nil
}

// Close releases the underlying consumer connection.
func (r *KafkaFeedReader) Close() error {
	return r.reader.Close()
}
