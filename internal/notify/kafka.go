package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	kafka "github.com/segmentio/kafka-go"
)

// Kafka publishes the webhook payload onto a topic, keyed by target ID
// so one monitor's transitions stay in order within a partition.
func Kafka(ctx context.Context, config map[string]string, msg Message) error {
	brokers := config["brokers"]
	topic := config["topic"]
	if brokers == "" || topic == "" {
		return errors.New("kafka: brokers and topic required")
	}

	raw, err := json.Marshal(newWebhookPayload(msg))
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(brokers, ",")...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
	defer w.Close()

	err = w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.TargetID),
		Value: raw,
	})
	if err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}
