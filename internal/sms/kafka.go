package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Message types published to the delivery topic
const (
	MessageTypeOTP  = "otp"
	MessageTypeText = "text"
)

// messageWriter is the subset of *kafka.Writer the provider needs
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// DeliveryMessage is the payload consumed by the SMS delivery worker
type DeliveryMessage struct {
	Type    string    `json:"type"`
	To      string    `json:"to"`
	Code    string    `json:"code,omitempty"`
	AppName string    `json:"app_name,omitempty"`
	Message string    `json:"message"`
	SentAt  time.Time `json:"sent_at"`
}

// KafkaProvider hands messages to a broker topic instead of calling an SMS API
type KafkaProvider struct {
	writer messageWriter
	topic  string
	clock  func() time.Time
}

// NewKafkaProvider creates a provider writing to topic on the given brokers
func NewKafkaProvider(brokers []string, topic string) *KafkaProvider {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		MaxAttempts:  3,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return newKafkaProvider(writer, topic)
}

func newKafkaProvider(writer messageWriter, topic string) *KafkaProvider {
	return &KafkaProvider{writer: writer, topic: topic, clock: time.Now}
}

// SendSMS publishes a plain text message
func (k *KafkaProvider) SendSMS(ctx context.Context, to, message string) error {
	return k.publish(ctx, DeliveryMessage{
		Type:    MessageTypeText,
		To:      to,
		Message: message,
	})
}

// SendOTP publishes an OTP message
func (k *KafkaProvider) SendOTP(ctx context.Context, to, otp, appName string) error {
	return k.publish(ctx, DeliveryMessage{
		Type:    MessageTypeOTP,
		To:      to,
		Code:    otp,
		AppName: appName,
		Message: otpMessage(appName, otp),
	})
}

func (k *KafkaProvider) publish(ctx context.Context, msg DeliveryMessage) error {
	msg.SentAt = k.clock().UTC()

	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal delivery message: %w", err)
	}

	// Keyed by phone so every message for a number lands on one partition.
	err = k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.To),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(msg.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to write kafka message: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer
func (k *KafkaProvider) Close() error {
	return k.writer.Close()
}
