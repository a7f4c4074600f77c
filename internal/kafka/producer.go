// Package kafka publishes engine results to Kafka topics.
package kafka

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/rzzdr/quant-analytics/pkg/models"
	"github.com/rzzdr/quant-analytics/pkg/utils/circuit"
	"github.com/rzzdr/quant-analytics/pkg/utils/errors"
	"github.com/rzzdr/quant-analytics/pkg/utils/logger"
)

// ProducerConfig contains configuration for a Kafka producer
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
	BatchTimeout time.Duration
	Async        bool
	// Breaker suspends writes after repeated broker failures
	Breaker circuit.Config
}

// MessageHeader represents a Kafka message header
type MessageHeader struct {
	Key   string
	Value []byte
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Producer is a wrapper around the kafka-go writer
type Producer struct {
	writer  messageWriter
	topic   string
	breaker *circuit.CircuitBreaker
	log     *logger.Logger
}

// NewProducer creates a producer for a single topic
func NewProducer(cfg ProducerConfig) (*Producer, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, errors.InvalidArgument("kafka producer needs brokers and a topic")
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 10 * time.Millisecond
	}

	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafkago.Hash{},
		WriteTimeout: cfg.WriteTimeout,
		BatchTimeout: cfg.BatchTimeout,
		MaxAttempts:  5,
		RequiredAcks: kafkago.RequireAll,
		Async:        cfg.Async,
	}

	return newProducer(w, cfg.Topic, cfg.Breaker), nil
}

func newProducer(w messageWriter, topic string, breaker circuit.Config) *Producer {
	return &Producer{
		writer:  w,
		topic:   topic,
		breaker: circuit.NewCircuitBreaker("kafka."+topic, breaker),
		log:     logger.GetLogger("kafka.producer"),
	}
}

// ProduceMessage writes one message to the topic
func (p *Producer) ProduceMessage(ctx context.Context, key, value []byte, headers []MessageHeader) error {
	msg := kafkago.Message{
		Key:   key,
		Value: value,
		Time:  time.Now(),
	}
	for _, h := range headers {
		msg.Headers = append(msg.Headers, kafkago.Header{Key: h.Key, Value: h.Value})
	}

	err := p.breaker.Execute(ctx, func(ctx context.Context) error {
		return p.writer.WriteMessages(ctx, msg)
	})
	if errors.Is(err, circuit.ErrCircuitBreakerOpen) || errors.Is(err, circuit.ErrTooManyRequests) {
		return errors.Wrapf(errors.WithType(err, errors.ErrorTypeResourceUnavailable), "publishing to %s suspended", p.topic)
	}
	if err != nil {
		p.log.Errorf("Failed to produce message to %s: %v", p.topic, err)
		return errors.Wrapf(errors.WithType(err, errors.ErrorTypeResourceUnavailable), "produce to %s", p.topic)
	}
	return nil
}

// ProduceJSON produces a JSON-serialized message to the topic
func (p *Producer) ProduceJSON(ctx context.Context, key []byte, value interface{}, headers []MessageHeader) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(errors.WithType(err, errors.ErrorTypeInternal), "encode message")
	}
	return p.ProduceMessage(ctx, key, payload, headers)
}

// PublishCalibration publishes a calibration result keyed by its term
// structure handle, so results for one handle stay ordered.
func (p *Producer) PublishCalibration(ctx context.Context, event *models.CalibrationEvent) error {
	headers := []MessageHeader{
		{Key: "event-id", Value: []byte(event.ID)},
		{Key: "event-type", Value: []byte("calibration")},
	}
	if err := p.ProduceJSON(ctx, []byte(strconv.Itoa(event.Handle)), event, headers); err != nil {
		return err
	}
	p.log.Debugf("Published calibration %s for term structure %d", event.ID, event.Handle)
	return nil
}

// Close flushes pending messages and closes the writer
func (p *Producer) Close() error {
	p.log.Info("Closing Kafka producer")
	return p.writer.Close()
}
