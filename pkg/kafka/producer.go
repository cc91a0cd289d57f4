package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes JSON payloads to Kafka topics.
type Producer struct {
	writer  messageWriter
	comp    string
	source  string
	metrics *producerMetrics
}

func NewProducer(opts ...ProducerOption) (*Producer, error) {
	cfg := defaultProducerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:  parseCompression(cfg.Compression),
		MaxAttempts:  cfg.MaxAttempts,
		WriteTimeout: cfg.WriteTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
	}

	return newProducer(writer, cfg), nil
}

func newProducer(w messageWriter, cfg ProducerConfig) *Producer {
	return &Producer{
		writer:  w,
		comp:    cfg.Compression,
		source:  cfg.ClientID,
		metrics: newProducerMetrics(cfg.Registerer),
	}
}

// Publish sends one message. Messages with the same key land on the same
// partition. Values other than []byte and string are JSON encoded.
func (p *Producer) Publish(ctx context.Context, topic string, key []byte, value interface{}) error {
	v, contentType, err := encodeValue(value)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   key,
		Value: v,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte(contentType)},
			{Key: "source", Value: []byte(p.source)},
		},
	}

	start := time.Now()
	err = p.writer.WriteMessages(ctx, msg)
	p.metrics.observe(topic, p.comp, len(v), time.Since(start), err)
	if err != nil {
		return fmt.Errorf("kafka publish %s: %w", topic, err)
	}
	return nil
}

func encodeValue(value interface{}) ([]byte, string, error) {
	switch val := value.(type) {
	case []byte:
		return val, "application/octet-stream", nil
	case string:
		return []byte(val), "text/plain", nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return nil, "", fmt.Errorf("marshal value: %w", err)
	}
	return b, "application/json", nil
}

// Close closes the producer. It is safe on a nil Producer.
func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

func parseCompression(s string) kafka.Compression {
	switch s {
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return kafka.Gzip
	}
}

type producerMetrics struct {
	messages *prometheus.CounterVec
	bytes    *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func newProducerMetrics(reg prometheus.Registerer) *producerMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &producerMetrics{
		messages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "uplift_kafka_producer_messages_total",
			Help: "Messages published to Kafka by result.",
		}, []string{"topic", "compression", "result"}),
		bytes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "uplift_kafka_producer_bytes_total",
			Help: "Payload bytes published to Kafka.",
		}, []string{"topic", "compression"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "uplift_kafka_producer_publish_seconds",
			Help:    "Kafka publish latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"topic"}),
	}
}

func (m *producerMetrics) observe(topic, comp string, n int, dur time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.messages.WithLabelValues(topic, comp, result).Inc()
	m.bytes.WithLabelValues(topic, comp).Add(float64(n))
	m.latency.WithLabelValues(topic).Observe(dur.Seconds())
}
