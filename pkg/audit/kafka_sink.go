package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/IBM/sarama"
)

const auditClientID = "markguard-audit"

// Message headers set on every published audit event
const (
	HeaderEventID = "markguard-event-id"
	HeaderGate    = "markguard-gate"
	HeaderAction  = "markguard-action"
)

var (
	compressionCodecs = map[string]sarama.CompressionCodec{
		"gzip":   sarama.CompressionGZIP,
		"snappy": sarama.CompressionSnappy,
		"lz4":    sarama.CompressionLZ4,
	}
	requiredAcks = map[string]sarama.RequiredAcks{
		"none":   sarama.NoResponse,
		"leader": sarama.WaitForLocal,
	}
)

// KafkaSink writes blocked-operation events to the audit topics. Delivery
// is asynchronous; failures surface on Errors.
type KafkaSink struct {
	producer sarama.AsyncProducer
	router   *Router

	mu     sync.RWMutex
	closed bool

	failures chan error
	drained  sync.WaitGroup
}

var _ Sink = (*KafkaSink)(nil)

// NewKafkaSink dials the audit brokers.
func NewKafkaSink(config *SinkConfig) (*KafkaSink, error) {
	if config == nil {
		config = DefaultSinkConfig()
	}
	if len(config.Brokers) == 0 {
		return nil, errors.New("audit sink: at least one Kafka broker is required")
	}

	producer, err := sarama.NewAsyncProducer(config.Brokers, buildSaramaConfig(config))
	if err != nil {
		return nil, fmt.Errorf("audit sink: creating Kafka producer: %w", err)
	}
	return NewKafkaSinkWithProducer(producer, config), nil
}

// NewKafkaSinkWithProducer builds a sink on top of producer.
func NewKafkaSinkWithProducer(producer sarama.AsyncProducer, config *SinkConfig) *KafkaSink {
	if config == nil {
		config = DefaultSinkConfig()
	}

	ks := &KafkaSink{
		producer: producer,
		router:   NewRouter(config.Topics),
		failures: make(chan error, 100),
	}
	ks.drained.Add(1)
	go ks.drain()
	return ks
}

// Record publishes each event once per topic the router selects for it.
func (ks *KafkaSink) Record(ctx context.Context, events ...AuditEvent) error {
	ks.mu.RLock()
	defer ks.mu.RUnlock()

	if ks.closed {
		return ErrSinkClosed
	}

	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return err
		}

		msgs, err := ks.messages(event)
		if err != nil {
			return err
		}
		for _, msg := range msgs {
			select {
			case ks.producer.Input() <- msg:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}

func (ks *KafkaSink) messages(event AuditEvent) ([]*sarama.ProducerMessage, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshaling audit event %s: %w", event.ID, err)
	}

	headers := []sarama.RecordHeader{
		{Key: []byte(HeaderEventID), Value: []byte(event.ID)},
		{Key: []byte(HeaderGate), Value: []byte(event.Gate)},
		{Key: []byte(HeaderAction), Value: []byte(event.Action)},
	}

	topics := ks.router.Route(event)
	msgs := make([]*sarama.ProducerMessage, 0, len(topics))
	for _, topic := range topics {
		msgs = append(msgs, &sarama.ProducerMessage{
			Topic:    topic,
			Key:      sarama.StringEncoder(event.Key()),
			Value:    sarama.ByteEncoder(body),
			Headers:  headers,
			Metadata: event.ID,
		})
	}
	return msgs, nil
}

// Close stops accepting events and waits for queued ones to be delivered or
// reported as failed. It is safe to call more than once.
func (ks *KafkaSink) Close() error {
	ks.mu.Lock()
	if ks.closed {
		ks.mu.Unlock()
		return nil
	}
	ks.closed = true
	ks.mu.Unlock()

	ks.producer.AsyncClose()
	ks.drained.Wait()
	return nil
}

// Errors reports events the brokers did not accept. When the channel is
// full, further failures are dropped.
func (ks *KafkaSink) Errors() <-chan error {
	return ks.failures
}

// drain consumes the producer's result channels until both are closed.
func (ks *KafkaSink) drain() {
	defer ks.drained.Done()

	successes, failures := ks.producer.Successes(), ks.producer.Errors()
	for successes != nil || failures != nil {
		select {
		case _, ok := <-successes:
			if !ok {
				successes = nil
			}
		case perr, ok := <-failures:
			if !ok {
				failures = nil
				continue
			}
			if perr != nil {
				ks.report(perr)
			}
		}
	}
}

func (ks *KafkaSink) report(perr *sarama.ProducerError) {
	err := fmt.Errorf("delivering audit event %v to %s: %w", perr.Msg.Metadata, perr.Msg.Topic, perr.Err)
	select {
	case ks.failures <- err:
	default:
	}
}

func buildSaramaConfig(config *SinkConfig) *sarama.Config {
	sc := sarama.NewConfig()
	sc.ClientID = auditClientID

	sc.Producer.Return.Successes = true
	sc.Producer.Return.Errors = true

	if config.FlushInterval > 0 {
		sc.Producer.Flush.Frequency = config.FlushInterval
	}
	if config.BatchSize > 0 {
		sc.Producer.Flush.Messages = config.BatchSize
	}

	sc.Producer.Compression = sarama.CompressionNone
	if codec, ok := compressionCodecs[config.Compression]; ok {
		sc.Producer.Compression = codec
	}

	sc.Producer.RequiredAcks = sarama.WaitForAll
	if acks, ok := requiredAcks[config.RequiredAcks]; ok {
		sc.Producer.RequiredAcks = acks
	}

	if config.MaxRetries > 0 {
		sc.Producer.Retry.Max = config.MaxRetries
	}
	if config.RetryBackoff > 0 {
		sc.Producer.Retry.Backoff = config.RetryBackoff
	}
	return sc
}
