// Package kafka publishes registry events to a Kafka-compatible broker.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"credo/internal/platform/config"
	"credo/pkg/platform/audit"
	"credo/pkg/platform/circuit"
)

// ErrUnavailable is returned by Append while the breaker is open.
var ErrUnavailable = errors.New("kafka: sink unavailable")

// Sink is an audit.Store that writes each event as one JSON record. Records
// are keyed by credential id when set, otherwise by the target address, so
// events for the same credential land on one partition in order.
//
// Produce failures feed a circuit breaker. Once it opens, Append fails fast
// with ErrUnavailable until a probe succeeds.
type Sink struct {
	client  *kgo.Client
	topic   string
	breaker *circuit.Breaker
	logger  *slog.Logger
}

type Option func(*Sink)

func WithBreaker(b *circuit.Breaker) Option {
	return func(s *Sink) {
		if b != nil {
			s.breaker = b
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sink) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// record is the wire shape of a published event.
type record struct {
	ID           string `json:"id"`
	Category     string `json:"category"`
	Action       string `json:"action"`
	Timestamp    string `json:"timestamp"`
	Actor        string `json:"actor"`
	Target       string `json:"target,omitempty"`
	CredentialID uint64 `json:"credential_id,omitempty"`
	IPFSHash     string `json:"ipfs_hash,omitempty"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
	RequestID    string `json:"request_id,omitempty"`
	Client       string `json:"client,omitempty"`
}

// NewSink connects a producer to cfg.Brokers.
func NewSink(cfg config.KafkaConfig, opts ...Option) (*Sink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.ProducerLinger(5*time.Millisecond),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka: create client: %w", err)
	}
	return newSink(client, cfg.Topic, opts...), nil
}

func newSink(client *kgo.Client, topic string, opts ...Option) *Sink {
	s := &Sink{
		client:  client,
		topic:   topic,
		breaker: circuit.New("kafka", circuit.WithFailureThreshold(3), circuit.WithCooldown(5*time.Second)),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureTopic creates the topic if it does not exist yet.
func (s *Sink) EnsureTopic(ctx context.Context, partitions int32, replicationFactor int16) error {
	admin := kadm.NewClient(s.client)
	resp, err := admin.CreateTopics(ctx, partitions, replicationFactor, nil, s.topic)
	if err != nil {
		return fmt.Errorf("kafka: create topic %s: %w", s.topic, err)
	}
	for _, t := range resp {
		if t.Err != nil && !errors.Is(t.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("kafka: create topic %s: %w", t.Topic, t.Err)
		}
	}
	return nil
}

// Append produces ev and waits for the broker acknowledgement.
func (s *Sink) Append(ctx context.Context, ev audit.Event) error {
	payload, err := json.Marshal(toRecord(ev))
	if err != nil {
		return fmt.Errorf("kafka: encode event: %w", err)
	}
	rec := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(partitionKey(ev)),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "action", Value: []byte(ev.Action)},
		},
	}
	if !s.breaker.Allow() {
		return ErrUnavailable
	}
	if err := s.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		if _, change := s.breaker.RecordFailure(); change.Opened {
			s.logger.WarnContext(ctx, "kafka sink circuit opened", "topic", s.topic, "error", err)
		}
		return fmt.Errorf("kafka: produce %s: %w", ev.Action, err)
	}
	if _, change := s.breaker.RecordSuccess(); change.Closed {
		s.logger.InfoContext(ctx, "kafka sink circuit closed", "topic", s.topic)
	}
	return nil
}

// Ping checks broker connectivity.
func (s *Sink) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

// Close flushes pending records and closes the client.
func (s *Sink) Close() {
	s.client.Close()
}

func partitionKey(ev audit.Event) string {
	if ev.CredentialID != 0 {
		return fmt.Sprintf("credential:%d", ev.CredentialID)
	}
	return ev.Target.Hex()
}

func toRecord(ev audit.Event) record {
	r := record{
		ID:           ev.ID.String(),
		Category:     string(ev.Category),
		Action:       ev.Action,
		Timestamp:    ev.Timestamp.UTC().Format(time.RFC3339Nano),
		Actor:        ev.Actor.Hex(),
		CredentialID: ev.CredentialID,
		IPFSHash:     ev.IPFSHash,
		ExpiresAt:    ev.ExpiresAt,
		RequestID:    ev.RequestID,
		Client:       ev.Client,
	}
	if !ev.Target.IsZero() {
		r.Target = ev.Target.Hex()
	}
	return r
}
