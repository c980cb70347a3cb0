// Package audit publishes authentication events to Kafka. Publishing is
// best-effort: a missing broker configuration yields a no-op publisher and
// produce errors are logged, never surfaced to the request path.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Action identifies what happened.
type Action string

const (
	ActionLogin         Action = "login"
	ActionLoginFailed   Action = "login_failed"
	ActionRegister      Action = "register"
	ActionLogout        Action = "logout"
	ActionOAuthLogin    Action = "oauth_login"
	ActionOAuthRejected Action = "oauth_rejected"
	ActionPasswordReset Action = "password_reset"
	ActionWebhook       Action = "webhook"
)

// Event is one audit record. UserID is empty for anonymous events.
type Event struct {
	ID        string    `json:"id"`
	Action    Action    `json:"action"`
	UserID    string    `json:"userId,omitempty"`
	Method    string    `json:"method,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	ClientIP  string    `json:"clientIp,omitempty"`
	Device    string    `json:"device,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher writes audit events to a topic. The zero value and a nil
// pointer are both safe no-ops, so callers never branch on configuration.
type Publisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

// NewPublisher connects to the given brokers and ensures the topic exists.
// With no brokers configured it returns a no-op publisher and no error.
func NewPublisher(ctx context.Context, brokers []string, topic string, opts ...Option) (*Publisher, error) {
	p := &Publisher{topic: topic, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if len(brokers) == 0 {
		return p, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, err
	}
	if err := ensureTopic(ctx, client, topic); err != nil {
		client.Close()
		return nil, err
	}
	p.client = client
	return p, nil
}

func ensureTopic(ctx context.Context, client *kgo.Client, topic string) error {
	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopic(ctx, 1, 1, nil, topic)
	if err != nil {
		return err
	}
	// Already-exists is the steady state on restart.
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return resp.Err
	}
	return nil
}

// Publish records one event. Safe on a nil or unconfigured publisher.
func (p *Publisher) Publish(ctx context.Context, event Event) {
	if p == nil || p.client == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	value, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("audit event marshal failed", "error", err)
		return
	}
	record := &kgo.Record{Topic: p.topic, Key: []byte(event.Action), Value: value}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.Error("audit event produce failed", "action", event.Action, "error", err)
		}
	})
}

// Close flushes pending records.
func (p *Publisher) Close(ctx context.Context) {
	if p == nil || p.client == nil {
		return
	}
	if err := p.client.Flush(ctx); err != nil {
		p.logger.Error("audit flush failed", "error", err)
	}
	p.client.Close()
}
