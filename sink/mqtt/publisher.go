// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mqtt

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/bureau-foundation/faultline/lib/clock"
	"github.com/bureau-foundation/faultline/lib/frame"
	"github.com/bureau-foundation/faultline/lib/link"
	"github.com/bureau-foundation/faultline/lib/session"
	"github.com/bureau-foundation/faultline/lib/telemetry"
)

const (
	// DefaultConnectTimeout bounds the initial broker connect in Start.
	DefaultConnectTimeout = 10 * time.Second

	// DefaultKeepAlive is the MQTT keep-alive interval.
	DefaultKeepAlive = 60 * time.Second

	// disconnectQuiesce is how long Close gives paho to flush
	// in-flight messages, in milliseconds.
	disconnectQuiesce = 250

	// tokenBacklog bounds the publish-error watcher queue. When the
	// queue is full new tokens go unwatched; their messages are still
	// handed to paho, only failure logging is lost.
	tokenBacklog = 256
)

// Client is the slice of the paho client the publisher uses. The real
// paho.Client satisfies it; tests substitute a fake.
type Client interface {
	Connect() paho.Token
	Publish(topic string, qos byte, retained bool, payload any) paho.Token
	Disconnect(quiesce uint)
	IsConnected() bool
}

// Config parameterizes a Publisher.
type Config struct {
	// BrokerURL is the broker address, e.g. tcp://localhost:1883.
	BrokerURL string

	// ClientID identifies this client to the broker.
	ClientID string

	// TopicPrefix prefixes the state/records/stats topics.
	TopicPrefix string

	// QoS is the publish quality of service (0, 1, or 2).
	QoS byte

	// Username and Password authenticate to the broker when set.
	Username string
	Password string

	// Encoding selects the payload codec. Empty means JSON.
	Encoding Encoding

	// ConnectTimeout bounds the initial connect. Zero takes
	// DefaultConnectTimeout.
	ConnectTimeout time.Duration

	// KeepAlive is the MQTT keep-alive interval. Zero takes
	// DefaultKeepAlive.
	KeepAlive time.Duration
}

// withDefaults returns c with zero fields replaced by the defaults.
func (c Config) withDefaults() Config {
	if c.Encoding == "" {
		c.Encoding = EncodingJSON
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.KeepAlive <= 0 {
		c.KeepAlive = DefaultKeepAlive
	}
	return c
}

// Publisher mirrors session events to an MQTT broker. It implements
// session.Sink; its methods return an error only when a payload fails
// to encode. Transport failures surface through the background
// watcher's log, never to the session.
type Publisher struct {
	config Config
	client Client
	clock  clock.Clock
	logger *slog.Logger

	tokens chan pendingToken
	quit   chan struct{}
	wg     sync.WaitGroup
}

// pendingToken pairs an in-flight publish token with its topic for
// failure logging.
type pendingToken struct {
	topic string
	token paho.Token
}

// New builds a Publisher with a real paho client.
func New(config Config, clk clock.Clock, logger *slog.Logger) *Publisher {
	config = config.withDefaults()

	opts := paho.NewClientOptions()
	opts.AddBroker(config.BrokerURL)
	opts.SetClientID(config.ClientID)
	opts.SetKeepAlive(config.KeepAlive)
	opts.SetConnectTimeout(config.ConnectTimeout)
	opts.SetAutoReconnect(true)
	if config.Username != "" {
		opts.SetUsername(config.Username)
		opts.SetPassword(config.Password)
	}
	opts.SetOnConnectHandler(func(paho.Client) {
		logger.Info("mqtt connected", "broker", config.BrokerURL)
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		logger.Warn("mqtt connection lost", "error", err)
	})
	opts.SetReconnectingHandler(func(paho.Client, *paho.ClientOptions) {
		logger.Info("mqtt reconnecting", "broker", config.BrokerURL)
	})

	return newPublisher(config, paho.NewClient(opts), clk, logger)
}

// newPublisher wires a Publisher around an existing client. Tests use
// it with a fake.
func newPublisher(config Config, client Client, clk clock.Clock, logger *slog.Logger) *Publisher {
	return &Publisher{
		config: config.withDefaults(),
		client: client,
		clock:  clk,
		logger: logger,
		tokens: make(chan pendingToken, tokenBacklog),
		quit:   make(chan struct{}),
	}
}

// Start connects to the broker and launches the publish-error watcher.
// It fails fast: an unreachable broker is a startup error, not a
// background retry. After a successful connect, paho reconnects
// automatically.
func (p *Publisher) Start(ctx context.Context) error {
	token := p.client.Connect()

	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("connecting to mqtt broker %s: %w", p.config.BrokerURL, err)
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	p.wg.Add(1)
	go p.watchTokens()
	return nil
}

// Close stops the watcher and disconnects from the broker, giving
// paho a short quiesce to flush in-flight messages.
func (p *Publisher) Close() {
	close(p.quit)
	p.wg.Wait()

	if p.client.IsConnected() {
		p.client.Disconnect(disconnectQuiesce)
	}
}

// ConnectionChanged publishes a retained state message.
func (p *Publisher) ConnectionChanged(change link.ConnectionChange) error {
	return p.publish(p.topic("state"), true, statePayload{
		Connected:   change.Connected,
		Device:      change.DeviceName,
		Reason:      change.Reason.String(),
		TimestampMs: p.clock.Now().UnixMilli(),
	})
}

// RecordIngested publishes one decoded frame.
func (p *Publisher) RecordIngested(record frame.Record) error {
	payload := recordPayload{
		Sequence:          record.Sequence,
		Label:             record.Label,
		LabelName:         record.LabelName(),
		Confidence:        record.Confidence,
		ConfidencePercent: record.ConfidencePercent,
		TimestampMs:       record.TimestampMs,
		ReceivedAtMs:      p.clock.Now().UnixMilli(),
	}
	if record.Anomalies != 0 {
		payload.Anomalies = record.Anomalies.String()
	}
	return p.publish(p.topic("records"), false, payload)
}

// StatsUpdated publishes an aggregate statistics snapshot.
func (p *Publisher) StatsUpdated(snapshot telemetry.Snapshot) error {
	return p.publish(p.topic("stats"), false, snapshot)
}

var _ session.Sink = (*Publisher)(nil)

func (p *Publisher) topic(suffix string) string {
	return p.config.TopicPrefix + "/" + suffix
}

// publish encodes and hands the message to paho without waiting for
// delivery. Encoding failures are returned; delivery failures are the
// watcher's to log.
func (p *Publisher) publish(topic string, retained bool, v any) error {
	payload, err := p.config.Encoding.marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s payload: %w", topic, err)
	}

	token := p.client.Publish(topic, p.config.QoS, retained, payload)

	select {
	case p.tokens <- pendingToken{topic: topic, token: token}:
	default:
		// Watcher backlog full. The message is still in paho's hands.
	}
	return nil
}

// watchTokens drains publish tokens and logs delivery failures. One
// goroutine, serial: a token that never completes parks the watcher
// until shutdown rather than leaking goroutines per message.
func (p *Publisher) watchTokens() {
	defer p.wg.Done()

	for {
		select {
		case <-p.quit:
			return
		case pending := <-p.tokens:
			select {
			case <-pending.token.Done():
				if err := pending.token.Error(); err != nil {
					p.logger.Warn("mqtt publish failed",
						"topic", pending.topic,
						"error", err,
					)
				}
			case <-p.quit:
				return
			}
		}
	}
}
