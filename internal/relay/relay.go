// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/raceroom/internal/config"
	"github.com/tomtom215/raceroom/internal/logging"
	"github.com/tomtom215/raceroom/internal/metrics"
	"github.com/tomtom215/raceroom/internal/racetime"
)

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("relay is closed")

// Metadata keys set on every published message.
const (
	MetadataKind     = "kind"
	MetadataEndpoint = "endpoint"
)

// Envelope is the JSON payload of a relayed event.
type Envelope struct {
	ID       string             `json:"id"`
	Kind     racetime.EventKind `json:"kind"`
	Endpoint string             `json:"endpoint,omitempty"`
	At       time.Time          `json:"at"`
	Event    json.RawMessage    `json:"event"`
}

// Relay publishes room events to a Watermill publisher.
type Relay struct {
	publisher message.Publisher
	local     *gochannel.GoChannel // set for the gochannel driver
	breaker   *gobreaker.CircuitBreaker[struct{}]
	prefix    string
	logger    watermill.LoggerAdapter

	mu     sync.RWMutex
	closed bool
}

// New builds a relay for cfg.Driver. A nil logger discards Watermill logs.
func New(cfg config.RelayConfig, logger watermill.LoggerAdapter) (*Relay, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	switch cfg.Driver {
	case "", "gochannel":
		ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, logger)
		r := newRelay(ch, cfg.TopicPrefix, logger)
		r.local = ch
		return r, nil
	case "nats":
		pub, err := newNATSPublisher(cfg.NATSURL, logger)
		if err != nil {
			return nil, err
		}
		r := newRelay(pub, cfg.TopicPrefix, logger)
		r.breaker = newPublishBreaker("relay-nats")
		return r, nil
	default:
		return nil, fmt.Errorf("unknown relay driver %q", cfg.Driver)
	}
}

// NewWithPublisher wraps an existing publisher.
func NewWithPublisher(pub message.Publisher, prefix string, logger watermill.LoggerAdapter) *Relay {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return newRelay(pub, prefix, logger)
}

func newRelay(pub message.Publisher, prefix string, logger watermill.LoggerAdapter) *Relay {
	if prefix == "" {
		prefix = "raceroom"
	}
	return &Relay{publisher: pub, prefix: prefix, logger: logger}
}

func newNATSPublisher(url string, logger watermill.LoggerAdapter) (message.Publisher, error) {
	natsOpts := []natsgo.Option{
		natsgo.Name("raceroom-relay"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create nats publisher: %w", err)
	}
	return pub, nil
}

// newPublishBreaker stops hammering an unreachable broker: it opens after
// five consecutive failures and retries after 30 seconds.
func newPublishBreaker(name string) *gobreaker.CircuitBreaker[struct{}] {
	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("[CIRCUIT BREAKER] State transition")
		},
	})
}

// Topic returns the topic events of kind are published to.
func (r *Relay) Topic(kind racetime.EventKind) string {
	return r.prefix + "." + string(kind)
}

// Handle publishes ev and logs a failure. It has the signature of a
// racetime.Client subscriber.
func (r *Relay) Handle(ev racetime.Event) {
	if err := r.Publish(context.Background(), ev); err != nil && !errors.Is(err, ErrClosed) {
		logging.Warn().Err(err).Str("kind", string(ev.Kind())).Msg("Failed to relay room event")
	}
}

// Publish encodes ev as an Envelope and publishes it to Topic(ev.Kind()).
func (r *Relay) Publish(ctx context.Context, ev racetime.Event) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrClosed
	}

	msg, err := newMessage(ev)
	if err != nil {
		metrics.RecordRelayPublish(err)
		return err
	}
	msg.SetContext(ctx)

	topic := r.Topic(ev.Kind())
	if r.breaker != nil {
		_, err = r.breaker.Execute(func() (struct{}, error) {
			return struct{}{}, r.publisher.Publish(topic, msg)
		})
	} else {
		err = r.publisher.Publish(topic, msg)
	}
	metrics.RecordRelayPublish(err)
	if err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

func newMessage(ev racetime.Event) (*message.Message, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", ev.Kind(), err)
	}

	meta := ev.Metadata()
	env := Envelope{
		ID:       watermill.NewUUID(),
		Kind:     ev.Kind(),
		Endpoint: meta.Endpoint,
		At:       meta.At,
		Event:    body,
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}

	msg := message.NewMessage(env.ID, payload)
	msg.Metadata.Set(MetadataKind, string(env.Kind))
	if env.Endpoint != "" {
		msg.Metadata.Set(MetadataEndpoint, env.Endpoint)
	}
	msg.Metadata.Set(natsgo.MsgIdHdr, env.ID)
	return msg, nil
}

// Subscribe returns the in-process stream of topic. It is only available
// with the gochannel driver.
func (r *Relay) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	if r.local == nil {
		return nil, errors.New("relay subscriptions require the gochannel driver")
	}
	return r.local.Subscribe(ctx, topic)
}

// Close closes the publisher. It is safe to call more than once.
func (r *Relay) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	return r.publisher.Close()
}
