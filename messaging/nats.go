package messaging

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/storefront-crm/lead-ingest-service/common/config"
)

// Subjects of the lead ingest event stream.
const (
	SubjectJobCompleted   = "leads.jobs.completed"
	SubjectJobFailed      = "leads.jobs.failed"
	SubjectRunSummary     = "leads.jobs.run_summary"
	SubjectProcessRequest = "leads.jobs.process"
)

// Broker wraps the NATS connection used for job lifecycle events and
// process-run triggers.
type Broker struct {
	conn        *nats.Conn
	config      config.Config
	subscribers map[string]*nats.Subscription
	mu          sync.Mutex
}

// NewBroker creates a connected broker.
func NewBroker(cfg config.Config) (*Broker, error) {
	broker := &Broker{
		config:      cfg,
		subscribers: make(map[string]*nats.Subscription),
	}

	if err := broker.connect(); err != nil {
		return nil, err
	}

	return broker, nil
}

// connect connects to the NATS server
func (b *Broker) connect() error {
	var err error

	// Setup connection options
	opts := []nats.Option{
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn().Err(err).Msg("Disconnected from NATS")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("server", nc.ConnectedUrl()).Msg("Reconnected to NATS")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).
				Str("subject", sub.Subject).
				Msg("Error handling NATS message")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Info().Msg("NATS connection closed")
		}),
	}

	// Add auth if provided
	if b.config.Nats.Username != "" && b.config.Nats.Password != "" {
		opts = append(opts, nats.UserInfo(b.config.Nats.Username, b.config.Nats.Password))
	}

	b.conn, err = nats.Connect(b.config.Nats.URL(), opts...)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.Info().Str("server", b.conn.ConnectedUrl()).Msg("Connected to NATS")
	return nil
}

// PublishJSON marshals the payload and publishes it to the subject.
func (b *Broker) PublishJSON(subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload for %s: %w", subject, err)
	}
	if err := b.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

// Subscribe registers a handler for a subject. Resubscribing to the same
// subject replaces the previous subscription.
func (b *Broker) Subscribe(subject string, handler nats.MsgHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if prev, ok := b.subscribers[subject]; ok {
		if err := prev.Unsubscribe(); err != nil {
			log.Warn().Err(err).Str("subject", subject).Msg("Failed to unsubscribe previous handler")
		}
	}

	sub, err := b.conn.Subscribe(subject, handler)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	b.subscribers[subject] = sub

	log.Info().Str("subject", subject).Msg("Subscribed to NATS subject")
	return nil
}

// Close drains the connection, gracefully finishing in-flight handlers.
func (b *Broker) Close() error {
	if b.conn != nil && b.conn.IsConnected() {
		return b.conn.Drain()
	}
	return nil
}
