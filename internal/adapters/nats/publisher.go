// Package natsadapter publishes navigation events for the activity relay.
package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/qiyuanliu/mapnav/internal/core/domain"
)

// SubjectPrefix is the root of all navigation event subjects. A launched
// navigation is published on nav.launched.<provider>.
const SubjectPrefix = "nav"

// Publisher implements ports.EventPublisher on core NATS. Navigation events
// are ephemeral fan-out for connected dashboards, so there is no JetStream
// stream behind them.
type Publisher struct {
	conn *nats.Conn
}

// NewPublisher connects to NATS.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := connect(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Publisher{conn: conn}, nil
}

// PublishNavigation publishes a launched-navigation event.
func (p *Publisher) PublishNavigation(ctx context.Context, ev *domain.NavigationEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.conn.Publish(SubjectPrefix+".launched."+ev.Provider, data)
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (the WebSocket
// activity relay).
func RawConn(url string) (*nats.Conn, error) {
	return connect(url)
}

func connect(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
