package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	TypeConnected    = "cloud.connection.connected"
	TypeDisconnected = "cloud.connection.disconnected"
	TypeNodeStart    = "cloud.node.start"
	TypeNodeStop     = "cloud.node.stop"
	TypeNodeRestart  = "cloud.node.restart"
	TypeNodeCreate   = "cloud.node.create"
)

// Event describes one lifecycle change driven through the cloud manager.
type Event struct {
	Type         string `json:"event"`
	ConnectionID string `json:"connection_id"`
	ProviderType string `json:"provider_type"`
	NodeID       string `json:"node_id,omitempty"`
	Success      bool   `json:"success"`
	Time         int64  `json:"time"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close()
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close()                               {}

type NATSPublisher struct {
	nc      *nats.Conn
	subject string
}

func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name("kolaboree-backend"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			zap.L().Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			zap.L().Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{nc: nc, subject: subject}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, ev Event) error {
	if p.nc == nil || p.nc.IsClosed() {
		return fmt.Errorf("nats not connected")
	}
	if ev.Time == 0 {
		ev.Time = time.Now().Unix()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return p.nc.Publish(p.subject+"."+ev.Type, payload)
}

func (p *NATSPublisher) Close() {
	if p.nc != nil {
		_ = p.nc.Drain()
		p.nc.Close()
	}
}

// New returns a NATS publisher when url is set and a no-op publisher otherwise.
func New(url, subject string) (Publisher, error) {
	if url == "" {
		return NopPublisher{}, nil
	}
	return NewNATSPublisher(url, subject)
}
