package mq

import (
	"context"
	"fmt"

	"github.com/schoolhub/apiserver/config"
)

// Publisher defines the broker-agnostic publish operation used by the app.
type Publisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Close() error
}

// New constructs the publisher selected by cfg.Backend. It returns nil, nil
// when publishing is disabled.
func New(ctx context.Context, cfg config.MQConfig) (Publisher, error) {
	switch cfg.Backend {
	case "":
		return nil, nil
	case config.MQBackendRabbitMQ:
		client, err := NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.MQBackendPubSub:
		client, err := NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported mq backend %q", cfg.Backend)
	}
}
