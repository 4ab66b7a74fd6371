package mq

import (
	"context"
	"fmt"

	"github.com/moksh-codedeveloper/E-Commerce-app-BE/config"
)

// NewBackend constructs the broker backend selected by config.
func NewBackend(ctx context.Context, cfg config.MQConfig) (Backend, error) {
	switch cfg.Backend {
	case "rabbitmq":
		return NewRabbitMQClient(cfg.RabbitMQ)
	case "pubsub":
		return NewPubSubClient(ctx, cfg.PubSub)
	default:
		return nil, fmt.Errorf("unknown mq backend: %q", cfg.Backend)
	}
}
