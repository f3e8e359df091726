package redisstore

import (
	"context"
	"encoding/json"

	"billing-service/internal/application"
	"billing-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

// Publisher announces finished updates on a pub/sub channel so other
// processes of the installation can reload.
type Publisher struct {
	Client  *redis.Client
	Channel string
}

var _ application.EventSink = (*Publisher)(nil)

func NewPublisher(client *redis.Client, channel string) *Publisher {
	return &Publisher{Client: client, Channel: channel}
}

func (p *Publisher) UpdateFinished(ctx context.Context, ev domain.UpdateFinished) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.Client.Publish(ctx, p.Channel, b).Err()
}
