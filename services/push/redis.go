// Package pushsvc implements the realtime push port over redis pub/sub.
// Delivery is best-effort: a published event may silently drop when the
// recipient has no live subscription.
package pushsvc

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/idhini/core"
	"github.com/trezcool/idhini/core/notification"
)

// Subscriber is implemented by broadcasters that also support live
// subscriptions (the websocket stream endpoint needs one).
type Subscriber interface {
	SubscribeUser(ctx context.Context, userID string) *redis.PubSub
}

type redisBroadcaster struct {
	client *redis.Client
}

var (
	_ notification.Broadcaster = (*redisBroadcaster)(nil)
	_ Subscriber               = (*redisBroadcaster)(nil)
)

func NewRedisBroadcaster(conf core.RedisConfig) *redisBroadcaster {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})
	return &redisBroadcaster{client: client}
}

func (b *redisBroadcaster) PublishToUser(ctx context.Context, userID string, event notification.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshalling push event")
	}
	if err := b.client.Publish(ctx, UserChannel(userID), payload).Err(); err != nil {
		return errors.Wrapf(err, "publishing to %s", UserChannel(userID))
	}
	return nil
}

func (b *redisBroadcaster) SubscribeUser(ctx context.Context, userID string) *redis.PubSub {
	return b.client.Subscribe(ctx, UserChannel(userID))
}

func (b *redisBroadcaster) Close() error {
	return b.client.Close()
}

// UserChannel names the pub/sub channel carrying one user's events.
func UserChannel(userID string) string {
	return "notify:user:" + userID
}
