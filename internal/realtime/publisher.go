package realtime

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"

	"github.com/thereayou/flux/internal/metrics"
)

type RedisPublisher struct {
	rdb      *redis.Client
	fallback func(Event)
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

// WithLocalFallback доставляет событие локальным подписчикам, если Redis недоступен
func (p *RedisPublisher) WithLocalFallback(deliver func(Event)) *RedisPublisher {
	p.fallback = deliver
	return p
}

func (p *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := p.rdb.Publish(ctx, Channel(ev.GroupID), data).Err(); err != nil {
		if p.fallback != nil {
			p.fallback(ev)
		}
		return err
	}
	metrics.ActivityPublished.Inc()
	return nil
}
