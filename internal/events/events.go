// Package events fans job activity out to live listeners (the /ws/activity feed).
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultChannel = "applytrack:activity"

type ActivityEvent struct {
	Type         string    `json:"type"`
	JobID        string    `json:"jobId"`
	SequentialID int       `json:"sequentialId,omitempty"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Publisher interface {
	Publish(ctx context.Context, ev ActivityEvent) error
}

// Subscriber delivers events until ctx ends or cancel is called.
type Subscriber interface {
	Subscribe(ctx context.Context) (events <-chan ActivityEvent, cancel func(), err error)
}

// Nop drops every event; used when Redis is not configured.
type Nop struct{}

func (Nop) Publish(context.Context, ActivityEvent) error { return nil }

type RedisPublisher struct {
	rdb     *redis.Client
	channel string
}

func NewRedisPublisher(rdb *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{rdb: rdb, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev ActivityEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, p.channel, b).Err()
}

func (p *RedisPublisher) Subscribe(ctx context.Context) (<-chan ActivityEvent, func(), error) {
	ps := p.rdb.Subscribe(ctx, p.channel)
	// wait for the subscription confirmation so early publishes are not lost
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, err
	}

	out := make(chan ActivityEvent, 16)
	go func() {
		defer close(out)
		for msg := range ps.Channel() {
			var ev ActivityEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, func() { _ = ps.Close() }, nil
}
