package redis

import (
	"context"
	"encoding/json"

	"docflow/internal/domain"

	"github.com/redis/go-redis/v9"
)

type RedisEventBus struct {
	client             *redis.Client
	createdChannel     string
	transitionsChannel string
}

func NewRedisEventBus(client *redis.Client) *RedisEventBus {
	return &RedisEventBus{
		client:             client,
		createdChannel:     "approvals:events:task_created",
		transitionsChannel: "approvals:events:transitioned",
	}
}

// PublishTaskCreated broadcasts a new pending approval task
func (b *RedisEventBus) PublishTaskCreated(ctx context.Context, event domain.TaskCreatedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return b.client.Publish(ctx, b.createdChannel, payload).Err()
}

// PublishDocumentTransitioned broadcasts a committed state transition
func (b *RedisEventBus) PublishDocumentTransitioned(ctx context.Context, event domain.DocumentTransitionedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return b.client.Publish(ctx, b.transitionsChannel, payload).Err()
}

// SubscribeToTransitions opens a continuous stream for the notifier
func (b *RedisEventBus) SubscribeToTransitions(ctx context.Context) (<-chan domain.DocumentTransitionedEvent, error) {
	pubsub := b.client.Subscribe(ctx, b.transitionsChannel)

	msgChan := make(chan domain.DocumentTransitionedEvent)

	// Background goroutine forwards Redis messages onto our Go channel
	go func() {
		defer close(msgChan)
		for {
			select {
			case <-ctx.Done():
				pubsub.Close()
				return
			default:
				msg, err := pubsub.ReceiveMessage(ctx)
				if err == nil {
					var event domain.DocumentTransitionedEvent
					if err := json.Unmarshal([]byte(msg.Payload), &event); err == nil {
						msgChan <- event
					}
				}
			}
		}
	}()

	return msgChan, nil
}
