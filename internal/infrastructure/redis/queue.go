package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// NotificationQueue carries created-task IDs to the notifier workers.
type NotificationQueue struct {
	client    *redis.Client
	queueName string
}

func NewNotificationQueue(client *redis.Client) *NotificationQueue {
	return &NotificationQueue{
		client:    client,
		queueName: "approvals:queue:notifications",
	}
}

// Push adds a task ID to the end of the list
func (q *NotificationQueue) Push(ctx context.Context, taskID string) error {
	return q.client.RPush(ctx, q.queueName, taskID).Err()
}

// Pop waits for a task ID and removes it from the front of the list
func (q *NotificationQueue) Pop(ctx context.Context) (string, error) {
	// 0 means "Wait forever until an item appears"
	result, err := q.client.BLPop(ctx, 0*time.Second, q.queueName).Result()
	if err != nil {
		return "", err
	}
	// BLPop returns a slice: [QueueName, Element]
	return result[1], nil
}
