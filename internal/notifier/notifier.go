// Package notifier is the fan-out side of the engine: it drains the
// notification queue of freshly created approval tasks and follows the
// transition event stream. Delivery here is logging; a mail or chat
// integration would hang off the same loops.
package notifier

import (
	"context"
	"encoding/json"

	"docflow/internal/core/ports"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type Notifier struct {
	queue ports.NotificationQueue
	tasks ports.TaskRepository
	bus   ports.EventBus
}

func NewNotifier(queue ports.NotificationQueue, tasks ports.TaskRepository, bus ports.EventBus) *Notifier {
	return &Notifier{
		queue: queue,
		tasks: tasks,
		bus:   bus,
	}
}

// Start launches the queue workers and the transition subscriber. Call
// this in main.go as a goroutine.
func (n *Notifier) Start(ctx context.Context, concurrency int) {
	logger := log.WithField("module", "notifier")
	logger.Infof("Notifier starting with %d queue workers", concurrency)

	for i := 0; i < concurrency; i++ {
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				default:
					n.processNextTask(ctx)
				}
			}
		}()
	}

	events, err := n.bus.SubscribeToTransitions(ctx)
	if err != nil {
		logger.WithError(err).Error("Failed to subscribe to transition events")
		return
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("Notifier shutting down")
			return
		case event := <-events:
			logger.WithFields(log.Fields{
				"document_id": event.DocumentID,
				"from_state":  event.FromState,
				"to_state":    event.ToState,
				"action_key":  event.ActionKey,
			}).Info("Document transitioned")
		}
	}
}

// processNextTask handles exactly one queued notification
func (n *Notifier) processNextTask(ctx context.Context) {
	logger := log.WithField("module", "notifier")

	taskIDStr, err := n.queue.Pop(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logger.WithError(err).Warn("Error popping from notification queue")
		}
		return
	}

	taskID, err := uuid.Parse(taskIDStr)
	if err != nil {
		logger.WithError(err).Warnf("Dropping malformed task ID %q", taskIDStr)
		return
	}

	task, err := n.tasks.FindByID(ctx, taskID)
	if err != nil {
		logger.WithError(err).Warnf("Failed to load task %s", taskID)
		return
	}

	var users, roles []string
	if len(task.AssignedUsers) > 0 {
		_ = json.Unmarshal(task.AssignedUsers, &users)
	}
	if len(task.AssignedRoles) > 0 {
		_ = json.Unmarshal(task.AssignedRoles, &roles)
	}

	logger.WithFields(log.Fields{
		"task_id":        task.ID,
		"document_id":    task.DocumentID,
		"assigned_users": users,
		"assigned_roles": roles,
		"due_date":       task.DueDate,
	}).Info("Approval requested")
}
