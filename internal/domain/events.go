package domain

import (
	"github.com/google/uuid"
)

// TaskCreatedEvent is published to Redis Pub/Sub when an approval task is
// opened, and the task ID is pushed to the notification queue.
type TaskCreatedEvent struct {
	TaskID     uuid.UUID `json:"task_id"`
	DocumentID uuid.UUID `json:"document_id"`
	NodeID     uuid.UUID `json:"node_id"`
}

// DocumentTransitionedEvent is published after a state transition commits.
type DocumentTransitionedEvent struct {
	DocumentID uuid.UUID  `json:"document_id"`
	TaskID     uuid.UUID  `json:"task_id"`
	FromState  string     `json:"from_state"`
	ToState    string     `json:"to_state"`
	ActionKey  string     `json:"action_key"`
	ActorID    *uuid.UUID `json:"actor_id"`
}
