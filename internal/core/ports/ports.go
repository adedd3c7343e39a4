package ports

import (
	"context"
	"errors"
	"time"

	"docflow/internal/domain"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ErrTaskNotPending is returned by ResolveApproval when the guarded status
// flip matched zero rows: the task was already resolved, cancelled or
// expired, possibly by a concurrent caller.
var ErrTaskNotPending = errors.New("approval task is not pending")

// ErrNodeReferenced is returned by DeleteNode while a pending approval
// task still references the node.
var ErrNodeReferenced = errors.New("node is referenced by a pending approval task")

// ResolveApprovalParams is the write set of one approval resolution. All
// writes happen in a single transaction.
type ResolveApprovalParams struct {
	TaskID     uuid.UUID
	DocumentID uuid.UUID
	NodeID     uuid.UUID // approval node, scopes sibling cancellation
	ActorID    uuid.UUID

	// TargetNodeID is the state node the document transitions into; it is
	// recorded on the history row.
	TargetNodeID uuid.UUID

	ActionKey   string
	ActionLabel string
	Comment     string
	ToState     string
	Metadata    datatypes.JSON
}

// GraphRepository reads workflow graphs. Graphs are authored elsewhere;
// the engine only queries them, plus the one guarded delete.
type GraphRepository interface {
	FindNodeByID(ctx context.Context, id uuid.UUID) (*domain.Node, error)

	// OutgoingConnections returns edges leaving a node with their target
	// nodes preloaded, in creation order.
	OutgoingConnections(ctx context.Context, sourceNodeID uuid.UUID) ([]domain.Connection, error)

	// StateNodes returns all state-kind nodes of a graph in creation order.
	StateNodes(ctx context.Context, workflowID uuid.UUID) ([]domain.Node, error)

	// ActiveWorkflow returns the active graph for a document type.
	ActiveWorkflow(ctx context.Context, documentTypeID uuid.UUID) (*domain.Workflow, error)

	// DeleteNode removes a node and its connections, refusing with
	// ErrNodeReferenced while a pending task points at it.
	DeleteNode(ctx context.Context, id uuid.UUID) error
}

// TaskRepository persists approval tasks.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.ApprovalTask) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.ApprovalTask, error)

	// ListPendingForUser returns pending tasks assigned to the user
	// directly or through any of the given roles, newest first.
	ListPendingForUser(ctx context.Context, userID uuid.UUID, roleIDs []uuid.UUID, documentTypeID *uuid.UUID) ([]domain.ApprovalTask, error)

	// ExistsForAssignee reports whether any task, in any status, for the
	// document is assigned to the user or one of the roles.
	ExistsForAssignee(ctx context.Context, documentID, userID uuid.UUID, roleIDs []uuid.UUID) (bool, error)

	// ResolveApproval atomically completes the task, transitions the
	// document, appends the history row and cancels pending siblings at
	// the same (document, node). Returns ErrTaskNotPending if another
	// resolver already flipped the task out of pending.
	ResolveApproval(ctx context.Context, p ResolveApprovalParams) (*domain.DocumentStateHistory, error)

	// ExpireOverdue flips pending tasks whose due date has passed to
	// expired and returns their IDs. Used by the sweeper, never by the
	// engine itself.
	ExpireOverdue(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}

// DocumentRepository reads documents and their audit trail.
type DocumentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Document, error)
	History(ctx context.Context, documentID uuid.UUID) ([]domain.DocumentStateHistory, error)
}

// Directory resolves users and roles by identifier.
type Directory interface {
	FindUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	RoleExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// NotificationQueue carries created-task IDs to the notifier workers.
type NotificationQueue interface {
	// Push a task UUID onto the pending-notification list
	Push(ctx context.Context, taskID string) error

	// Wait (block) until a task UUID is available
	Pop(ctx context.Context) (string, error)
}

// EventBus publishes engine lifecycle events.
type EventBus interface {
	PublishTaskCreated(ctx context.Context, event domain.TaskCreatedEvent) error
	PublishDocumentTransitioned(ctx context.Context, event domain.DocumentTransitionedEvent) error

	// Subscribe to transition events (used by the notifier)
	SubscribeToTransitions(ctx context.Context) (<-chan domain.DocumentTransitionedEvent, error)
}
