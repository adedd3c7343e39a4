package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"docflow/internal/core/ports"
	"docflow/internal/domain"
	"docflow/internal/metrics"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CreateApprovalTask opens a pending task when a document reaches an
// approval node. The derived actions are snapshotted onto the task so
// graph edits never change the buttons of an in-flight task.
func (e *Engine) CreateApprovalTask(ctx context.Context, documentID, approvalNodeID uuid.UUID, timeoutDaysOverride *int) (*domain.ApprovalTask, error) {
	node, err := e.graphs.FindNodeByID(ctx, approvalNodeID)
	if err != nil {
		return nil, err
	}
	document, err := e.documents.FindByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	actions, err := e.DeriveActions(ctx, node)
	if err != nil {
		return nil, err
	}
	if len(actions) == 0 {
		return nil, &domain.ConfigurationError{
			Reason: fmt.Sprintf("approval node %q has no outgoing connections to state nodes", node.Label),
		}
	}

	cfg, err := domain.DecodeApprovalConfig(node.Config)
	if err != nil {
		return nil, err
	}

	users, roles := e.resolveApprovers(ctx, cfg.DefaultApprovers, document)

	task := domain.NewApprovalTask(document.ID, node.ID)
	if err := task.SetActions(actions); err != nil {
		return nil, err
	}
	if err := task.SetAssignees(users, roles); err != nil {
		return nil, err
	}

	timeoutDays := cfg.TimeoutDays
	if timeoutDaysOverride != nil {
		timeoutDays = *timeoutDaysOverride
	}
	if timeoutDays > 0 {
		due := time.Now().Add(time.Duration(timeoutDays) * 24 * time.Hour)
		task.DueDate = &due
	}

	if err := e.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	metrics.TasksCreated.Inc()

	e.logger().WithFields(log.Fields{
		"task_id":     task.ID,
		"document_id": document.ID,
		"node_id":     node.ID,
		"actions":     len(actions),
	}).Info("Approval task created")

	e.announceTask(ctx, task)

	return task, nil
}

// resolveApprovers expands defaultApprovers entries into user and role
// IDs. Unresolvable entries are skipped: one misconfigured approver must
// not block task creation.
func (e *Engine) resolveApprovers(ctx context.Context, refs []domain.ApproverRef, document *domain.Document) ([]uuid.UUID, []uuid.UUID) {
	var users, roles []uuid.UUID

	for _, ref := range refs {
		switch ref.Type {
		case domain.ApproverUser:
			id, err := uuid.Parse(ref.ID)
			if err != nil {
				continue
			}
			if _, err := e.directory.FindUserByID(ctx, id); err != nil {
				e.logger().WithField("user_id", ref.ID).Warn("Skipping unresolvable approver user")
				continue
			}
			users = append(users, id)

		case domain.ApproverRole:
			id, err := uuid.Parse(ref.ID)
			if err != nil {
				continue
			}
			exists, err := e.directory.RoleExists(ctx, id)
			if err != nil || !exists {
				e.logger().WithField("role_id", ref.ID).Warn("Skipping unresolvable approver role")
				continue
			}
			roles = append(roles, id)

		case domain.ApproverSubmitterManager:
			submitter, err := e.directory.FindUserByID(ctx, document.SubmittedBy)
			if err != nil || submitter.ManagerID == nil {
				continue
			}
			users = append(users, *submitter.ManagerID)
		}
	}

	return users, roles
}

// ExecuteApprovalAction resolves a pending task with one of its
// snapshotted actions and transitions the document. The task completion,
// document state write, history append and sibling cancellation commit as
// one atomic unit; of two concurrent calls exactly one succeeds.
func (e *Engine) ExecuteApprovalAction(ctx context.Context, taskID uuid.UUID, actionKey string, actorID uuid.UUID, comment string) (*domain.DocumentStateHistory, error) {
	task, err := e.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if task.Status != domain.TaskPending {
		return nil, &domain.InvalidStateError{Status: task.Status}
	}

	actions, err := task.Actions()
	if err != nil {
		return nil, err
	}
	var action *domain.Action
	for i := range actions {
		if actions[i].Key == actionKey {
			action = &actions[i]
			break
		}
	}
	if action == nil {
		return nil, &domain.ActionNotFoundError{Key: actionKey}
	}

	if action.RequiresComment && strings.TrimSpace(comment) == "" {
		return nil, &domain.CommentRequiredError{ActionLabel: action.Label}
	}

	targetNode, err := e.graphs.FindNodeByID(ctx, action.TargetNodeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &domain.TargetNodeMissingError{NodeID: action.TargetNodeID.String()}
		}
		return nil, err
	}

	metadata, err := json.Marshal(map[string]any{
		"approval_task_id": task.ID.String(),
		"approval_node_id": task.NodeID.String(),
		"button_color":     action.ButtonColor,
	})
	if err != nil {
		return nil, err
	}

	history, err := e.tasks.ResolveApproval(ctx, ports.ResolveApprovalParams{
		TaskID:       task.ID,
		DocumentID:   task.DocumentID,
		NodeID:       task.NodeID,
		ActorID:      actorID,
		TargetNodeID: targetNode.ID,
		ActionKey:    action.Key,
		ActionLabel:  action.Label,
		Comment:      comment,
		ToState:      ResolveStateKey(targetNode),
		Metadata:     metadata,
	})
	if err != nil {
		if errors.Is(err, ports.ErrTaskNotPending) {
			metrics.ResolveConflicts.Inc()
			// Another resolver won between our read and the guarded
			// write; report the status it left behind.
			status := domain.TaskCompleted
			if current, ferr := e.tasks.FindByID(ctx, taskID); ferr == nil {
				status = current.Status
			}
			return nil, &domain.InvalidStateError{Status: status}
		}
		return nil, err
	}
	metrics.Transitions.WithLabelValues(action.Key).Inc()

	e.logger().WithFields(log.Fields{
		"task_id":     task.ID,
		"document_id": task.DocumentID,
		"action_key":  action.Key,
		"from_state":  history.FromState,
		"to_state":    history.ToState,
	}).Info("Approval action executed")

	if e.bus != nil {
		actor := actorID
		event := domain.DocumentTransitionedEvent{
			DocumentID: task.DocumentID,
			TaskID:     task.ID,
			FromState:  history.FromState,
			ToState:    history.ToState,
			ActionKey:  action.Key,
			ActorID:    &actor,
		}
		if err := e.bus.PublishDocumentTransitioned(ctx, event); err != nil {
			e.logger().WithError(err).Warn("Failed to publish transition event")
		}
	}

	return history, nil
}

// ListPendingApprovals returns the pending tasks visible to a user,
// directly assigned or through any held role, newest first.
func (e *Engine) ListPendingApprovals(ctx context.Context, userID uuid.UUID, documentTypeID *uuid.UUID) ([]domain.ApprovalTask, error) {
	user, err := e.directory.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	roleIDs, err := user.Roles()
	if err != nil {
		return nil, err
	}
	return e.tasks.ListPendingForUser(ctx, userID, roleIDs, documentTypeID)
}

// DocumentHistory lists a document's state transitions, newest first.
func (e *Engine) DocumentHistory(ctx context.Context, documentID uuid.UUID) ([]domain.DocumentStateHistory, error) {
	return e.documents.History(ctx, documentID)
}

func (e *Engine) announceTask(ctx context.Context, task *domain.ApprovalTask) {
	if e.queue != nil {
		if err := e.queue.Push(ctx, task.ID.String()); err != nil {
			e.logger().WithError(err).Warn("Failed to enqueue task notification")
		}
	}
	if e.bus != nil {
		event := domain.TaskCreatedEvent{
			TaskID:     task.ID,
			DocumentID: task.DocumentID,
			NodeID:     task.NodeID,
		}
		if err := e.bus.PublishTaskCreated(ctx, event); err != nil {
			e.logger().WithError(err).Warn("Failed to publish task created event")
		}
	}
}
