package repository

import (
	"context"
	"time"

	"docflow/internal/core/ports"
	"docflow/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new instance of TaskRepository
func NewTaskRepository(db *gorm.DB) ports.TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Create(ctx context.Context, task *domain.ApprovalTask) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *taskRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.ApprovalTask, error) {
	var task domain.ApprovalTask
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) ListPendingForUser(ctx context.Context, userID uuid.UUID, roleIDs []uuid.UUID, documentTypeID *uuid.UUID) ([]domain.ApprovalTask, error) {
	// Assignee sets are jsonb arrays of id strings, so membership is a
	// containment check, same shape as the dependency lookups elsewhere.
	assignee := r.db.Where("assigned_users @> ?", jsonbMember(userID))
	for _, roleID := range roleIDs {
		assignee = assignee.Or("assigned_roles @> ?", jsonbMember(roleID))
	}

	q := r.db.WithContext(ctx).
		Where("approval_tasks.status = ?", domain.TaskPending).
		Where(assignee)

	if documentTypeID != nil {
		q = q.Joins("JOIN documents ON documents.id = approval_tasks.document_id").
			Where("documents.document_type_id = ?", *documentTypeID)
	}

	var tasks []domain.ApprovalTask
	err := q.Order("approval_tasks.created_at DESC").Find(&tasks).Error

	return tasks, err
}

func (r *taskRepository) ExistsForAssignee(ctx context.Context, documentID, userID uuid.UUID, roleIDs []uuid.UUID) (bool, error) {
	assignee := r.db.Where("assigned_users @> ?", jsonbMember(userID))
	for _, roleID := range roleIDs {
		assignee = assignee.Or("assigned_roles @> ?", jsonbMember(roleID))
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.ApprovalTask{}).
		Where("document_id = ?", documentID).
		Where(assignee).
		Count(&count).Error

	return count > 0, err
}

// ResolveApproval runs the whole resolution write set in one transaction.
// The status-guarded UPDATE is the concurrency gate: of two racing
// resolvers exactly one flips pending->completed, the other sees zero
// affected rows and gets ErrTaskNotPending with nothing committed.
func (r *taskRepository) ResolveApproval(ctx context.Context, p ports.ResolveApprovalParams) (*domain.DocumentStateHistory, error) {
	var history *domain.DocumentStateHistory

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		result := tx.Model(&domain.ApprovalTask{}).
			Where("id = ? AND status = ?", p.TaskID, domain.TaskPending).
			Updates(map[string]interface{}{
				"status":       domain.TaskCompleted,
				"completed_by": p.ActorID,
				"completed_at": now,
				"action_taken": p.ActionKey,
				"comment":      p.Comment,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ports.ErrTaskNotPending
		}

		// fromState is read inside the transaction so resolutions at
		// different nodes of the same document serialize their history.
		var doc domain.Document
		if err := tx.Where("id = ?", p.DocumentID).First(&doc).Error; err != nil {
			return err
		}

		err := tx.Model(&domain.Document{}).
			Where("id = ?", p.DocumentID).
			Update("current_state", p.ToState).Error
		if err != nil {
			return err
		}

		actor := p.ActorID
		target := p.TargetNodeID
		history = &domain.DocumentStateHistory{
			ID:             uuid.New(),
			DocumentID:     p.DocumentID,
			FromState:      doc.CurrentState,
			ToState:        p.ToState,
			TransitionedBy: &actor,
			ActionKey:      p.ActionKey,
			ActionLabel:    p.ActionLabel,
			Comment:        p.Comment,
			NodeID:         &target,
			Metadata:       p.Metadata,
			CreatedAt:      now,
		}
		if err := tx.Create(history).Error; err != nil {
			return err
		}

		// Cancel every other still-pending task at the same gate.
		return tx.Model(&domain.ApprovalTask{}).
			Where("document_id = ? AND node_id = ? AND status = ? AND id <> ?",
				p.DocumentID, p.NodeID, domain.TaskPending, p.TaskID).
			Update("status", domain.TaskCancelled).Error
	})
	if err != nil {
		return nil, err
	}

	return history, nil
}

func (r *taskRepository) ExpireOverdue(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	var expiredIDs []uuid.UUID

	query := `
		UPDATE approval_tasks
		SET status = 'expired'
		WHERE status = 'pending'
		  AND due_date IS NOT NULL
		  AND due_date < ?
		RETURNING id
	`

	rows, err := r.db.WithContext(ctx).Raw(query, now).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		expiredIDs = append(expiredIDs, id)
	}

	return expiredIDs, rows.Err()
}

func jsonbMember(id uuid.UUID) string {
	return `["` + id.String() + `"]`
}
