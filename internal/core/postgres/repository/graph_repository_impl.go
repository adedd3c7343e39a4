package repository

import (
	"context"

	"docflow/internal/core/ports"
	"docflow/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type graphRepository struct {
	db *gorm.DB
}

// NewGraphRepository creates a new instance of GraphRepository
func NewGraphRepository(db *gorm.DB) ports.GraphRepository {
	return &graphRepository{db: db}
}

func (r *graphRepository) FindNodeByID(ctx context.Context, id uuid.UUID) (*domain.Node, error) {
	var node domain.Node
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&node).Error
	if err != nil {
		return nil, err
	}
	return &node, nil
}

func (r *graphRepository) OutgoingConnections(ctx context.Context, sourceNodeID uuid.UUID) ([]domain.Connection, error) {
	var connections []domain.Connection
	err := r.db.WithContext(ctx).
		Preload("TargetNode").
		Where("source_node_id = ?", sourceNodeID).
		Order("created_at").
		Find(&connections).Error

	return connections, err
}

func (r *graphRepository) StateNodes(ctx context.Context, workflowID uuid.UUID) ([]domain.Node, error) {
	var nodes []domain.Node
	err := r.db.WithContext(ctx).
		Where("workflow_id = ? AND kind = ?", workflowID, domain.NodeState).
		Order("created_at").
		Find(&nodes).Error

	return nodes, err
}

func (r *graphRepository) ActiveWorkflow(ctx context.Context, documentTypeID uuid.UUID) (*domain.Workflow, error) {
	var workflow domain.Workflow
	err := r.db.WithContext(ctx).
		Where("document_type_id = ? AND is_active = ?", documentTypeID, true).
		Order("created_at").
		First(&workflow).Error
	if err != nil {
		return nil, err
	}
	return &workflow, nil
}

// DeleteNode removes a node and its edges. The pending-task check and the
// deletes run in one transaction so a task created concurrently cannot be
// orphaned by the delete.
func (r *graphRepository) DeleteNode(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pending int64
		err := tx.Model(&domain.ApprovalTask{}).
			Where("node_id = ? AND status = ?", id, domain.TaskPending).
			Count(&pending).Error
		if err != nil {
			return err
		}
		if pending > 0 {
			return ports.ErrNodeReferenced
		}

		err = tx.Where("source_node_id = ? OR target_node_id = ?", id, id).
			Delete(&domain.Connection{}).Error
		if err != nil {
			return err
		}

		return tx.Where("id = ?", id).Delete(&domain.Node{}).Error
	})
}
