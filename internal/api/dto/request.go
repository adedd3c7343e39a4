package dto

import (
	"docflow/internal/condition"

	"github.com/google/uuid"
)

type CreateApprovalTaskRequest struct {
	DocumentID  uuid.UUID `json:"document_id" binding:"required"`
	NodeID      uuid.UUID `json:"node_id" binding:"required"`
	TimeoutDays *int      `json:"timeout_days"`
}

type ExecuteActionRequest struct {
	ActionKey string `json:"action_key" binding:"required"`
	Comment   string `json:"comment"`
}

type EvaluateConditionsRequest struct {
	Conditions []condition.Condition `json:"conditions" binding:"required"`
	Logic      string                `json:"logic"`
	Data       map[string]any        `json:"data" binding:"required"`
}
