package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
	TaskCancelled TaskStatus = "cancelled"
	TaskExpired   TaskStatus = "expired"
)

// Action is one approval button, derived from an approval->state
// connection. Tasks hold a snapshot of their actions so later graph edits
// never change the buttons of an already-open task.
type Action struct {
	ConnectionID    uuid.UUID `json:"connectionId"`
	Key             string    `json:"key"`
	Label           string    `json:"label"`
	ButtonColor     string    `json:"buttonColor"`
	RequiresComment bool      `json:"requiresComment"`
	Order           int       `json:"order"`
	Icon            string    `json:"icon"`
	TargetNodeID    uuid.UUID `json:"targetNodeId"`
	TargetState     string    `json:"targetState"`
}

type ApprovalTask struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;"`
	DocumentID uuid.UUID `gorm:"type:uuid;index:idx_tasks_doc_node;not null"`
	NodeID     uuid.UUID `gorm:"type:uuid;index:idx_tasks_doc_node;not null"`

	AssignedUsers datatypes.JSON `gorm:"type:jsonb"`
	AssignedRoles datatypes.JSON `gorm:"type:jsonb"`

	AvailableActions datatypes.JSON `gorm:"type:jsonb"`

	Status      TaskStatus `gorm:"type:varchar(50);index;default:'pending'"`
	CompletedBy *uuid.UUID `gorm:"type:uuid"`
	CompletedAt *time.Time
	ActionTaken string `gorm:"type:varchar(255);default:''"`
	Comment     string `gorm:"type:text;default:''"`
	DueDate     *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewApprovalTask(documentID, nodeID uuid.UUID) *ApprovalTask {
	return &ApprovalTask{
		ID:         uuid.New(),
		DocumentID: documentID,
		NodeID:     nodeID,
		Status:     TaskPending,
		CreatedAt:  time.Now(),
	}
}

func (t *ApprovalTask) Actions() ([]Action, error) {
	if len(t.AvailableActions) == 0 {
		return nil, nil
	}
	var actions []Action
	if err := json.Unmarshal(t.AvailableActions, &actions); err != nil {
		return nil, err
	}
	return actions, nil
}

func (t *ApprovalTask) SetActions(actions []Action) error {
	raw, err := json.Marshal(actions)
	if err != nil {
		return err
	}
	t.AvailableActions = raw
	return nil
}

func (t *ApprovalTask) SetAssignees(users, roles []uuid.UUID) error {
	rawUsers, err := json.Marshal(uuidStrings(users))
	if err != nil {
		return err
	}
	rawRoles, err := json.Marshal(uuidStrings(roles))
	if err != nil {
		return err
	}
	t.AssignedUsers = rawUsers
	t.AssignedRoles = rawRoles
	return nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
