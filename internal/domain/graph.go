package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type NodeKind string

const (
	NodeStart          NodeKind = "start"
	NodeState          NodeKind = "state"
	NodeEnd            NodeKind = "end"
	NodeApproval       NodeKind = "approval"
	NodeCondition      NodeKind = "condition"
	NodeNotification   NodeKind = "notification"
	NodeTimer          NodeKind = "timer"
	NodeChildFormEntry NodeKind = "child_form_entry"
	NodeViewPermission NodeKind = "view_permission"
	NodeEmail          NodeKind = "email"
	NodeWebhook        NodeKind = "webhook"
	NodeFork           NodeKind = "fork"
	NodeJoin           NodeKind = "join"
)

// Workflow is one published graph for a document type. The engine only
// reads graphs; authoring happens elsewhere.
type Workflow struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key;"`
	DocumentTypeID uuid.UUID `gorm:"type:uuid;index;not null"`
	Name           string    `gorm:"type:varchar(255);not null"`
	IsActive       bool      `gorm:"index;default:false"`

	Nodes       []Node       `gorm:"foreignKey:WorkflowID"`
	Connections []Connection `gorm:"foreignKey:WorkflowID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Node struct {
	ID         uuid.UUID      `gorm:"type:uuid;primary_key;"`
	WorkflowID uuid.UUID      `gorm:"type:uuid;index;not null"`
	Kind       NodeKind       `gorm:"type:varchar(50);index;not null"`
	Label      string         `gorm:"type:varchar(255);not null"`
	Config     datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewNode(workflowID uuid.UUID, kind NodeKind, label string) *Node {
	return &Node{
		ID:         uuid.New(),
		WorkflowID: workflowID,
		Kind:       kind,
		Label:      label,
		CreatedAt:  time.Now(),
	}
}

// Connection is a directed edge. Edges from an approval node to a state
// node carry the action config that becomes an approval button.
type Connection struct {
	ID           uuid.UUID      `gorm:"type:uuid;primary_key;"`
	WorkflowID   uuid.UUID      `gorm:"type:uuid;index;not null"`
	SourceNodeID uuid.UUID      `gorm:"type:uuid;index;not null"`
	TargetNodeID uuid.UUID      `gorm:"type:uuid;index;not null"`
	ActionConfig datatypes.JSON `gorm:"type:jsonb"`

	TargetNode *Node `gorm:"foreignKey:TargetNodeID"`

	CreatedAt time.Time
}

func NewConnection(workflowID, source, target uuid.UUID) *Connection {
	return &Connection{
		ID:           uuid.New(),
		WorkflowID:   workflowID,
		SourceNodeID: source,
		TargetNodeID: target,
		CreatedAt:    time.Now(),
	}
}
