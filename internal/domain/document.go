package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Document data is the submitted form payload, e.g.
// {"cargoType": "CBRM", "weight": 1200, "bollards": [{"qty": 10}, ...]}.
// CurrentState is written exclusively by the engine.
type Document struct {
	ID             uuid.UUID      `gorm:"type:uuid;primary_key;"`
	DocumentTypeID uuid.UUID      `gorm:"type:uuid;index;not null"`
	Data           datatypes.JSON `gorm:"type:jsonb"`
	CurrentState   string         `gorm:"type:varchar(255);index;default:''"`
	SubmittedBy    uuid.UUID      `gorm:"type:uuid;index;not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DocumentStateHistory is the append-only audit trail. Rows are never
// updated or deleted.
type DocumentStateHistory struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key;"`
	DocumentID     uuid.UUID  `gorm:"type:uuid;index:idx_history_doc_created;not null"`
	FromState      string     `gorm:"type:varchar(255);default:''"`
	ToState        string     `gorm:"type:varchar(255);not null"`
	TransitionedBy *uuid.UUID `gorm:"type:uuid;index"`
	ActionKey      string     `gorm:"type:varchar(255);default:''"`
	ActionLabel    string     `gorm:"type:varchar(255);default:''"`
	Comment        string     `gorm:"type:text;default:''"`
	NodeID         *uuid.UUID `gorm:"type:uuid"`

	Metadata datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"index:idx_history_doc_created,sort:desc"`
}
