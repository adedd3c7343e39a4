package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// User and Role mirror the external directory. Provisioning is not the
// engine's job; it only resolves identifiers and role membership.
type User struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key;"`
	Username  string         `gorm:"type:varchar(150);uniqueIndex;not null"`
	ManagerID *uuid.UUID     `gorm:"type:uuid"`
	RoleIDs   datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Role struct {
	ID   uuid.UUID `gorm:"type:uuid;primary_key;"`
	Name string    `gorm:"type:varchar(150);uniqueIndex;not null"`

	CreatedAt time.Time
}

// Roles decodes the user's role membership. A user with no roles decodes
// to an empty slice.
func (u *User) Roles() ([]uuid.UUID, error) {
	if len(u.RoleIDs) == 0 {
		return nil, nil
	}
	var raw []string
	if err := json.Unmarshal(u.RoleIDs, &raw); err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
