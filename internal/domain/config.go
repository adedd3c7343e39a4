package domain

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// Node and connection configs live in jsonb columns. The engine decodes
// only the keys it interprets; everything else is preserved in Extra so a
// round-trip through the engine never drops authoring-layer data.

type ApproverType string

const (
	ApproverUser             ApproverType = "user"
	ApproverRole             ApproverType = "role"
	ApproverSubmitterManager ApproverType = "submitter_manager"
)

type ApproverRef struct {
	Type ApproverType `json:"type"`
	ID   string       `json:"id"`
}

type ViewPermissions struct {
	IncludeSubmitter bool     `json:"includeSubmitter"`
	IncludeApprovers bool     `json:"includeApprovers"`
	Users            []string `json:"users"`
	Roles            []string `json:"roles"`
}

type PermissionsConfig struct {
	View ViewPermissions `json:"view"`

	EditMainForm      bool     `json:"editMainForm"`
	EditMainFormRoles []string `json:"editMainFormRoles"`
	EditMainFormUsers []string `json:"editMainFormUsers"`

	EditChildForms      bool     `json:"editChildForms"`
	EditChildFormsRoles []string `json:"editChildFormsRoles"`
	EditChildFormsUsers []string `json:"editChildFormsUsers"`
}

// StateConfig configures a state node.
type StateConfig struct {
	StateKey    string            `json:"stateKey"`
	Permissions PermissionsConfig `json:"permissions"`

	Extra map[string]json.RawMessage `json:"-"`
}

// ApprovalConfig configures an approval node.
type ApprovalConfig struct {
	DefaultApprovers []ApproverRef `json:"defaultApprovers"`
	TimeoutDays      int           `json:"timeoutDays"`

	Extra map[string]json.RawMessage `json:"-"`
}

// ActionConfig configures an approval->state connection.
type ActionConfig struct {
	Label           string `json:"label"`
	ButtonColor     string `json:"buttonColor"`
	RequiresComment bool   `json:"requiresComment"`
	Order           int    `json:"order"`
	Icon            string `json:"icon"`

	Extra map[string]json.RawMessage `json:"-"`
}

func DecodeStateConfig(raw datatypes.JSON) (StateConfig, error) {
	var cfg StateConfig
	err := decodeConfig(raw, &cfg, &cfg.Extra, "stateKey", "permissions")
	return cfg, err
}

func DecodeApprovalConfig(raw datatypes.JSON) (ApprovalConfig, error) {
	var cfg ApprovalConfig
	err := decodeConfig(raw, &cfg, &cfg.Extra, "defaultApprovers", "timeoutDays")
	return cfg, err
}

func DecodeActionConfig(raw datatypes.JSON) (ActionConfig, error) {
	var cfg ActionConfig
	err := decodeConfig(raw, &cfg, &cfg.Extra,
		"label", "buttonColor", "requiresComment", "order", "icon")
	return cfg, err
}

func decodeConfig(raw datatypes.JSON, dst any, extra *map[string]json.RawMessage, known ...string) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(raw, &all); err != nil {
		return err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) > 0 {
		*extra = all
	}
	return nil
}
