package engine

import (
	"context"

	"docflow/internal/domain"

	"github.com/google/uuid"
)

type PermissionKind string

const (
	PermissionView           PermissionKind = "view"
	PermissionEditMainForm   PermissionKind = "editMainForm"
	PermissionEditChildForms PermissionKind = "editChildForms"
)

// CheckPermission answers a view/edit query for a user against the
// document's current state. It is fail-closed: any fault while locating
// the graph, the state node or the user yields false, never an error, so
// a broken check can never be mistaken for a grant.
func (e *Engine) CheckPermission(ctx context.Context, documentID, userID uuid.UUID, kind PermissionKind) bool {
	document, err := e.documents.FindByID(ctx, documentID)
	if err != nil {
		return false
	}

	workflow, err := e.graphs.ActiveWorkflow(ctx, document.DocumentTypeID)
	if err != nil {
		return false
	}

	stateNode, err := e.FindStateNode(ctx, workflow.ID, document.CurrentState)
	if err != nil || stateNode == nil {
		return false
	}

	cfg, err := domain.DecodeStateConfig(stateNode.Config)
	if err != nil {
		e.logger().WithError(err).WithField("node_id", stateNode.ID).
			Warn("Undecodable state config during permission check")
		return false
	}
	perms := cfg.Permissions

	user, err := e.directory.FindUserByID(ctx, userID)
	if err != nil {
		return false
	}
	roleIDs, err := user.Roles()
	if err != nil {
		return false
	}

	switch kind {
	case PermissionView:
		return e.checkViewPermission(ctx, document, userID, roleIDs, perms.View)
	case PermissionEditMainForm:
		return checkEditPermission(perms.EditMainForm, perms.EditMainFormRoles, perms.EditMainFormUsers, userID, roleIDs)
	case PermissionEditChildForms:
		return checkEditPermission(perms.EditChildForms, perms.EditChildFormsRoles, perms.EditChildFormsUsers, userID, roleIDs)
	}

	return false
}

func (e *Engine) checkViewPermission(ctx context.Context, document *domain.Document, userID uuid.UUID, roleIDs []uuid.UUID, view domain.ViewPermissions) bool {
	if view.IncludeSubmitter && document.SubmittedBy == userID {
		return true
	}

	if view.IncludeApprovers {
		isApprover, err := e.tasks.ExistsForAssignee(ctx, document.ID, userID, roleIDs)
		if err == nil && isApprover {
			return true
		}
	}

	if containsID(view.Users, userID) {
		return true
	}
	for _, roleID := range roleIDs {
		if containsID(view.Roles, roleID) {
			return true
		}
	}

	return false
}

// checkEditPermission starts from the enable flag; beyond it, a non-empty
// role allow-list and a non-empty user allow-list are each independently
// restrictive, while an empty list imposes no restriction.
func checkEditPermission(enabled bool, allowedRoles, allowedUsers []string, userID uuid.UUID, roleIDs []uuid.UUID) bool {
	if !enabled {
		return false
	}

	if len(allowedRoles) > 0 {
		held := false
		for _, roleID := range roleIDs {
			if containsID(allowedRoles, roleID) {
				held = true
				break
			}
		}
		if !held {
			return false
		}
	}

	if len(allowedUsers) > 0 && !containsID(allowedUsers, userID) {
		return false
	}

	return true
}

func containsID(list []string, id uuid.UUID) bool {
	s := id.String()
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
