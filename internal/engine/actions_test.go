package engine

import (
	"context"
	"testing"

	"docflow/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionKey(t *testing.T) {
	tests := []struct {
		label    string
		expected string
	}{
		{"Approve", "approve"},
		{"Send Back For Review", "send_back_for_review"},
		{"REJECT", "reject"},
		{"already_keyed", "already_keyed"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ActionKey(tt.label))
		// Stable and idempotent: re-deriving from the derived key is a no-op.
		assert.Equal(t, tt.expected, ActionKey(ActionKey(tt.label)))
	}
}

func TestResolveStateKey(t *testing.T) {
	node := domain.NewNode(uuid.New(), domain.NodeState, "Approved")
	node.Config = rawJSON(map[string]any{"stateKey": "UH_APPROVED"})
	assert.Equal(t, "UH_APPROVED", ResolveStateKey(node))

	// Falls back to the label when no stateKey is configured.
	bare := domain.NewNode(uuid.New(), domain.NodeState, "Approved")
	assert.Equal(t, "Approved", ResolveStateKey(bare))
}

func TestDeriveActions(t *testing.T) {
	store := newFakeStore()
	eng := newTestEngine(store)
	wf := store.addWorkflow(uuid.New(), true)

	approval := store.addNode(wf.ID, domain.NodeApproval, "UH Approval", nil)
	approved := store.addNode(wf.ID, domain.NodeState, "Approved", map[string]any{"stateKey": "UH_APPROVED"})
	rejected := store.addNode(wf.ID, domain.NodeState, "Rejected", map[string]any{"stateKey": "UH_REJECTED"})
	notify := store.addNode(wf.ID, domain.NodeNotification, "Notify", nil)

	store.addConnection(wf.ID, approval.ID, rejected.ID, map[string]any{
		"label": "Reject", "buttonColor": "danger", "requiresComment": true, "order": 2,
	})
	store.addConnection(wf.ID, approval.ID, approved.ID, map[string]any{
		"label": "Approve", "buttonColor": "success", "order": 1,
	})
	// Connections to non-state nodes never become actions.
	store.addConnection(wf.ID, approval.ID, notify.ID, map[string]any{"label": "Notify"})

	actions, err := eng.DeriveActions(context.Background(), approval)
	require.NoError(t, err)
	require.Len(t, actions, 2)

	assert.Equal(t, "approve", actions[0].Key)
	assert.Equal(t, "Approve", actions[0].Label)
	assert.Equal(t, "success", actions[0].ButtonColor)
	assert.False(t, actions[0].RequiresComment)
	assert.Equal(t, approved.ID, actions[0].TargetNodeID)
	assert.Equal(t, "UH_APPROVED", actions[0].TargetState)

	assert.Equal(t, "reject", actions[1].Key)
	assert.True(t, actions[1].RequiresComment)
	assert.Equal(t, "UH_REJECTED", actions[1].TargetState)

	// Idempotence: a second derivation without graph mutation is identical.
	again, err := eng.DeriveActions(context.Background(), approval)
	require.NoError(t, err)
	assert.Equal(t, actions, again)
}

func TestDeriveActions_OrderTiesByCreation(t *testing.T) {
	store := newFakeStore()
	eng := newTestEngine(store)
	wf := store.addWorkflow(uuid.New(), true)

	approval := store.addNode(wf.ID, domain.NodeApproval, "Gate", nil)
	first := store.addNode(wf.ID, domain.NodeState, "First", map[string]any{"stateKey": "FIRST"})
	second := store.addNode(wf.ID, domain.NodeState, "Second", map[string]any{"stateKey": "SECOND"})

	store.addConnection(wf.ID, approval.ID, first.ID, map[string]any{"label": "First", "order": 1})
	store.addConnection(wf.ID, approval.ID, second.ID, map[string]any{"label": "Second", "order": 1})

	actions, err := eng.DeriveActions(context.Background(), approval)
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, "first", actions[0].Key)
	assert.Equal(t, "second", actions[1].Key)
}

func TestDeriveActions_Defaults(t *testing.T) {
	store := newFakeStore()
	eng := newTestEngine(store)
	wf := store.addWorkflow(uuid.New(), true)

	approval := store.addNode(wf.ID, domain.NodeApproval, "Gate", nil)
	target := store.addNode(wf.ID, domain.NodeState, "Done", nil)
	store.addConnection(wf.ID, approval.ID, target.ID, nil)

	actions, err := eng.DeriveActions(context.Background(), approval)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "Action", actions[0].Label)
	assert.Equal(t, "action", actions[0].Key)
	assert.Equal(t, "primary", actions[0].ButtonColor)
	assert.Equal(t, 1, actions[0].Order)
	assert.Empty(t, actions[0].TargetState, "state node without stateKey has no target state key")
}

func TestDeriveActions_Empty(t *testing.T) {
	store := newFakeStore()
	eng := newTestEngine(store)
	wf := store.addWorkflow(uuid.New(), true)
	approval := store.addNode(wf.ID, domain.NodeApproval, "Dead End", nil)

	actions, err := eng.DeriveActions(context.Background(), approval)
	require.NoError(t, err)
	assert.Empty(t, actions)
}

func TestFindStateNode(t *testing.T) {
	store := newFakeStore()
	eng := newTestEngine(store)
	wf := store.addWorkflow(uuid.New(), true)

	store.addNode(wf.ID, domain.NodeState, "Draft", map[string]any{"stateKey": "DRAFT"})
	byLabel := store.addNode(wf.ID, domain.NodeState, "Archived", nil)
	store.addNode(wf.ID, domain.NodeApproval, "DRAFT", nil) // same label, wrong kind

	node, err := eng.FindStateNode(context.Background(), wf.ID, "DRAFT")
	require.NoError(t, err)
	require.NotNil(t, node)
	assert.Equal(t, "Draft", node.Label)

	// Label fallback participates in the lookup.
	node, err = eng.FindStateNode(context.Background(), wf.ID, "Archived")
	require.NoError(t, err)
	require.NotNil(t, node)
	assert.Equal(t, byLabel.ID, node.ID)

	node, err = eng.FindStateNode(context.Background(), wf.ID, "UNKNOWN")
	require.NoError(t, err)
	assert.Nil(t, node)
}
