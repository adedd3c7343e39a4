package engine

import (
	"context"
	"sort"
	"strings"

	"docflow/internal/domain"

	"github.com/google/uuid"
)

// ActionKey derives a stable action key from a button label: lower-cased,
// spaces replaced with underscores. The derivation is idempotent, and two
// labels that normalize to the same key silently define the same action;
// authoring layers that want to reject the collision can pre-check here.
func ActionKey(label string) string {
	return strings.ReplaceAll(strings.ToLower(label), " ", "_")
}

// ResolveStateKey returns the state node's configured stateKey, falling
// back to the node's label when absent or undecodable.
func ResolveStateKey(node *domain.Node) string {
	cfg, err := domain.DecodeStateConfig(node.Config)
	if err != nil || cfg.StateKey == "" {
		return node.Label
	}
	return cfg.StateKey
}

// DeriveActions builds the approval buttons for an approval node. Each
// outgoing connection to a state node becomes one action; connections to
// any other node kind are ignored. Actions come back sorted by configured
// order, ties broken by connection creation order.
func (e *Engine) DeriveActions(ctx context.Context, approvalNode *domain.Node) ([]domain.Action, error) {
	connections, err := e.graphs.OutgoingConnections(ctx, approvalNode.ID)
	if err != nil {
		return nil, err
	}

	actions := make([]domain.Action, 0, len(connections))
	for _, conn := range connections {
		if conn.TargetNode == nil || conn.TargetNode.Kind != domain.NodeState {
			continue
		}

		cfg, err := domain.DecodeActionConfig(conn.ActionConfig)
		if err != nil {
			return nil, err
		}
		if cfg.Label == "" {
			cfg.Label = "Action"
		}
		if cfg.ButtonColor == "" {
			cfg.ButtonColor = "primary"
		}
		if cfg.Order == 0 {
			cfg.Order = 1
		}

		stateCfg, err := domain.DecodeStateConfig(conn.TargetNode.Config)
		if err != nil {
			return nil, err
		}

		actions = append(actions, domain.Action{
			ConnectionID:    conn.ID,
			Key:             ActionKey(cfg.Label),
			Label:           cfg.Label,
			ButtonColor:     cfg.ButtonColor,
			RequiresComment: cfg.RequiresComment,
			Order:           cfg.Order,
			Icon:            cfg.Icon,
			TargetNodeID:    conn.TargetNode.ID,
			TargetState:     stateCfg.StateKey,
		})
	}

	sort.SliceStable(actions, func(i, j int) bool {
		return actions[i].Order < actions[j].Order
	})

	return actions, nil
}

// FindStateNode maps a state key back to its configuring node, for
// permission checks against a document's current state.
func (e *Engine) FindStateNode(ctx context.Context, workflowID uuid.UUID, stateKey string) (*domain.Node, error) {
	nodes, err := e.graphs.StateNodes(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	for i := range nodes {
		if ResolveStateKey(&nodes[i]) == stateKey {
			return &nodes[i], nil
		}
	}
	return nil, nil
}
