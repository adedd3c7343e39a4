package domain

import "fmt"

// ConfigurationError marks a graph that is structurally unable to proceed,
// e.g. an approval node with no outgoing state connections. Fatal to the
// triggering operation; never retried.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "workflow configuration error: " + e.Reason
}

// InvalidStateError is returned when acting on a task that is no longer
// pending, including when a concurrent resolver won the race.
type InvalidStateError struct {
	Status TaskStatus
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("approval task is already %s", e.Status)
}

// ActionNotFoundError means the requested key is not in the task's action
// snapshot: a stale client, or a snapshot taken before a graph edit.
type ActionNotFoundError struct {
	Key string
}

func (e *ActionNotFoundError) Error() string {
	return fmt.Sprintf("action %q not found in available actions", e.Key)
}

// CommentRequiredError is a validation failure: the matched action demands
// a comment and none (or only whitespace) was supplied.
type CommentRequiredError struct {
	ActionLabel string
}

func (e *CommentRequiredError) Error() string {
	return fmt.Sprintf("action %q requires a comment", e.ActionLabel)
}

// TargetNodeMissingError means the action's target node was deleted after
// the task snapshot was taken.
type TargetNodeMissingError struct {
	NodeID string
}

func (e *TargetNodeMissingError) Error() string {
	return "target node not found: " + e.NodeID
}
