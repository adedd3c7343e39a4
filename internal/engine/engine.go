// Package engine drives documents through a workflow graph: it derives
// approval actions from graph topology, opens and resolves approval tasks
// exactly once, records the state-transition audit trail, and answers
// state-scoped permission queries.
package engine

import (
	"docflow/internal/core/ports"

	log "github.com/sirupsen/logrus"
)

type Engine struct {
	graphs    ports.GraphRepository
	tasks     ports.TaskRepository
	documents ports.DocumentRepository
	directory ports.Directory

	// queue and bus are optional; a nil value disables notification
	// fan-out without affecting engine semantics.
	queue ports.NotificationQueue
	bus   ports.EventBus
}

func New(
	graphs ports.GraphRepository,
	tasks ports.TaskRepository,
	documents ports.DocumentRepository,
	directory ports.Directory,
	queue ports.NotificationQueue,
	bus ports.EventBus,
) *Engine {
	return &Engine{
		graphs:    graphs,
		tasks:     tasks,
		documents: documents,
		directory: directory,
		queue:     queue,
		bus:       bus,
	}
}

func (e *Engine) logger() *log.Entry {
	return log.WithField("module", "workflow_engine")
}
