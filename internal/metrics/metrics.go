package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TasksCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docflow_approval_tasks_created_total",
		Help: "Approval tasks opened by the engine.",
	})

	Transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docflow_document_transitions_total",
		Help: "Committed document state transitions.",
	}, []string{"action_key"})

	ResolveConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docflow_approval_resolve_conflicts_total",
		Help: "Approval resolutions rejected because another resolver won the race.",
	})

	TasksExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docflow_approval_tasks_expired_total",
		Help: "Pending approval tasks expired by the sweeper.",
	})
)
