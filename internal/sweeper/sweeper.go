// Package sweeper expires overdue approval tasks. Expiry is policy, not
// engine control flow: the engine only promises to treat any non-pending
// task as immutable, so the sweep can run on any schedule.
package sweeper

import (
	"context"
	"time"

	"docflow/internal/core/ports"
	"docflow/internal/metrics"

	log "github.com/sirupsen/logrus"
)

type Sweeper struct {
	tasks    ports.TaskRepository
	interval time.Duration
}

func NewSweeper(tasks ports.TaskRepository, interval time.Duration) *Sweeper {
	return &Sweeper{
		tasks:    tasks,
		interval: interval,
	}
}

// Start runs the expiry loop until the context is cancelled. Call this in
// main.go as a goroutine.
func (s *Sweeper) Start(ctx context.Context) {
	logger := log.WithField("module", "sweeper")
	logger.Infof("Sweeper starting, interval %s", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Sweeper shutting down")
			return
		case <-ticker.C:
			s.sweep(ctx, logger)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context, logger *log.Entry) {
	expired, err := s.tasks.ExpireOverdue(ctx, time.Now())
	if err != nil {
		logger.WithError(err).Error("Expiry sweep failed")
		return
	}
	if len(expired) == 0 {
		return
	}

	metrics.TasksExpired.Add(float64(len(expired)))
	logger.WithField("count", len(expired)).Info("Expired overdue approval tasks")
	for _, id := range expired {
		logger.WithField("task_id", id).Debug("Task expired")
	}
}
