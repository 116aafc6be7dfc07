package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/deinvis/catalogo/internal/controllers"
)

// Scheduler periodically re-ingests every refreshable (url/xtream) playlist
type Scheduler struct {
	cron       *cron.Cron
	ingestCtrl *controllers.IngestController
	spec       string
	logger     *logrus.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(ingestCtrl *controllers.IngestController, spec string, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		ingestCtrl: ingestCtrl,
		spec:       spec,
		logger:     logger,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.logger.WithField("spec", s.spec).Info("Starting scheduler")

	_, err := s.cron.AddFunc(s.spec, func() {
		s.runRefresh()
	})
	if err != nil {
		return fmt.Errorf("failed to add refresh job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Scheduler started")
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cron.Stop()
}

// runRefresh executes the playlist refresh job
func (s *Scheduler) runRefresh() {
	s.logger.Info("Running scheduled playlist refresh")
	s.ingestCtrl.RefreshAll(context.Background())
	s.logger.Info("Scheduled playlist refresh completed")
}
