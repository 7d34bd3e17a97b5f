package scheduler

import (
	"errors"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/temperature-monitoring/internal/monitor"
	"github.com/i474232898/temperature-monitoring/internal/regress"
)

// Scheduler periodically retrains the active model and refreshes the
// cached prediction and extended forecast. It only runs when
// auto-predict is enabled; with it off, predictions update strictly on
// explicit request.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   *monitor.Service
	interval  time.Duration
}

// New creates a new Scheduler.
func New(service *monitor.Service, interval time.Duration) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		service:   service,
		interval:  interval,
	}
}

// Start schedules the periodic refresh job and starts the underlying
// scheduler.
func (s *Scheduler) Start() error {
	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		log.Println("scheduler: running prediction refresh job")

		if err := s.service.Refresh(); err != nil {
			var insufficient *regress.InsufficientDataError
			var untrained *regress.ModelNotTrainedError
			if errors.As(err, &insufficient) || errors.As(err, &untrained) {
				// Not enough readings yet; try again next tick.
				log.Printf("scheduler: refresh skipped: %v", err)
				return
			}
			log.Printf("scheduler: refresh failed: %v", err)
			return
		}
		log.Println("scheduler: completed prediction refresh job")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
