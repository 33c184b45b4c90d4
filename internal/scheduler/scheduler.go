// Package scheduler runs the periodic maintenance jobs: tour status
// housekeeping every hour and the nightly search reindex.
package scheduler

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"realty-marketplace/internal/config"
	"realty-marketplace/internal/repository"
	"realty-marketplace/internal/search"
)

type Scheduler struct {
	cron       *cron.Cron
	tours      repository.TourRepository
	properties repository.PropertyRepository
	indexer    *search.IndexClient
	config     *config.Config
	isRunning  bool
}

// NewScheduler creates a new scheduler. indexer may be nil when Meilisearch
// is not configured; the reindex job is skipped in that case.
func NewScheduler(tours repository.TourRepository, properties repository.PropertyRepository, indexer *search.IndexClient, cfg *config.Config) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		tours:      tours,
		properties: properties,
		indexer:    indexer,
		config:     cfg,
	}
}

// Start registers and starts the cron jobs.
func (s *Scheduler) Start() error {
	if !s.config.Tours.MaintenanceEnabled {
		log.Println("Scheduler: Tour maintenance is disabled in configuration")
	} else {
		_, err := s.cron.AddFunc("@hourly", func() {
			if err := s.RunTourMaintenance(); err != nil {
				log.Printf("Scheduler: Tour maintenance failed: %v", err)
			}
		})
		if err != nil {
			return err
		}
	}

	if s.indexer != nil && s.config.Search.ReindexEnabled {
		cronSpec := parseDailyRunTime(s.config.Search.ReindexTime)
		_, err := s.cron.AddFunc(cronSpec, func() {
			if err := s.RunReindex(); err != nil {
				log.Printf("Scheduler: Reindex failed: %v", err)
			}
		})
		if err != nil {
			return err
		}
		log.Printf("Scheduler: Nightly reindex at %s (cron: %s)", s.config.Search.ReindexTime, cronSpec)
	}

	s.cron.Start()
	s.isRunning = true
	log.Println("Scheduler: Started")
	return nil
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	if s.isRunning {
		s.cron.Stop()
		s.isRunning = false
		log.Println("Scheduler: Stopped")
	}
}

// RunTourMaintenance completes confirmed tours whose end time has passed
// and cancels pending tours nobody confirmed before their slot elapsed.
func (s *Scheduler) RunTourMaintenance() error {
	now := time.Now()

	completed, err := s.tours.CompleteElapsed(now)
	if err != nil {
		return fmt.Errorf("complete elapsed tours: %w", err)
	}

	expired, err := s.tours.ExpireElapsedPending(now)
	if err != nil {
		return fmt.Errorf("expire pending tours: %w", err)
	}

	if completed > 0 || expired > 0 {
		log.Printf("[Scheduler] tour maintenance: completed=%d expired=%d", completed, expired)
	}
	return nil
}

// RunReindex rebuilds the full-text index from the property table.
func (s *Scheduler) RunReindex() error {
	if s.indexer == nil {
		return nil
	}

	properties, err := s.properties.List(repository.PropertyFilters{})
	if err != nil {
		return fmt.Errorf("load properties: %w", err)
	}
	if err := s.indexer.IndexProperties(properties); err != nil {
		return fmt.Errorf("index properties: %w", err)
	}

	log.Printf("[Scheduler] reindexed %d properties", len(properties))
	return nil
}

// parseDailyRunTime converts "HH:MM" to a cron spec; malformed input falls
// back to 03:00.
func parseDailyRunTime(t string) string {
	parts := strings.Split(t, ":")
	if len(parts) != 2 {
		return "0 3 * * *"
	}
	var hour, minute int
	if _, err := fmt.Sscanf(t, "%d:%d", &hour, &minute); err != nil {
		return "0 3 * * *"
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return "0 3 * * *"
	}
	return fmt.Sprintf("%d %d * * *", minute, hour)
}
