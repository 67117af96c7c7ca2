package services

import (
	"context"
	"sync"
	"time"

	"complyguard-lab/internal/config"
	"complyguard-lab/internal/domain/models"
	"complyguard-lab/internal/infrastructure/cache"
	"complyguard-lab/pkg/logger"
)

// OverdueIncidentLister finds incidents whose supervisory deadline passed
// without a tracked report
type OverdueIncidentLister interface {
	ListOverdueIncidents(ctx context.Context, asOf time.Time) ([]*models.BreachIncident, error)
}

// DeadlineSweeper periodically scans for breach incidents past their
// supervisory notification deadline and publishes overdue events. A
// distributed lock keeps exactly one instance sweeping; a per-incident
// marker keeps each overdue event to a single emission.
type DeadlineSweeper struct {
	incidents OverdueIncidentLister
	cache     *cache.RedisCache
	publisher EventPublisher
	interval  time.Duration
	logger    *logger.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

// NewDeadlineSweeper creates a new DeadlineSweeper
func NewDeadlineSweeper(
	incidents OverdueIncidentLister,
	c *cache.RedisCache,
	publisher EventPublisher,
	cfg config.AssessmentConfig,
	log *logger.Logger,
) *DeadlineSweeper {
	interval := cfg.SweepInterval
	if interval == 0 {
		interval = time.Minute
	}
	return &DeadlineSweeper{
		incidents: incidents,
		cache:     c,
		publisher: publisher,
		interval:  interval,
		logger:    log.WithComponent("sweeper"),
		stopCh:    make(chan struct{}),
	}
}

// Start runs the sweep loop until the context is cancelled or Stop is called
func (s *DeadlineSweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	s.logger.Info().Dur("interval", s.interval).Msg("deadline sweeper started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Stop()
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// Stop stops the sweep loop
func (s *DeadlineSweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false
	close(s.stopCh)
	s.logger.Info().Msg("deadline sweeper stopped")
}

// sweep runs one scan under the distributed lock
func (s *DeadlineSweeper) sweep(ctx context.Context) {
	acquired, err := s.cache.AcquireLock(ctx, "deadline-sweep", s.interval)
	if err != nil || !acquired {
		return
	}
	defer s.cache.ReleaseLock(ctx, "deadline-sweep")

	now := time.Now().UTC()
	overdue, err := s.incidents.ListOverdueIncidents(ctx, now)
	if err != nil {
		s.logger.Error().Err(err).Msg("overdue incident scan failed")
		return
	}

	for _, incident := range overdue {
		// One overdue event per incident; the marker outlives restarts
		// long enough to cover the reporting window
		fresh, err := s.cache.SetNX(ctx, cache.KeyOverduePrefix+incident.ID.String(), "notified", 14*24*time.Hour)
		if err != nil {
			s.logger.Warn().Err(err).Msg("overdue dedup marker failed")
			continue
		}
		if !fresh {
			continue
		}

		if s.publisher != nil {
			if err := s.publisher.PublishDeadlineOverdue(ctx, incident); err != nil {
				s.logger.Warn().Err(err).Str("incident_id", incident.ID.String()).Msg("failed to publish overdue event")
				continue
			}
		}

		s.logger.Warn().
			Str("incident_id", incident.ID.String()).
			Time("deadline", incident.Notification.SupervisoryDeadline).
			Msg("supervisory notification deadline missed")
	}

	if len(overdue) > 0 {
		s.logger.Info().Int("overdue", len(overdue)).Msg("deadline sweep completed")
	}
}
