// Package scheduler runs periodic background jobs for the API process.
package scheduler

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/uniqmaker/api/internal/platform/config"
	"github.com/uniqmaker/api/internal/services"
)

const defaultRunTimeout = 5 * time.Minute

// RefreshScheduler triggers the supplier feed refresh on a cron schedule.
type RefreshScheduler struct {
	cron     *cron.Cron
	catalog  services.CatalogService
	schedule string
	timeout  time.Duration
	logger   func(ctx context.Context, event string, fields map[string]any)
}

// Option customises a RefreshScheduler.
type Option func(*RefreshScheduler)

// WithRunTimeout bounds a single refresh run.
func WithRunTimeout(timeout time.Duration) Option {
	return func(s *RefreshScheduler) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithLogger injects a structured event logger.
func WithLogger(logger func(ctx context.Context, event string, fields map[string]any)) Option {
	return func(s *RefreshScheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewRefreshScheduler builds a scheduler from the supplier configuration. The
// schedule uses standard five-field cron syntax or @-descriptors.
func NewRefreshScheduler(cfg config.SupplierConfig, catalog services.CatalogService, opts ...Option) (*RefreshScheduler, error) {
	if catalog == nil {
		return nil, errors.New("scheduler: catalog service is required")
	}
	schedule := strings.TrimSpace(cfg.RefreshSchedule)
	if schedule == "" {
		return nil, errors.New("scheduler: refresh schedule is required")
	}

	s := &RefreshScheduler{
		cron:     cron.New(),
		catalog:  catalog,
		schedule: schedule,
		timeout:  defaultRunTimeout,
		logger:   func(context.Context, string, map[string]any) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start registers the refresh job and begins the cron loop.
func (s *RefreshScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runOnce); err != nil {
		return errors.Join(errors.New("scheduler: invalid refresh schedule"), err)
	}
	s.cron.Start()
	s.logger(context.Background(), "scheduler.started", map[string]any{"schedule": s.schedule})
	return nil
}

// Stop halts the cron loop and waits for a running job to finish or the
// context to expire.
func (s *RefreshScheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop().Done()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *RefreshScheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	report, err := s.catalog.FetchAll(ctx)
	if err != nil {
		s.logger(ctx, "scheduler.refresh_failed", map[string]any{"error": err.Error()})
		return
	}

	failures := 0
	for _, result := range report.Results {
		if result.Error != "" {
			failures++
		}
	}
	s.logger(ctx, "scheduler.refresh_completed", map[string]any{
		"feeds":    len(report.Results),
		"failures": failures,
	})
}
