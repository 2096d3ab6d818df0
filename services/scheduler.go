package services

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// ExpiryScheduler periodically expires lapsed subscriptions and offers.
type ExpiryScheduler struct {
	Subscriptions *SubscriptionService
	Clock         Clock
	Schedule      string

	cron *cron.Cron
}

func NewExpiryScheduler(subs *SubscriptionService, clock Clock, schedule string) *ExpiryScheduler {
	if schedule == "" {
		schedule = "@every 15m"
	}
	return &ExpiryScheduler{Subscriptions: subs, Clock: clock, Schedule: schedule}
}

// Start registers the sweep and starts the cron runner. Runs stop when ctx
// is cancelled or Stop is called.
func (s *ExpiryScheduler) Start(ctx context.Context) error {
	s.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := s.cron.AddFunc(s.Schedule, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("invalid expiry schedule %q: %w", s.Schedule, err)
	}
	s.cron.Start()
	log.Infof("expiry sweep scheduled: %s", s.Schedule)
	return nil
}

// Stop halts the runner and waits for a running sweep to finish.
func (s *ExpiryScheduler) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

// RunOnce performs a single sweep.
func (s *ExpiryScheduler) RunOnce(ctx context.Context) int {
	if ctx.Err() != nil {
		return 0
	}
	n, err := s.Subscriptions.ExpireDue(ctx, s.Clock.Now())
	if err != nil {
		log.Errorf("expiry sweep failed: %v", err)
	}
	if n > 0 {
		log.Infof("expired %d subscriptions", n)
	}
	return n
}
