// Package scheduler delivers due reminders. A reminder is deleted only after
// it was handed to the notifier, so delivery is at least once.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"finance-bot/internal/models"
)

//go:generate mockgen -destination=mocks/mock_scheduler.go -source=scheduler.go Store,Notifier

// Store is the part of the record store the scheduler needs.
type Store interface {
	QueryDueReminders(ctx context.Context, now time.Time) ([]models.Reminder, error)
	DeleteReminder(ctx context.Context, id, userID int64) (bool, error)
}

// Notifier sends one message to a user.
type Notifier interface {
	Notify(ctx context.Context, userID int64, text string) error
}

// Config tunes the polling loop.
type Config struct {
	// Interval is the pause between the end of one scan and the next.
	Interval time.Duration
	// MaxBackoff caps the pause after repeated failures.
	MaxBackoff time.Duration
	// Template formats the reminder text; it receives the text.
	Template string
}

// DefaultConfig polls once a minute.
var DefaultConfig = Config{
	Interval:   time.Minute,
	MaxBackoff: 30 * time.Minute,
	Template:   "Reminder: %s",
}

// TickStats summarizes one scan.
type TickStats struct {
	Due       int
	Delivered int
	Failed    int
	Deferred  int
}

type retry struct {
	attempts int
	next     time.Time
}

// Scheduler polls the store for due reminders.
type Scheduler struct {
	store    Store
	notifier Notifier
	cfg      Config
	now      func() time.Time

	mu       sync.Mutex
	failures map[int64]retry
}

// New creates a Scheduler. Zero fields of cfg take their DefaultConfig value.
func New(store Store, notifier Notifier, cfg Config) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig.Interval
	}
	if cfg.MaxBackoff < cfg.Interval {
		cfg.MaxBackoff = max(DefaultConfig.MaxBackoff, cfg.Interval)
	}
	if cfg.Template == "" {
		cfg.Template = DefaultConfig.Template
	}
	return &Scheduler{
		store:    store,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
		failures: make(map[int64]retry),
	}
}

// SetClock overrides time.Now.
func (s *Scheduler) SetClock(now func() time.Time) {
	s.now = now
}

// Run scans immediately and then after every pause until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	log.Printf("scheduler: polling every %s", s.cfg.Interval)

	storeFailures := 0
	for {
		if _, err := s.Tick(ctx); err != nil {
			storeFailures++
		} else {
			storeFailures = 0
		}

		timer := time.NewTimer(s.delay(storeFailures))
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Printf("scheduler: stopped")
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Tick runs one scan. A store read failure abandons the scan and is returned;
// notifier failures only show up in the stats.
func (s *Scheduler) Tick(ctx context.Context) (TickStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	due, err := s.store.QueryDueReminders(ctx, now)
	if err != nil {
		log.Printf("scheduler: query due reminders: %v", err)
		return TickStats{}, fmt.Errorf("query due reminders: %w", err)
	}

	stats := TickStats{Due: len(due)}
	seen := make(map[int64]struct{}, len(due))
	for _, r := range due {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		seen[r.ID] = struct{}{}

		if f, ok := s.failures[r.ID]; ok && now.Before(f.next) {
			stats.Deferred++
			continue
		}

		if err := s.notifier.Notify(ctx, r.UserID, fmt.Sprintf(s.cfg.Template, r.Text)); err != nil {
			f := s.failures[r.ID]
			f.attempts++
			f.next = now.Add(s.delay(f.attempts - 1))
			s.failures[r.ID] = f
			stats.Failed++
			log.Printf("scheduler: reminder %d for user %d: attempt %d failed, retry after %s: %v",
				r.ID, r.UserID, f.attempts, f.next.Format(time.DateTime), err)
			continue
		}

		delete(s.failures, r.ID)
		stats.Delivered++
		if _, err := s.store.DeleteReminder(ctx, r.ID, r.UserID); err != nil {
			log.Printf("scheduler: reminder %d delivered but not deleted, it will be sent again: %v", r.ID, err)
		}
	}

	for id := range s.failures {
		if _, ok := seen[id]; !ok {
			delete(s.failures, id)
		}
	}

	if stats.Due > 0 {
		log.Printf("scheduler: %d due, %d delivered, %d failed, %d deferred",
			stats.Due, stats.Delivered, stats.Failed, stats.Deferred)
	}
	return stats, nil
}

// delay doubles Interval n times, capped at MaxBackoff.
func (s *Scheduler) delay(n int) time.Duration {
	d := s.cfg.Interval
	for i := 0; i < n && d < s.cfg.MaxBackoff; i++ {
		d *= 2
	}
	return min(d, s.cfg.MaxBackoff)
}

// pending reports how many reminders are waiting for a retry.
func (s *Scheduler) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.failures)
}
