package storage

import (
	"context"
	"fmt"
	"time"

	"finance-bot/internal/models"
)

// timeLayout is the naive clock format used for every stored timestamp.
// Fixed width keeps string comparison equal to time comparison.
const timeLayout = "2006-01-02 15:04:05"

// Store is the record store contract shared by the SQLite and PostgreSQL backends.
type Store interface {
	InsertTransaction(ctx context.Context, tx models.Transaction) (int64, error)
	QueryTransactions(ctx context.Context, userID int64, start, end time.Time) ([]models.Transaction, error)

	InsertReminder(ctx context.Context, r models.Reminder) (int64, error)
	QueryReminders(ctx context.Context, userID int64) ([]models.Reminder, error)
	QueryDueReminders(ctx context.Context, now time.Time) ([]models.Reminder, error)
	DeleteReminder(ctx context.Context, id, userID int64) (bool, error)

	UpsertGoal(ctx context.Context, g models.Goal) error
	GetGoal(ctx context.Context, userID int64) (*models.Goal, error)

	Close() error
}

// Open returns the PostgreSQL backend when databaseURL is set and the SQLite
// backend at path otherwise.
func Open(ctx context.Context, databaseURL, path string, loc *time.Location) (Store, error) {
	if databaseURL != "" {
		pg, err := NewPostgres(ctx, databaseURL, loc)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return pg, nil
	}
	db, err := NewDB(path, loc)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return db, nil
}

type clock struct {
	loc *time.Location
}

func newClock(loc *time.Location) clock {
	if loc == nil {
		loc = time.Local
	}
	return clock{loc: loc}
}

func (c clock) format(t time.Time) string {
	return t.In(c.loc).Format(timeLayout)
}

func (c clock) parse(s string) (time.Time, error) {
	t, err := time.ParseInLocation(timeLayout, s, c.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t, nil
}
