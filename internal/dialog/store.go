package dialog

import (
	"context"
	"time"

	"finance-bot/internal/models"
)

// Store is the part of the record store the engine reads and writes.
//
//go:generate mockgen -destination=mocks/mock_store.go -source=store.go Store
type Store interface {
	InsertTransaction(ctx context.Context, tx models.Transaction) (int64, error)
	QueryTransactions(ctx context.Context, userID int64, start, end time.Time) ([]models.Transaction, error)
	InsertReminder(ctx context.Context, r models.Reminder) (int64, error)
	QueryReminders(ctx context.Context, userID int64) ([]models.Reminder, error)
	DeleteReminder(ctx context.Context, id, userID int64) (bool, error)
	UpsertGoal(ctx context.Context, g models.Goal) error
	GetGoal(ctx context.Context, userID int64) (*models.Goal, error)
}
