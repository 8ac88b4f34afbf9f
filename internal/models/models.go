package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind tells income and expense transactions apart.
type Kind string

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

// Transaction represents a single income or expense record.
// Transactions are never updated or deleted once stored.
type Transaction struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	Time        time.Time       `json:"time"`
	Kind        Kind            `json:"kind"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// Reminder represents a one-shot notification due at DueTime.
type Reminder struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	DueTime   time.Time `json:"due_time"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Goal represents a user's savings goal. A user has at most one.
type Goal struct {
	UserID      int64           `json:"user_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}
