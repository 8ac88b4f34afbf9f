package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"finance-bot/internal/models"

	"github.com/shopspring/decimal"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite connection.
type DB struct {
	conn *sql.DB
	clock
}

// NewDB opens a database connection and runs migrations.
// Timestamps are written and read in loc; nil means time.Local.
func NewDB(path string, loc *time.Location) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer; one connection also keeps ":memory:"
	// databases from splitting across the pool.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn, clock: newClock(loc)}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}

	return db, nil
}

func (db *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS transactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			date TEXT NOT NULL,
			kind TEXT NOT NULL,
			category TEXT NOT NULL,
			amount TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_user_date ON transactions (user_id, date)`,
		`CREATE TABLE IF NOT EXISTS reminders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			reminder_time TEXT NOT NULL,
			text TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reminders_time ON reminders (reminder_time)`,
		`CREATE TABLE IF NOT EXISTS user_goals (
			user_id INTEGER PRIMARY KEY,
			goal_amount TEXT NOT NULL,
			goal_description TEXT NOT NULL DEFAULT ''
		)`,
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

// InsertTransaction stores a transaction and returns its ID.
func (db *DB) InsertTransaction(ctx context.Context, tx models.Transaction) (int64, error) {
	if tx.Time.IsZero() {
		tx.Time = time.Now()
	}
	result, err := db.conn.ExecContext(ctx,
		"INSERT INTO transactions (user_id, date, kind, category, amount, description) VALUES (?, ?, ?, ?, ?, ?)",
		tx.UserID, db.format(tx.Time), string(tx.Kind), tx.Category, tx.Amount.String(), tx.Description,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// QueryTransactions returns a user's transactions in [start, end), newest first.
// A zero start or end leaves that side of the range open.
func (db *DB) QueryTransactions(ctx context.Context, userID int64, start, end time.Time) ([]models.Transaction, error) {
	query := "SELECT id, user_id, date, kind, category, amount, description FROM transactions WHERE user_id = ?"
	args := []any{userID}
	if !start.IsZero() {
		query += " AND date >= ?"
		args = append(args, db.format(start))
	}
	if !end.IsZero() {
		query += " AND date < ?"
		args = append(args, db.format(end))
	}
	query += " ORDER BY date DESC, id DESC"

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var (
			t          models.Transaction
			date, kind string
		)
		if err := rows.Scan(&t.ID, &t.UserID, &date, &kind, &t.Category, &t.Amount, &t.Description); err != nil {
			return nil, err
		}
		if t.Time, err = db.parse(date); err != nil {
			return nil, err
		}
		t.Kind = models.Kind(kind)
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// InsertReminder stores a reminder and returns its ID.
func (db *DB) InsertReminder(ctx context.Context, r models.Reminder) (int64, error) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	result, err := db.conn.ExecContext(ctx,
		"INSERT INTO reminders (user_id, reminder_time, text, created_at) VALUES (?, ?, ?, ?)",
		r.UserID, db.format(r.DueTime), r.Text, db.format(r.CreatedAt),
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// QueryReminders returns a user's reminders, soonest first.
func (db *DB) QueryReminders(ctx context.Context, userID int64) ([]models.Reminder, error) {
	return db.queryReminders(ctx,
		"SELECT id, user_id, reminder_time, text, created_at FROM reminders WHERE user_id = ? ORDER BY reminder_time ASC, id ASC",
		userID,
	)
}

// QueryDueReminders returns reminders of all users due at or before now.
func (db *DB) QueryDueReminders(ctx context.Context, now time.Time) ([]models.Reminder, error) {
	return db.queryReminders(ctx,
		"SELECT id, user_id, reminder_time, text, created_at FROM reminders WHERE reminder_time <= ? ORDER BY reminder_time ASC, id ASC",
		db.format(now),
	)
}

func (db *DB) queryReminders(ctx context.Context, query string, args ...any) ([]models.Reminder, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reminders []models.Reminder
	for rows.Next() {
		var (
			r            models.Reminder
			due, created string
		)
		if err := rows.Scan(&r.ID, &r.UserID, &due, &r.Text, &created); err != nil {
			return nil, err
		}
		if r.DueTime, err = db.parse(due); err != nil {
			return nil, err
		}
		if r.CreatedAt, err = db.parse(created); err != nil {
			return nil, err
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

// DeleteReminder removes a reminder owned by userID.
// It reports false when no such reminder exists for that user.
func (db *DB) DeleteReminder(ctx context.Context, id, userID int64) (bool, error) {
	result, err := db.conn.ExecContext(ctx, "DELETE FROM reminders WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpsertGoal sets the user's goal, replacing any previous one.
func (db *DB) UpsertGoal(ctx context.Context, g models.Goal) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO user_goals (user_id, goal_amount, goal_description) VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			goal_amount = excluded.goal_amount,
			goal_description = excluded.goal_description
	`, g.UserID, g.Amount.String(), g.Description)
	return err
}

// GetGoal returns the user's goal, or nil if none is set.
func (db *DB) GetGoal(ctx context.Context, userID int64) (*models.Goal, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT user_id, goal_amount, goal_description FROM user_goals WHERE user_id = ?",
		userID,
	)

	var (
		g      models.Goal
		amount string
	)
	if err := row.Scan(&g.UserID, &amount, &g.Description); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	var err error
	if g.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, err
	}
	return &g, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
