package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finance-bot/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Postgres is the record store backed by a PostgreSQL pool.
type Postgres struct {
	pool *pgxpool.Pool
	clock
}

// NewPostgres connects to dsn and runs migrations.
func NewPostgres(ctx context.Context, dsn string, loc *time.Location) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	p := &Postgres{pool: pool, clock: newClock(loc)}
	if err := p.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

func (p *Postgres) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS transactions (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			date TEXT NOT NULL,
			kind TEXT NOT NULL,
			category TEXT NOT NULL,
			amount NUMERIC NOT NULL,
			description TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_user_date ON transactions (user_id, date)`,
		`CREATE TABLE IF NOT EXISTS reminders (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			reminder_time TEXT NOT NULL,
			text TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reminders_time ON reminders (reminder_time)`,
		`CREATE TABLE IF NOT EXISTS user_goals (
			user_id BIGINT PRIMARY KEY,
			goal_amount NUMERIC NOT NULL,
			goal_description TEXT NOT NULL DEFAULT ''
		)`,
	}
	for _, m := range migrations {
		if _, err := p.pool.Exec(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// InsertTransaction stores a transaction and returns its ID.
func (p *Postgres) InsertTransaction(ctx context.Context, tx models.Transaction) (int64, error) {
	if tx.Time.IsZero() {
		tx.Time = time.Now()
	}
	var id int64
	err := p.pool.QueryRow(ctx, `
		INSERT INTO transactions (user_id, date, kind, category, amount, description)
		VALUES ($1, $2, $3, $4, $5::numeric, $6)
		RETURNING id
	`, tx.UserID, p.format(tx.Time), string(tx.Kind), tx.Category, tx.Amount.String(), tx.Description).Scan(&id)
	return id, err
}

// QueryTransactions returns a user's transactions in [start, end), newest first.
// A zero start or end leaves that side of the range open.
func (p *Postgres) QueryTransactions(ctx context.Context, userID int64, start, end time.Time) ([]models.Transaction, error) {
	query := `SELECT id, user_id, date, kind, category, amount::text, description FROM transactions WHERE user_id = $1`
	args := []any{userID}
	if !start.IsZero() {
		args = append(args, p.format(start))
		query += fmt.Sprintf(` AND date >= $%d`, len(args))
	}
	if !end.IsZero() {
		args = append(args, p.format(end))
		query += fmt.Sprintf(` AND date < $%d`, len(args))
	}
	query += ` ORDER BY date DESC, id DESC`

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		var (
			t                  models.Transaction
			date, kind, amount string
		)
		if err := rows.Scan(&t.ID, &t.UserID, &date, &kind, &t.Category, &amount, &t.Description); err != nil {
			return nil, err
		}
		if t.Time, err = p.parse(date); err != nil {
			return nil, err
		}
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		t.Kind = models.Kind(kind)
		out = append(out, t)
	}
	return out, rows.Err()
}

// InsertReminder stores a reminder and returns its ID.
func (p *Postgres) InsertReminder(ctx context.Context, r models.Reminder) (int64, error) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	var id int64
	err := p.pool.QueryRow(ctx, `
		INSERT INTO reminders (user_id, reminder_time, text, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, r.UserID, p.format(r.DueTime), r.Text, p.format(r.CreatedAt)).Scan(&id)
	return id, err
}

// QueryReminders returns a user's reminders, soonest first.
func (p *Postgres) QueryReminders(ctx context.Context, userID int64) ([]models.Reminder, error) {
	return p.queryReminders(ctx, `
		SELECT id, user_id, reminder_time, text, created_at
		FROM reminders
		WHERE user_id = $1
		ORDER BY reminder_time ASC, id ASC
	`, userID)
}

// QueryDueReminders returns reminders of all users due at or before now.
func (p *Postgres) QueryDueReminders(ctx context.Context, now time.Time) ([]models.Reminder, error) {
	return p.queryReminders(ctx, `
		SELECT id, user_id, reminder_time, text, created_at
		FROM reminders
		WHERE reminder_time <= $1
		ORDER BY reminder_time ASC, id ASC
	`, p.format(now))
}

func (p *Postgres) queryReminders(ctx context.Context, query string, args ...any) ([]models.Reminder, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Reminder
	for rows.Next() {
		var (
			r            models.Reminder
			due, created string
		)
		if err := rows.Scan(&r.ID, &r.UserID, &due, &r.Text, &created); err != nil {
			return nil, err
		}
		if r.DueTime, err = p.parse(due); err != nil {
			return nil, err
		}
		if r.CreatedAt, err = p.parse(created); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteReminder removes a reminder owned by userID.
// It reports false when no such reminder exists for that user.
func (p *Postgres) DeleteReminder(ctx context.Context, id, userID int64) (bool, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM reminders WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// UpsertGoal sets the user's goal, replacing any previous one.
func (p *Postgres) UpsertGoal(ctx context.Context, g models.Goal) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO user_goals (user_id, goal_amount, goal_description)
		VALUES ($1, $2::numeric, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET goal_amount = EXCLUDED.goal_amount,
			goal_description = EXCLUDED.goal_description
	`, g.UserID, g.Amount.String(), g.Description)
	return err
}

// GetGoal returns the user's goal, or nil if none is set.
func (p *Postgres) GetGoal(ctx context.Context, userID int64) (*models.Goal, error) {
	var (
		g      models.Goal
		amount string
	)
	err := p.pool.QueryRow(ctx,
		`SELECT user_id, goal_amount::text, goal_description FROM user_goals WHERE user_id = $1`,
		userID,
	).Scan(&g.UserID, &amount, &g.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if g.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, err
	}
	return &g, nil
}

// Close releases the pool. It never fails.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
