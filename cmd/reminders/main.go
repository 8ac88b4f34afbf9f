package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"finance-bot/internal/duetime"
	"finance-bot/internal/models"
	"finance-bot/internal/storage"
)

func main() {
	if err := run(os.Args[1:], os.Getenv, os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, getenv func(string) string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("reminders", flag.ContinueOnError)
	fs.SetOutput(stderr)

	userID := fs.Int64("user", 0, "Telegram user id whose reminders to show")
	deleteID := fs.Int64("delete", 0, "Reminder id to delete (requires -user)")
	due := fs.Bool("due", false, "Show reminders of all users that are due now")
	dbPath := fs.String("db", "finance.db", "Path to database file")
	databaseURL := fs.String("database-url", "", "PostgreSQL connection URL (overrides -db)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *userID == 0 && !*due {
		fmt.Fprintln(stdout, "Usage: reminders -user <id> [-delete <reminder id>] | -due [-db <db_path>] [-database-url <url>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: user or due")
	}
	if *deleteID != 0 && *userID == 0 {
		return fmt.Errorf("-delete requires -user")
	}

	if path := getenv("DB_PATH"); path != "" && *dbPath == "finance.db" {
		*dbPath = path
	}
	if url := getenv("DATABASE_URL"); url != "" && *databaseURL == "" {
		*databaseURL = url
	}

	loc := time.Local
	if tz := getenv("TZ"); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return fmt.Errorf("TZ: %w", err)
		}
		loc = l
	}

	ctx := context.Background()
	store, err := storage.Open(ctx, *databaseURL, *dbPath, loc)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	switch {
	case *deleteID != 0:
		deleted, err := store.DeleteReminder(ctx, *deleteID, *userID)
		if err != nil {
			return fmt.Errorf("failed to delete reminder: %w", err)
		}
		if !deleted {
			return fmt.Errorf("reminder %d of user %d not found", *deleteID, *userID)
		}
		fmt.Fprintf(stdout, "Reminder %d deleted\n", *deleteID)
		return nil

	case *due:
		reminders, err := store.QueryDueReminders(ctx, time.Now().In(loc))
		if err != nil {
			return fmt.Errorf("failed to query reminders: %w", err)
		}
		return printReminders(stdout, reminders, loc)

	default:
		reminders, err := store.QueryReminders(ctx, *userID)
		if err != nil {
			return fmt.Errorf("failed to query reminders: %w", err)
		}
		return printReminders(stdout, reminders, loc)
	}
}

func printReminders(w io.Writer, reminders []models.Reminder, loc *time.Location) error {
	if len(reminders) == 0 {
		fmt.Fprintln(w, "No reminders")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSER\tDUE\tTEXT")
	for _, r := range reminders {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", r.ID, r.UserID, r.DueTime.In(loc).Format(duetime.Layout), r.Text)
	}
	return tw.Flush()
}
