package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	_ "time/tzdata"

	"finance-bot/internal/config"
	"finance-bot/internal/dialog"
	"finance-bot/internal/scheduler"
	"finance-bot/internal/storage"
	"finance-bot/internal/telegram"

	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Getenv, os.Stdin, os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, getenv func(string) string, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, err := config.Load(args, getenv, stderr)
	if err != nil {
		return err
	}

	if cfg.Token == "" {
		fmt.Fprint(stdout, "Bot token: ")
		token, err := readToken(stdin)
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to read token: %w", err)
		}
		fmt.Fprintln(stdout)
		cfg.Token = strings.TrimSpace(token)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	store, err := storage.Open(ctx, cfg.DatabaseURL, cfg.DBPath, cfg.Location)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	api, err := telegram.NewAPI(cfg)
	if err != nil {
		return err
	}

	secret := cfg.CallbackSecret
	if secret == "" {
		secret = cfg.Token
	}

	engine := dialog.New(store, dialog.WithLocation(cfg.Location))
	bot := telegram.New(api, engine, telegram.NewSigner([]byte(secret)))
	sched := scheduler.New(store, bot, scheduler.Config{
		Interval:   cfg.Interval,
		MaxBackoff: cfg.MaxBackoff,
	})

	log.Printf("Starting bot, database %s, time zone %s", describeDB(cfg), cfg.Location)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sched.Run(ctx) })
	g.Go(func() error { return bot.Run(ctx) })

	err = g.Wait()
	log.Printf("Bot stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func describeDB(cfg config.Config) string {
	if cfg.DatabaseURL != "" {
		return "postgres"
	}
	return cfg.DBPath
}

func readToken(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
