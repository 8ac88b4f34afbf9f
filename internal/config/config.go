// Package config assembles the bot settings from defaults, an optional INI
// file, the environment and command line flags, in increasing precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"time"

	"gopkg.in/gcfg.v1"
)

// ErrMissingToken is returned by Validate when no bot token was configured.
var ErrMissingToken = errors.New("bot token is not set")

// Proxy is an optional SOCKS5 proxy for the Bot API.
type Proxy struct {
	Server string
	User   string
	Pass   string
}

// Config holds the resolved settings.
type Config struct {
	Token       string
	APIEndpoint string
	Proxy       Proxy

	DBPath      string
	DatabaseURL string

	Interval   time.Duration
	MaxBackoff time.Duration
	Location   *time.Location

	CallbackSecret string
	Debug          bool
}

// Defaults are used for anything no other source sets.
func Defaults() Config {
	return Config{
		DBPath:     "finance.db",
		Interval:   time.Minute,
		MaxBackoff: 30 * time.Minute,
		Location:   time.Local,
	}
}

// file mirrors the INI layout:
//
//	[tgbot]
//	token = ...
//	endpoint = http://localhost:8081/bot%s/%s
//	[proxy-socks5]
//	server = host:1080
//	[database]
//	path = finance.db
//	url = postgres://...
//	[scheduler]
//	interval = 1m
//	max-backoff = 30m
//	[clock]
//	timezone = Europe/Moscow
//	[callback]
//	secret = ...
type file struct {
	TGBot struct {
		Token    string
		Endpoint string
	} `gcfg:"tgbot"`
	Proxy struct {
		Server string
		User   string
		Pass   string
	} `gcfg:"proxy-socks5"`
	Database struct {
		Path string
		URL  string
	} `gcfg:"database"`
	Scheduler struct {
		Interval   string
		MaxBackoff string `gcfg:"max-backoff"`
	} `gcfg:"scheduler"`
	Clock struct {
		Timezone string
	} `gcfg:"clock"`
	Callback struct {
		Secret string
	} `gcfg:"callback"`
}

// Load resolves the configuration. args are the command line arguments
// without the program name; getenv is usually os.Getenv. Usage and flag
// errors are written to output.
func Load(args []string, getenv func(string) string, output io.Writer) (Config, error) {
	fs := flag.NewFlagSet("bot", flag.ContinueOnError)
	fs.SetOutput(output)

	cfgFile := fs.String("config", "", "Path to an INI configuration file")
	dbPath := fs.String("db", "", "Path to the SQLite database file")
	databaseURL := fs.String("database-url", "", "PostgreSQL connection URL (overrides -db)")
	interval := fs.Duration("interval", 0, "Reminder polling interval")
	debug := fs.Bool("debug", false, "Log Bot API traffic")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Defaults()

	if *cfgFile != "" {
		if err := cfg.readFile(*cfgFile); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.readEnv(getenv); err != nil {
		return Config{}, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "db":
			cfg.DBPath = *dbPath
		case "database-url":
			cfg.DatabaseURL = *databaseURL
		case "interval":
			cfg.Interval = *interval
		case "debug":
			cfg.Debug = *debug
		}
	})

	if cfg.Interval <= 0 {
		return Config{}, fmt.Errorf("interval must be positive, got %s", cfg.Interval)
	}
	return cfg, nil
}

// Validate reports settings the bot cannot start without.
func (c Config) Validate() error {
	if c.Token == "" {
		return ErrMissingToken
	}
	return nil
}

func (c *Config) readFile(path string) error {
	log.Printf("Reading configuration from: %s", path)

	var f file
	if err := gcfg.ReadFileInto(&f, path); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	set(&c.Token, f.TGBot.Token)
	set(&c.APIEndpoint, f.TGBot.Endpoint)
	set(&c.Proxy.Server, f.Proxy.Server)
	set(&c.Proxy.User, f.Proxy.User)
	set(&c.Proxy.Pass, f.Proxy.Pass)
	set(&c.DBPath, f.Database.Path)
	set(&c.DatabaseURL, f.Database.URL)
	set(&c.CallbackSecret, f.Callback.Secret)

	if err := setDuration(&c.Interval, "scheduler.interval", f.Scheduler.Interval); err != nil {
		return err
	}
	if err := setDuration(&c.MaxBackoff, "scheduler.max-backoff", f.Scheduler.MaxBackoff); err != nil {
		return err
	}
	return setLocation(&c.Location, "clock.timezone", f.Clock.Timezone)
}

func (c *Config) readEnv(getenv func(string) string) error {
	set(&c.Token, getenv("BOT_TOKEN"))
	set(&c.APIEndpoint, getenv("BOT_API_ENDPOINT"))
	set(&c.Proxy.Server, getenv("SOCKS5_PROXY"))
	set(&c.Proxy.User, getenv("SOCKS5_USER"))
	set(&c.Proxy.Pass, getenv("SOCKS5_PASS"))
	set(&c.DBPath, getenv("DB_PATH"))
	set(&c.DatabaseURL, getenv("DATABASE_URL"))
	set(&c.CallbackSecret, getenv("CALLBACK_SECRET"))

	if err := setDuration(&c.Interval, "REMINDER_INTERVAL", getenv("REMINDER_INTERVAL")); err != nil {
		return err
	}
	if err := setDuration(&c.MaxBackoff, "REMINDER_MAX_BACKOFF", getenv("REMINDER_MAX_BACKOFF")); err != nil {
		return err
	}
	return setLocation(&c.Location, "TZ", getenv("TZ"))
}

func set(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, name, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = d
	return nil
}

func setLocation(dst **time.Location, name, v string) error {
	if v == "" {
		return nil
	}
	loc, err := time.LoadLocation(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = loc
	return nil
}
