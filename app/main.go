package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"

	"github.com/lysyi3m/workwatch/app/cfg"
	"github.com/lysyi3m/workwatch/app/feed"
	"github.com/lysyi3m/workwatch/app/notify"
)

func main() {
	// A missing .env file is fine; real environment variables still apply.
	_ = godotenv.Load()

	var opts cfg.Options
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)

	mustAddCommand(parser, "run", "Run the watcher",
		"Continuously check feeds and deliver notifications until interrupted.", &runCommand{opts: &opts})
	mustAddCommand(parser, "check", "Run a single ingestion pass",
		"Check every feed once, update the state store and enqueue notifications, then exit.", &checkCommand{opts: &opts})
	mustAddCommand(parser, "test-connection", "Verify the state store and notifier",
		"Ping the state store and probe the notifier, exiting non-zero on failure.", &testConnectionCommand{opts: &opts})

	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) {
			if flagsErr.Type == flags.ErrHelp {
				fmt.Fprintln(os.Stdout, flagsErr.Message)
				os.Exit(0)
			}
			fmt.Fprintln(os.Stderr, flagsErr.Message)
			os.Exit(1)
		}
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func mustAddCommand(parser *flags.Parser, name, short, long string, data any) {
	if _, err := parser.AddCommand(name, short, long, data); err != nil {
		panic(fmt.Sprintf("failed to register command %s: %v", name, err))
	}
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}

// loadConfig resolves the global options for a command and configures logging.
func loadConfig(opts *cfg.Options, requireNotifier bool) (*cfg.Cfg, error) {
	setupLogger(opts.Debug)

	c, err := cfg.New(opts, requireNotifier)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	slog.Info("Configuration loaded",
		"version", c.Version,
		"feeds", len(c.Sources),
		"notifier", c.Notifier,
		"check_interval", c.CheckInterval,
		"send_interval", c.SendInterval,
		"cooldown", c.Cooldown)

	return c, nil
}

func newHTTPClient(c *cfg.Cfg) *http.Client {
	return &http.Client{Timeout: c.Timeout}
}

func newFetcher(c *cfg.Cfg, httpClient *http.Client) *feed.Fetcher {
	return feed.NewFetcher(httpClient, feed.NewParser(), c.UserAgent, c.Timeout)
}

func newNotifier(c *cfg.Cfg, httpClient *http.Client) (notify.Notifier, error) {
	switch c.Notifier {
	case cfg.NotifierTelegram:
		return notify.NewTelegram(c.TelegramToken, c.TelegramChannel, c.TelegramAPI, httpClient), nil
	case cfg.NotifierAMQP:
		publisher, err := notify.NewAMQP(notify.AMQPConfig{
			URL:        c.AMQPURL,
			Exchange:   c.AMQPExchange,
			RoutingKey: c.AMQPRoutingKey,
			QueueName:  c.AMQPQueue,
		})
		if err != nil {
			return nil, err
		}
		return publisher, nil
	default:
		return nil, fmt.Errorf("unknown notifier: %q", c.Notifier)
	}
}

// redactURL hides the password of a store URL for logging.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid>"
	}
	return u.Redacted()
}
