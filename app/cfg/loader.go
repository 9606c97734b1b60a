package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lysyi3m/workwatch/app/feed"
)

// Version is set at build time via -ldflags
var Version = "dev"

var (
	ErrNoFeeds            = errors.New("no feeds configured")
	ErrMissingCredentials = errors.New("missing notifier credentials")
)

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

// Options are the global flags shared by every command.
type Options struct {
	// Feeds
	FeedURLs        []string `long:"feed-url" env:"FEED_URLS" env-delim:"," description:"Feed URL to watch (repeatable)"`
	FeedTags        []string `long:"feed-tag" env:"FEED_TAGS" env-delim:"," description:"Tag id expanded through the feed URL template (repeatable)"`
	FeedURLTemplate string   `long:"feed-url-template" env:"FEED_URL_TEMPLATE" default:"https://archiveofourown.org/tags/{tag}/feed.atom" description:"Feed URL template for tags"`
	FeedsFile       string   `long:"feeds-file" env:"FEEDS_FILE" description:"YAML file with a list of feeds"`
	Languages       []string `long:"languages" env:"LANGUAGES" env-delim:"," description:"Allowed work languages (repeatable, empty allows all)"`

	// Loop timing
	CheckInterval int `long:"check-interval" env:"CHECK_INTERVAL_MINUTES" default:"30" description:"Feed check interval in minutes"`
	SendInterval  int `long:"send-interval" env:"SEND_INTERVAL_SECONDS" default:"60" description:"Notification send interval in seconds"`
	CooldownDays  int `long:"cooldown-days" env:"COOLDOWN_DAYS" default:"3" description:"Days before the same work may be notified again"`
	FeedDelay     int `long:"feed-delay" env:"FEED_DELAY_SECONDS" default:"15" description:"Pause between feeds in seconds"`
	ErrorBackoff  int `long:"error-backoff" env:"ERROR_BACKOFF_SECONDS" default:"300" description:"Pause after a failed loop iteration in seconds"`
	RetentionDays int `long:"retention-days" env:"RETENTION_DAYS" default:"0" description:"Remove works not updated for this many days (0 keeps everything)"`

	// State store
	StoreURL string `long:"store-url" env:"STORE_URL" default:"redis://localhost:6379/0" description:"State store URL (redis://, rediss:// or sqlite://path)"`

	// Notifier
	Notifier        string `long:"notifier" env:"NOTIFIER" default:"telegram" choice:"telegram" choice:"amqp" description:"Notification channel"`
	TelegramToken   string `long:"telegram-token" env:"TELEGRAM_BOT_TOKEN" description:"Telegram bot token"`
	TelegramChannel string `long:"telegram-channel" env:"TELEGRAM_CHANNEL_ID" description:"Telegram channel id or @username"`
	TelegramAPI     string `long:"telegram-api" env:"TELEGRAM_API_ENDPOINT" description:"Telegram Bot API endpoint format (empty uses the public API)"`
	AMQPURL         string `long:"amqp-url" env:"AMQP_URL" description:"AMQP broker URL"`
	AMQPExchange    string `long:"amqp-exchange" env:"AMQP_EXCHANGE" default:"workwatch" description:"AMQP exchange"`
	AMQPRoutingKey  string `long:"amqp-routing-key" env:"AMQP_ROUTING_KEY" default:"notifications" description:"AMQP routing key"`
	AMQPQueue       string `long:"amqp-queue" env:"AMQP_QUEUE" description:"AMQP queue to declare and bind (optional)"`
	MirrorHost      string `long:"mirror-host" env:"MIRROR_HOST" description:"Replace the host of work links in notifications"`

	// Application metadata
	Port      string `long:"port" env:"PORT" description:"Ops HTTP server port (empty disables it)"`
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"workwatch/1.0" description:"User agent string for HTTP requests"`
	Timeout   int    `long:"timeout" env:"HTTP_TIMEOUT_SECONDS" default:"30" description:"HTTP request timeout in seconds"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Europe/Moscow)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// New validates opts and resolves the feed list. Notifier credentials are
// only checked when requireNotifier is set.
func New(opts *Options, requireNotifier bool) (*Cfg, error) {
	if err := validateTiming(opts); err != nil {
		return nil, err
	}

	sources, err := resolveSources(opts)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: set FEED_URLS, FEED_TAGS or FEEDS_FILE", ErrNoFeeds)
	}

	if strings.TrimSpace(opts.StoreURL) == "" {
		return nil, errors.New("store URL is required")
	}

	if err := validateNotifier(opts, requireNotifier); err != nil {
		return nil, err
	}

	cfg := &Cfg{
		Sources:         sources,
		Languages:       trimAll(opts.Languages),
		CheckInterval:   time.Duration(opts.CheckInterval) * time.Minute,
		SendInterval:    time.Duration(opts.SendInterval) * time.Second,
		Cooldown:        time.Duration(opts.CooldownDays) * 24 * time.Hour,
		FeedDelay:       time.Duration(opts.FeedDelay) * time.Second,
		ErrorBackoff:    time.Duration(opts.ErrorBackoff) * time.Second,
		Retention:       time.Duration(opts.RetentionDays) * 24 * time.Hour,
		StoreURL:        strings.TrimSpace(opts.StoreURL),
		Notifier:        opts.Notifier,
		TelegramToken:   strings.TrimSpace(opts.TelegramToken),
		TelegramChannel: strings.TrimSpace(opts.TelegramChannel),
		TelegramAPI:     strings.TrimSpace(opts.TelegramAPI),
		AMQPURL:         strings.TrimSpace(opts.AMQPURL),
		AMQPExchange:    opts.AMQPExchange,
		AMQPRoutingKey:  opts.AMQPRoutingKey,
		AMQPQueue:       opts.AMQPQueue,
		MirrorHost:      strings.TrimSpace(opts.MirrorHost),
		Port:            opts.Port,
		UserAgent:       opts.UserAgent,
		Timeout:         time.Duration(opts.Timeout) * time.Second,
		Timezone:        opts.Timezone,
		Debug:           opts.Debug,
		Version:         GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		slog.Warn("Invalid timezone, using system default", "timezone", cfg.Timezone, "error", err)
	}

	return cfg, nil
}

func validateTiming(opts *Options) error {
	switch {
	case opts.CheckInterval <= 0:
		return fmt.Errorf("check interval must be positive, got %d", opts.CheckInterval)
	case opts.SendInterval <= 0:
		return fmt.Errorf("send interval must be positive, got %d", opts.SendInterval)
	case opts.ErrorBackoff <= 0:
		return fmt.Errorf("error backoff must be positive, got %d", opts.ErrorBackoff)
	case opts.CooldownDays < 0:
		return fmt.Errorf("cooldown days must not be negative, got %d", opts.CooldownDays)
	case opts.FeedDelay < 0:
		return fmt.Errorf("feed delay must not be negative, got %d", opts.FeedDelay)
	case opts.RetentionDays < 0:
		return fmt.Errorf("retention days must not be negative, got %d", opts.RetentionDays)
	case opts.Timeout <= 0:
		return fmt.Errorf("timeout must be positive, got %d", opts.Timeout)
	}
	return nil
}

func validateNotifier(opts *Options, requireNotifier bool) error {
	switch opts.Notifier {
	case NotifierTelegram:
		if requireNotifier && (strings.TrimSpace(opts.TelegramToken) == "" || strings.TrimSpace(opts.TelegramChannel) == "") {
			return fmt.Errorf("%w: TELEGRAM_BOT_TOKEN and TELEGRAM_CHANNEL_ID are required", ErrMissingCredentials)
		}
	case NotifierAMQP:
		if requireNotifier && strings.TrimSpace(opts.AMQPURL) == "" {
			return fmt.Errorf("%w: AMQP_URL is required", ErrMissingCredentials)
		}
	default:
		return fmt.Errorf("unknown notifier: %q", opts.Notifier)
	}
	return nil
}

// resolveSources merges feed URLs, tags and the feeds file, dropping
// duplicate URLs.
func resolveSources(opts *Options) ([]feed.Source, error) {
	var sources []feed.Source
	seen := make(map[string]bool)

	add := func(src feed.Source) {
		if src.URL == "" || seen[src.URL] {
			return
		}
		seen[src.URL] = true
		sources = append(sources, src)
	}

	for _, url := range trimAll(opts.FeedURLs) {
		add(feed.Source{Name: url, URL: url})
	}

	for _, tag := range trimAll(opts.FeedTags) {
		if !strings.Contains(opts.FeedURLTemplate, "{tag}") {
			return nil, fmt.Errorf("feed URL template has no {tag} placeholder: %s", opts.FeedURLTemplate)
		}
		add(feed.Source{Name: "tag " + tag, URL: strings.ReplaceAll(opts.FeedURLTemplate, "{tag}", tag)})
	}

	if opts.FeedsFile != "" {
		list, err := feed.LoadFeedList(opts.FeedsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load feeds file %s: %w", opts.FeedsFile, err)
		}
		for _, src := range list {
			add(src)
		}
	}

	return sources, nil
}

func trimAll(values []string) []string {
	var result []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	return result
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		loc, err := time.LoadLocation(timezone)
		if err != nil {
			return err
		}
		time.Local = loc
		slog.Debug("Timezone configured", "timezone", timezone)
	}
	return nil
}
