package cfg

import (
	"time"

	"github.com/lysyi3m/workwatch/app/feed"
)

type Cfg struct {
	// Feeds
	Sources   []feed.Source
	Languages []string

	// Loop timing
	CheckInterval time.Duration
	SendInterval  time.Duration
	Cooldown      time.Duration
	FeedDelay     time.Duration
	ErrorBackoff  time.Duration
	Retention     time.Duration

	// State store
	StoreURL string

	// Notifier
	Notifier        string
	TelegramToken   string
	TelegramChannel string
	TelegramAPI     string
	AMQPURL         string
	AMQPExchange    string
	AMQPRoutingKey  string
	AMQPQueue       string
	MirrorHost      string

	// Application metadata
	Port      string
	UserAgent string
	Timeout   time.Duration
	Timezone  string
	Debug     bool
	Version   string
}

const (
	NotifierTelegram = "telegram"
	NotifierAMQP     = "amqp"
)
