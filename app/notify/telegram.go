package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var _ Notifier = (*Telegram)(nil)

type Telegram struct {
	bot       *tgbotapi.BotAPI
	channelID string
}

// NewTelegram builds a bot client without contacting the Bot API; use Probe
// to verify the token and channel. An empty endpoint selects the public API.
func NewTelegram(token, channelID, endpoint string, httpClient *http.Client) *Telegram {
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	bot := &tgbotapi.BotAPI{
		Token:  token,
		Client: httpClient,
		Buffer: 100,
	}
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	bot.SetAPIEndpoint(endpoint)

	return &Telegram{
		bot:       bot,
		channelID: strings.TrimSpace(channelID),
	}
}

func (t *Telegram) Send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := t.newMessage(text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = false

	sent, err := t.bot.Send(msg)
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}

	slog.Debug("Telegram message sent", "channel", t.channelID, "message_id", sent.MessageID)
	return nil
}

func (t *Telegram) newMessage(text string) tgbotapi.MessageConfig {
	if chatID, err := strconv.ParseInt(t.channelID, 10, 64); err == nil {
		return tgbotapi.NewMessage(chatID, text)
	}
	return tgbotapi.NewMessageToChannel(t.channelID, text)
}

func (t *Telegram) Probe(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	me, err := t.bot.GetMe()
	if err != nil {
		return fmt.Errorf("failed to reach Telegram Bot API: %w", err)
	}

	chatConfig := tgbotapi.ChatConfig{SuperGroupUsername: t.channelID}
	if chatID, err := strconv.ParseInt(t.channelID, 10, 64); err == nil {
		chatConfig = tgbotapi.ChatConfig{ChatID: chatID}
	}

	chat, err := t.bot.GetChat(tgbotapi.ChatInfoConfig{ChatConfig: chatConfig})
	if err != nil {
		return fmt.Errorf("failed to access channel %s: %w", t.channelID, err)
	}

	slog.Info("Telegram connection verified", "bot", me.UserName, "channel", chat.Title)
	return nil
}

func (t *Telegram) Close() error {
	return nil
}
