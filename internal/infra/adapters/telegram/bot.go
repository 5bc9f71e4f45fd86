package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"realty-marketplace/internal/domain"
	"realty-marketplace/internal/infra/i18n"
	"realty-marketplace/internal/infra/metrics"
	red "realty-marketplace/internal/infra/redis"
	"realty-marketplace/internal/infra/worker"
	"realty-marketplace/internal/usecase"
)

// maxMessageRunes is Telegram's limit for a single text message.
const maxMessageRunes = 4096

// Client is the subset of *tgbotapi.BotAPI the bot uses.
type Client interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type Options struct {
	Workers    int
	RateLimit  int
	RateWindow time.Duration
}

// Bot answers chat messages with the property assistant.
type Bot struct {
	client    Client
	assistant usecase.AssistantUseCase
	bundle    *i18n.Bundle
	limiter   RateLimiter
	opts      Options
	log       *zerolog.Logger
}

// NewBotAPI dials Telegram with token.
func NewBotAPI(token string) (*tgbotapi.BotAPI, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	return tgbotapi.NewBotAPI(token)
}

func NewBot(client Client, assistant usecase.AssistantUseCase, bundle *i18n.Bundle, limiter RateLimiter, opts Options, logger *zerolog.Logger) *Bot {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	l := logger.With().Str("component", "TelegramBot").Logger()
	return &Bot{
		client:    client,
		assistant: assistant,
		bundle:    bundle,
		limiter:   limiter,
		opts:      opts,
		log:       &l,
	}
}

// Run polls for updates until ctx ends. Updates are handled on a worker
// pool; when the pool is saturated the update is dropped.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.client.GetUpdatesChan(u)

	pool := worker.NewPool(b.opts.Workers, b.opts.Workers*25, b.log)
	pool.Start(ctx)
	defer pool.Stop()

	b.log.Info().Int("workers", b.opts.Workers).Msg("Starting telegram polling")
	for {
		select {
		case <-ctx.Done():
			b.client.StopReceivingUpdates()
			b.log.Info().Msg("Stopping telegram polling")
			return ctx.Err()
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			if err := pool.Submit(func(ctx context.Context) error { return b.HandleUpdate(ctx, up) }); err != nil {
				b.log.Warn().Err(err).Int("update_id", up.UpdateID).Msg("update dropped")
			}
		}
	}
}

// HandleUpdate answers one text message. Non-message updates are ignored.
func (b *Bot) HandleUpdate(ctx context.Context, up tgbotapi.Update) error {
	msg := up.Message
	if msg == nil || msg.Chat == nil {
		return nil
	}
	lang := ""
	if msg.From != nil {
		lang = msg.From.LanguageCode
	}
	tr := b.bundle.For(lang)
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "start", "help":
			return b.send(chatID, tr.T("bot.welcome"))
		}
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return nil
	}

	if !b.allow(ctx, chatID) {
		metrics.ObserveAssistantQuery("telegram", "rate_limited", 0)
		return b.send(chatID, tr.T("bot.rate_limited"))
	}

	reply, err := b.assistant.Chat(ctx, text, lang)
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidArgument) {
			b.log.Error().Err(err).Int64("chat_id", chatID).Msg("assistant chat failed")
		}
		return b.send(chatID, tr.T("bot.error"))
	}
	return b.send(chatID, reply.Response)
}

// allow fails open when the limiter is unavailable.
func (b *Bot) allow(ctx context.Context, chatID int64) bool {
	if b.limiter == nil || b.opts.RateLimit <= 0 {
		return true
	}
	key := red.AssistantKey("telegram", strconv.FormatInt(chatID, 10))
	ok, err := b.limiter.Allow(ctx, key, b.opts.RateLimit, b.opts.RateWindow)
	if err != nil {
		b.log.Warn().Err(err).Msg("rate limiter unavailable")
		return true
	}
	return ok
}

func (b *Bot) send(chatID int64, text string) error {
	if _, err := b.client.Send(tgbotapi.NewMessage(chatID, truncate(text, maxMessageRunes))); err != nil {
		return err
	}
	return nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}
