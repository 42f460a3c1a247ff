// Package telegram runs the chat bot on the Telegram Bot API. It long-polls
// for messages, lets only paired users through and answers with text and an
// optional chart photo.
package telegram

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"babymeasure/internal/app"
	"babymeasure/internal/domain"
)

// DefaultBaseURL is the public Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

// Answerer answers a chat message.
type Answerer interface {
	Reply(ctx context.Context, text string) domain.Response
}

// Pairer decides whether a sender may use the bot.
type Pairer interface {
	Check(ctx context.Context, who app.ChatIdentity, text string) (app.PairingResult, error)
}

// Config configures the bot.
type Config struct {
	Token         string
	BaseURL       string
	PollTimeout   time.Duration
	RatePerSecond float64
}

// Bot is a long-polling Telegram bot.
type Bot struct {
	cfg     Config
	baseURL string
	client  *http.Client
	chat    Answerer
	pairing Pairer
	limiter *rate.Limiter
	logger  *zap.Logger

	username string
	offset   int64
	backoff  time.Duration
}

// New creates a Bot. A nil pairing lets every sender through.
func New(cfg Config, chat Answerer, pairing Pairer, logger *zap.Logger) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 30 * time.Second
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 1
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &Bot{
		cfg:     cfg,
		baseURL: base,
		client:  &http.Client{Timeout: cfg.PollTimeout + 10*time.Second},
		chat:    chat,
		pairing: pairing,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 3),
		logger:  logger,
		backoff: 5 * time.Second,
	}
}

// Run polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	me, err := b.getMe(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	b.username = me.Username
	b.logger.Info("telegram bot started", zap.String("username", b.username))

	for {
		updates, err := b.getUpdates(ctx, b.offset)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			b.logger.Warn("telegram poll failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(b.backoff):
			}
			continue
		}
		for _, u := range updates {
			if u.UpdateID >= b.offset {
				b.offset = u.UpdateID + 1
			}
			b.handle(ctx, u)
		}
	}
}

func (b *Bot) handle(ctx context.Context, u update) {
	msg := u.Message
	if msg == nil || msg.From == nil || msg.From.IsBot {
		return
	}
	text := strings.TrimSpace(msg.Text)
	if msg.Chat.isGroup() {
		mention := "@" + b.username
		if b.username == "" || !strings.HasPrefix(strings.ToLower(text), strings.ToLower(mention)) {
			return
		}
		text = strings.TrimSpace(text[len(mention):])
	}
	if text == "" {
		return
	}

	logger := b.logger.With(zap.Int64("chat_id", msg.Chat.ID), zap.Int64("user_id", msg.From.ID))
	if b.pairing != nil {
		who := app.ChatIdentity{ID: msg.From.ID, FirstName: msg.From.FirstName, LastName: msg.From.LastName}
		res, err := b.pairing.Check(ctx, who, text)
		if err != nil {
			logger.Error("pairing check failed", zap.Error(err))
			return
		}
		if !res.Allowed {
			if res.Reply != "" {
				b.send(ctx, logger, msg.Chat.ID, domain.Response{Text: res.Reply})
			}
			return
		}
	}

	b.send(ctx, logger, msg.Chat.ID, b.chat.Reply(ctx, text))
}

func (b *Bot) send(ctx context.Context, logger *zap.Logger, chatID int64, resp domain.Response) {
	if resp.Text != "" {
		if err := b.sendMessage(ctx, chatID, resp.Text); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("send message failed", zap.Error(err))
		}
	}
	if len(resp.Image) > 0 {
		if err := b.sendPhoto(ctx, chatID, resp.Image); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("send photo failed", zap.Error(err))
		}
	}
}
