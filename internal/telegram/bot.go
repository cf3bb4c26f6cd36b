// Package telegram connects the delivery handler to the Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/veranemoloko/tg-downloader/internal/config"
	"github.com/veranemoloko/tg-downloader/internal/delivery"
	"github.com/veranemoloko/tg-downloader/internal/domain"
	"github.com/veranemoloko/tg-downloader/internal/validation"
)

// LinkHandler processes one URL sent to the bot.
type LinkHandler interface {
	HandleLink(ctx context.Context, chat delivery.Messenger, chatID int64, url string) domain.JobState
}

// Bot polls updates and routes commands and links.
type Bot struct {
	api         *tgbotapi.BotAPI
	handler     LinkHandler
	pollTimeout int
	links       validation.Policy
	logger      *slog.Logger
	wg          sync.WaitGroup
}

// NewBot authorizes against the Bot API with the configured token.
func NewBot(cfg *config.Config, handler LinkHandler, logger *slog.Logger) (*Bot, error) {
	return NewBotWithEndpoint(cfg, tgbotapi.APIEndpoint, handler, logger)
}

// NewBotWithEndpoint is NewBot against a custom Bot API endpoint, e.g. a
// self-hosted server with a higher upload limit.
func NewBotWithEndpoint(cfg *config.Config, endpoint string, handler LinkHandler, logger *slog.Logger) (*Bot, error) {
	if err := tgbotapi.SetLogger(botLogger{logger: logger}); err != nil {
		return nil, fmt.Errorf("failed to set bot logger: %w", err)
	}

	api, err := tgbotapi.NewBotAPIWithAPIEndpoint(cfg.BotToken, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}
	api.Debug = cfg.BotDebug

	logger.Info("bot authorized", "username", api.Self.UserName, "id", api.Self.ID)

	return &Bot{
		api:         api,
		handler:     handler,
		pollTimeout: cfg.PollTimeout,
		links:       validation.Policy{AllowPrivateHosts: cfg.AllowPrivateHosts},
		logger:      logger,
	}, nil
}

// Messenger returns the reply capability for chatID.
func (b *Bot) Messenger(chatID int64) delivery.Messenger {
	return &chatMessenger{api: b.api, chatID: chatID}
}

// Run long-polls for updates until ctx is cancelled. Link jobs are started on
// their own goroutines; use Wait to let them finish.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("bot is listening for updates", "poll_timeout", b.pollTimeout)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("stopped receiving updates")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.dispatch(ctx, update)
		}
	}
}

// Wait blocks until all in-flight link jobs return or ctx ends.
func (b *Bot) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			b.reply(ctx, chatID, textStart)
		case "help":
			b.reply(ctx, chatID, textHelp)
		}
		return
	}

	text := strings.TrimSpace(msg.Text)
	if !b.links.Accepts(text) {
		return
	}

	b.logger.Info("link received", "chat_id", chatID, "url", text)

	chat := b.Messenger(chatID)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.handler.HandleLink(ctx, chat, chatID, text)
	}()
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if _, err := b.Messenger(chatID).SendText(ctx, text); err != nil {
		b.logger.Error("failed to send reply", "chat_id", chatID, "error", err)
	}
}

// botLogger routes the Bot API client's own logging into slog.
type botLogger struct {
	logger *slog.Logger
}

func (l botLogger) Println(v ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintln(v...)), "component", "tgbotapi")
}

func (l botLogger) Printf(format string, v ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "tgbotapi")
}
