package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// chatMessenger implements delivery.Messenger for a single chat.
type chatMessenger struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

func (m *chatMessenger) SendText(ctx context.Context, text string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	msg := tgbotapi.NewMessage(m.chatID, text)
	msg.ReplyMarkup = mainMenuKeyboard()
	msg.DisableWebPagePreview = true

	sent, err := m.api.Send(msg)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (m *chatMessenger) EditText(ctx context.Context, messageID int, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	edit := tgbotapi.NewEditMessageText(m.chatID, messageID, text)
	kb := mainMenuKeyboard()
	edit.ReplyMarkup = &kb
	edit.DisableWebPagePreview = true

	_, err := m.api.Send(edit)
	if isNotModified(err) {
		return nil
	}
	return err
}

func (m *chatMessenger) Delete(ctx context.Context, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := m.api.Request(tgbotapi.NewDeleteMessage(m.chatID, messageID))
	return err
}

func (m *chatMessenger) SendVideo(ctx context.Context, path, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	video := tgbotapi.NewVideo(m.chatID, tgbotapi.FilePath(path))
	video.Caption = caption
	video.SupportsStreaming = true

	_, err := m.api.Send(video)
	return err
}

func (m *chatMessenger) SendDocument(ctx context.Context, path, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc := tgbotapi.NewDocument(m.chatID, tgbotapi.FilePath(path))
	doc.Caption = caption

	_, err := m.api.Send(doc)
	return err
}

// isNotModified matches the Bot API rejection of an edit that changes nothing.
func isNotModified(err error) bool {
	return err != nil && strings.Contains(err.Error(), "message is not modified")
}
