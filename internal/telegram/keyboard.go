package telegram

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

const supportedSitesURL = "https://github.com/yt-dlp/yt-dlp/blob/master/supportedsites.md"

const (
	textStart = "👋 Hi! Send me a link to a video from TikTok, YouTube, Instagram, X or VK and I will download it for you.\n\n" +
		"Dozens of platforms are supported: see the button below."
	textHelp = "Send a link to a video. I will download the best available format and send you the file.\n" +
		"If the file turns out to be too large (> ~1.9 GB), I will tell you about the limit."
)

func mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("Supported platforms", supportedSitesURL),
		),
	)
}
