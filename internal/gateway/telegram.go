package gateway

import (
	"fmt"
	"log"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type TelegramGateway struct {
	Bot    *tgbotapi.BotAPI
	ChatID int64
}

func NewTelegramGateway(token, chatID string) (*TelegramGateway, error) {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil || id == 0 {
		return nil, fmt.Errorf("invalid chat ID: %s", chatID)
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	return &TelegramGateway{
		Bot:    bot,
		ChatID: id,
	}, nil
}

func (tg *TelegramGateway) Name() string {
	return "telegram"
}

func (tg *TelegramGateway) Send(text string) error {
	msg := tgbotapi.NewMessage(tg.ChatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := tg.Bot.Send(msg)
	return err
}

// Escape makes text safe inside a legacy Markdown message.
func (tg *TelegramGateway) Escape(text string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, text)
}
