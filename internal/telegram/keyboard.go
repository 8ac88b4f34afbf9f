package telegram

import (
	"finance-bot/internal/dialog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// markup returns the reply markup for r, or nil to leave the current one.
func (b *Bot) markup(userID int64, r dialog.Reply) interface{} {
	if len(r.Choices) > 0 {
		rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(r.Choices))
		for _, c := range r.Choices {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(c.Label, b.signer.Encode(userID, c.ReminderID)),
			))
		}
		return tgbotapi.NewInlineKeyboardMarkup(rows...)
	}

	switch r.Keyboard {
	case dialog.MainMenu:
		return replyKeyboard(b.msg.MainMenu())
	case dialog.CancelOnly:
		return replyKeyboard(b.msg.CancelMenu())
	}
	return nil
}

func replyKeyboard(labels [][]string) tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(labels))
	for _, row := range labels {
		buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, tgbotapi.NewKeyboardButton(label))
		}
		rows = append(rows, buttons)
	}
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	return kb
}
