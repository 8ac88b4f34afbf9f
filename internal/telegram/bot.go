// Package telegram connects the conversation engine and the reminder
// scheduler to the Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"log"
	"strings"

	"finance-bot/internal/dialog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Engine is the conversation logic the bot forwards user input to.
type Engine interface {
	HandleText(ctx context.Context, userID int64, text string) []dialog.Reply
	HandleSelection(ctx context.Context, userID, reminderID int64) []dialog.Reply
	Messages() dialog.Messages
}

// Bot dispatches Telegram updates to an Engine and delivers notifications.
type Bot struct {
	api    *tgbotapi.BotAPI
	engine Engine
	signer *Signer
	msg    dialog.Messages
}

// New creates a Bot.
func New(api *tgbotapi.BotAPI, engine Engine, signer *Signer) *Bot {
	return &Bot{api: api, engine: engine, signer: signer, msg: engine.Messages()}
}

// Run long-polls for updates and handles them one at a time until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	log.Printf("telegram: receiving updates as @%s", b.api.Self.UserName)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			b.HandleUpdate(ctx, upd)
		}
	}
}

// HandleUpdate processes a single update. Only text messages from private
// chats and reminder selection callbacks are acted upon.
func (b *Bot) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.CallbackQuery != nil {
		b.handleCallback(ctx, upd.CallbackQuery)
		return
	}

	msg := upd.Message
	if msg == nil || msg.From == nil || msg.Chat == nil || !msg.Chat.IsPrivate() {
		return
	}
	if msg.Text == "" {
		return
	}

	for _, r := range b.engine.HandleText(ctx, msg.From.ID, msg.Text) {
		b.send(msg.Chat.ID, msg.From.ID, msg.MessageID, r)
	}
}

// Notify sends text to userID's private chat.
func (b *Bot) Notify(_ context.Context, userID int64, text string) error {
	if _, err := b.api.Send(tgbotapi.NewMessage(userID, text)); err != nil {
		return fmt.Errorf("send to %d: %w", userID, err)
	}
	return nil
}

func (b *Bot) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	if q.From == nil {
		return
	}

	reminderID, err := b.signer.Decode(q.From.ID, q.Data)
	if err != nil {
		log.Printf("telegram: user %d sent callback %q: %v", q.From.ID, q.Data, err)
		b.request(tgbotapi.NewCallback(q.ID, ""))
		return
	}

	replies := b.engine.HandleSelection(ctx, q.From.ID, reminderID)

	if q.Message != nil && q.Message.Chat != nil {
		b.request(tgbotapi.NewEditMessageReplyMarkup(q.Message.Chat.ID, q.Message.MessageID,
			tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}))
	}

	texts := make([]string, 0, len(replies))
	for _, r := range replies {
		texts = append(texts, r.Text)
	}
	b.request(tgbotapi.NewCallbackWithAlert(q.ID, strings.Join(texts, "\n")))

	for _, r := range replies {
		b.send(q.From.ID, q.From.ID, 0, r)
	}
}

func (b *Bot) send(chatID, userID int64, replyTo int, r dialog.Reply) {
	m := tgbotapi.NewMessage(chatID, r.Text)
	m.ReplyToMessageID = replyTo
	if markup := b.markup(userID, r); markup != nil {
		m.ReplyMarkup = markup
	}
	if _, err := b.api.Send(m); err != nil {
		log.Printf("telegram: send to chat %d: %v", chatID, err)
	}
}

func (b *Bot) request(c tgbotapi.Chattable) {
	if _, err := b.api.Request(c); err != nil {
		log.Printf("telegram: request: %v", err)
	}
}
