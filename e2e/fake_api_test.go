package e2e

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type sentMessage struct {
	chatID   int64
	text     string
	markup   string
	consumed bool
}

// fakeAPI is a scripted Telegram Bot API. Tests queue updates and wait for
// the messages the bot sends back.
type fakeAPI struct {
	mu        sync.Mutex
	lastID    int
	updates   []tgbotapi.Update
	sent      []*sentMessage
	callbacks []map[string]string
	polls     int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{}
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	w.Header().Set("Content-Type", "application/json")

	switch path.Base(r.URL.Path) {
	case "getMe":
		fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Finance","username":"finance_bot"}}`)

	case "getUpdates":
		offset, _ := strconv.Atoi(r.PostForm.Get("offset"))
		pending := f.pending(offset)
		if len(pending) == 0 {
			time.Sleep(50 * time.Millisecond)
		}
		body, _ := json.Marshal(pending)
		fmt.Fprintf(w, `{"ok":true,"result":%s}`, body)

	case "sendMessage":
		chatID, _ := strconv.ParseInt(r.PostForm.Get("chat_id"), 10, 64)
		f.mu.Lock()
		f.sent = append(f.sent, &sentMessage{
			chatID: chatID,
			text:   r.PostForm.Get("text"),
			markup: r.PostForm.Get("reply_markup"),
		})
		messageID := len(f.sent)
		f.mu.Unlock()
		fmt.Fprintf(w, `{"ok":true,"result":{"message_id":%d,"date":0,"chat":{"id":%d,"type":"private"}}}`,
			messageID, chatID)

	case "answerCallbackQuery":
		f.mu.Lock()
		f.callbacks = append(f.callbacks, map[string]string{
			"text":       r.PostForm.Get("text"),
			"show_alert": r.PostForm.Get("show_alert"),
		})
		f.mu.Unlock()
		fmt.Fprint(w, `{"ok":true,"result":true}`)

	default:
		fmt.Fprint(w, `{"ok":true,"result":true}`)
	}
}

func (f *fakeAPI) pending(offset int) []tgbotapi.Update {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	out := []tgbotapi.Update{}
	for _, u := range f.updates {
		if u.UpdateID >= offset {
			out = append(out, u)
		}
	}
	return out
}

func (f *fakeAPI) lastCallback() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.callbacks) == 0 {
		return nil
	}
	return f.callbacks[len(f.callbacks)-1]
}

func (f *fakeAPI) polled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls > 0
}

func (f *fakeAPI) push(u tgbotapi.Update) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastID++
	u.UpdateID = f.lastID
	if u.Message != nil {
		u.Message.MessageID = f.lastID
	}
	f.updates = append(f.updates, u)
}

// say queues a private text message from userID.
func (f *fakeAPI) say(userID int64, text string) {
	f.push(tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID, FirstName: "Test"},
		Chat: &tgbotapi.Chat{ID: userID, Type: "private"},
		Text: text,
	}})
}

// press queues a callback from an inline button.
func (f *fakeAPI) press(userID int64, data string) {
	f.push(tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb-" + strconv.FormatInt(userID, 10),
		From:    &tgbotapi.User{ID: userID, FirstName: "Test"},
		Message: &tgbotapi.Message{MessageID: 1, Chat: &tgbotapi.Chat{ID: userID, Type: "private"}},
		Data:    data,
	}})
}

// expect waits for a message to userID whose text satisfies match.
func (f *fakeAPI) expect(t *testing.T, userID int64, match func(string) bool) *sentMessage {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		f.mu.Lock()
		for _, m := range f.sent {
			if !m.consumed && m.chatID == userID && match(m.text) {
				m.consumed = true
				f.mu.Unlock()
				return m
			}
		}
		f.mu.Unlock()
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("no matching message to %d", userID)
	return nil
}

func (f *fakeAPI) expectText(t *testing.T, userID int64, text string) *sentMessage {
	t.Helper()
	return f.expect(t, userID, func(s string) bool { return s == text })
}

func (f *fakeAPI) expectContains(t *testing.T, userID int64, parts ...string) *sentMessage {
	t.Helper()
	return f.expect(t, userID, func(s string) bool {
		for _, p := range parts {
			if !strings.Contains(s, p) {
				return false
			}
		}
		return true
	})
}
