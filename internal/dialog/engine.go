// Package dialog implements the per-user conversation engine: a state
// machine over (flow, step) that validates free text, re-prompts on bad
// input and writes a record only when a flow completes.
package dialog

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"finance-bot/internal/report"
)

// Keyboard selects the reply controls sent along with a message.
type Keyboard int

const (
	// KeepKeyboard leaves whatever the user currently sees.
	KeepKeyboard Keyboard = iota
	MainMenu
	CancelOnly
)

// Choice is one selectable reminder in a deletion list.
type Choice struct {
	Label      string
	ReminderID int64
}

// Reply is one outbound message.
type Reply struct {
	Text     string
	Keyboard Keyboard
	Choices  []Choice
}

// Engine maps inbound text to session transitions, replies and store writes.
type Engine struct {
	store       Store
	sessions    *sessionStore
	now         func() time.Time
	loc         *time.Location
	msg         Messages
	reportTexts report.Texts
	triggers    map[string]func(*Engine, context.Context, *Session) []Reply
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLocation sets the naive clock location dates and times are read in.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithMessages replaces the display templates.
func WithMessages(m Messages) Option {
	return func(e *Engine) { e.msg = m }
}

// WithReportTexts replaces the report templates.
func WithReportTexts(t report.Texts) Option {
	return func(e *Engine) { e.reportTexts = t }
}

// New creates an Engine on top of store.
func New(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:       store,
		sessions:    newSessionStore(),
		now:         time.Now,
		loc:         time.Local,
		msg:         DefaultMessages,
		reportTexts: report.DefaultTexts,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.triggers = map[string]func(*Engine, context.Context, *Session) []Reply{
		e.msg.Start:          (*Engine).welcome,
		e.msg.AddIncome:      (*Engine).startIncome,
		e.msg.AddExpense:     (*Engine).startExpense,
		e.msg.Report:         (*Engine).startReport,
		e.msg.AddReminder:    (*Engine).startReminder,
		e.msg.SetGoal:        (*Engine).startGoal,
		e.msg.Reminders:      (*Engine).listReminders,
		e.msg.DeleteReminder: (*Engine).chooseReminder,
	}
	return e
}

// Messages returns the templates the engine was built with.
func (e *Engine) Messages() Messages {
	return e.msg
}

// HandleText processes one inbound text message of userID.
//
// The cancel token ends an active flow with a single acknowledgement and is
// ignored when no flow is active. Menu triggers always start over, dropping
// any partial flow. Cancel and triggers match literally; free text reaches
// the steps unchanged.
func (e *Engine) HandleText(ctx context.Context, userID int64, text string) []Reply {
	sl := e.sessions.acquire(userID)
	defer e.sessions.release(userID, sl)
	s := &sl.session

	if text == e.msg.Cancel {
		if s.Flow == FlowNone {
			return nil
		}
		log.Printf("dialog: user %d cancelled %s flow at step %s", userID, s.Flow, s.Step)
		s.reset()
		return e.reply(e.msg.Cancelled, MainMenu)
	}

	if start, ok := e.triggers[text]; ok {
		s.reset()
		return start(e, ctx, s)
	}

	if s.Flow == FlowNone {
		return e.reply(e.msg.Idle, MainMenu)
	}

	step, ok := transitions[state{s.Flow, s.Step}]
	if !ok {
		log.Printf("dialog: user %d in unknown state %s/%s, resetting", userID, s.Flow, s.Step)
		s.reset()
		return e.reply(e.msg.Idle, MainMenu)
	}
	return step(e, ctx, s, text)
}

// HandleSelection deletes the reminder userID picked from a deletion list.
func (e *Engine) HandleSelection(ctx context.Context, userID, reminderID int64) []Reply {
	sl := e.sessions.acquire(userID)
	defer e.sessions.release(userID, sl)

	kb := MainMenu
	if sl.session.Flow != FlowNone {
		kb = KeepKeyboard
	}

	deleted, err := e.store.DeleteReminder(ctx, reminderID, userID)
	if err != nil {
		log.Printf("dialog: user %d: delete reminder %d: %v", userID, reminderID, err)
		return e.reply(e.msg.Failure, kb)
	}
	if !deleted {
		return e.reply(e.msg.ReminderNotFound, kb)
	}
	log.Printf("dialog: user %d deleted reminder %d", userID, reminderID)
	return e.reply(e.msg.ReminderDeleted, kb)
}

// Session returns a copy of userID's current session.
func (e *Engine) Session(userID int64) Session {
	sl := e.sessions.acquire(userID)
	defer e.sessions.release(userID, sl)
	return sl.session
}

func (e *Engine) clock() time.Time {
	return e.now().In(e.loc)
}

func (e *Engine) reply(text string, kb Keyboard) []Reply {
	return []Reply{{Text: text, Keyboard: kb}}
}

func (e *Engine) welcome(_ context.Context, _ *Session) []Reply {
	return e.reply(e.msg.Welcome, MainMenu)
}

func (e *Engine) listReminders(ctx context.Context, s *Session) []Reply {
	reminders, err := e.store.QueryReminders(ctx, s.UserID)
	if err != nil {
		log.Printf("dialog: user %d: query reminders: %v", s.UserID, err)
		return e.reply(e.msg.Failure, MainMenu)
	}
	if len(reminders) == 0 {
		return e.reply(e.msg.NoReminders, MainMenu)
	}

	var b strings.Builder
	b.WriteString(e.msg.ReminderListHeader)
	for _, r := range reminders {
		b.WriteString(fmt.Sprintf(e.msg.ReminderLine, r.DueTime.In(e.loc).Format(e.msg.TimeLayout), r.Text))
	}
	return e.reply(b.String(), MainMenu)
}

func (e *Engine) chooseReminder(ctx context.Context, s *Session) []Reply {
	reminders, err := e.store.QueryReminders(ctx, s.UserID)
	if err != nil {
		log.Printf("dialog: user %d: query reminders: %v", s.UserID, err)
		return e.reply(e.msg.Failure, MainMenu)
	}
	if len(reminders) == 0 {
		return e.reply(e.msg.NoRemindersToDelete, MainMenu)
	}

	choices := make([]Choice, 0, len(reminders))
	for _, r := range reminders {
		choices = append(choices, Choice{
			Label:      fmt.Sprintf(e.msg.ReminderChoice, r.DueTime.In(e.loc).Format(e.msg.TimeLayout), r.Text),
			ReminderID: r.ID,
		})
	}
	return []Reply{{Text: e.msg.ChooseReminder, Choices: choices}}
}
