package dialog

import (
	"context"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"finance-bot/internal/duetime"
	"finance-bot/internal/models"
	"finance-bot/internal/report"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type state struct {
	flow Flow
	step Step
}

type stepFunc func(e *Engine, ctx context.Context, s *Session, text string) []Reply

// transitions lists every step that consumes input. A step either advances
// with one prompt, re-prompts in place, or commits and clears the session.
var transitions = map[state]stepFunc{
	{FlowTransaction, StepAmount}:      (*Engine).transactionAmount,
	{FlowTransaction, StepCategory}:    (*Engine).transactionCategory,
	{FlowTransaction, StepDescription}: (*Engine).transactionDescription,

	{FlowReminder, StepTime}: (*Engine).reminderTime,
	{FlowReminder, StepText}: (*Engine).reminderText,

	{FlowReport, StepStartDate}: (*Engine).reportStart,
	{FlowReport, StepEndDate}:   (*Engine).reportEnd,

	{FlowGoal, StepAmount}:      (*Engine).goalAmount,
	{FlowGoal, StepDescription}: (*Engine).goalDescription,
}

// blank reports text that carries nothing but whitespace.
func blank(text string) bool {
	return strings.TrimSpace(text) == ""
}

// parseAmount accepts anything strconv reads as a finite float.
func parseAmount(text string) (decimal.Decimal, bool) {
	text = strings.TrimSpace(text)
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return decimal.Decimal{}, false
	}
	if d, err := decimal.NewFromString(text); err == nil {
		return d, true
	}
	return decimal.NewFromFloat(f), true
}

// Transaction flow

func (e *Engine) startIncome(_ context.Context, s *Session) []Reply {
	s.begin(FlowTransaction, StepAmount)
	s.Kind = models.Income
	return e.reply(e.msg.AskIncomeAmount, CancelOnly)
}

func (e *Engine) startExpense(_ context.Context, s *Session) []Reply {
	s.begin(FlowTransaction, StepAmount)
	s.Kind = models.Expense
	return e.reply(e.msg.AskExpenseAmount, CancelOnly)
}

func (e *Engine) transactionAmount(_ context.Context, s *Session, text string) []Reply {
	amount, ok := parseAmount(text)
	if !ok {
		return e.reply(e.msg.BadAmount, CancelOnly)
	}
	s.Amount = amount
	s.Step = StepCategory
	return e.reply(e.msg.AskCategory, CancelOnly)
}

func (e *Engine) transactionCategory(_ context.Context, s *Session, text string) []Reply {
	if blank(text) {
		return e.reply(e.msg.AskCategory, CancelOnly)
	}
	s.Category = text
	s.Step = StepDescription
	return e.reply(e.msg.AskDescription, CancelOnly)
}

func (e *Engine) transactionDescription(ctx context.Context, s *Session, text string) []Reply {
	if blank(text) {
		return e.reply(e.msg.AskDescription, CancelOnly)
	}
	tx := models.Transaction{
		UserID:      s.UserID,
		Time:        e.clock(),
		Kind:        s.Kind,
		Category:    s.Category,
		Amount:      s.Amount,
		Description: text,
	}
	id, err := e.store.InsertTransaction(ctx, tx)
	if err != nil {
		log.Printf("dialog: user %d: insert transaction: %v", s.UserID, err)
		return e.reply(e.msg.Failure, CancelOnly)
	}
	log.Printf("dialog: user %d added %s transaction %d", s.UserID, tx.Kind, id)
	s.reset()
	return e.reply(fmt.Sprintf(e.msg.TransactionSaved, tx.Kind, tx.Amount.String(), tx.Category), MainMenu)
}

// Reminder flow

func (e *Engine) startReminder(_ context.Context, s *Session) []Reply {
	s.begin(FlowReminder, StepTime)
	return e.reply(e.msg.AskReminderTime, CancelOnly)
}

func (e *Engine) reminderTime(_ context.Context, s *Session, text string) []Reply {
	due, err := duetime.Resolve(text, e.clock(), e.loc)
	if err != nil {
		return e.reply(fmt.Sprintf(e.msg.BadReminderTime, err), CancelOnly)
	}
	s.DueTime = due
	s.Step = StepText
	return e.reply(e.msg.AskReminderText, CancelOnly)
}

func (e *Engine) reminderText(ctx context.Context, s *Session, text string) []Reply {
	if blank(text) {
		return e.reply(e.msg.AskReminderText, CancelOnly)
	}
	r := models.Reminder{
		UserID:    s.UserID,
		DueTime:   s.DueTime,
		Text:      text,
		CreatedAt: e.clock(),
	}
	id, err := e.store.InsertReminder(ctx, r)
	if err != nil {
		log.Printf("dialog: user %d: insert reminder: %v", s.UserID, err)
		return e.reply(e.msg.Failure, CancelOnly)
	}
	log.Printf("dialog: user %d added reminder %d due %s", s.UserID, id, r.DueTime.Format(duetime.Layout))
	s.reset()
	return e.reply(fmt.Sprintf(e.msg.ReminderSaved, text), MainMenu)
}

// Report flow

func (e *Engine) startReport(_ context.Context, s *Session) []Reply {
	s.begin(FlowReport, StepStartDate)
	return e.reply(e.msg.AskStartDate, CancelOnly)
}

func (e *Engine) reportStart(_ context.Context, s *Session, text string) []Reply {
	start, err := time.ParseInLocation(dateLayout, strings.TrimSpace(text), e.loc)
	if err != nil {
		return e.reply(e.msg.BadDate, CancelOnly)
	}
	s.Start = start
	s.Step = StepEndDate
	return e.reply(e.msg.AskEndDate, CancelOnly)
}

// reportEnd reports [start 00:00:00, end 00:00:00]. Later transactions of the
// end day are left out. Stored times have one second precision, so the
// exclusive query bound is one second past midnight.
func (e *Engine) reportEnd(ctx context.Context, s *Session, text string) []Reply {
	end, err := time.ParseInLocation(dateLayout, strings.TrimSpace(text), e.loc)
	if err != nil {
		return e.reply(e.msg.BadDate, CancelOnly)
	}

	txs, err := e.store.QueryTransactions(ctx, s.UserID, s.Start, end.Add(time.Second))
	if err != nil {
		log.Printf("dialog: user %d: query transactions: %v", s.UserID, err)
		return e.reply(e.msg.Failure, CancelOnly)
	}
	start := s.Start
	if len(txs) == 0 {
		s.reset()
		return e.reply(e.msg.NoTransactions, MainMenu)
	}

	goal, err := e.store.GetGoal(ctx, s.UserID)
	if err != nil {
		log.Printf("dialog: user %d: get goal: %v", s.UserID, err)
		goal = nil
	}

	s.reset()
	return e.reply(report.Render(report.Build(txs, goal), start, end, e.reportTexts), MainMenu)
}

// Goal flow

func (e *Engine) startGoal(_ context.Context, s *Session) []Reply {
	s.begin(FlowGoal, StepAmount)
	return e.reply(e.msg.AskGoalAmount, CancelOnly)
}

func (e *Engine) goalAmount(_ context.Context, s *Session, text string) []Reply {
	amount, ok := parseAmount(text)
	if !ok {
		return e.reply(e.msg.BadGoalAmount, CancelOnly)
	}
	s.Amount = amount
	s.Step = StepDescription
	return e.reply(e.msg.AskGoalDescription, CancelOnly)
}

func (e *Engine) goalDescription(ctx context.Context, s *Session, text string) []Reply {
	if blank(text) {
		return e.reply(e.msg.AskGoalDescription, CancelOnly)
	}
	g := models.Goal{UserID: s.UserID, Amount: s.Amount, Description: text}
	if err := e.store.UpsertGoal(ctx, g); err != nil {
		log.Printf("dialog: user %d: upsert goal: %v", s.UserID, err)
		return e.reply(e.msg.Failure, CancelOnly)
	}
	s.reset()
	return e.reply(fmt.Sprintf(e.msg.GoalSaved, g.Description, g.Amount.String()), MainMenu)
}
