package report

import (
	"fmt"
	"strings"
	"time"

	"finance-bot/internal/models"

	"github.com/shopspring/decimal"
)

// RecentLimit is how many of the newest transactions a report lists.
const RecentLimit = 5

// Recommendation identifies one advice line of a report.
type Recommendation int

const (
	NoIncome Recommendation = iota
	ReduceExpenses
	KeepGoing
	ExpensesExceedIncome
)

var half = decimal.NewFromFloat(0.5)

// Report is the aggregate of a user's transactions over a period.
type Report struct {
	Income          decimal.Decimal
	Expense         decimal.Decimal
	Recent          []models.Transaction
	Goal            *models.Goal
	Recommendations []Recommendation
}

// Build aggregates txs, which must be ordered newest first.
//
// Exactly one of NoIncome, ReduceExpenses or KeepGoing is recommended;
// ExpensesExceedIncome is appended on top of it whenever expense > income.
func Build(txs []models.Transaction, goal *models.Goal) Report {
	r := Report{Income: decimal.Zero, Expense: decimal.Zero, Goal: goal}
	for _, tx := range txs {
		switch tx.Kind {
		case models.Income:
			r.Income = r.Income.Add(tx.Amount)
		case models.Expense:
			r.Expense = r.Expense.Add(tx.Amount)
		}
	}

	recent := txs
	if len(recent) > RecentLimit {
		recent = recent[:RecentLimit]
	}
	r.Recent = append([]models.Transaction(nil), recent...)

	switch {
	case r.Income.IsZero():
		r.Recommendations = append(r.Recommendations, NoIncome)
	case r.Expense.Div(r.Income).GreaterThan(half):
		r.Recommendations = append(r.Recommendations, ReduceExpenses)
	default:
		r.Recommendations = append(r.Recommendations, KeepGoing)
	}
	if r.Expense.GreaterThan(r.Income) {
		r.Recommendations = append(r.Recommendations, ExpensesExceedIncome)
	}
	return r
}

// Texts holds the templates a report is rendered with.
type Texts struct {
	Header       string // start date, end date
	Totals       string // income, expense
	RecentHeader string
	RecentLine   string // date, kind, category, amount, description
	Goal         string // description, amount
	Advice       map[Recommendation]string
	DateLayout   string
}

// DefaultTexts are the English report templates.
var DefaultTexts = Texts{
	Header:       "Report for %s to %s:\n",
	Totals:       "Income: %s\nExpenses: %s\n",
	RecentHeader: "\nRecent transactions:\n",
	RecentLine:   "- %s: %s - %s - %s - %s\n",
	Goal:         "\nYour goal: %s (%s)\n",
	Advice: map[Recommendation]string{
		NoIncome:             "Recommendation: you have no income yet. Time to start earning.",
		ReduceExpenses:       "Recommendation: try to reduce your expenses!",
		KeepGoing:            "Recommendation: keep going!",
		ExpensesExceedIncome: "Recommendation: your expenses exceed your income. Try making a budget.",
	},
	DateLayout: "2006-01-02",
}

// Render formats r for the period [start, end].
func Render(r Report, start, end time.Time, t Texts) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf(t.Header, start.Format(t.DateLayout), end.Format(t.DateLayout)))
	b.WriteString(fmt.Sprintf(t.Totals, r.Income.String(), r.Expense.String()))

	if len(r.Recent) > 0 {
		b.WriteString(t.RecentHeader)
		for _, tx := range r.Recent {
			b.WriteString(fmt.Sprintf(t.RecentLine,
				tx.Time.Format(t.DateLayout), tx.Kind, tx.Category, tx.Amount.String(), tx.Description))
		}
	}

	if r.Goal != nil {
		b.WriteString(fmt.Sprintf(t.Goal, r.Goal.Description, r.Goal.Amount.String()))
	}

	b.WriteString("\n")
	for _, rec := range r.Recommendations {
		b.WriteString("\n")
		b.WriteString(t.Advice[rec])
	}
	return b.String()
}
