package e2e

import (
	"encoding/json"
	"testing"
	"time"

	"finance-bot/internal/dialog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var msg = dialog.DefaultMessages

// E2ETestSuite drives the running bot through the fake Bot API.
// Every test talks as its own user.
type E2ETestSuite struct {
	suite.Suite
}

// step sends text as userID and waits for the exact reply.
func (suite *E2ETestSuite) step(userID int64, text, reply string) *sentMessage {
	api.say(userID, text)
	return api.expectText(suite.T(), userID, reply)
}

func (suite *E2ETestSuite) TestStartShowsMenu() {
	m := suite.step(1001, "/start", msg.Welcome)

	var kb tgbotapi.ReplyKeyboardMarkup
	require.NoError(suite.T(), json.Unmarshal([]byte(m.markup), &kb))
	require.NotEmpty(suite.T(), kb.Keyboard)
	assert.Equal(suite.T(), msg.AddIncome, kb.Keyboard[0][0].Text)
}

func (suite *E2ETestSuite) TestTransactionsAndReport() {
	const user = 1002

	suite.step(user, msg.AddExpense, msg.AskExpenseAmount)
	suite.step(user, "two hundred", msg.BadAmount)
	suite.step(user, "250", msg.AskCategory)
	suite.step(user, "food", msg.AskDescription)
	suite.step(user, "lunch", "Transaction added: expense - 250 - food")

	suite.step(user, msg.AddIncome, msg.AskIncomeAmount)
	suite.step(user, "1000", msg.AskCategory)
	suite.step(user, "salary", msg.AskDescription)
	suite.step(user, "march", "Transaction added: income - 1000 - salary")

	suite.step(user, msg.SetGoal, msg.AskGoalAmount)
	suite.step(user, "5000", msg.AskGoalDescription)
	suite.step(user, "vacation", "Goal set: vacation (5000)")

	// The period ends at midnight of the end date, so today needs tomorrow as the end
	now := time.Now().UTC()
	suite.step(user, msg.Report, msg.AskStartDate)
	suite.step(user, now.Format("2006-01-02"), msg.AskEndDate)
	api.say(user, now.AddDate(0, 0, 1).Format("2006-01-02"))
	api.expectContains(suite.T(), user, "Income: 1000", "Expenses: 250", "lunch", "vacation (5000)", "keep going")
}

func (suite *E2ETestSuite) TestReminderIsDelivered() {
	const user = 1003

	suite.step(user, msg.AddReminder, msg.AskReminderTime)
	suite.step(user, "in 0 minutes", msg.AskReminderText)
	suite.step(user, "stretch", "Reminder added: stretch")

	api.expectText(suite.T(), user, "Reminder: stretch")

	// Delivered reminders are gone
	suite.step(user, msg.Reminders, msg.NoReminders)
}

func (suite *E2ETestSuite) TestDeleteReminderWithButton() {
	const user = 1004

	suite.step(user, msg.AddReminder, msg.AskReminderTime)
	suite.step(user, "2099-01-01 10:00", msg.AskReminderText)
	suite.step(user, "far away", "Reminder added: far away")

	m := suite.step(user, msg.DeleteReminder, msg.ChooseReminder)
	var kb tgbotapi.InlineKeyboardMarkup
	require.NoError(suite.T(), json.Unmarshal([]byte(m.markup), &kb))
	require.Len(suite.T(), kb.InlineKeyboard, 1)
	button := kb.InlineKeyboard[0][0]
	assert.Equal(suite.T(), "2099-01-01 10:00 - far away", button.Text)
	require.NotNil(suite.T(), button.CallbackData)

	// Someone else replaying the button deletes nothing
	api.press(1005, *button.CallbackData)
	suite.step(user, msg.Reminders, "Your reminders:\n- 2099-01-01 10:00: far away\n")

	api.press(user, *button.CallbackData)
	api.expectText(suite.T(), user, msg.ReminderDeleted)
	cb := api.lastCallback()
	require.NotNil(suite.T(), cb)
	assert.Equal(suite.T(), "true", cb["show_alert"])

	suite.step(user, msg.Reminders, msg.NoReminders)
}

func (suite *E2ETestSuite) TestCancel() {
	const user = 1006

	suite.step(user, msg.SetGoal, msg.AskGoalAmount)
	suite.step(user, "100", msg.AskGoalDescription)
	suite.step(user, msg.Cancel, msg.Cancelled)
	suite.step(user, "hello", msg.Idle)
}

func TestE2ESuite(t *testing.T) {
	suite.Run(t, new(E2ETestSuite))
}
