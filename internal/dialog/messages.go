package dialog

// Triggers are the exact texts that start an action. They double as the
// labels of the main menu buttons.
type Triggers struct {
	Start          string
	AddIncome      string
	AddExpense     string
	Report         string
	Reminders      string
	AddReminder    string
	DeleteReminder string
	SetGoal        string
	Cancel         string
}

// Messages are the display templates of the engine. Verbs in comments list
// the arguments a template receives.
type Messages struct {
	Triggers

	Welcome   string
	Idle      string
	Cancelled string
	Failure   string

	AskIncomeAmount  string
	AskExpenseAmount string
	BadAmount        string
	AskCategory      string
	AskDescription   string
	TransactionSaved string // kind, amount, category

	AskReminderTime string
	BadReminderTime string // error
	AskReminderText string
	ReminderSaved   string // text

	AskStartDate   string
	AskEndDate     string
	BadDate        string
	NoTransactions string

	AskGoalAmount      string
	BadGoalAmount      string
	AskGoalDescription string
	GoalSaved          string // description, amount

	NoReminders         string
	ReminderListHeader  string
	ReminderLine        string // due time, text
	NoRemindersToDelete string
	ChooseReminder      string
	ReminderChoice      string // due time, text
	ReminderDeleted     string
	ReminderNotFound    string

	TimeLayout string
}

// DefaultMessages are the English templates.
var DefaultMessages = Messages{
	Triggers: Triggers{
		Start:          "/start",
		AddIncome:      "Add income",
		AddExpense:     "Add expense",
		Report:         "Report",
		Reminders:      "Reminders",
		AddReminder:    "Add reminder",
		DeleteReminder: "Delete reminder",
		SetGoal:        "Set goal",
		Cancel:         "Cancel",
	},

	Welcome:   "Hi! I'm your finance and time assistant. Choose an action:",
	Idle:      "Choose an action from the menu.",
	Cancelled: "Action cancelled.",
	Failure:   "Something went wrong while saving. Send it again or press Cancel.",

	AskIncomeAmount:  "Enter the income amount:",
	AskExpenseAmount: "Enter the expense amount:",
	BadAmount:        "Invalid amount. Enter a number:",
	AskCategory:      "Enter the category:",
	AskDescription:   "Enter a description (or 'none'):",
	TransactionSaved: "Transaction added: %s - %s - %s",

	AskReminderTime: "Enter the reminder time as YYYY-MM-DD HH:MM or a relative time (for example 'in 2 hours'):",
	BadReminderTime: "Invalid time. Use YYYY-MM-DD HH:MM or a relative time (for example 'in 2 hours'). Error: %v",
	AskReminderText: "Now enter the reminder text:",
	ReminderSaved:   "Reminder added: %s",

	AskStartDate:   "Enter the report start date as YYYY-MM-DD (or 'Cancel'):",
	AskEndDate:     "Enter the report end date as YYYY-MM-DD (or 'Cancel'):",
	BadDate:        "Invalid date. Use YYYY-MM-DD (or 'Cancel'):",
	NoTransactions: "No transactions in this period.",

	AskGoalAmount:      "Enter the goal amount (or 'Cancel'):",
	BadGoalAmount:      "Invalid amount. Enter a number (or 'Cancel'):",
	AskGoalDescription: "Enter the goal description (or 'Cancel'):",
	GoalSaved:          "Goal set: %s (%s)",

	NoReminders:         "No active reminders.",
	ReminderListHeader:  "Your reminders:\n",
	ReminderLine:        "- %s: %s\n",
	NoRemindersToDelete: "No reminders to delete.",
	ChooseReminder:      "Choose a reminder to delete:",
	ReminderChoice:      "%s - %s",
	ReminderDeleted:     "Reminder deleted.",
	ReminderNotFound:    "That reminder no longer exists.",

	TimeLayout: "2006-01-02 15:04",
}

// MainMenu returns the rows of the persistent menu.
func (m Messages) MainMenu() [][]string {
	return [][]string{
		{m.AddIncome, m.AddExpense},
		{m.Report},
		{m.Reminders, m.AddReminder, m.DeleteReminder},
		{m.SetGoal},
	}
}

// CancelMenu returns the rows shown while a flow is active.
func (m Messages) CancelMenu() [][]string {
	return [][]string{{m.Cancel}}
}
