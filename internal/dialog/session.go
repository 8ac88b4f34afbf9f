package dialog

import (
	"sync"
	"time"

	"finance-bot/internal/models"

	"github.com/shopspring/decimal"
)

// Flow is one of the multi-step conversations a user can be in.
type Flow int

const (
	FlowNone Flow = iota
	FlowTransaction
	FlowReminder
	FlowReport
	FlowGoal
)

func (f Flow) String() string {
	return [...]string{"none", "transaction", "reminder", "report", "goal"}[f]
}

// Step is the input a flow is waiting for.
type Step int

const (
	StepNone Step = iota
	StepAmount
	StepCategory
	StepDescription
	StepTime
	StepText
	StepStartDate
	StepEndDate
)

func (s Step) String() string {
	return [...]string{"none", "amount", "category", "description", "time", "text", "start_date", "end_date"}[s]
}

// Session is the transient per-user conversation state. Fields past Step
// hold the partial record collected so far.
type Session struct {
	UserID int64
	Flow   Flow
	Step   Step

	Kind     models.Kind
	Amount   decimal.Decimal
	Category string
	DueTime  time.Time
	Start    time.Time
}

func (s *Session) reset() {
	*s = Session{UserID: s.UserID}
}

func (s *Session) begin(f Flow, first Step) {
	s.reset()
	s.Flow = f
	s.Step = first
}

// sessionStore hands out per-user sessions. Holding a slot serializes the
// messages of one user; idle sessions are dropped on release.
type sessionStore struct {
	mu    sync.Mutex
	slots map[int64]*slot
}

type slot struct {
	mu      sync.Mutex
	refs    int
	session Session
}

func newSessionStore() *sessionStore {
	return &sessionStore{slots: make(map[int64]*slot)}
}

func (st *sessionStore) acquire(userID int64) *slot {
	st.mu.Lock()
	s, ok := st.slots[userID]
	if !ok {
		s = &slot{session: Session{UserID: userID}}
		st.slots[userID] = s
	}
	s.refs++
	st.mu.Unlock()

	s.mu.Lock()
	return s
}

func (st *sessionStore) release(userID int64, s *slot) {
	s.mu.Unlock()

	st.mu.Lock()
	s.refs--
	// With no refs left nobody holds s.mu, so the session can be read here.
	if s.refs == 0 && s.session.Flow == FlowNone {
		delete(st.slots, userID)
	}
	st.mu.Unlock()
}

func (st *sessionStore) len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.slots)
}
