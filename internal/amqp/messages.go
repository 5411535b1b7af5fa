package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventDayUpdated     EventType = "day.updated"
	EventWeekRegistered EventType = "week.registered"
	EventGoalCredited   EventType = "goal.credited"
)

// Event is a lightweight change notification. Consumers reload whatever
// state they need from the store.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Date      string    `json:"date,omitempty"`
	WeekKey   string    `json:"weekKey,omitempty"`
	Amount    int64     `json:"amount,omitempty"`
	Source    string    `json:"source,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func newEvent(t EventType) *Event {
	return &Event{ID: uuid.NewString(), Type: t, Timestamp: time.Now().UTC()}
}

// NewDayUpdated signals that the record for date changed.
func NewDayUpdated(date string) *Event {
	e := newEvent(EventDayUpdated)
	e.Date = date
	return e
}

// NewWeekRegistered signals that a week was credited to the goal.
func NewWeekRegistered(weekKey string, amount int64) *Event {
	e := newEvent(EventWeekRegistered)
	e.WeekKey = weekKey
	e.Amount = amount
	return e
}

// NewGoalCredited signals a goal credit from source (a booking id or "manual").
func NewGoalCredited(amount int64, source string) *Event {
	e := newEvent(EventGoalCredited)
	e.Amount = amount
	e.Source = source
	return e
}

// ToJSON converts the event to JSON bytes
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON decodes an event and rejects unknown types.
func EventFromJSON(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	switch e.Type {
	case EventDayUpdated, EventWeekRegistered, EventGoalCredited:
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	return &e, nil
}
