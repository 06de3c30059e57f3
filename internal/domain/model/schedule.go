package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Placeholder strings the upstream timetable uses for lessons without a
// physical location. The renderer suppresses them instead of showing them.
const (
	DefaultSubject = "Предмет не указан"
	DefaultRoom    = "Аудитория не указана"
	DefaultAddress = "Адрес не указан"
	OnlineRoom     = "онлайн"
)

// Class is a single scheduled lesson. Start and End are wall-clock strings in
// HH:MM form, matching both the SCHEDULE_JSON payload and the portal API.
type Class struct {
	Subject string `json:"subject"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Room    string `json:"room,omitempty"`
	Address string `json:"address,omitempty"`
	Teacher string `json:"teacher,omitempty"`
}

// Online reports whether the class carries no physical location at all, in
// which case it is rendered as an online lesson.
func (c Class) Online() bool {
	roomEmpty := c.Room == "" || c.Room == DefaultRoom
	addrEmpty := c.Address == "" || c.Address == DefaultAddress
	return roomEmpty && addrEmpty
}

// Schedule maps day keys to the classes of that day.
type Schedule map[string][]Class

// DayKey renders the canonical day key for a date: day unpadded, month
// zero-padded ("9.02", "15.11"). Every schedule lookup goes through this.
func DayKey(t time.Time) string {
	return fmt.Sprintf("%d.%02d", t.Day(), int(t.Month()))
}

// ForDate returns the classes of the day containing t. A date with no entry
// is an ordinary free day, not an error.
func (s Schedule) ForDate(t time.Time) []Class {
	return s[DayKey(t)]
}

// Days reports how many distinct days the payload covers, free days included.
func (s Schedule) Days() int { return len(s) }

// ParseSchedule decodes a date-keyed JSON timetable payload.
func ParseSchedule(data []byte) (Schedule, error) {
	var s Schedule
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse schedule payload: %w", err)
	}
	return s, nil
}
