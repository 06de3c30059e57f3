package model

import (
	"sort"
	"time"
)

// windowThreshold is the minimum free gap between two classes that gets
// surfaced to the student as a window.
const windowThreshold = 30 * time.Minute

// Entry is one rendered line item of a day: either a class or a free window
// between classes.
type Entry struct {
	IsWindow bool
	Subject  string
	Start    string
	End      string
	Room     string
	Address  string
	Teacher  string
	Minutes  int
}

// HasRoom reports whether the entry carries a real room, not the upstream
// placeholder.
func (e Entry) HasRoom() bool { return e.Room != "" && e.Room != DefaultRoom }

// HasAddress reports whether the entry carries a real address.
func (e Entry) HasAddress() bool { return e.Address != "" && e.Address != DefaultAddress }

// DaySchedule is a fully ordered day: classes sorted by start time with
// window entries inserted into the gaps. No entries means a free day.
type DaySchedule struct {
	Date    time.Time
	Entries []Entry
}

// Free reports whether the day has nothing scheduled.
func (d DaySchedule) Free() bool { return len(d.Entries) == 0 }

// WeekSchedule holds Monday through Sunday of one week.
type WeekSchedule struct {
	Monday time.Time
	Days   [7]DaySchedule
}

// BuildDay orders the classes of a date and inserts window entries for gaps
// longer than 30 minutes. Classes with a missing or unparsable start or end
// time are dropped.
func BuildDay(date time.Time, classes []Class) DaySchedule {
	type timed struct {
		cls   Class
		start time.Time
		end   time.Time
	}
	valid := make([]timed, 0, len(classes))
	for _, c := range classes {
		if c.Start == "" || c.End == "" {
			continue
		}
		start, err := ParseClock(c.Start)
		if err != nil {
			continue
		}
		end, err := ParseClock(c.End)
		if err != nil {
			continue
		}
		valid = append(valid, timed{cls: c, start: start, end: end})
	}
	sort.SliceStable(valid, func(i, j int) bool { return valid[i].start.Before(valid[j].start) })

	day := DaySchedule{Date: date}
	for i, t := range valid {
		if i > 0 {
			gap := t.start.Sub(valid[i-1].end)
			if gap > windowThreshold {
				day.Entries = append(day.Entries, Entry{
					IsWindow: true,
					Start:    valid[i-1].cls.End,
					End:      t.cls.Start,
					Minutes:  int(gap.Minutes()),
				})
			}
		}
		c := t.cls
		entry := Entry{
			Subject: c.Subject,
			Start:   c.Start,
			End:     c.End,
			Room:    c.Room,
			Address: c.Address,
			Teacher: c.Teacher,
		}
		if entry.Subject == "" {
			entry.Subject = DefaultSubject
		}
		if c.Online() {
			entry.Room = OnlineRoom
			entry.Address = ""
		}
		day.Entries = append(day.Entries, entry)
	}
	return day
}

// ParseClock parses an HH:MM wall-clock string. Single-digit hours ("9:00")
// are accepted, matching the hand-written timetables in circulation.
func ParseClock(s string) (time.Time, error) {
	return time.Parse("15:04", s)
}
