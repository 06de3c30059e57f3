package schedule

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"telegram-itmo-schedule/internal/domain/model"
)

// Candidate field names the portal API has been seen using. The payload shape
// is not documented, so extraction probes several spellings per field.
var (
	startKeys   = []string{"start", "start_time", "time_start", "begin_time"}
	endKeys     = []string{"end", "end_time", "time_end", "finish_time"}
	timeKeys    = []string{"time", "lesson_time"}
	subjectKeys = []string{"subject", "name", "title", "lesson_name", "discipline"}
	roomKeys    = []string{"room", "audience", "auditorium", "classroom", "room_number"}
	addressKeys = []string{"address", "location", "building", "address_name"}
	teacherKeys = []string{"teacher", "instructor", "lecturer", "teacher_name"}

	// Containers a day's lessons may be nested under.
	listKeys = []string{"schedule", "classes", "lessons", "items"}
)

// classesFromJSON tries to interpret body as the portal's JSON answer: either
// a bare array of lesson objects or an object wrapping such an array. The
// second return is false when the body is not JSON at all, which sends the
// caller to the HTML fallback.
func classesFromJSON(body []byte) ([]model.Class, bool) {
	var anyDoc interface{}
	if err := json.Unmarshal(body, &anyDoc); err != nil {
		return nil, false
	}
	classes := make([]model.Class, 0, 8)
	switch doc := anyDoc.(type) {
	case []interface{}:
		for _, item := range doc {
			if c, ok := classFromItem(item); ok {
				classes = append(classes, c)
			}
		}
	case map[string]interface{}:
		for _, key := range listKeys {
			raw, ok := doc[key]
			if !ok {
				continue
			}
			items, ok := raw.([]interface{})
			if !ok {
				items = []interface{}{raw}
			}
			for _, item := range items {
				if c, ok := classFromItem(item); ok {
					classes = append(classes, c)
				}
			}
		}
	default:
		return nil, false
	}
	return classes, true
}

func classFromItem(item interface{}) (model.Class, bool) {
	obj, ok := item.(map[string]interface{})
	if !ok {
		return model.Class{}, false
	}

	var c model.Class
	c.Subject = pickString(obj, subjectKeys)
	c.Start = pickString(obj, startKeys)
	c.End = pickString(obj, endKeys)
	if c.Start == "" || c.End == "" {
		if start, end, ok := splitTimeRange(pickString(obj, timeKeys)); ok {
			c.Start, c.End = start, end
		}
	}
	c.Room = pickString(obj, roomKeys)
	c.Address = pickString(obj, addressKeys)
	c.Teacher = pickString(obj, teacherKeys)

	if c.Subject == "" && c.Start == "" {
		return model.Class{}, false
	}
	fillDefaults(&c)
	return c, true
}

// classesFromHTML scrapes lesson rows out of the schedule page. The page
// structure has shifted over the years, so the extraction looks for anything
// carrying schedule-ish class names rather than one fixed layout.
func classesFromHTML(r io.Reader) ([]model.Class, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse schedule html: %w", err)
	}

	rows := doc.Find("table[class*=schedule] tr, div[class*=schedule] [class*=lesson], div[class*=timetable] [class*=item]")
	if rows.Length() == 0 {
		rows = doc.Find("[class*=lesson], [class*=pair], tr[class*=class]")
	}

	classes := make([]model.Class, 0, 8)
	rows.Each(func(_ int, row *goquery.Selection) {
		if c, ok := classFromRow(row); ok {
			classes = append(classes, c)
		}
	})
	return classes, nil
}

func classFromRow(row *goquery.Selection) (model.Class, bool) {
	var c model.Class
	timeText := firstText(row, "[class*=time], [class*=hour]")
	if start, end, ok := splitTimeRange(timeText); ok {
		c.Start, c.End = start, end
	}
	c.Subject = firstText(row, "[class*=subject], [class*=name], [class*=title]")
	if c.Subject == "" {
		// Fall back to the first non-empty text line of the row.
		for _, line := range strings.Split(row.Text(), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				c.Subject = line
				break
			}
		}
	}
	c.Room = firstText(row, "[class*=room], [class*=audience], [class*=auditorium]")
	c.Address = firstText(row, "[class*=address], [class*=location], [class*=building]")
	c.Teacher = firstText(row, "[class*=teacher], [class*=instructor], [class*=lecturer]")

	if c.Subject == "" && c.Start == "" {
		return model.Class{}, false
	}
	fillDefaults(&c)
	return c, true
}

func fillDefaults(c *model.Class) {
	if c.Subject == "" {
		c.Subject = model.DefaultSubject
	}
	if c.Room == "" {
		c.Room = model.DefaultRoom
	}
	if c.Address == "" {
		c.Address = model.DefaultAddress
	}
}

// splitTimeRange breaks "10:00-11:30" (hyphen, en dash or em dash) into its
// two clock strings.
func splitTimeRange(s string) (string, string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", "", false
	}
	for _, sep := range []string{"-", "–", "—"} {
		if parts := strings.SplitN(s, sep, 2); len(parts) == 2 {
			start := strings.TrimSpace(parts[0])
			end := strings.TrimSpace(parts[1])
			if start != "" && end != "" {
				return start, end, true
			}
		}
	}
	return "", "", false
}

func pickString(obj map[string]interface{}, keys []string) string {
	for _, k := range keys {
		v, ok := obj[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				return s
			}
		case float64:
			return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", t), "0"), ".")
		}
	}
	return ""
}

func firstText(sel *goquery.Selection, selector string) string {
	return strings.TrimSpace(sel.Find(selector).First().Text())
}
