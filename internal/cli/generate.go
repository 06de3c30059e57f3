package cli

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"telegram-itmo-schedule/internal/domain/model"

	"github.com/spf13/cobra"
)

var (
	flagGenInput  string
	flagGenOutput string
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Convert a plain-text timetable dump into a SCHEDULE_JSON payload",
		Long: `Parses the hand-maintained timetable dump and writes the date-keyed JSON
payload the bot's static source consumes.

The dump format: a line holding just a date ("9.02") opens a day, the word
"выходной" anywhere in the day marks it free, a time range line
("09:50-11:20") opens a class, and the lines after it are the subject,
teacher, room and address in that order. A missing room or address marks the
class as online.`,
		RunE: runGenerate,
	}

	cmd.Flags().StringVarP(&flagGenInput, "input", "i", "", "timetable dump to parse (required)")
	cmd.Flags().StringVarP(&flagGenOutput, "output", "o", "schedule.json", "output JSON file")
	cmd.MarkFlagRequired("input")

	return cmd
}

func runGenerate(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(flagGenInput)
	if err != nil {
		return fmt.Errorf("reading timetable: %w", err)
	}

	sched, err := parseTimetable(data)
	if err != nil {
		return fmt.Errorf("parsing timetable: %w", err)
	}

	out, err := marshalOrdered(sched)
	if err != nil {
		return fmt.Errorf("encoding schedule: %w", err)
	}
	if err := os.WriteFile(flagGenOutput, out, 0o644); err != nil {
		return fmt.Errorf("writing schedule: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d days to %s\n", sched.Days(), flagGenOutput)
	return nil
}

var (
	dateLineRe = regexp.MustCompile(`^\d{1,2}\.\d{2}$`)
	timeLineRe = regexp.MustCompile(`^(\d{1,2}:\d{2})-(\d{1,2}:\d{2})$`)
)

const dayOffMarker = "выходной"

// parseTimetable converts the plain-text dump into the same date-keyed
// structure the static source loads. Lines before the first date header are
// ignored, as is anything beyond the four known fields of a class.
func parseTimetable(data []byte) (model.Schedule, error) {
	sched := make(model.Schedule)

	var (
		curDate string
		dayOff  bool
		classes []model.Class
		pending *model.Class
		fields  int
	)

	flushClass := func() {
		if pending == nil {
			return
		}
		if fields > 0 {
			c := *pending
			c.Room = strings.TrimSpace(strings.TrimPrefix(c.Room, "ауд."))
			if c.Room == "" {
				c.Room = model.OnlineRoom
			}
			if c.Address == "" {
				c.Address = model.OnlineRoom
			}
			classes = append(classes, c)
		}
		pending = nil
		fields = 0
	}

	flushDay := func() {
		flushClass()
		if curDate == "" {
			return
		}
		if dayOff {
			sched[curDate] = []model.Class{}
		} else {
			sched[curDate] = classes
		}
		curDate = ""
		dayOff = false
		classes = nil
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if dateLineRe.MatchString(line) {
			flushDay()
			curDate = line
			classes = []model.Class{}
			continue
		}
		if curDate == "" {
			continue
		}
		if strings.Contains(strings.ToLower(line), dayOffMarker) {
			dayOff = true
			continue
		}
		if m := timeLineRe.FindStringSubmatch(line); m != nil {
			flushClass()
			pending = &model.Class{Start: m[1], End: m[2]}
			continue
		}
		if pending == nil {
			continue
		}
		switch fields {
		case 0:
			pending.Subject = line
		case 1:
			pending.Teacher = line
		case 2:
			pending.Room = line
		case 3:
			pending.Address = line
		}
		fields++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flushDay()

	if len(sched) == 0 {
		return nil, fmt.Errorf("no day headers found, expected lines like \"9.02\"")
	}
	return sched, nil
}

// marshalOrdered encodes the schedule with day keys in calendar order.
// encoding/json would sort the map keys lexically, putting "10.02" before
// "9.02".
func marshalOrdered(s model.Schedule) ([]byte, error) {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return dayKeyLess(keys[i], keys[j]) })

	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, k := range keys {
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.MarshalIndent(s[k], "  ", "  ")
		if err != nil {
			return nil, err
		}
		buf.WriteString("  ")
		buf.Write(kb)
		buf.WriteString(": ")
		buf.Write(vb)
		if i < len(keys)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// dayKeyLess orders "D.MM" keys by month, then day. Keys that do not parse
// sort last, lexically.
func dayKeyLess(a, b string) bool {
	ad, am, aok := splitDayKey(a)
	bd, bm, bok := splitDayKey(b)
	if !aok || !bok {
		if aok != bok {
			return aok
		}
		return a < b
	}
	if am != bm {
		return am < bm
	}
	return ad < bd
}

func splitDayKey(key string) (day, month int, ok bool) {
	parts := strings.SplitN(key, ".", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	d, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return d, m, true
}
