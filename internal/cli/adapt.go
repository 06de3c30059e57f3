package cli

import (
	"fmt"
	"os"

	"telegram-itmo-schedule/internal/domain/model"

	"github.com/spf13/cobra"
)

var (
	flagAdaptInput  string
	flagAdaptOutput string
)

func newAdaptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "adapt",
		Short: "Normalize an existing SCHEDULE_JSON payload",
		Long: `Rewrites a date-keyed schedule payload in place: placeholder room and
address values are dropped, classes with no location at all are marked
online, and days are sorted in calendar order.`,
		RunE: runAdapt,
	}

	cmd.Flags().StringVarP(&flagAdaptInput, "input", "i", "", "payload to normalize (required)")
	cmd.Flags().StringVarP(&flagAdaptOutput, "output", "o", "", "output file (default: rewrite the input)")
	cmd.MarkFlagRequired("input")

	return cmd
}

func runAdapt(cmd *cobra.Command, args []string) error {
	output := flagAdaptOutput
	if output == "" {
		output = flagAdaptInput
	}

	data, err := os.ReadFile(flagAdaptInput)
	if err != nil {
		return fmt.Errorf("reading payload: %w", err)
	}
	sched, err := model.ParseSchedule(data)
	if err != nil {
		return err
	}

	adapted, changed := adaptSchedule(sched)

	out, err := marshalOrdered(adapted)
	if err != nil {
		return fmt.Errorf("encoding schedule: %w", err)
	}
	if err := os.WriteFile(output, out, 0o644); err != nil {
		return fmt.Errorf("writing schedule: %w", err)
	}

	if changed == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No classes needed changes, wrote %s\n", output)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Normalized %d classes, wrote %s\n", changed, output)
	}
	return nil
}

// adaptSchedule applies the same location normalization the bot applies at
// render time, so a payload prepared with schedtool and a raw one display
// identically: placeholder values are cleared and a class left with no room
// and no address is marked online.
func adaptSchedule(s model.Schedule) (model.Schedule, int) {
	changed := 0
	out := make(model.Schedule, len(s))
	for key, classes := range s {
		adapted := make([]model.Class, len(classes))
		for i, c := range classes {
			orig := c
			if c.Room == model.DefaultRoom {
				c.Room = ""
			}
			if c.Address == model.DefaultAddress {
				c.Address = ""
			}
			if c.Room == "" && c.Address == "" {
				c.Room = model.OnlineRoom
			}
			if c != orig {
				changed++
			}
			adapted[i] = c
		}
		out[key] = adapted
	}
	return out, changed
}
