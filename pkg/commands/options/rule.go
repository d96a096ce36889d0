package options

import (
	"errors"

	"github.com/spf13/cobra"

	"tableflip.dev/studyplan/pkg/datekey"
	"tableflip.dev/studyplan/pkg/recurrence"
)

// RuleOptions picks the recurrence of a new task or commitment.
type RuleOptions struct {
	Daily   bool
	Weekly  bool
	Weekday string
	Subject string
}

func AddRuleArgs(cmd *cobra.Command, o *RuleOptions) {
	cmd.Flags().BoolVar(&o.Daily, "daily", false,
		"Repeat on every remaining day of the month.")
	cmd.Flags().BoolVar(&o.Weekly, "weekly", false,
		"Repeat every week on the weekday of the chosen day.")
	cmd.Flags().StringVar(&o.Weekday, "weekday", "",
		`Weekday of a weekly item, example: --weekday=MO or --weekday=monday.`)
	cmd.Flags().StringVarP(&o.Subject, "subject", "s", "",
		"Subject of the item.")
}

// Rule returns the selected recurrence of an item added on day. A weekly
// item without --weekday repeats on day's weekday.
func (o *RuleOptions) Rule(day datekey.Key) (recurrence.Rule, error) {
	weekly := o.Weekly || o.Weekday != ""
	if o.Daily && weekly {
		return recurrence.None(), errors.New("--daily and --weekly are exclusive")
	}
	switch {
	case o.Daily:
		return recurrence.Daily(), nil
	case o.Weekday != "":
		day, err := recurrence.ParseWeekday(o.Weekday)
		if err != nil {
			return recurrence.None(), err
		}
		return recurrence.Weekly(day), nil
	case weekly:
		return recurrence.Weekly(day.Weekday()), nil
	}
	return recurrence.None(), nil
}
