package options

import (
	"time"

	"github.com/spf13/cobra"

	"tableflip.dev/studyplan/pkg/datekey"
)

// OnOptions selects the day a command works on.
type OnOptions struct {
	OnString string
}

func AddOnArgs(cmd *cobra.Command, o *OnOptions) {
	cmd.Flags().StringVar(&o.OnString, "on", "",
		`Specify a date, example: --on="2025-02-28" or --on="2/28". Defaults to today.`)
}

// GetOn returns the selected day, or today in loc when none was given.
func (o *OnOptions) GetOn(loc *time.Location) (datekey.Key, error) {
	if o.OnString == "" {
		return datekey.Today(loc), nil
	}
	return datekey.ParseLoose(o.OnString, time.Now().In(loc))
}
