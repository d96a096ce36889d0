package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"tableflip.dev/studyplan/pkg/app"
	"tableflip.dev/studyplan/pkg/commands/options"
	"tableflip.dev/studyplan/pkg/insights"
	"tableflip.dev/studyplan/pkg/timeutil"
)

type insightsView struct {
	Totals        insights.Totals    `json:"totals"`
	CurrentStreak int                `json:"currentStreak"`
	LongestStreak int                `json:"longestStreak"`
	Insights      []insights.Insight `json:"insights"`
}

func addInsights(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Show totals, streaks, and trend and inactivity alerts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return session(cmd, func(_ context.Context, svc *app.Service) error {
				st, now := svc.State(), svc.Now()
				v := insightsView{
					Totals:        insights.ComputeTotals(st, now),
					CurrentStreak: insights.CurrentStreak(st, svc.Today()),
					LongestStreak: insights.LongestStreak(st),
					Insights:      insights.Collect(st, now),
				}
				if ok, err := output.Print(v); ok {
					return err
				}
				pp := printer(nil)
				pp.Title("Study time")
				fmt.Printf("  this week   %s\n", timeutil.FormatMinutes(v.Totals.Week))
				fmt.Printf("  this month  %s\n", timeutil.FormatMinutes(v.Totals.Month))
				fmt.Printf("  this year   %s\n", timeutil.FormatMinutes(v.Totals.Year))
				fmt.Printf("  streak      %d days (longest %d)\n\n", v.CurrentStreak, v.LongestStreak)
				pp.Insights(v.Insights)
				return nil
			})
		},
	}

	options.AddOutputArg(cmd, output)
	topLevel.AddCommand(cmd)
}
