package printers

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"tableflip.dev/studyplan/pkg/app"
	"tableflip.dev/studyplan/pkg/datekey"
	"tableflip.dev/studyplan/pkg/insights"
	"tableflip.dev/studyplan/pkg/planner"
	"tableflip.dev/studyplan/pkg/timeutil"
)

const width = len("11 12 13 14 15 16 17") // an example week

// Month prints the month containing day as a grid. Days with study minutes are
// bold, days meeting the goal are green and today is underlined.
func (pp *PrettyPrint) Month(st planner.State, day, today datekey.Key) {
	first := day.StartOfMonth()

	tf := color.New(color.FgWhite, color.Italic)
	m := first.Time().Format("January 2006")
	mid := (width - len(m)) / 2
	if mid < 0 {
		mid = 0
	}
	_, _ = tf.Fprintf(pp.Out, "%s%s\n", strings.Repeat(" ", mid), m)
	_, _ = color.New(color.Faint).Fprintln(pp.Out, "Su Mo Tu We Th Fr Sa")

	// Pad out the start of the month.
	for i := time.Sunday; i < first.Weekday(); i++ {
		_, _ = fmt.Fprint(pp.Out, "   ")
	}

	l1 := color.New(color.Faint, color.FgWhite)
	l2 := color.New(color.Bold, color.FgHiWhite)
	l3 := color.New(color.Bold, color.FgGreen)

	for k := first; k.SameMonth(first); k = k.AddDays(1) {
		minutes := st.Day(k).StudyMinutes
		p := l1
		switch {
		case st.GlobalDailyGoal > 0 && minutes >= st.GlobalDailyGoal:
			p = l3
		case minutes > 0:
			p = l2
		}
		if k == today {
			p = color.New(color.Underline).Add(attrsOf(minutes, st.GlobalDailyGoal)...)
		}
		_, _ = p.Fprintf(pp.Out, "%2d", k.Time().Day())
		_, _ = fmt.Fprint(pp.Out, " ")
		if k.Weekday() == time.Saturday {
			_, _ = fmt.Fprintln(pp.Out)
		}
	}
	_, _ = fmt.Fprint(pp.Out, "\n\n")
}

func attrsOf(minutes, goal int) []color.Attribute {
	switch {
	case goal > 0 && minutes >= goal:
		return []color.Attribute{color.Bold, color.FgGreen}
	case minutes > 0:
		return []color.Attribute{color.Bold, color.FgHiWhite}
	}
	return []color.Attribute{color.FgWhite}
}

// MonthLong prints one line per day of the month with its minutes and the
// number of effective tasks and commitments.
func (pp *PrettyPrint) MonthLong(st planner.State, day, today datekey.Key) {
	first := day.StartOfMonth()
	p := color.New()
	b := color.New(color.Bold)
	s := color.New(color.Underline)
	f := color.New(color.Faint)

	pp.Title(first.Time().Format("January 2006"))
	for k := first; k.SameMonth(first); k = k.AddDays(1) {
		printer := p
		if k.Weekday() == time.Sunday {
			printer = s
		}
		if k == today {
			printer = b
		}
		_, _ = printer.Fprintf(pp.Out, "%2d %s", k.Time().Day(), k.Weekday().String()[0:2])

		minutes := st.Day(k).StudyMinutes
		tasks := len(st.EffectiveTasks(k))
		commits := len(st.EffectiveCommitments(k))
		if minutes == 0 && tasks == 0 && commits == 0 {
			_, _ = fmt.Fprintln(pp.Out)
			continue
		}
		_, _ = fmt.Fprintf(pp.Out, "  %4d min", minutes)
		_, _ = f.Fprintf(pp.Out, "  %d tasks  %d commitments\n", tasks, commits)
	}
	pp.NewLine()
}

// Overview prints a day with its goal, totals and insights.
func (pp *PrettyPrint) Overview(st planner.State, ov app.Overview) {
	pp.Title(ov.Day.Time().Format("Monday, 2 January 2006"))
	pp.Goal(ov.Goal)
	pp.NewLine()

	pp.TitleWithCount("Commitments", len(ov.Commitments), "commitment")
	pp.Commitments(st, ov.Commitments)

	pp.TitleWithCount("Tasks", len(ov.Tasks), "task")
	pp.Tasks(st, ov.Tasks)

	f := color.New(color.Faint)
	_, _ = f.Fprintf(pp.Out, "week %s · month %s · year %s · streak %d days\n\n",
		timeutil.FormatMinutes(ov.Totals.Week), timeutil.FormatMinutes(ov.Totals.Month), timeutil.FormatMinutes(ov.Totals.Year), ov.Streak)

	if len(ov.Insights) > 0 {
		pp.Insights(ov.Insights)
	}
}

// Goal prints a progress bar of minutes against the daily goal.
func (pp *PrettyPrint) Goal(g insights.Goal) {
	const barWidth = 30
	filled := 0
	if g.Goal > 0 {
		filled = g.Minutes * barWidth / g.Goal
	}
	if filled > barWidth {
		filled = barWidth
	}
	c := color.New(color.FgYellow)
	if g.Met {
		c = color.New(color.FgGreen)
	}
	_, _ = c.Fprint(pp.Out, strings.Repeat("█", filled))
	_, _ = color.New(color.Faint).Fprint(pp.Out, strings.Repeat("░", barWidth-filled))
	_, _ = fmt.Fprintf(pp.Out, " %s / %s (%.0f%%)\n", timeutil.FormatMinutes(g.Minutes), timeutil.FormatMinutes(g.Goal), g.Percent)
}

// Insights prints insight messages coloured by kind.
func (pp *PrettyPrint) Insights(list []insights.Insight) {
	pp.Title("Insights")
	if len(list) == 0 {
		pp.none()
		return
	}
	for _, in := range list {
		c := color.New(color.FgCyan)
		switch in.Kind {
		case insights.KindPositive:
			c = color.New(color.FgGreen)
		case insights.KindWarning:
			c = color.New(color.FgYellow)
		case insights.KindAlert:
			c = color.New(color.FgRed)
		}
		_, _ = c.Fprintf(pp.Out, "%s: ", in.Title)
		_, _ = fmt.Fprintln(pp.Out, in.Message)
	}
	pp.NewLine()
}
