// Package printers renders planner state for the terminal.
package printers

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/termenv"

	"tableflip.dev/studyplan/pkg/planner"
)

const idWidth = 8

var spacing = strings.Repeat(" ", idWidth+2)

// PrettyPrint writes human readable output to Out.
type PrettyPrint struct {
	Out    io.Writer
	ShowID bool
	// Width is the wrap width of free text. Zero means 80.
	Width int

	term *termenv.Output
}

// New returns a PrettyPrint writing to w. Colour is turned off when w is not
// a terminal.
func New(w io.Writer, showID bool) *PrettyPrint {
	if f, ok := w.(*os.File); ok {
		tty := isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
		if !tty {
			color.NoColor = true
		}
	} else {
		color.NoColor = true
	}
	return &PrettyPrint{Out: w, ShowID: showID}
}

func (pp *PrettyPrint) width() int {
	if pp.Width <= 0 {
		return 80
	}
	return pp.Width
}

func (pp *PrettyPrint) NewLine() {
	_, _ = fmt.Fprintln(pp.Out)
}

func (pp *PrettyPrint) Title(title string) {
	t := color.New(color.Bold, color.Underline)
	if pp.ShowID {
		_, _ = t.Fprint(pp.Out, spacing)
	}
	_, _ = t.Fprintln(pp.Out, title)
}

func (pp *PrettyPrint) TitleWithCount(title string, count int, noun string) {
	t := color.New(color.Bold, color.Underline)
	c := color.New(color.Faint)

	if pp.ShowID {
		_, _ = t.Fprint(pp.Out, spacing)
	}
	_, _ = t.Fprint(pp.Out, title)
	_, _ = c.Fprintf(pp.Out, " - %d %s", count, noun)
	if count != 1 {
		_, _ = c.Fprint(pp.Out, "s")
	}
	_, _ = fmt.Fprintln(pp.Out)
}

func (pp *PrettyPrint) none() {
	f := color.New(color.Faint, color.Italic)
	if pp.ShowID {
		_, _ = f.Fprint(pp.Out, spacing)
	}
	_, _ = f.Fprint(pp.Out, " none\n\n")
}

func (pp *PrettyPrint) id(id string) {
	if !pp.ShowID {
		return
	}
	y := color.New(color.FgHiYellow, color.Italic, color.Faint)
	short := id
	if len(short) > idWidth {
		short = short[:idWidth]
	}
	_, _ = y.Fprint(pp.Out, short+strings.Repeat(" ", len(spacing)-len(short)))
}

// Tasks lists tasks as shown on a day.
func (pp *PrettyPrint) Tasks(st planner.State, tasks []planner.TaskView) {
	if len(tasks) == 0 {
		pp.none()
		return
	}
	done := color.New(color.Faint, color.CrossedOut)
	open := color.New()
	for _, t := range tasks {
		pp.id(t.ID)
		mark, p := "[ ]", open
		if t.Completed {
			mark, p = "[x]", done
		}
		_, _ = fmt.Fprintf(pp.Out, "%s %s", pp.swatch(st, t.Subject), mark)
		_, _ = p.Fprintf(pp.Out, " %s", t.Text)
		pp.labels(t.Subject, t.Recurrence.String())
	}
	pp.NewLine()
}

// Commitments lists commitments as shown on a day, in time order.
func (pp *PrettyPrint) Commitments(st planner.State, cs []planner.CommitmentView) {
	if len(cs) == 0 {
		pp.none()
		return
	}
	at := color.New(color.Bold)
	for _, c := range cs {
		pp.id(c.ID)
		_, _ = fmt.Fprintf(pp.Out, "%s ", pp.swatch(st, c.Subject))
		_, _ = at.Fprint(pp.Out, c.Time)
		_, _ = fmt.Fprintf(pp.Out, " %s", c.Text)
		pp.labels(c.Subject, c.Recurrence.String())
	}
	pp.NewLine()
}

func (pp *PrettyPrint) labels(subject, rule string) {
	f := color.New(color.Faint)
	var parts []string
	if subject != "" {
		parts = append(parts, subject)
	}
	if rule != "" && rule != "none" {
		parts = append(parts, rule)
	}
	if len(parts) > 0 {
		_, _ = f.Fprintf(pp.Out, "  (%s)", strings.Join(parts, ", "))
	}
	_, _ = fmt.Fprintln(pp.Out)
}

// Notes prints free text wrapped to the print width.
func (pp *PrettyPrint) Notes(title, text string) {
	pp.Title(title)
	text = strings.TrimSpace(text)
	if text == "" {
		pp.none()
		return
	}
	pp.wrapped(text)
	pp.NewLine()
}

func (pp *PrettyPrint) wrapped(text string) {
	w := wordwrap.String(text, pp.width()-2)
	_, _ = fmt.Fprintln(pp.Out, indent.String(w, 2))
}

// swatch is a coloured block in the subject colour, or a blank cell.
func (pp *PrettyPrint) swatch(st planner.State, subject string) string {
	sub, ok := st.Subject(subject)
	if !ok || color.NoColor {
		return " "
	}
	if pp.term == nil {
		pp.term = termenv.NewOutput(pp.Out)
	}
	return pp.term.String("■").Foreground(pp.term.Color(sub.Color)).String()
}
